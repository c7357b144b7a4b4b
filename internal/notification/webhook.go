package notification

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"vpnspectra/internal/config"
	"vpnspectra/internal/model"
)

const defaultWebhookTimeout = 10 * time.Second

// WebhookNotifier POSTs alert payloads to a configured HTTP endpoint.
type WebhookNotifier struct {
	client *resty.Client
	url    string
}

// NewWebhookNotifier creates a new WebhookNotifier.
func NewWebhookNotifier(cfg config.WebhookConfig) model.Notifier {
	timeout := defaultWebhookTimeout
	if cfg.Timeout != "" {
		if parsed, err := time.ParseDuration(cfg.Timeout); err == nil {
			timeout = parsed
		}
	}
	client := resty.New().SetTimeout(timeout)
	return &WebhookNotifier{client: client, url: cfg.URL}
}

// Send posts the alert as a small JSON document.
func (n *WebhookNotifier) Send(subject, body string) error {
	resp, err := n.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"subject": subject, "body": body}).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	if resp.StatusCode() >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}
	return nil
}
