// Package alerter evaluates threshold rules against every aggregation pass
// and triggers notifications when rules fire.
package alerter

import (
	"fmt"
	"log"
	"strings"

	"vpnspectra/internal/config"
	"vpnspectra/internal/model"
)

// Alerter holds the configured rules and the notifiers to fan out to.
type Alerter struct {
	rules     []config.AlerterRule
	notifiers []model.Notifier
}

// New creates a new Alerter.
func New(cfg config.AlerterConfig, notifiers []model.Notifier) *Alerter {
	return &Alerter{rules: cfg.Rules, notifiers: notifiers}
}

// Evaluate checks every rule against the stats and sends one notification
// covering all triggered rules. Notification failures are logged, never
// escalated.
func (a *Alerter) Evaluate(stats *model.AggregatedStats) {
	var triggered []string

	for _, rule := range a.rules {
		value, unit, ok := metricValue(stats, rule.Metric)
		if !ok {
			log.Printf("Warning: unknown alert metric %q in rule %q", rule.Metric, rule.Name)
			continue
		}
		if !check(value, rule.Threshold, rule.Operator) {
			continue
		}
		triggered = append(triggered, fmt.Sprintf(
			"Alert: %s\n  Metric: %s\n  Condition: %s %.2f\n  Observed: %.2f %s",
			rule.Name, rule.Metric, rule.Operator, rule.Threshold, value, unit))
	}

	if len(triggered) == 0 {
		return
	}

	subject := fmt.Sprintf("vpnspectra: %d alert(s) triggered", len(triggered))
	body := strings.Join(triggered, "\n\n")
	for _, notifier := range a.notifiers {
		if err := notifier.Send(subject, body); err != nil {
			log.Printf("Failed to send alert notification: %v", err)
		}
	}
}

// metricValue maps a rule metric name onto the aggregated stats.
func metricValue(stats *model.AggregatedStats, metric string) (float64, string, bool) {
	switch metric {
	case "total_bytes_24h":
		return float64(stats.Last24h.Total.Total()), "bytes", true
	case "total_bytes_7d":
		return float64(stats.Last7d.Total.Total()), "bytes", true
	case "total_bytes_30d":
		return float64(stats.Last30d.Total.Total()), "bytes", true
	case "active_clients":
		return float64(len(stats.Last24h.PerUser)), "clients", true
	case "peak_rate_mbps":
		var peak float64
		for _, bucket := range stats.Buckets {
			if bucket.Total > peak {
				peak = bucket.Total
			}
		}
		return peak, "Mbit/s", true
	default:
		return 0, "", false
	}
}

// check compares a value against a threshold based on an operator.
func check(value, threshold float64, operator string) bool {
	switch operator {
	case ">":
		return value > threshold
	case "<":
		return value < threshold
	case "=":
		return value == threshold
	case ">=":
		return value >= threshold
	case "<=":
		return value <= threshold
	default:
		log.Printf("Warning: unknown operator %q in alerter rule", operator)
		return false
	}
}
