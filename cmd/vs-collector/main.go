package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"vpnspectra/internal/alerter"
	"vpnspectra/internal/archive"
	"vpnspectra/internal/config"
	"vpnspectra/internal/mgmt"
	"vpnspectra/internal/model"
	"vpnspectra/internal/notification"
	"vpnspectra/internal/poller"
	"vpnspectra/internal/publish"
	"vpnspectra/internal/report"
	"vpnspectra/internal/stats"
	"vpnspectra/internal/store"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	flag.Parse()

	// Secrets may live in a local .env next to the binary.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	p, cleanup, err := buildPoller(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer cleanup()

	// One best-effort batch run; the scheduler retries by re-invoking us.
	if err := p.RunCycle(context.Background()); err != nil {
		log.Printf("Poll cycle did not complete: %v", err)
	}
}

// buildPoller assembles the pipeline from the configuration. The returned
// cleanup closes every opened collaborator.
func buildPoller(cfg *config.Config) (*poller.Poller, func(), error) {
	snapStore, err := store.New(cfg.Storage)
	if err != nil {
		return nil, nil, err
	}

	fetcher, err := mgmt.NewFetcher(cfg.Management)
	if err != nil {
		snapStore.Close()
		return nil, nil, err
	}

	renderer, err := report.NewRenderer()
	if err != nil {
		snapStore.Close()
		return nil, nil, err
	}

	deps := poller.Deps{
		Fetcher: fetcher,
		Store:   snapStore,
		Agg: stats.New(stats.Config{
			BucketMinutes:    cfg.Report.BucketMinutes,
			SampleSeconds:    cfg.Report.SampleSeconds,
			MaxBandwidthMbit: cfg.Report.TotalBandwidthMbit,
		}),
		Renderer:        renderer,
		OutputPath:      cfg.Report.OutputPath,
		RetentionMonths: cfg.Storage.MonthsToKeep,
	}

	if cfg.ClickHouse.Enabled {
		writer, err := archive.NewClickHouseWriter(cfg.ClickHouse)
		if err != nil {
			log.Printf("Warning: archive disabled, could not create ClickHouse writer: %v", err)
		} else {
			deps.Archive = writer
		}
	}

	if cfg.NATS.Enabled {
		publisher, err := publish.NewPublisher(cfg.NATS)
		if err != nil {
			log.Printf("Warning: publishing disabled, could not connect to NATS: %v", err)
		} else {
			deps.Publisher = publisher
		}
	}

	if cfg.Alerter.Enabled {
		var notifiers []model.Notifier
		if cfg.Alerter.SMTP.Host != "" {
			notifiers = append(notifiers, notification.NewEmailNotifier(cfg.Alerter.SMTP))
		}
		if cfg.Alerter.Webhook.URL != "" {
			notifiers = append(notifiers, notification.NewWebhookNotifier(cfg.Alerter.Webhook))
		}
		if len(notifiers) > 0 {
			deps.Alerter = alerter.New(cfg.Alerter, notifiers)
		} else {
			log.Println("Alerter is enabled in config, but no notifiers are configured. Alerter will not run.")
		}
	}

	cleanup := func() {
		if deps.Publisher != nil {
			deps.Publisher.Close()
		}
		if deps.Archive != nil {
			deps.Archive.Close()
		}
		snapStore.Close()
	}
	return poller.New(deps), cleanup, nil
}
