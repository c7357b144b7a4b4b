package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

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
	"vpnspectra/internal/server"
	"vpnspectra/internal/stats"
	"vpnspectra/internal/store"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	flag.Parse()

	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	interval, err := time.ParseDuration(cfg.Poller.Interval)
	if err != nil {
		log.Fatalf("Invalid poll interval: %v", err)
	}

	snapStore, err := store.New(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to open snapshot store: %v", err)
	}
	defer snapStore.Close()

	fetcher, err := mgmt.NewFetcher(cfg.Management)
	if err != nil {
		log.Fatalf("Failed to create fetcher: %v", err)
	}

	renderer, err := report.NewRenderer()
	if err != nil {
		log.Fatalf("Failed to create report renderer: %v", err)
	}

	srv := server.New(cfg.API, cfg.Report.OutputPath)

	deps := poller.Deps{
		Fetcher: fetcher,
		Store:   snapStore,
		Agg: stats.New(stats.Config{
			BucketMinutes:    cfg.Report.BucketMinutes,
			SampleSeconds:    cfg.Report.SampleSeconds,
			MaxBandwidthMbit: cfg.Report.TotalBandwidthMbit,
		}),
		Renderer:        renderer,
		OnStats:         srv.UpdateStats,
		OutputPath:      cfg.Report.OutputPath,
		RetentionMonths: cfg.Storage.MonthsToKeep,
		Breaker:         poller.NewBreaker(interval),
	}

	if cfg.ClickHouse.Enabled {
		writer, err := archive.NewClickHouseWriter(cfg.ClickHouse)
		if err != nil {
			log.Printf("Warning: archive disabled, could not create ClickHouse writer: %v", err)
		} else {
			deps.Archive = writer
			defer writer.Close()
		}
	}

	if cfg.NATS.Enabled {
		publisher, err := publish.NewPublisher(cfg.NATS)
		if err != nil {
			log.Printf("Warning: publishing disabled, could not connect to NATS: %v", err)
		} else {
			deps.Publisher = publisher
			defer publisher.Close()
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

	p := poller.New(deps)

	srv.Start()
	log.Printf("HTTP server listening on %s", cfg.API.ListenAddr)

	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		// First cycle runs immediately so the report exists before the
		// first tick.
		if err := p.RunCycle(ctx); err != nil {
			log.Printf("Poll cycle failed: %v", err)
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := p.RunCycle(ctx); err != nil {
					log.Printf("Poll cycle failed: %v", err)
				}
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutdown signal received...")

	stop()
	<-done

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown: %v", err)
	}
	log.Println("Server exited gracefully.")
}
