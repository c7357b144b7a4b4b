// Command termchart plots the recent per-bucket traffic rates as an ASCII
// chart in the terminal. Handy for a quick look over SSH without opening
// the HTML report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"

	"vpnspectra/internal/config"
	"vpnspectra/internal/stats"
	"vpnspectra/internal/store"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	points := flag.Int("points", 48, "Number of most recent buckets to plot.")
	metric := flag.String("metric", "total", "Series to plot: total, down or up.")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	snapStore, err := store.New(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to open snapshot store: %v", err)
	}
	defer snapStore.Close()

	history, err := snapStore.LoadAllAndPrune(context.Background(), cfg.Storage.MonthsToKeep)
	if err != nil {
		log.Fatalf("Failed to load snapshot history: %v", err)
	}
	if len(history) == 0 {
		fmt.Println("No snapshots recorded yet.")
		return
	}

	agg := stats.New(stats.Config{
		BucketMinutes:    cfg.Report.BucketMinutes,
		SampleSeconds:    cfg.Report.SampleSeconds,
		MaxBandwidthMbit: cfg.Report.TotalBandwidthMbit,
	})
	aggregated := agg.Aggregate(history)

	buckets := aggregated.Buckets
	if len(buckets) > *points {
		buckets = buckets[len(buckets)-*points:]
	}

	series := make([]float64, 0, len(buckets))
	for _, b := range buckets {
		switch *metric {
		case "down":
			series = append(series, b.Downloaded)
		case "up":
			series = append(series, b.Uploaded)
		case "total":
			series = append(series, b.Total)
		default:
			log.Fatalf("Unknown metric %q, want total, down or up", *metric)
		}
	}
	if len(series) == 0 {
		fmt.Println("No bucket data to plot.")
		return
	}

	caption := fmt.Sprintf("%s rate, Mbit/s (%d min buckets, last %d)",
		*metric, cfg.Report.BucketMinutes, len(series))
	fmt.Println(asciigraph.Plot(series,
		asciigraph.Height(12),
		asciigraph.Caption(caption),
	))

	fmt.Printf("\nActive users: %d\n", len(aggregated.AllUsers))
	fmt.Printf("Last 24h: down %s, up %s\n",
		humanize.IBytes(aggregated.Last24h.Total.Downloaded),
		humanize.IBytes(aggregated.Last24h.Total.Uploaded))
	fmt.Printf("Last 7d:  down %s, up %s\n",
		humanize.IBytes(aggregated.Last7d.Total.Downloaded),
		humanize.IBytes(aggregated.Last7d.Total.Uploaded))
	fmt.Printf("Last 30d: down %s, up %s\n",
		humanize.IBytes(aggregated.Last30d.Total.Downloaded),
		humanize.IBytes(aggregated.Last30d.Total.Uploaded))
}
