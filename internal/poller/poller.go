// Package poller runs the batch pipeline: fetch, parse, persist, load and
// prune, aggregate, render, and the optional side channels.
package poller

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"vpnspectra/internal/alerter"
	"vpnspectra/internal/health"
	"vpnspectra/internal/model"
	"vpnspectra/internal/report"
	"vpnspectra/internal/stats"
	"vpnspectra/internal/status"
)

// Deps wires the poller's collaborators. Fetcher, Store, Aggregator and
// Renderer are required; the rest are optional and may be nil.
type Deps struct {
	Fetcher  model.Fetcher
	Store    model.Store
	Agg      *stats.Aggregator
	Renderer *report.Renderer

	Archive   model.ArchiveWriter
	Publisher model.Publisher
	Alerter   *alerter.Alerter

	// OnStats is invoked with the fresh stats after every completed cycle.
	OnStats func(*model.AggregatedStats)

	OutputPath      string
	RetentionMonths int

	// Breaker, when set, gates the fetch so a dead management socket is
	// skipped cheaply in the long-running mode.
	Breaker *gobreaker.CircuitBreaker
}

// Poller executes poll cycles. One cycle is strictly sequential; there is
// no mid-cycle cancellation beyond the context on blocking calls.
type Poller struct {
	deps Deps
	now  func() time.Time
}

// New creates a poller from its dependencies.
func New(deps Deps) *Poller {
	return &Poller{deps: deps, now: time.Now}
}

// NewBreaker builds the circuit breaker used to gate fetches in server
// mode: three consecutive failures open it for one poll interval.
func NewBreaker(interval time.Duration) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "management-fetch",
		Timeout: interval,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("Circuit breaker %q: %s -> %s", name, from, to)
		},
	})
}

// RunCycle runs one full pipeline pass. A failed fetch aborts the cycle
// before any snapshot is written and before the report is regenerated,
// leaving the previous report intact. All later failures are best-effort:
// logged, never escalated to a crash.
func (p *Poller) RunCycle(ctx context.Context) error {
	cycle := uuid.NewString()[:8]
	log.Printf("[%s] Poll cycle started", cycle)

	raw, err := p.fetch(ctx)
	if err != nil {
		log.Printf("[%s] Failed to fetch status, keeping previous report: %v", cycle, err)
		return fmt.Errorf("fetch failed: %w", err)
	}

	capturedAt := p.now().In(model.ReportLocation)
	clients := status.Parse(raw, capturedAt)
	key := capturedAt.Format(model.SnapshotKeyFormat)

	if len(clients) > 0 {
		log.Printf("[%s] Found %d active clients", cycle, len(clients))
		if err := p.deps.Store.Write(ctx, key, clients); err != nil {
			log.Printf("[%s] Failed to persist snapshot %s: %v", cycle, key, err)
		} else {
			log.Printf("[%s] Saved snapshot %s", cycle, key)
		}

		if p.deps.Archive != nil {
			if err := p.deps.Archive.WriteSessions(ctx, key, clients); err != nil {
				log.Printf("[%s] Failed to archive snapshot %s: %v", cycle, key, err)
			}
		}
		if p.deps.Publisher != nil {
			if err := p.deps.Publisher.Publish(key, clients); err != nil {
				log.Printf("[%s] Failed to publish snapshot %s: %v", cycle, key, err)
			}
		}
	} else {
		log.Printf("[%s] No active clients", cycle)
	}

	history, err := p.deps.Store.LoadAllAndPrune(ctx, p.deps.RetentionMonths)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	aggregated := p.deps.Agg.Aggregate(history)

	host, err := health.Collect()
	if err != nil {
		log.Printf("[%s] Host health unavailable: %v", cycle, err)
		host = nil
	}

	if err := p.deps.Renderer.RenderToFile(p.deps.OutputPath, aggregated, host); err != nil {
		log.Printf("[%s] Failed to write report: %v", cycle, err)
	} else {
		log.Printf("[%s] Report written to %s", cycle, p.deps.OutputPath)
	}

	if p.deps.Alerter != nil {
		p.deps.Alerter.Evaluate(aggregated)
	}
	if p.deps.OnStats != nil {
		p.deps.OnStats(aggregated)
	}

	log.Printf("[%s] Poll cycle completed", cycle)
	return nil
}

func (p *Poller) fetch(ctx context.Context) (string, error) {
	if p.deps.Breaker == nil {
		return p.deps.Fetcher.Fetch(ctx)
	}
	raw, err := p.deps.Breaker.Execute(func() (interface{}, error) {
		return p.deps.Fetcher.Fetch(ctx)
	})
	if err != nil {
		return "", err
	}
	return raw.(string), nil
}
