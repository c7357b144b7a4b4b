// Package report renders the aggregated stats into the static HTML
// dashboard consumed by a client-side Chart.js script.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"

	"vpnspectra/internal/health"
	"vpnspectra/internal/model"
)

// Renderer turns a finalized AggregatedStats into the report document.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded report template.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// userRow is one row of the per-user traffic table, pre-formatted for
// display. Rates and byte totals are rounded here, at the presentation
// boundary, never inside the aggregator.
type userRow struct {
	Name       string
	Day        string
	DayUp      string
	DayDown    string
	Week       string
	Month      string
	monthTotal uint64
}

type view struct {
	GeneratedAt  string
	MaxBandwidth int
	Labels       template.JS
	Downloaded   template.JS
	Uploaded     template.JS
	Total        template.JS
	Users        []userRow
	Health       *health.HostStatus
}

// Render produces the report document. The host status is optional; a nil
// status omits the server health card.
func (r *Renderer) Render(stats *model.AggregatedStats, host *health.HostStatus) ([]byte, error) {
	v, err := buildView(stats, host)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, v); err != nil {
		return nil, fmt.Errorf("failed to execute report template: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderToFile renders and writes the report to the configured path.
func (r *Renderer) RenderToFile(path string, stats *model.AggregatedStats, host *health.HostStatus) error {
	doc, err := r.Render(stats, host)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, doc, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func buildView(stats *model.AggregatedStats, host *health.HostStatus) (*view, error) {
	labels := make([]string, 0, len(stats.Buckets))
	downloaded := make([]float64, 0, len(stats.Buckets))
	uploaded := make([]float64, 0, len(stats.Buckets))
	total := make([]float64, 0, len(stats.Buckets))
	for _, bucket := range stats.Buckets {
		labels = append(labels, bucket.Time.Format("15:04"))
		downloaded = append(downloaded, round2(bucket.Downloaded))
		uploaded = append(uploaded, round2(bucket.Uploaded))
		total = append(total, round2(bucket.Total))
	}
	if len(labels) == 0 {
		labels = []string{"no data"}
		downloaded, uploaded, total = []float64{0}, []float64{0}, []float64{0}
	}

	v := &view{
		GeneratedAt:  stats.GeneratedAt.Format("2006-01-02 15:04"),
		MaxBandwidth: stats.MaxBandwidthMbit,
		Users:        buildUserRows(stats),
		Health:       host,
	}

	for _, series := range []struct {
		dst *template.JS
		src interface{}
	}{
		{&v.Labels, labels},
		{&v.Downloaded, downloaded},
		{&v.Uploaded, uploaded},
		{&v.Total, total},
	} {
		data, err := json.Marshal(series.src)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal chart series: %w", err)
		}
		*series.dst = template.JS(data)
	}
	return v, nil
}

// buildUserRows formats the per-user table, sorted by 30-day total traffic
// descending. Sorting by traffic is a rendering concern, not an aggregator
// contract.
func buildUserRows(stats *model.AggregatedStats) []userRow {
	rows := make([]userRow, 0, len(stats.AllUsers))
	for _, user := range stats.AllUsers {
		row := userRow{
			Name:    user,
			DayDown: humanize.IBytes(0),
			DayUp:   humanize.IBytes(0),
			Day:     humanize.IBytes(0),
			Week:    humanize.IBytes(0),
			Month:   humanize.IBytes(0),
		}
		if t := stats.Last24h.PerUser[user]; t != nil {
			row.DayDown = humanize.IBytes(t.Downloaded)
			row.DayUp = humanize.IBytes(t.Uploaded)
			row.Day = humanize.IBytes(t.Total())
		}
		if t := stats.Last7d.PerUser[user]; t != nil {
			row.Week = humanize.IBytes(t.Total())
		}
		if t := stats.Last30d.PerUser[user]; t != nil {
			row.Month = humanize.IBytes(t.Total())
			row.monthTotal = t.Total()
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].monthTotal > rows[j].monthTotal })
	return rows
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
