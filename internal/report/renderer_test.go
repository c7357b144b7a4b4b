package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vpnspectra/internal/health"
	"vpnspectra/internal/model"
)

func sampleStats() *model.AggregatedStats {
	bucketTime := time.Date(2025, 8, 20, 11, 0, 0, 0, model.ReportLocation)
	return &model.AggregatedStats{
		AllUsers: []string{"alice", "bob"},
		Last24h: model.WindowStats{
			PerUser: map[string]*model.TrafficTotals{
				"alice": {Downloaded: 1 << 30, Uploaded: 1 << 29},
				"bob":   {Downloaded: 1 << 20, Uploaded: 1 << 20},
			},
			Total: model.TrafficTotals{Downloaded: (1 << 30) + (1 << 20), Uploaded: (1 << 29) + (1 << 20)},
		},
		Last7d:  model.WindowStats{PerUser: map[string]*model.TrafficTotals{}},
		Last30d: model.WindowStats{PerUser: map[string]*model.TrafficTotals{}},
		Buckets: []model.BucketRate{
			{Time: bucketTime, Downloaded: 5.004999, Uploaded: 5.0, Total: 10.004999},
		},
		MaxBandwidthMbit: 150,
		GeneratedAt:      time.Date(2025, 8, 20, 12, 0, 0, 0, model.ReportLocation),
	}
}

func TestRenderContainsUsersAndSeries(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	doc, err := r.Render(sampleStats(), nil)
	require.NoError(t, err)
	html := string(doc)

	assert.Contains(t, html, "alice")
	assert.Contains(t, html, "bob")
	assert.Contains(t, html, "2025-08-20 12:00")
	assert.Contains(t, html, `"11:00"`)
	// Rates are rounded to two decimals at the presentation boundary.
	assert.Contains(t, html, "[5]")
	assert.Contains(t, html, "[10]")
	assert.Contains(t, html, "suggestedMax: 150")
	assert.NotContains(t, html, "Server health")
}

func TestRenderWithHealthCard(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	doc, err := r.Render(sampleStats(), &health.HostStatus{CPUPercent: 12.34, MemUsedPercent: 56.7, DiskPercent: 89.0})
	require.NoError(t, err)

	html := string(doc)
	assert.Contains(t, html, "Server health")
	assert.Contains(t, html, "12.3%")
}

func TestRenderEmptyStats(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	doc, err := r.Render(&model.AggregatedStats{GeneratedAt: time.Now()}, nil)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "no data")
}

func TestRenderToFile(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, r.RenderToFile(path, sampleStats(), nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<!DOCTYPE html>"))
}

func TestUserRowsSortedByMonthTotal(t *testing.T) {
	stats := sampleStats()
	stats.Last30d.PerUser = map[string]*model.TrafficTotals{
		"alice": {Downloaded: 10},
		"bob":   {Downloaded: 1000},
	}

	rows := buildUserRows(stats)
	require.Len(t, rows, 2)
	assert.Equal(t, "bob", rows[0].Name)
}
