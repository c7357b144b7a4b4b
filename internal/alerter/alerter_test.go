package alerter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vpnspectra/internal/config"
	"vpnspectra/internal/model"
)

type fakeNotifier struct {
	subjects []string
	bodies   []string
}

func (f *fakeNotifier) Send(subject, body string) error {
	f.subjects = append(f.subjects, subject)
	f.bodies = append(f.bodies, body)
	return nil
}

func statsWith(dayTotal uint64, peak float64) *model.AggregatedStats {
	return &model.AggregatedStats{
		Last24h: model.WindowStats{
			PerUser: map[string]*model.TrafficTotals{
				"alice": {Downloaded: dayTotal},
			},
			Total: model.TrafficTotals{Downloaded: dayTotal},
		},
		Buckets:     []model.BucketRate{{Time: time.Now(), Total: peak}},
		GeneratedAt: time.Now(),
	}
}

func TestEvaluateTriggersRule(t *testing.T) {
	notifier := &fakeNotifier{}
	a := New(config.AlerterConfig{
		Rules: []config.AlerterRule{
			{Name: "heavy day", Metric: "total_bytes_24h", Operator: ">", Threshold: 1000},
		},
	}, []model.Notifier{notifier})

	a.Evaluate(statsWith(5000, 1.0))

	require.Len(t, notifier.subjects, 1)
	assert.Contains(t, notifier.bodies[0], "heavy day")
	assert.Contains(t, notifier.bodies[0], "total_bytes_24h")
}

func TestEvaluateQuietWhenBelowThreshold(t *testing.T) {
	notifier := &fakeNotifier{}
	a := New(config.AlerterConfig{
		Rules: []config.AlerterRule{
			{Name: "heavy day", Metric: "total_bytes_24h", Operator: ">", Threshold: 1e12},
		},
	}, []model.Notifier{notifier})

	a.Evaluate(statsWith(5000, 1.0))
	assert.Empty(t, notifier.subjects)
}

func TestEvaluatePeakRate(t *testing.T) {
	notifier := &fakeNotifier{}
	a := New(config.AlerterConfig{
		Rules: []config.AlerterRule{
			{Name: "saturated", Metric: "peak_rate_mbps", Operator: ">=", Threshold: 100},
		},
	}, []model.Notifier{notifier})

	a.Evaluate(statsWith(0, 120.5))
	require.Len(t, notifier.subjects, 1)

	notifier.subjects = nil
	a.Evaluate(statsWith(0, 50))
	assert.Empty(t, notifier.subjects)
}

func TestEvaluateUnknownMetricIgnored(t *testing.T) {
	notifier := &fakeNotifier{}
	a := New(config.AlerterConfig{
		Rules: []config.AlerterRule{
			{Name: "bogus", Metric: "flux_capacitance", Operator: ">", Threshold: 0},
		},
	}, []model.Notifier{notifier})

	a.Evaluate(statsWith(5000, 1.0))
	assert.Empty(t, notifier.subjects)
}

func TestCheckOperators(t *testing.T) {
	assert.True(t, check(2, 1, ">"))
	assert.True(t, check(1, 2, "<"))
	assert.True(t, check(2, 2, "="))
	assert.True(t, check(2, 2, ">="))
	assert.True(t, check(2, 2, "<="))
	assert.False(t, check(2, 2, "!="))
}
