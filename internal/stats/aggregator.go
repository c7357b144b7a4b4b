// Package stats folds the retained snapshot history into rolling-window
// totals and a time-bucketed bandwidth series.
package stats

import (
	"log"
	"sort"
	"time"

	"vpnspectra/internal/model"
)

// Rolling window spans. Windows are nested, not mutually exclusive: a
// snapshot inside the 24h window also lands in the 7d and 30d windows.
const (
	spanDay   = 24 * time.Hour
	spanWeek  = 7 * 24 * time.Hour
	spanMonth = 30 * 24 * time.Hour
)

// Config selects the bucket granularity and the assumed sampling interval
// used for rate derivation.
type Config struct {
	BucketMinutes    int
	SampleSeconds    int
	MaxBandwidthMbit int
}

// Aggregator recomputes an AggregatedStats from scratch on every pass.
// It holds no state across passes: identical input yields identical output.
type Aggregator struct {
	bucketSize    time.Duration
	sampleSeconds int
	maxBandwidth  int

	now func() time.Time
}

// New creates an aggregator for the given configuration.
func New(cfg Config) *Aggregator {
	return &Aggregator{
		bucketSize:    time.Duration(cfg.BucketMinutes) * time.Minute,
		sampleSeconds: cfg.SampleSeconds,
		maxBandwidth:  cfg.MaxBandwidthMbit,
		now:           time.Now,
	}
}

// window accumulates per-user byte totals for one rolling span.
type window struct {
	span    time.Duration
	perUser map[string]*model.TrafficTotals
}

func newWindow(span time.Duration) *window {
	return &window{span: span, perUser: make(map[string]*model.TrafficTotals)}
}

func (w *window) add(user string, downloaded, uploaded uint64) {
	totals, ok := w.perUser[user]
	if !ok {
		totals = &model.TrafficTotals{}
		w.perUser[user] = totals
	}
	totals.Downloaded += downloaded
	totals.Uploaded += uploaded
}

// stats sums the per-user totals into the window's aggregate.
func (w *window) stats() model.WindowStats {
	out := model.WindowStats{PerUser: w.perUser}
	for _, totals := range w.perUser {
		out.Total.Downloaded += totals.Downloaded
		out.Total.Uploaded += totals.Uploaded
	}
	return out
}

// bucketSamples collects the instantaneous rates of every snapshot that
// landed in one bucket. The reported bucket rate is their arithmetic mean.
type bucketSamples struct {
	downloaded []float64
	uploaded   []float64
}

// Aggregate folds the full pruned history into one AggregatedStats.
// Snapshots whose key fails to parse are skipped and never abort the pass;
// a fully broken history yields empty collections.
func (a *Aggregator) Aggregate(history map[string]model.Snapshot) *model.AggregatedStats {
	now := a.now().In(model.ReportLocation)

	users := make(map[string]struct{})
	windows := []*window{newWindow(spanDay), newWindow(spanWeek), newWindow(spanMonth)}
	buckets := make(map[time.Time]*bucketSamples)

	for key, snap := range history {
		ts, err := time.ParseInLocation(model.SnapshotKeyFormat, key, model.ReportLocation)
		if err != nil {
			log.Printf("Skipping snapshot with malformed key %q: %v", key, err)
			continue
		}

		var totalDownloaded, totalUploaded uint64
		for user, sess := range snap {
			users[user] = struct{}{}
			totalDownloaded += sess.BytesReceived
			totalUploaded += sess.BytesSent

			for _, w := range windows {
				if ts.After(now.Add(-w.span)) {
					w.add(user, sess.BytesReceived, sess.BytesSent)
				}
			}
		}

		bk := bucketStart(ts, a.bucketSize)
		samples, ok := buckets[bk]
		if !ok {
			samples = &bucketSamples{}
			buckets[bk] = samples
		}
		samples.downloaded = append(samples.downloaded, a.mbps(totalDownloaded))
		samples.uploaded = append(samples.uploaded, a.mbps(totalUploaded))
	}

	out := &model.AggregatedStats{
		AllUsers:         sortedUsers(users),
		Last24h:          windows[0].stats(),
		Last7d:           windows[1].stats(),
		Last30d:          windows[2].stats(),
		Buckets:          averageBuckets(buckets),
		MaxBandwidthMbit: a.maxBandwidth,
		GeneratedAt:      now,
	}
	return out
}

// mbps converts a byte total attributed to one sampling interval into an
// instantaneous megabits-per-second rate.
func (a *Aggregator) mbps(bytes uint64) float64 {
	return float64(bytes) * 8 / (float64(a.sampleSeconds) * 1_000_000)
}

// bucketStart truncates an instant to the start of its containing bucket:
// midnight of the day plus the floored multiple of the bucket size.
func bucketStart(ts time.Time, size time.Duration) time.Time {
	midnight := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())
	return midnight.Add(ts.Sub(midnight).Truncate(size))
}

func sortedUsers(users map[string]struct{}) []string {
	out := make([]string, 0, len(users))
	for user := range users {
		out = append(out, user)
	}
	sort.Strings(out)
	return out
}

// averageBuckets reduces each bucket's sample lists to their means and
// emits the buckets in ascending time order. Buckets without samples do
// not exist in the map and therefore never appear.
func averageBuckets(buckets map[time.Time]*bucketSamples) []model.BucketRate {
	out := make([]model.BucketRate, 0, len(buckets))
	for start, samples := range buckets {
		down := mean(samples.downloaded)
		up := mean(samples.uploaded)
		out = append(out, model.BucketRate{
			Time:       start,
			Downloaded: down,
			Uploaded:   up,
			Total:      down + up,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

func mean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}
