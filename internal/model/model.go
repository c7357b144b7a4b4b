package model

import "time"

// ReportLocation is the fixed UTC+3 offset every timestamp in the system is
// interpreted in. There is no timezone negotiation with the data source.
var ReportLocation = time.FixedZone("UTC+3", 3*60*60)

const (
	// SnapshotKeyFormat is the minute-granularity layout snapshot keys use.
	SnapshotKeyFormat = "2006-01-02_15-04"

	// SnapshotKeyDateFormat is the date segment of a snapshot key.
	// Retention pruning parses only this segment.
	SnapshotKeyDateFormat = "2006-01-02"
)

// ClientSession holds the session metrics reported for a single client in
// one status poll. Byte counters are cumulative since connection start.
type ClientSession struct {
	RealAddress    string    `json:"real_address"`
	BytesReceived  uint64    `json:"bytes_received"`
	BytesSent      uint64    `json:"bytes_sent"`
	ConnectedSince string    `json:"connected_since"`
	Timestamp      time.Time `json:"timestamp"`
}

// Snapshot is one poll's worth of client sessions, keyed by client name.
type Snapshot map[string]ClientSession

// TrafficTotals accumulates downloaded and uploaded byte counts.
type TrafficTotals struct {
	Downloaded uint64 `json:"downloaded"`
	Uploaded   uint64 `json:"uploaded"`
}

// Total returns downloaded + uploaded.
func (t TrafficTotals) Total() uint64 {
	return t.Downloaded + t.Uploaded
}

// BucketRate is one point of the time-bucketed bandwidth series: the mean
// instantaneous rate of all snapshots that landed in the bucket, in Mbit/s.
type BucketRate struct {
	Time       time.Time `json:"time"`
	Downloaded float64   `json:"downloaded_mbps"`
	Uploaded   float64   `json:"uploaded_mbps"`
	Total      float64   `json:"total_mbps"`
}

// WindowStats holds the per-user and overall totals for one rolling window.
type WindowStats struct {
	PerUser map[string]*TrafficTotals `json:"per_user"`
	Total   TrafficTotals             `json:"total"`
}

// AggregatedStats is the aggregator's sole output, recomputed from scratch
// on every pass over the retained history.
type AggregatedStats struct {
	AllUsers         []string     `json:"all_users"`
	Last24h          WindowStats  `json:"last_24h"`
	Last7d           WindowStats  `json:"last_7d"`
	Last30d          WindowStats  `json:"last_30d"`
	Buckets          []BucketRate `json:"buckets"`
	MaxBandwidthMbit int          `json:"max_bandwidth_mbit"`
	GeneratedAt      time.Time    `json:"generated_at"`
}
