package model

import "context"

// ArchiveWriter is a write-only side channel for long-term session storage.
// Failures are reported but never abort a poll cycle.
type ArchiveWriter interface {
	// WriteSessions persists the per-client rows of one snapshot.
	WriteSessions(ctx context.Context, key string, snap Snapshot) error

	Close() error
}

// Publisher pushes captured snapshots to an external message bus.
type Publisher interface {
	Publish(key string, snap Snapshot) error
	Close()
}
