package model

import "context"

// Store defines the common interface for a snapshot store, allowing
// different backends (flat files, SQLite, Redis) to be used interchangeably.
type Store interface {
	// Write persists a snapshot under the given minute-granularity key,
	// overwriting any existing entry with the same key.
	Write(ctx context.Context, key string, snap Snapshot) error

	// LoadAllAndPrune returns every retained snapshot keyed by its
	// timestamp key. As a side effect it permanently removes entries whose
	// key date segment is older than now - 30*retentionMonths days.
	// Entries whose key cannot be parsed are skipped but never deleted.
	LoadAllAndPrune(ctx context.Context, retentionMonths int) (map[string]Snapshot, error)

	// Close releases any resources held by the store.
	Close() error
}
