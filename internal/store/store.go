// Package store provides the snapshot store backends. All backends share
// the same keying and retention semantics; only the medium differs.
package store

import (
	"fmt"
	"strings"
	"time"

	"vpnspectra/internal/config"
	"vpnspectra/internal/model"
)

// New creates the snapshot store selected by the storage configuration.
func New(cfg config.StorageConfig) (model.Store, error) {
	switch cfg.Type {
	case "", "file":
		return NewFileStore(cfg.DataDir)
	case "sqlite":
		return NewSQLiteStore(cfg.SQLitePath)
	case "redis":
		return NewRedisStore(cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// cutoffDate returns the prune cutoff for a retention expressed in months.
// A month is counted as 30 days.
func cutoffDate(retentionMonths int) time.Time {
	return time.Now().In(model.ReportLocation).AddDate(0, 0, -30*retentionMonths)
}

// expired reports whether a snapshot key's date segment falls before the
// cutoff. Keys whose date segment does not parse return an error and are
// never considered expired.
func expired(key string, cutoff time.Time) (bool, error) {
	datePart, _, _ := strings.Cut(key, "_")
	day, err := time.ParseInLocation(model.SnapshotKeyDateFormat, datePart, model.ReportLocation)
	if err != nil {
		return false, err
	}
	return day.Before(cutoff), nil
}
