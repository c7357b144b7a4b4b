package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"vpnspectra/internal/model"
)

// FileStore keeps one JSON document per snapshot in a flat directory,
// named by the snapshot's timestamp key.
type FileStore struct {
	dir string
}

// NewFileStore creates the data directory if needed and returns the store.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("file store requires storage.data_dir")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Write persists the snapshot as an indented JSON file, overwriting any
// existing file with the same key.
func (s *FileStore) Write(ctx context.Context, key string, snap model.Snapshot) error {
	file, err := os.Create(s.path(key))
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode snapshot to json: %w", err)
	}
	return nil
}

// LoadAllAndPrune reads every retained snapshot and deletes the expired
// ones. Files whose name does not parse as a snapshot key are skipped and
// left in place; files with broken JSON are skipped but still pruned once
// their key date passes the retention cutoff.
func (s *FileStore) LoadAllAndPrune(ctx context.Context, retentionMonths int) (map[string]model.Snapshot, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	cutoff := cutoffDate(retentionMonths)
	history := make(map[string]model.Snapshot)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		key := strings.TrimSuffix(entry.Name(), ".json")

		exp, err := expired(key, cutoff)
		if err != nil {
			log.Printf("Skipping snapshot with unparseable key %q: %v", key, err)
			continue
		}
		if exp {
			if err := os.Remove(s.path(key)); err != nil {
				log.Printf("Failed to delete expired snapshot %q: %v", key, err)
			}
			continue
		}

		data, err := os.ReadFile(s.path(key))
		if err != nil {
			log.Printf("Skipping unreadable snapshot %q: %v", key, err)
			continue
		}
		var snap model.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			log.Printf("Skipping snapshot %q with broken JSON: %v", key, err)
			continue
		}
		history[key] = snap
	}

	return history, nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}
