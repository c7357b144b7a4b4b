package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"vpnspectra/internal/model"
)

const createSessionsTable = `
CREATE TABLE IF NOT EXISTS snapshots (
	key             TEXT NOT NULL,
	client          TEXT NOT NULL,
	real_address    TEXT NOT NULL,
	bytes_received  INTEGER NOT NULL,
	bytes_sent      INTEGER NOT NULL,
	connected_since TEXT NOT NULL,
	captured_at     TEXT NOT NULL,
	PRIMARY KEY (key, client)
);`

// SQLiteStore keeps snapshots as per-client rows in a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database and ensures the
// schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite store requires storage.sqlite_path")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(createSessionsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Write replaces all rows stored under the key with the snapshot's sessions.
func (s *SQLiteStore) Write(ctx context.Context, key string, snap model.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM snapshots WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to clear existing snapshot rows: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshots (key, client, real_address, bytes_received, bytes_sent, connected_since, captured_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for client, sess := range snap {
		_, err := stmt.ExecContext(ctx, key, client, sess.RealAddress,
			int64(sess.BytesReceived), int64(sess.BytesSent),
			sess.ConnectedSince, sess.Timestamp.Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("failed to insert session row for %q: %w", client, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// LoadAllAndPrune deletes expired keys and returns the remaining snapshots.
// Rows whose key or captured_at fail to parse are skipped, never deleted.
func (s *SQLiteStore) LoadAllAndPrune(ctx context.Context, retentionMonths int) (map[string]model.Snapshot, error) {
	cutoff := cutoffDate(retentionMonths)

	keys, err := s.distinctKeys(ctx)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		exp, err := expired(key, cutoff)
		if err != nil {
			log.Printf("Skipping snapshot with unparseable key %q: %v", key, err)
			continue
		}
		if exp {
			if _, err := s.db.ExecContext(ctx, "DELETE FROM snapshots WHERE key = ?", key); err != nil {
				log.Printf("Failed to delete expired snapshot %q: %v", key, err)
			}
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT key, client, real_address, bytes_received, bytes_sent, connected_since, captured_at
		FROM snapshots`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	cutoffCheck := make(map[string]bool)
	history := make(map[string]model.Snapshot)
	for rows.Next() {
		var key, client, capturedAt string
		var sess model.ClientSession
		var received, sent int64
		if err := rows.Scan(&key, &client, &sess.RealAddress, &received, &sent, &sess.ConnectedSince, &capturedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}

		// Keys with an unparseable date were skipped by the prune loop;
		// they stay out of the result set as well.
		if _, seen := cutoffCheck[key]; !seen {
			_, err := expired(key, cutoff)
			cutoffCheck[key] = err == nil
		}
		if !cutoffCheck[key] {
			continue
		}

		ts, err := time.Parse(time.RFC3339, capturedAt)
		if err != nil {
			log.Printf("Skipping session row with bad captured_at %q: %v", capturedAt, err)
			continue
		}
		sess.BytesReceived = uint64(received)
		sess.BytesSent = uint64(sent)
		sess.Timestamp = ts.In(model.ReportLocation)

		if history[key] == nil {
			history[key] = make(model.Snapshot)
		}
		history[key][client] = sess
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshot rows: %w", err)
	}

	return history, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) distinctKeys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT key FROM snapshots")
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
