// Package archive provides the optional long-term session sink. It is a
// write-only side channel: archive failures are logged by the caller and
// never abort a poll cycle.
package archive

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"vpnspectra/internal/config"
	"vpnspectra/internal/model"
)

const createTableStatement = `
CREATE TABLE IF NOT EXISTS vpn_sessions (
    SnapshotTime   DateTime,
    Client         String,
    RealAddress    String,
    BytesReceived  UInt64,
    BytesSent      UInt64,
    ConnectedSince String,
    CapturedAt     DateTime
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(SnapshotTime)
ORDER BY (Client, SnapshotTime);
`

// ClickHouseWriter implements the model.ArchiveWriter interface.
type ClickHouseWriter struct {
	conn driver.Conn
}

// NewClickHouseWriter connects to ClickHouse and ensures the table exists.
func NewClickHouseWriter(cfg config.ClickHouseConfig) (*ClickHouseWriter, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	if err := conn.Exec(context.Background(), createTableStatement); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	log.Println("Successfully connected to ClickHouse and ensured table exists.")

	return &ClickHouseWriter{conn: conn}, nil
}

func connect(cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return conn, nil
}

// WriteSessions inserts the per-client rows of one snapshot.
func (w *ClickHouseWriter) WriteSessions(ctx context.Context, key string, snap model.Snapshot) error {
	if len(snap) == 0 {
		return nil
	}

	snapshotTime, err := time.ParseInLocation(model.SnapshotKeyFormat, key, model.ReportLocation)
	if err != nil {
		return fmt.Errorf("invalid snapshot key %q: %w", key, err)
	}

	batch, err := w.conn.PrepareBatch(ctx, "INSERT INTO vpn_sessions")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for client, sess := range snap {
		err := batch.Append(
			snapshotTime,
			client,
			sess.RealAddress,
			sess.BytesReceived,
			sess.BytesSent,
			sess.ConnectedSince,
			sess.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to append session to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	log.Printf("Archived %d sessions to ClickHouse for snapshot %s", len(snap), key)
	return nil
}

// Close closes the ClickHouse connection.
func (w *ClickHouseWriter) Close() error {
	return w.conn.Close()
}
