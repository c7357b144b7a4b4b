package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vpnspectra/internal/model"
)

func sampleSnapshot(t time.Time) model.Snapshot {
	return model.Snapshot{
		"alice": {
			RealAddress:    "203.0.113.7:52611",
			BytesReceived:  1875000,
			BytesSent:      937500,
			ConnectedSince: "2025-08-01 10:00:00",
			Timestamp:      t,
		},
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	now := time.Now().In(model.ReportLocation)
	captured := time.Date(now.Year(), now.Month(), now.Day(), 12, 5, 0, 0, model.ReportLocation)
	key := captured.Format(model.SnapshotKeyFormat)

	require.NoError(t, s.Write(ctx, key, sampleSnapshot(captured)))

	history, err := s.LoadAllAndPrune(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)

	got := history[key]["alice"]
	want := sampleSnapshot(captured)["alice"]
	assert.Equal(t, want.RealAddress, got.RealAddress)
	assert.Equal(t, want.BytesReceived, got.BytesReceived)
	assert.Equal(t, want.BytesSent, got.BytesSent)
	assert.Equal(t, want.ConnectedSince, got.ConnectedSince)
	assert.True(t, want.Timestamp.Equal(got.Timestamp))
}

func TestFileStoreOverwrite(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	now := time.Now().In(model.ReportLocation)
	key := now.Format(model.SnapshotKeyFormat)

	first := sampleSnapshot(now)
	require.NoError(t, s.Write(ctx, key, first))

	second := sampleSnapshot(now)
	sess := second["alice"]
	sess.BytesReceived = 42
	second["alice"] = sess
	require.NoError(t, s.Write(ctx, key, second))

	history, err := s.LoadAllAndPrune(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, uint64(42), history[key]["alice"].BytesReceived)
}

func TestFileStorePruneExpired(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	now := time.Now().In(model.ReportLocation)
	freshKey := now.Format(model.SnapshotKeyFormat)
	staleKey := now.AddDate(0, 0, -45).Format(model.SnapshotKeyFormat)

	require.NoError(t, s.Write(ctx, freshKey, sampleSnapshot(now)))
	require.NoError(t, s.Write(ctx, staleKey, sampleSnapshot(now.AddDate(0, 0, -45))))

	history, err := s.LoadAllAndPrune(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Contains(t, history, freshKey)

	_, err = os.Stat(filepath.Join(dir, staleKey+".json"))
	assert.True(t, os.IsNotExist(err), "expired snapshot file should be deleted")
}

func TestFileStorePruneIdempotent(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	now := time.Now().In(model.ReportLocation)
	require.NoError(t, s.Write(ctx, now.Format(model.SnapshotKeyFormat), sampleSnapshot(now)))
	require.NoError(t, s.Write(ctx, now.AddDate(0, 0, -45).Format(model.SnapshotKeyFormat), sampleSnapshot(now)))

	first, err := s.LoadAllAndPrune(ctx, 1)
	require.NoError(t, err)
	second, err := s.LoadAllAndPrune(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestFileStoreKeepsUnparseableEntries(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	defer s.Close()

	// A file whose name is not a snapshot key must be excluded from the
	// result but never deleted, no matter how old it is.
	badName := filepath.Join(dir, "not-a-timestamp.json")
	require.NoError(t, os.WriteFile(badName, []byte("{}"), 0644))

	// Broken JSON under a valid, fresh key: skipped, not deleted.
	now := time.Now().In(model.ReportLocation)
	brokenKey := now.Format(model.SnapshotKeyFormat)
	require.NoError(t, os.WriteFile(filepath.Join(dir, brokenKey+".json"), []byte("{broken"), 0644))

	ctx := context.Background()
	history, err := s.LoadAllAndPrune(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = os.Stat(badName)
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, brokenKey+".json"))
	assert.NoError(t, err)
}
