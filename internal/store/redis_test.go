package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vpnspectra/internal/config"
	"vpnspectra/internal/model"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedisStore(config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	now := time.Now().In(model.ReportLocation)
	captured := time.Date(now.Year(), now.Month(), now.Day(), 12, 5, 0, 0, model.ReportLocation)
	key := captured.Format(model.SnapshotKeyFormat)
	require.NoError(t, s.Write(ctx, key, sampleSnapshot(captured)))

	history, err := s.LoadAllAndPrune(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)

	got := history[key]["alice"]
	assert.Equal(t, uint64(1875000), got.BytesReceived)
	assert.Equal(t, uint64(937500), got.BytesSent)
	assert.True(t, captured.Equal(got.Timestamp))
}

func TestRedisStorePruneExpired(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()

	now := time.Now().In(model.ReportLocation)
	freshKey := now.Format(model.SnapshotKeyFormat)
	staleKey := now.AddDate(0, 0, -45).Format(model.SnapshotKeyFormat)

	require.NoError(t, s.Write(ctx, freshKey, sampleSnapshot(now)))
	require.NoError(t, s.Write(ctx, staleKey, sampleSnapshot(now)))

	history, err := s.LoadAllAndPrune(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Contains(t, history, freshKey)
	assert.False(t, mr.Exists(snapshotKeyPrefix+staleKey))
}

func TestRedisStoreKeepsUnparseableKeys(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(snapshotKeyPrefix+"garbage", "{}"))

	history, err := s.LoadAllAndPrune(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.True(t, mr.Exists(snapshotKeyPrefix+"garbage"))
}

func TestRedisStoreConnectionError(t *testing.T) {
	_, err := NewRedisStore(config.RedisConfig{Addr: "127.0.0.1:1"})
	require.Error(t, err)
}
