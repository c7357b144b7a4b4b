package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"

	"vpnspectra/internal/config"
	"vpnspectra/internal/model"
)

// snapshotKeyPrefix namespaces snapshot values in the shared keyspace.
const snapshotKeyPrefix = "vpnspectra:snap:"

// RedisStore keeps one JSON value per snapshot key in Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg config.RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis store requires storage.redis.addr")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// Write persists the snapshot as a JSON value, overwriting any existing one.
func (s *RedisStore) Write(ctx context.Context, key string, snap model.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot to json: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKeyPrefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write snapshot to redis: %w", err)
	}
	return nil
}

// LoadAllAndPrune scans the snapshot keyspace, deletes expired entries and
// returns the rest. Entries with unparseable keys or broken JSON are
// skipped; only expired ones are deleted.
func (s *RedisStore) LoadAllAndPrune(ctx context.Context, retentionMonths int) (map[string]model.Snapshot, error) {
	cutoff := cutoffDate(retentionMonths)
	history := make(map[string]model.Snapshot)

	iter := s.client.Scan(ctx, 0, snapshotKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		fullKey := iter.Val()
		key := strings.TrimPrefix(fullKey, snapshotKeyPrefix)

		exp, err := expired(key, cutoff)
		if err != nil {
			log.Printf("Skipping snapshot with unparseable key %q: %v", key, err)
			continue
		}
		if exp {
			if err := s.client.Del(ctx, fullKey).Err(); err != nil {
				log.Printf("Failed to delete expired snapshot %q: %v", key, err)
			}
			continue
		}

		data, err := s.client.Get(ctx, fullKey).Bytes()
		if err != nil {
			if err != redis.Nil {
				log.Printf("Skipping unreadable snapshot %q: %v", key, err)
			}
			continue
		}
		var snap model.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			log.Printf("Skipping snapshot %q with broken JSON: %v", key, err)
			continue
		}
		history[key] = snap
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan snapshot keys: %w", err)
	}

	return history, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
