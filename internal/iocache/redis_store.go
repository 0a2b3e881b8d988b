package iocache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/huangsam/scorecard/internal/contract"
	"github.com/huangsam/scorecard/schema"
	"github.com/redis/go-redis/v9"
)

// redisEntryTTL lets Redis evict entries that the reader would treat as stale anyway.
const redisEntryTTL = 7 * 24 * time.Hour

// redisOpTimeout bounds every Redis round trip.
const redisOpTimeout = 5 * time.Second

// RedisCacheStore stores computed scorecards as Redis hashes under a key prefix.
// Each entry has the fields value, version and ts.
type RedisCacheStore struct {
	client *redis.Client
	prefix string
}

var _ contract.CacheStore = &RedisCacheStore{} // Compile-time check

// NewRedisCacheStore connects to the Redis URL in connStr and namespaces keys with prefix.
func NewRedisCacheStore(prefix, connStr string) (*RedisCacheStore, error) {
	opts, err := redis.ParseURL(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL (expected redis://[:password@]host:port/db): %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis. Check that the server is running and the URL is valid: %w", err)
	}
	return &RedisCacheStore{client: client, prefix: prefix}, nil
}

func (rs *RedisCacheStore) key(k string) string {
	return rs.prefix + ":" + k
}

// Get retrieves a value by key. A missing key reports redis.Nil.
func (rs *RedisCacheStore) Get(key string) ([]byte, int, int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	vals, err := rs.client.HMGet(ctx, rs.key(key), "value", "version", "ts").Result()
	if err != nil {
		return nil, 0, 0, err
	}
	if len(vals) != 3 || vals[0] == nil || vals[1] == nil || vals[2] == nil {
		return nil, 0, 0, redis.Nil
	}

	value, _ := vals[0].(string)
	version, err := strconv.Atoi(fmt.Sprint(vals[1]))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("corrupt cache version for %s: %w", key, err)
	}
	ts, err := strconv.ParseInt(fmt.Sprint(vals[2]), 10, 64)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("corrupt cache timestamp for %s: %w", key, err)
	}
	return []byte(value), version, ts, nil
}

// Set writes the entry and refreshes its expiry.
func (rs *RedisCacheStore) Set(key string, value []byte, version int, timestamp int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	k := rs.key(key)
	_, err := rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, "value", value, "version", version, "ts", timestamp)
		pipe.Expire(ctx, k, redisEntryTTL)
		return nil
	})
	return err
}

// Close closes the client.
func (rs *RedisCacheStore) Close() error {
	return rs.client.Close()
}

// scanKeys returns every key under the store prefix.
func (rs *RedisCacheStore) scanKeys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := rs.client.Scan(ctx, 0, rs.prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

// GetStatus returns status information about the cache store.
func (rs *RedisCacheStore) GetStatus() (schema.CacheStatus, error) {
	status := schema.CacheStatus{Backend: string(schema.RedisBackend)}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := rs.client.Ping(ctx).Err(); err != nil {
		return status, nil
	}
	status.Connected = true

	keys, err := rs.scanKeys(ctx)
	if err != nil {
		return status, fmt.Errorf("failed to scan cache keys: %w", err)
	}
	status.TotalEntries = len(keys)

	var newest, oldest int64
	for _, k := range keys {
		ts, err := rs.client.HGet(ctx, k, "ts").Int64()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return status, fmt.Errorf("failed to read timestamp of %s: %w", k, err)
		}
		if newest == 0 || ts > newest {
			newest = ts
		}
		if oldest == 0 || ts < oldest {
			oldest = ts
		}
		if size, err := rs.client.MemoryUsage(ctx, k).Result(); err == nil {
			status.TableSizeBytes += size
		}
	}
	if status.TotalEntries > 0 {
		status.LastEntryTime = time.Unix(newest, 0)
		status.OldestEntryTime = time.Unix(oldest, 0)
	}
	return status, nil
}

// Clear deletes every key under the store prefix and reports how many were removed.
func (rs *RedisCacheStore) Clear() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	keys, err := rs.scanKeys(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := rs.client.Del(ctx, keys...).Err(); err != nil {
		return 0, fmt.Errorf("failed to delete cache keys: %w", err)
	}
	return len(keys), nil
}
