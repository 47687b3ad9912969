// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/custodahq/custoda/internal/logging"
	"github.com/custodahq/custoda/internal/metrics"
)

// scanBatchSize bounds a single SCAN round trip during prefix deletion.
const scanBatchSize = 200

// Redis is the production response-cache backend. All operations are
// best-effort: a Redis outage degrades to cache misses and logged
// warnings, never to failed requests.
type Redis struct {
	client *redis.Client
	ttl    time.Duration

	statsMu sync.Mutex
	hits    int64
	misses  int64
}

// NewRedis connects to the Redis server and verifies the connection with
// a ping so misconfiguration fails at startup.
func NewRedis(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Redis{client: client, ttl: ttl}, nil
}

// Get retrieves a value. Errors other than a plain miss are logged and
// reported as misses.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.Warn().Err(err).Str("key", key).Msg("Redis get failed")
		}
		r.recordMiss()
		return nil, false
	}
	r.recordHit()
	return data, true
}

// Set stores a value with the default TTL.
func (r *Redis) Set(ctx context.Context, key string, value []byte) {
	r.SetWithTTL(ctx, key, value, r.ttl)
}

// SetWithTTL stores a value with an explicit TTL.
func (r *Redis) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = r.ttl
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("Redis set failed")
	}
}

// Delete removes a single key.
func (r *Redis) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("Redis delete failed")
	}
}

// DeletePrefix removes every key starting with the prefix using SCAN,
// which stays cursor-bounded instead of blocking the server the way
// KEYS would.
func (r *Redis) DeletePrefix(ctx context.Context, prefix string) {
	var cursor uint64
	pattern := prefix + "*"

	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			logging.Warn().Err(err).Str("prefix", prefix).Msg("Redis scan failed during prefix delete")
			return
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				logging.Warn().Err(err).Str("prefix", prefix).Msg("Redis prefix delete failed")
				return
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

// Clear flushes the configured database. Only the cache lives in it.
func (r *Redis) Clear(ctx context.Context) {
	if err := r.client.FlushDB(ctx).Err(); err != nil {
		logging.Warn().Err(err).Msg("Redis flush failed")
	}
}

// Stats returns client-side hit/miss counters. Key count comes from
// DBSize and is best-effort.
func (r *Redis) Stats() Stats {
	var keys int64
	if size, err := r.client.DBSize(context.Background()).Result(); err == nil {
		keys = size
	}

	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return Stats{Hits: r.hits, Misses: r.misses, Keys: keys}
}

// Close closes the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) recordHit() {
	metrics.RecordCacheHit("redis")
	r.statsMu.Lock()
	r.hits++
	r.statsMu.Unlock()
}

func (r *Redis) recordMiss() {
	metrics.RecordCacheMiss("redis")
	r.statsMu.Lock()
	r.misses++
	r.statsMu.Unlock()
}

var _ Cacher = (*Redis)(nil)
