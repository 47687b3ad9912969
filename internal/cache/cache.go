// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

// Package cache provides the response cache for hot GET endpoints.
//
// Two backends implement the Cacher interface: a Redis-backed cache for
// production deployments and an in-memory TTL cache used as a fallback
// when no Redis address is configured (and by unit tests). Keys are
// org-scoped strings built by keys.go so that write-path invalidation
// can clear a whole tenant prefix in one call.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodahq/custoda/internal/config"
)

// Cacher is the interface both cache backends implement. Values are
// stored as JSON-encoded bytes; callers unmarshal into their own types.
type Cacher interface {
	// Get retrieves a value. Returns the raw bytes and true on a hit.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value with the default TTL.
	Set(ctx context.Context, key string, value []byte)

	// SetWithTTL stores a value with an explicit TTL.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration)

	// Delete removes a single key.
	Delete(ctx context.Context, key string)

	// DeletePrefix removes every key starting with the prefix. Used for
	// org-scoped invalidation on writes.
	DeletePrefix(ctx context.Context, prefix string)

	// Clear removes all entries.
	Clear(ctx context.Context)

	// Stats returns hit/miss counters for observability endpoints.
	Stats() Stats

	// Close releases backend resources.
	Close() error
}

// Stats tracks cache performance counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Keys      int64
}

// HitRate returns the hit rate as a percentage, 0 when the cache has
// never been read.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// New creates the cache backend selected by configuration. The memory
// backend never fails; the redis backend fails fast when the server is
// unreachable so misconfiguration surfaces at startup rather than as a
// silent 0% hit rate.
func New(ctx context.Context, cfg *config.CacheConfig) (Cacher, error) {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	switch strings.ToLower(cfg.Backend) {
	case "redis":
		return NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, ttl)
	case "", "memory":
		return NewMemory(ttl), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
