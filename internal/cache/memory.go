// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/custodahq/custoda/internal/metrics"
)

// cleanupInterval is how often the background sweeper removes expired
// entries that were never re-read.
const cleanupInterval = 5 * time.Minute

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// Memory is a thread-safe in-memory cache with per-entry TTL. It is the
// fallback backend when Redis is not configured, and the backend unit
// tests run against.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration

	statsMu   sync.Mutex
	hits      int64
	misses    int64
	evictions int64

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewMemory creates an in-memory cache with the given default TTL and
// starts its background cleanup goroutine.
func NewMemory(ttl time.Duration) *Memory {
	m := &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}
	go m.cleanupLoop()
	return m
}

// Get retrieves a value, expiring it lazily when its deadline passed.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		m.recordMiss()
		return nil, false
	}

	if time.Now().After(entry.expiresAt) {
		m.mu.Lock()
		// Re-check under the write lock: a concurrent Set may have
		// refreshed the entry between the read unlock and here.
		if cur, still := m.entries[key]; still && time.Now().After(cur.expiresAt) {
			delete(m.entries, key)
			m.recordEviction()
		}
		m.mu.Unlock()
		m.recordMiss()
		return nil, false
	}

	m.recordHit()
	return entry.data, true
}

// Set stores a value with the default TTL.
func (m *Memory) Set(ctx context.Context, key string, value []byte) {
	m.SetWithTTL(ctx, key, value, m.ttl)
}

// SetWithTTL stores a value with an explicit TTL.
func (m *Memory) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = m.ttl
	}
	m.mu.Lock()
	m.entries[key] = memoryEntry{data: value, expiresAt: time.Now().Add(ttl)}
	m.mu.Unlock()
}

// Delete removes a single key.
func (m *Memory) Delete(_ context.Context, key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// DeletePrefix removes every key starting with the prefix.
func (m *Memory) DeletePrefix(_ context.Context, prefix string) {
	m.mu.Lock()
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	m.mu.Unlock()
}

// Clear removes all entries.
func (m *Memory) Clear(_ context.Context) {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
}

// Stats returns current counters.
func (m *Memory) Stats() Stats {
	m.mu.RLock()
	keys := int64(len(m.entries))
	m.mu.RUnlock()

	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return Stats{
		Hits:      m.hits,
		Misses:    m.misses,
		Evictions: m.evictions,
		Keys:      keys,
	}
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (m *Memory) Close() error {
	m.stopOnce.Do(func() { close(m.stopCh) })
	return nil
}

func (m *Memory) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.removeExpired()
		}
	}
}

func (m *Memory) removeExpired() {
	now := time.Now()
	m.mu.Lock()
	for key, entry := range m.entries {
		if now.After(entry.expiresAt) {
			delete(m.entries, key)
			m.recordEviction()
		}
	}
	entries := len(m.entries)
	m.mu.Unlock()

	metrics.CacheSize.WithLabelValues("memory").Set(float64(entries))
}

func (m *Memory) recordHit() {
	metrics.RecordCacheHit("memory")
	m.statsMu.Lock()
	m.hits++
	m.statsMu.Unlock()
}

func (m *Memory) recordMiss() {
	metrics.RecordCacheMiss("memory")
	m.statsMu.Lock()
	m.misses++
	m.statsMu.Unlock()
}

func (m *Memory) recordEviction() {
	metrics.CacheEvictions.WithLabelValues("memory").Inc()
	m.statsMu.Lock()
	m.evictions++
	m.statsMu.Unlock()
}

var _ Cacher = (*Memory)(nil)
