package cache

import (
	"context"
	"sync"
	"time"

	"FinSight/internal/domain/repository"
)

type memoryEntry struct {
	value    any
	storedAt time.Time
}

// Memory is an in-process TTL cache with bounded size. When full, the
// oldest inserted entry is evicted (insertion order, not recency).
// Expired entries are removed eagerly on read.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	entries map[string]memoryEntry
	order   []string

	now func() time.Time
}

// NewMemory creates a memory store with the given TTL and max entry count.
func NewMemory(ttl time.Duration, maxSize int) *Memory {
	return &Memory{
		ttl:     ttl,
		maxSize: maxSize,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the cached value for (symbol, operation) if present and fresh.
func (m *Memory) Get(_ context.Context, symbol, operation string) (any, bool) {
	key := Key(symbol, operation)

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if m.now().Sub(e.storedAt) >= m.ttl {
		m.remove(key)
		return nil, false
	}
	return e.value, true
}

// Put stores a value. Overwriting an existing key keeps its original
// insertion position.
func (m *Memory) Put(_ context.Context, symbol, operation string, value any) {
	key := Key(symbol, operation)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists {
		if len(m.entries) >= m.maxSize && len(m.order) > 0 {
			m.remove(m.order[0])
		}
		m.order = append(m.order, key)
	}
	m.entries[key] = memoryEntry{value: value, storedAt: m.now()}
}

// Clear removes all entries and returns how many were removed.
func (m *Memory) Clear(_ context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.entries)
	m.entries = make(map[string]memoryEntry)
	m.order = m.order[:0]
	return n
}

// Stats reports the current cache contents with per-entry ages.
func (m *Memory) Stats(_ context.Context) repository.CacheStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	stats := repository.CacheStats{
		Size:       len(m.entries),
		MaxSize:    m.maxSize,
		TTLSeconds: m.ttl.Seconds(),
		Entries:    make([]repository.CacheEntryStat, 0, len(m.entries)),
	}
	for _, key := range m.order {
		e, ok := m.entries[key]
		if !ok {
			continue
		}
		age := now.Sub(e.storedAt).Seconds()
		stats.Entries = append(stats.Entries, repository.CacheEntryStat{
			Key:              key,
			AgeSeconds:       age,
			ExpiresInSeconds: m.ttl.Seconds() - age,
			IsExpired:        age >= m.ttl.Seconds(),
		})
	}
	return stats
}

// remove must be called with the lock held.
func (m *Memory) remove(key string) {
	delete(m.entries, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}
