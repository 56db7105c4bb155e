package cache

import (
	"context"
	"testing"
	"time"
)

func newClockedMemory(ttl time.Duration, maxSize int) (*Memory, *time.Time) {
	m := NewMemory(ttl, maxSize)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestMemoryPutGet(t *testing.T) {
	ctx := context.Background()
	m, _ := newClockedMemory(300*time.Second, 10)

	m.Put(ctx, "aapl", "info", "v1")

	// Keys are case-insensitive on symbol.
	v, ok := m.Get(ctx, "AAPL", "info")
	if !ok || v != "v1" {
		t.Fatalf("expected cached v1, got %v (%v)", v, ok)
	}
	if _, ok := m.Get(ctx, "AAPL", "balance_sheet"); ok {
		t.Fatal("expected miss for different operation")
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	ctx := context.Background()
	m, now := newClockedMemory(300*time.Second, 10)

	m.Put(ctx, "AAPL", "info", "v1")
	*now = now.Add(301 * time.Second)

	if _, ok := m.Get(ctx, "AAPL", "info"); ok {
		t.Fatal("expected expired entry to miss")
	}
	// Expired entries are deleted on read.
	if stats := m.Stats(ctx); stats.Size != 0 {
		t.Fatalf("expected expired entry removed, size %d", stats.Size)
	}
}

func TestMemoryEvictsOldestInsertion(t *testing.T) {
	ctx := context.Background()
	m, _ := newClockedMemory(300*time.Second, 2)

	m.Put(ctx, "A", "info", 1)
	m.Put(ctx, "B", "info", 2)
	m.Put(ctx, "C", "info", 3)

	if _, ok := m.Get(ctx, "A", "info"); ok {
		t.Fatal("expected oldest entry A evicted")
	}
	if _, ok := m.Get(ctx, "B", "info"); !ok {
		t.Fatal("expected B retained")
	}
	if _, ok := m.Get(ctx, "C", "info"); !ok {
		t.Fatal("expected C retained")
	}
}

func TestMemoryOverwriteKeepsInsertionPosition(t *testing.T) {
	ctx := context.Background()
	m, _ := newClockedMemory(300*time.Second, 2)

	m.Put(ctx, "A", "info", 1)
	m.Put(ctx, "B", "info", 2)
	m.Put(ctx, "A", "info", 10)
	m.Put(ctx, "C", "info", 3)

	// A keeps its original slot, so it is still the eviction candidate.
	if _, ok := m.Get(ctx, "A", "info"); ok {
		t.Fatal("expected overwritten A to still evict first")
	}
	if v, ok := m.Get(ctx, "B", "info"); !ok || v != 2 {
		t.Fatalf("expected B retained, got %v (%v)", v, ok)
	}
}

func TestMemoryClear(t *testing.T) {
	ctx := context.Background()
	m, _ := newClockedMemory(300*time.Second, 10)

	m.Put(ctx, "A", "info", 1)
	m.Put(ctx, "B", "info", 2)

	if n := m.Clear(ctx); n != 2 {
		t.Fatalf("expected 2 removed, got %d", n)
	}
	if _, ok := m.Get(ctx, "A", "info"); ok {
		t.Fatal("expected empty cache after clear")
	}
	if n := m.Clear(ctx); n != 0 {
		t.Fatalf("expected 0 removed on second clear, got %d", n)
	}
}

func TestMemoryStats(t *testing.T) {
	ctx := context.Background()
	m, now := newClockedMemory(300*time.Second, 10)

	m.Put(ctx, "AAPL", "info", 1)
	*now = now.Add(10 * time.Second)
	m.Put(ctx, "MSFT", "info", 2)
	*now = now.Add(5 * time.Second)

	stats := m.Stats(ctx)
	if stats.Size != 2 || stats.MaxSize != 10 || stats.TTLSeconds != 300 {
		t.Fatalf("unexpected aggregate stats: %+v", stats)
	}
	if len(stats.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(stats.Entries))
	}
	first := stats.Entries[0]
	if first.Key != "AAPL:info" || first.AgeSeconds != 15 || first.ExpiresInSeconds != 285 || first.IsExpired {
		t.Fatalf("unexpected first entry: %+v", first)
	}
	if stats.Entries[1].AgeSeconds != 5 {
		t.Fatalf("expected second entry age 5s, got %v", stats.Entries[1].AgeSeconds)
	}
}
