package cache

import (
	"context"
	"testing"
	"time"
)

func TestStore_ExpiresEntries(t *testing.T) {
	t.Parallel()

	store := NewStore(10 * time.Millisecond)
	ctx := context.Background()

	store.Set(ctx, "season_anchor:s1", "2024-10-22")
	if _, ok := store.Get(ctx, "season_anchor:s1"); !ok {
		t.Fatalf("expected fresh entry to hit")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := store.Get(ctx, "season_anchor:s1"); ok {
		t.Fatalf("expected expired entry to miss")
	}
	store.mu.RLock()
	_, kept := store.entries["season_anchor:s1"]
	store.mu.RUnlock()
	if kept {
		t.Fatalf("expired entry should be dropped on read")
	}
}

func TestStore_ZeroTTLKeepsEntries(t *testing.T) {
	t.Parallel()

	store := NewStore(0)
	ctx := context.Background()
	store.Set(ctx, "k", 1)
	store.Set(ctx, "", 2)

	if got, ok := store.Get(ctx, "k"); !ok || got != 1 {
		t.Fatalf("unexpected get: got=%v ok=%v", got, ok)
	}
	if _, ok := store.Get(ctx, ""); ok {
		t.Fatalf("empty key must never be cached")
	}
}

func TestTyped_Prefixes(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	weeks := NewTyped[int](store, "week:")
	ctx := context.Background()

	weeks.Set(ctx, "s1:3", 3)
	store.Set(ctx, "s1:3", "raw")

	if got, ok := weeks.Get(ctx, "s1:3"); !ok || got != 3 {
		t.Fatalf("unexpected typed get: got=%d ok=%v", got, ok)
	}
	if _, ok := store.Get(ctx, "week:s1:3"); !ok {
		t.Fatalf("expected prefixed key in backing store")
	}

	mismatched := NewTyped[int](store, "")
	if _, ok := mismatched.Get(ctx, "s1:3"); ok {
		t.Fatalf("value of another type must miss")
	}
}

func TestTyped_NilIsNoop(t *testing.T) {
	t.Parallel()

	var weeks *Typed[string]
	weeks.Set(context.Background(), "k", "v")
	if _, ok := weeks.Get(context.Background(), "k"); ok {
		t.Fatalf("nil typed cache must miss")
	}
}
