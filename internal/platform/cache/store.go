package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Store is an in-process TTL cache. A zero ttl keeps entries forever.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
	}
}

func (s *Store) Get(_ context.Context, key string) (any, bool) {
	if key == "" {
		return nil, false
	}

	now := time.Now()
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.ttl > 0 && !e.expiresAt.After(now) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false
	}

	return e.value, true
}

func (s *Store) Set(_ context.Context, key string, value any) {
	if key == "" {
		return
	}

	expiresAt := time.Time{}
	if s.ttl > 0 {
		expiresAt = time.Now().Add(s.ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry{
		value:     value,
		expiresAt: expiresAt,
	}
	s.mu.Unlock()
}

// Typed narrows a Store to values of one type.
type Typed[T any] struct {
	store  *Store
	prefix string
}

func NewTyped[T any](store *Store, prefix string) *Typed[T] {
	return &Typed[T]{store: store, prefix: prefix}
}

func (t *Typed[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T
	if t == nil || t.store == nil {
		return zero, false
	}
	raw, ok := t.store.Get(ctx, t.prefix+key)
	if !ok {
		return zero, false
	}
	value, ok := raw.(T)
	return value, ok
}

func (t *Typed[T]) Set(ctx context.Context, key string, value T) {
	if t == nil || t.store == nil {
		return
	}
	t.store.Set(ctx, t.prefix+key, value)
}
