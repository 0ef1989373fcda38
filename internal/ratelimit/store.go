// Package ratelimit gates abusive clients before the conversation pipeline
// runs: a sliding-window request limiter keyed by (client, endpoint class)
// and an IP blacklist fed by violation counters. Counters live in a shared
// Redis store so they hold across workers; an in-process store takes over
// when Redis is absent or failing.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Store is the counter backend shared by the limiter and the blacklist.
type Store interface {
	// Incr bumps the windowed counter under key and reports the count and
	// how long until the window resets.
	Incr(ctx context.Context, key string, window time.Duration) (count int64, resetIn time.Duration, err error)
	// Block marks key as blocked for d.
	Block(ctx context.Context, key string, d time.Duration) error
	// IsBlocked reports whether key is currently blocked.
	IsBlocked(ctx context.Context, key string) (bool, error)
}

// MemoryStore is the in-process fallback. Sliding window per key, pruned on
// access; per-process only, so limits are effectively per-worker while Redis
// is down.
type MemoryStore struct {
	mu      sync.Mutex
	events  map[string][]time.Time
	blocked map[string]time.Time
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:  make(map[string][]time.Time),
		blocked: make(map[string]time.Time),
		now:     time.Now,
	}
}

// NewMemoryStoreWithClock lets tests step through windows deterministically.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	s := NewMemoryStore()
	s.now = now
	return s
}

func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-window)

	kept := s.events[key][:0]
	for _, ts := range s.events[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	kept = append(kept, now)
	s.events[key] = kept

	resetIn := window
	if len(kept) > 0 {
		resetIn = kept[0].Add(window).Sub(now)
	}
	return int64(len(kept)), resetIn, nil
}

func (s *MemoryStore) Block(_ context.Context, key string, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocked[key] = s.now().Add(d)
	return nil
}

func (s *MemoryStore) IsBlocked(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.blocked[key]
	if !ok {
		return false, nil
	}
	if s.now().After(until) {
		delete(s.blocked, key)
		return false, nil
	}
	return true, nil
}
