package ratelimit

import (
	"context"
	"log"
	"time"
)

const (
	defaultViolationThreshold = 10
	defaultBlockDuration      = time.Hour
	violationWindow           = time.Hour
)

// Blacklist blocks IPs that keep violating limits. The check is a pure
// boolean gate evaluated before the rate limiter.
type Blacklist struct {
	store         Store
	fallback      *MemoryStore
	threshold     int64
	blockDuration time.Duration
}

func NewBlacklist(store Store, threshold int64, blockDuration time.Duration) *Blacklist {
	if threshold <= 0 {
		threshold = defaultViolationThreshold
	}
	if blockDuration <= 0 {
		blockDuration = defaultBlockDuration
	}
	b := &Blacklist{
		store:         store,
		fallback:      NewMemoryStore(),
		threshold:     threshold,
		blockDuration: blockDuration,
	}
	if b.store == nil {
		b.store = b.fallback
	}
	return b
}

// IsBlocked never errors toward the caller; an unreachable store reads as
// not-blocked plus whatever the in-process fallback knows.
func (b *Blacklist) IsBlocked(ctx context.Context, ip string) bool {
	blocked, err := b.store.IsBlocked(ctx, "ip:"+ip)
	if err != nil {
		log.Printf("blacklist: shared store unavailable on check: %v", err)
		blocked, _ = b.fallback.IsBlocked(ctx, "ip:"+ip)
	}
	return blocked
}

// RecordViolation bumps the rolling violation counter and blocks the IP once
// it crosses the threshold within the window.
func (b *Blacklist) RecordViolation(ctx context.Context, ip string) {
	store := b.store
	count, _, err := store.Incr(ctx, "violations:"+ip, violationWindow)
	if err != nil {
		log.Printf("blacklist: shared store unavailable on violation: %v", err)
		store = b.fallback
		count, _, _ = store.Incr(ctx, "violations:"+ip, violationWindow)
	}
	if count >= b.threshold {
		if err := store.Block(ctx, "ip:"+ip, b.blockDuration); err != nil {
			log.Printf("blacklist: block write failed: %v", err)
			_ = b.fallback.Block(ctx, "ip:"+ip, b.blockDuration)
		}
	}
}
