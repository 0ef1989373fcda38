package ratelimit

import (
	"context"
	"log"
	"time"
)

// DefaultWindow is the rate-limit accounting period.
const DefaultWindow = time.Hour

// Result is what the HTTP layer needs to answer a throttled client. Store
// failures never surface here; the limiter degrades to its in-process
// fallback instead.
type Result struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter enforces per-endpoint-class request ceilings over a sliding window
// keyed by (client identifier, endpoint class).
type Limiter struct {
	store    Store
	fallback *MemoryStore
	window   time.Duration
	ceilings map[string]int64
	def      int64
}

// NewLimiter builds a limiter over the given store. ceilings maps endpoint
// class to the max requests per window; classes not listed get defaultCeiling.
func NewLimiter(store Store, window time.Duration, ceilings map[string]int64, defaultCeiling int64) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if defaultCeiling <= 0 {
		defaultCeiling = 100
	}
	l := &Limiter{
		store:    store,
		fallback: NewMemoryStore(),
		window:   window,
		ceilings: make(map[string]int64, len(ceilings)),
		def:      defaultCeiling,
	}
	for class, c := range ceilings {
		l.ceilings[class] = c
	}
	if l.store == nil {
		l.store = l.fallback
	}
	return l
}

// Allow records one request and reports whether it fits under the ceiling.
func (l *Limiter) Allow(ctx context.Context, clientID, endpointClass string) Result {
	ceiling := l.def
	if c, ok := l.ceilings[endpointClass]; ok {
		ceiling = c
	}

	key := clientID + ":" + endpointClass
	count, resetIn, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		// Shared store down: degrade to per-process counting rather than
		// failing the request or letting everything through.
		log.Printf("ratelimit: shared store unavailable, using in-process fallback: %v", err)
		count, resetIn, _ = l.fallback.Incr(ctx, key, l.window)
	}

	if count > ceiling {
		return Result{Allowed: false, Remaining: 0, RetryAfter: resetIn}
	}
	return Result{Allowed: true, Remaining: ceiling - count}
}
