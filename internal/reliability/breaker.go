package reliability

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned when the breaker rejects a call without attempting it.
// The LLM strategy is the only caller expected to catch it.
var ErrOpen = errors.New("circuit breaker is open")

type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// halfOpenSuccesses is how many consecutive probe successes close the breaker.
const halfOpenSuccesses = 2

// FailureMatcher decides whether an error counts toward opening the breaker.
// A nil matcher counts every error.
type FailureMatcher func(error) bool

// Breaker guards a flaky dependency: after FailureThreshold consecutive
// matching failures it rejects calls immediately, then re-tests the
// dependency once RecoveryTimeout has elapsed. One instance per provider
// endpoint, shared across conversations, injected rather than global.
type Breaker struct {
	mu              sync.Mutex
	state           State
	failureCount    int
	successCount    int
	lastFailureTime time.Time

	failureThreshold int
	recoveryTimeout  time.Duration
	matches          FailureMatcher
	now              func() time.Time
}

type BreakerConfig struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
	Matches          FailureMatcher
	// Now overrides the clock; tests use it to step through recovery.
	Now func() time.Time
}

func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 60 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Breaker{
		state:            StateClosed,
		failureThreshold: cfg.FailureThreshold,
		recoveryTimeout:  cfg.RecoveryTimeout,
		matches:          cfg.Matches,
		now:              cfg.Now,
	}
}

// Call invokes fn under the breaker's protection. When open and the recovery
// timeout has not elapsed, fn is never invoked and ErrOpen comes back; the
// original error is always re-returned after bookkeeping otherwise.
func (b *Breaker) Call(ctx context.Context, fn func(context.Context) error) error {
	if err := b.preflight(); err != nil {
		return err
	}

	err := fn(ctx)
	b.record(err)
	return err
}

func (b *Breaker) preflight() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return nil
	}
	if b.now().Sub(b.lastFailureTime) < b.recoveryTimeout {
		return ErrOpen
	}
	b.state = StateHalfOpen
	b.successCount = 0
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		switch b.state {
		case StateHalfOpen:
			b.successCount++
			if b.successCount >= halfOpenSuccesses {
				b.state = StateClosed
				b.failureCount = 0
				b.successCount = 0
			}
		default:
			b.failureCount = 0
		}
		return
	}

	if b.matches != nil && !b.matches(err) {
		return
	}

	b.failureCount++
	b.successCount = 0
	b.lastFailureTime = b.now()
	if b.state == StateHalfOpen || b.failureCount >= b.failureThreshold {
		b.state = StateOpen
	}
}

// State reports the current state for logs and health endpoints.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset forces the breaker closed with all counters zeroed. Operational
// override, also handy in tests.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failureCount = 0
	b.successCount = 0
	b.lastFailureTime = time.Time{}
}
