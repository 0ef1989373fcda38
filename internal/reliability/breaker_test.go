package reliability

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(threshold int, timeout time.Duration) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	b := NewBreaker(BreakerConfig{
		FailureThreshold: threshold,
		RecoveryTimeout:  timeout,
		Now:              clock.now,
	})
	return b, clock
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker(5, time.Minute)
	boom := errors.New("connection refused")

	for i := 0; i < 5; i++ {
		err := b.Call(context.Background(), func(context.Context) error { return boom })
		if !errors.Is(err, boom) {
			t.Fatalf("call %d error = %v, want original error", i, err)
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}

	called := false
	err := b.Call(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("error = %v, want ErrOpen", err)
	}
	if called {
		t.Fatalf("wrapped function must not run while open")
	}
}

func TestBreakerRecoversAfterTimeout(t *testing.T) {
	b, clock := newTestBreaker(2, time.Minute)
	boom := errors.New("timeout")

	for i := 0; i < 2; i++ {
		_ = b.Call(context.Background(), func(context.Context) error { return boom })
	}
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}

	clock.advance(61 * time.Second)

	// First probe succeeds: half-open, not yet closed.
	if err := b.Call(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("probe error = %v", err)
	}
	if b.State() != StateHalfOpen {
		t.Fatalf("state after one success = %v, want half_open", b.State())
	}

	if err := b.Call(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("second probe error = %v", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("state after two successes = %v, want closed", b.State())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b, clock := newTestBreaker(1, time.Minute)
	boom := errors.New("still down")

	_ = b.Call(context.Background(), func(context.Context) error { return boom })
	clock.advance(2 * time.Minute)

	_ = b.Call(context.Background(), func(context.Context) error { return boom })
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open after half-open failure", b.State())
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker(3, time.Minute)
	boom := errors.New("flaky")

	for i := 0; i < 2; i++ {
		_ = b.Call(context.Background(), func(context.Context) error { return boom })
	}
	_ = b.Call(context.Background(), func(context.Context) error { return nil })
	for i := 0; i < 2; i++ {
		_ = b.Call(context.Background(), func(context.Context) error { return boom })
	}
	if b.State() != StateClosed {
		t.Fatalf("state = %v, want closed (success should reset the count)", b.State())
	}
}

func TestBreakerMatcherIgnoresNonFailures(t *testing.T) {
	benign := errors.New("benign")
	b := NewBreaker(BreakerConfig{
		FailureThreshold: 1,
		RecoveryTimeout:  time.Minute,
		Matches:          func(err error) bool { return !errors.Is(err, benign) },
	})

	_ = b.Call(context.Background(), func(context.Context) error { return benign })
	if b.State() != StateClosed {
		t.Fatalf("non-matching error must not trip the breaker")
	}
}

func TestBreakerReset(t *testing.T) {
	b, _ := newTestBreaker(1, time.Hour)
	_ = b.Call(context.Background(), func(context.Context) error { return errors.New("down") })
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}
	b.Reset()
	if b.State() != StateClosed {
		t.Fatalf("state = %v, want closed after reset", b.State())
	}
	if err := b.Call(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("call after reset error = %v", err)
	}
}
