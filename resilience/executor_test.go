package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func TestExecutor_Nil(t *testing.T) {
	var e *Executor

	called := false
	if err := e.Execute(context.Background(), func(context.Context) error {
		called = true
		return nil
	}); err != nil || !called {
		t.Errorf("nil executor: err = %v, called = %v", err, called)
	}
	if e.CircuitBreaker() != nil {
		t.Error("nil executor has no breaker")
	}
}

func TestExecutor_RetriesInsideCircuit(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 2, ResetTimeout: time.Hour})
	e := NewExecutor(
		WithCircuitBreaker(cb),
		WithRetry(NewRetry(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond})),
	)

	var attempts atomic.Int32
	err := e.Execute(context.Background(), func(context.Context) error {
		attempts.Add(1)
		return errSource
	})

	if !errors.Is(err, ErrMaxRetriesExceeded) || !errors.Is(err, errSource) {
		t.Errorf("Execute() error = %v", err)
	}
	if attempts.Load() != 3 {
		t.Errorf("attempts = %d, want 3", attempts.Load())
	}
	// Three attempts count as one breaker failure.
	if got := cb.Stats().Failures; got != 1 {
		t.Errorf("breaker failures = %d, want 1", got)
	}
	if cb.State() != StateClosed {
		t.Errorf("State() = %v, want closed", cb.State())
	}
}

func TestExecutor_TimeoutPerAttempt(t *testing.T) {
	e := NewExecutor(
		WithRetry(NewRetry(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond})),
		WithTimeout(20*time.Millisecond),
	)

	var attempts atomic.Int32
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		if attempts.Add(1) < 3 {
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	})

	if err != nil {
		t.Errorf("Execute() error = %v, want success on third attempt", err)
	}
	if attempts.Load() != 3 {
		t.Errorf("attempts = %d, want 3", attempts.Load())
	}
}

func TestExecutor_OpenCircuitSkipsOp(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, ResetTimeout: time.Hour})
	e := NewExecutor(WithCircuitBreaker(cb), WithRetry(NewRetry(RetryConfig{InitialDelay: time.Millisecond})))

	_ = e.Execute(context.Background(), fail)

	called := false
	err := e.Execute(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Errorf("err = %v, called = %v", err, called)
	}
}

func TestDo(t *testing.T) {
	e := NewExecutor(WithRetry(NewRetry(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond})))

	attempts := 0
	v, err := Do(context.Background(), e, func(context.Context) (string, error) {
		attempts++
		if attempts < 2 {
			return "partial", errSource
		}
		return fmt.Sprintf("value-%d", attempts), nil
	})
	if err != nil || v != "value-2" {
		t.Errorf("Do() = (%q, %v), want (value-2, nil)", v, err)
	}

	v, err = Do(context.Background(), e, func(context.Context) (string, error) {
		return "ignored", Permanent(errSource)
	})
	if v != "" || !errors.Is(err, errSource) {
		t.Errorf("Do() = (%q, %v), want zero value and source error", v, err)
	}
}

func TestDo_AbandonedAttemptDoesNotLeak(t *testing.T) {
	e := NewExecutor(
		WithRetry(NewRetry(RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond})),
		WithTimeout(20*time.Millisecond),
	)

	var attempts atomic.Int32
	v, err := Do(context.Background(), e, func(ctx context.Context) (int, error) {
		n := attempts.Add(1)
		if n == 1 {
			// Ignores its deadline and finishes after the second attempt.
			time.Sleep(60 * time.Millisecond)
			return 1, nil
		}
		return 2, nil
	})
	if err != nil || v != 2 {
		t.Fatalf("Do() = (%d, %v), want (2, nil)", v, err)
	}
	time.Sleep(80 * time.Millisecond)
}

func TestPermanent(t *testing.T) {
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}

	base := errors.New("missing")
	err := fmt.Errorf("load: %w", Permanent(base))
	if !IsPermanent(err) {
		t.Error("wrapped permanent error not detected")
	}
	if !errors.Is(err, base) {
		t.Error("permanent error should unwrap to its cause")
	}
	if err.Error() != "load: missing" {
		t.Errorf("Error() = %q", err.Error())
	}
	if IsPermanent(base) {
		t.Error("plain error reported as permanent")
	}
}
