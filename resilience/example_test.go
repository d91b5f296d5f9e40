package resilience_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/synccache/resilience"
)

func ExampleCircuitBreaker_State() {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures:  2,
		ResetTimeout: time.Minute,
	})
	ctx := context.Background()

	fmt.Println("Initial state:", cb.State())

	unavailable := errors.New("service unavailable")
	for range 2 {
		_ = cb.Execute(ctx, func(context.Context) error { return unavailable })
	}
	fmt.Println("After failures:", cb.State())

	err := cb.Execute(ctx, func(context.Context) error { return nil })
	fmt.Println("Rejected:", errors.Is(err, resilience.ErrCircuitOpen))

	cb.Reset()
	fmt.Println("After reset:", cb.State())
	// Output:
	// Initial state: closed
	// After failures: open
	// Rejected: true
	// After reset: closed
}

func ExampleRetry_Execute() {
	r := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
	})

	attempts := 0
	err := r.Execute(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	fmt.Println("attempts:", attempts, "err:", err)
	// Output:
	// attempts: 3 err: <nil>
}

func ExamplePermanent() {
	r := resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond})
	notFound := errors.New("user not found")

	attempts := 0
	err := r.Execute(context.Background(), func(context.Context) error {
		attempts++
		return resilience.Permanent(notFound)
	})
	fmt.Println("attempts:", attempts)
	fmt.Println("not found:", errors.Is(err, notFound))
	// Output:
	// attempts: 1
	// not found: true
}

func ExampleDo() {
	exec := resilience.NewExecutor(
		resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: time.Millisecond,
		})),
		resilience.WithTimeout(time.Second),
	)

	calls := 0
	name, err := resilience.Do(context.Background(), exec, func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("connection reset")
		}
		return "alice", nil
	})
	fmt.Println(name, err)
	// Output:
	// alice <nil>
}
