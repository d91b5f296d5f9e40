// Package resilience protects the fetch side of a read-through cache.
//
// A cache miss hands control to a backing source that may be slow, flaky or
// down. The patterns here bound that exposure:
//
//   - CircuitBreaker stops calling a source after repeated failures and
//     probes it again after a cool-down.
//   - Retry re-runs a failed fetch with exponential, linear or constant
//     backoff. Errors wrapped with Permanent are returned immediately.
//   - Timeout bounds a single attempt.
//
// Executor composes them in a fixed order (circuit, then retry, then
// timeout per attempt) and Do adapts the composition to value-returning
// fetches:
//
//	exec := resilience.NewExecutor(
//	    resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	        MaxFailures:  5,
//	        ResetTimeout: time.Minute,
//	    })),
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 3})),
//	    resilience.WithTimeout(2*time.Second),
//	)
//
//	user, err := resilience.Do(ctx, exec, func(ctx context.Context) (User, error) {
//	    return store.LoadUser(ctx, id)
//	})
//
// All types are safe for concurrent use.
package resilience
