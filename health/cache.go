package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/synccache/resilience"
)

// Sizer is satisfied by cache.Cache, tokencache.Verifier and anything else
// that can report how many entries it holds.
type Sizer interface {
	Len() int
}

// CacheCheckerConfig configures a CacheChecker. Zero thresholds are
// disabled.
type CacheCheckerConfig struct {
	// Name is returned by Name. Default: "cache"
	Name string

	// WarnEntries is the entry count above which the cache is degraded.
	WarnEntries int

	// MaxEntries is the entry count above which the cache is unhealthy.
	MaxEntries int
}

// CacheChecker reports cache growth. It never modifies the cache.
type CacheChecker struct {
	cache  Sizer
	config CacheCheckerConfig
}

// NewCacheChecker creates a checker for c.
func NewCacheChecker(c Sizer, config CacheCheckerConfig) *CacheChecker {
	if config.Name == "" {
		config.Name = "cache"
	}
	return &CacheChecker{cache: c, config: config}
}

// Name returns the configured name.
func (c *CacheChecker) Name() string {
	return c.config.Name
}

// Check compares the current entry count with the thresholds.
func (c *CacheChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	n := c.cache.Len()
	details := map[string]any{"entries": n}
	if c.config.WarnEntries > 0 {
		details["warn_entries"] = c.config.WarnEntries
	}
	if c.config.MaxEntries > 0 {
		details["max_entries"] = c.config.MaxEntries
	}

	switch {
	case c.config.MaxEntries > 0 && n > c.config.MaxEntries:
		return Unhealthy(fmt.Sprintf("%d entries exceeds limit %d", n, c.config.MaxEntries), ErrThresholdExceeded).
			WithDetails(details)
	case c.config.WarnEntries > 0 && n > c.config.WarnEntries:
		return Degraded(fmt.Sprintf("%d entries exceeds warning level %d", n, c.config.WarnEntries)).
			WithDetails(details)
	default:
		return Healthy(fmt.Sprintf("%d entries", n)).WithDetails(details)
	}
}

// BreakerChecker reports the state of a circuit breaker guarding a cache
// source: closed is healthy, half-open degraded and open unhealthy.
type BreakerChecker struct {
	name    string
	breaker *resilience.CircuitBreaker
}

// NewBreakerChecker creates a checker for cb.
func NewBreakerChecker(name string, cb *resilience.CircuitBreaker) *BreakerChecker {
	return &BreakerChecker{name: name, breaker: cb}
}

// Name returns the configured name.
func (b *BreakerChecker) Name() string {
	return b.name
}

// Check reads the breaker state.
func (b *BreakerChecker) Check(context.Context) Result {
	if b.breaker == nil {
		return Healthy("no circuit breaker configured")
	}

	stats := b.breaker.Stats()
	details := map[string]any{
		"state":    stats.State.String(),
		"failures": stats.Failures,
		"rejected": stats.Rejected,
	}

	switch stats.State {
	case resilience.StateOpen:
		return Unhealthy("source circuit open", resilience.ErrCircuitOpen).WithDetails(details)
	case resilience.StateHalfOpen:
		return Degraded("source circuit probing").WithDetails(details)
	default:
		return Healthy("source circuit closed").WithDetails(details)
	}
}
