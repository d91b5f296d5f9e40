package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/synccache/cache"
	"github.com/jonwraymond/synccache/resilience"
)

func filledCache(n int) *cache.Cache[int, int] {
	c := cache.New[int, int]()
	for i := range n {
		c.Set(i, i)
	}
	return c
}

func TestCacheChecker(t *testing.T) {
	cfg := CacheCheckerConfig{Name: "users", WarnEntries: 10, MaxEntries: 20}

	tests := []struct {
		name    string
		entries int
		cfg     CacheCheckerConfig
		want    Status
		wantErr error
	}{
		{"empty", 0, cfg, StatusHealthy, nil},
		{"at warn level", 10, cfg, StatusHealthy, nil},
		{"above warn level", 11, cfg, StatusDegraded, nil},
		{"at max", 20, cfg, StatusDegraded, nil},
		{"above max", 21, cfg, StatusUnhealthy, ErrThresholdExceeded},
		{"no thresholds", 1000, CacheCheckerConfig{}, StatusHealthy, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCacheChecker(filledCache(tt.entries), tt.cfg)
			r := c.Check(context.Background())

			if r.Status != tt.want {
				t.Errorf("Status = %v, want %v (%s)", r.Status, tt.want, r.Message)
			}
			if !errors.Is(r.Error, tt.wantErr) {
				t.Errorf("Error = %v, want %v", r.Error, tt.wantErr)
			}
			if r.Details["entries"] != tt.entries {
				t.Errorf("entries detail = %v, want %d", r.Details["entries"], tt.entries)
			}
		})
	}
}

func TestCacheChecker_Name(t *testing.T) {
	if NewCacheChecker(filledCache(0), CacheCheckerConfig{}).Name() != "cache" {
		t.Error("default name should be cache")
	}
	if NewCacheChecker(filledCache(0), CacheCheckerConfig{Name: "tokens"}).Name() != "tokens" {
		t.Error("configured name not used")
	}
}

func TestCacheChecker_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewCacheChecker(filledCache(1), CacheCheckerConfig{}).Check(ctx)
	if r.Status != StatusUnhealthy || !errors.Is(r.Error, context.Canceled) {
		t.Errorf("got %v / %v", r.Status, r.Error)
	}
}

func TestCacheChecker_DoesNotMutate(t *testing.T) {
	c := filledCache(5)
	_ = NewCacheChecker(c, CacheCheckerConfig{MaxEntries: 1}).Check(context.Background())
	if c.Len() != 5 {
		t.Errorf("Len() = %d, checker must not evict", c.Len())
	}
}

func TestBreakerChecker(t *testing.T) {
	var now time.Time
	clock := func() time.Time { return now }
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures:  1,
		ResetTimeout: time.Minute,
		Now:          clock,
	})
	checker := NewBreakerChecker("users-source", cb)
	ctx := context.Background()

	if checker.Name() != "users-source" {
		t.Errorf("Name() = %q", checker.Name())
	}
	if r := checker.Check(ctx); r.Status != StatusHealthy {
		t.Errorf("closed: Status = %v", r.Status)
	}

	_ = cb.Execute(ctx, func(context.Context) error { return errors.New("down") })
	r := checker.Check(ctx)
	if r.Status != StatusUnhealthy || !errors.Is(r.Error, resilience.ErrCircuitOpen) {
		t.Errorf("open: Status = %v, Error = %v", r.Status, r.Error)
	}
	if r.Details["state"] != "open" {
		t.Errorf("state detail = %v", r.Details["state"])
	}

	now = now.Add(time.Minute)
	if r := checker.Check(ctx); r.Status != StatusDegraded {
		t.Errorf("half-open: Status = %v", r.Status)
	}
}

func TestBreakerChecker_Nil(t *testing.T) {
	if r := NewBreakerChecker("none", nil).Check(context.Background()); r.Status != StatusHealthy {
		t.Errorf("Status = %v", r.Status)
	}
}
