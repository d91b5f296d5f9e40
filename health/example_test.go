package health_test

import (
	"context"
	"fmt"

	"github.com/jonwraymond/synccache/cache"
	"github.com/jonwraymond/synccache/health"
	"github.com/jonwraymond/synccache/resilience"
)

func ExampleCacheChecker() {
	users := cache.New[int, string]()
	for i := range 12 {
		users.Set(i, fmt.Sprint("user-", i))
	}

	checker := health.NewCacheChecker(users, health.CacheCheckerConfig{
		Name:        "users",
		WarnEntries: 10,
		MaxEntries:  100,
	})

	r := checker.Check(context.Background())
	fmt.Println(r.Status, "-", r.Message)
	// Output:
	// degraded - 12 entries exceeds warning level 10
}

func ExampleAggregator() {
	users := cache.New[int, string]()
	users.Set(1, "alice")

	agg := health.NewAggregator()
	agg.Register("users", health.NewCacheChecker(users, health.CacheCheckerConfig{MaxEntries: 10}))
	agg.Register("users-source", health.NewBreakerChecker("users-source",
		resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{})))

	results := agg.CheckAll(context.Background())
	for _, name := range agg.CheckerNames() {
		fmt.Println(name, results[name].Status)
	}
	fmt.Println("overall:", agg.OverallStatus(results))
	// Output:
	// users healthy
	// users-source healthy
	// overall: healthy
}
