// Package health reports on caches and the sources behind them.
//
// The cache package places no bound on its size, and a loader's circuit
// breaker can silently cut a cache off from its source. The checkers here
// surface both conditions:
//
//   - CacheChecker reports the entry count of anything with a Len method
//     and degrades or fails past configured thresholds.
//   - BreakerChecker maps a resilience.CircuitBreaker state to a Status.
//
// An Aggregator runs named checkers concurrently under one deadline and
// folds their results into an overall Status:
//
//	agg := health.NewAggregator()
//	agg.Register("users", health.NewCacheChecker(users, health.CacheCheckerConfig{
//	    WarnEntries: 50_000,
//	    MaxEntries:  100_000,
//	}))
//	agg.Register("users-source", health.NewBreakerChecker("users-source", breaker))
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
//
// RegisterHandlers mounts /healthz (liveness), /readyz (plain-text status)
// and /health (JSON with per-check details).
package health
