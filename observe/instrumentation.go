package observe

import (
	"context"
	"time"
)

// Instrumentation bundles the telemetry primitives used by caches and
// loaders.
//
// Contract:
//   - Concurrency: safe for concurrent use once constructed.
//   - Errors: errors from observed functions are recorded and returned unchanged.
type Instrumentation struct {
	Tracer  Tracer
	Metrics CacheMetrics
	Logger  Logger
}

// NewInstrumentation creates an Instrumentation. Nil arguments are replaced
// with no-op implementations.
func NewInstrumentation(tracer Tracer, metrics CacheMetrics, logger Logger) *Instrumentation {
	if tracer == nil {
		tracer = NewNoopTracer()
	}
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	if logger == nil {
		logger = NewNoopLogger()
	}
	return &Instrumentation{Tracer: tracer, Metrics: metrics, Logger: logger}
}

// NoopInstrumentation returns an Instrumentation that records nothing.
func NoopInstrumentation() *Instrumentation {
	return NewInstrumentation(nil, nil, nil)
}

// InstrumentationFromObserver builds an Instrumentation from obs.
func InstrumentationFromObserver(obs Observer) (*Instrumentation, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := NewCacheMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewInstrumentation(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Observe runs fn inside a span named after meta, records its duration as a
// load and logs the outcome.
func (i *Instrumentation) Observe(ctx context.Context, meta CacheMeta, fn func(context.Context) error) error {
	ctx, span := i.Tracer.StartSpan(ctx, meta)
	start := time.Now()

	err := fn(ctx)

	duration := time.Since(start)
	i.Tracer.EndSpan(span, err)
	i.Metrics.RecordLoad(ctx, meta, duration, err)

	logger := i.Logger.WithCache(meta)
	fields := []Field{{Key: "duration_ms", Value: float64(duration.Microseconds()) / 1000}}
	if err != nil {
		fields = append(fields, Field{Key: "error", Value: err.Error()})
		logger.Warn(ctx, "cache load failed", fields...)
	} else {
		logger.Debug(ctx, "cache load completed", fields...)
	}

	return err
}
