package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names.
const (
	MetricHits         = "cache.hits"
	MetricMisses       = "cache.misses"
	MetricPopulations  = "cache.populations"
	MetricEvictions    = "cache.evictions"
	MetricLoadDuration = "cache.load.duration_ms"
	MetricLoadErrors   = "cache.load.errors"
)

// CacheMetrics records cache activity.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly; may be called while a cache lock is held by another goroutine.
// - Errors: implementations must not panic.
type CacheMetrics interface {
	// RecordLookup records a hit or a miss.
	RecordLookup(ctx context.Context, meta CacheMeta, hit bool)

	// RecordPopulate records a value inserted on a miss.
	RecordPopulate(ctx context.Context, meta CacheMeta)

	// RecordEviction records a value removed after failing validation.
	RecordEviction(ctx context.Context, meta CacheMeta)

	// RecordLoad records a backing fetch with its duration and outcome.
	RecordLoad(ctx context.Context, meta CacheMeta, duration time.Duration, err error)
}

type metricsImpl struct {
	hits         metric.Int64Counter
	misses       metric.Int64Counter
	populations  metric.Int64Counter
	evictions    metric.Int64Counter
	loadErrors   metric.Int64Counter
	loadDuration metric.Float64Histogram
}

// NewCacheMetrics creates CacheMetrics backed by meter.
func NewCacheMetrics(meter metric.Meter) (CacheMetrics, error) {
	m := &metricsImpl{}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&m.hits, MetricHits, "Lookups that found a usable value", "{lookup}"},
		{&m.misses, MetricMisses, "Lookups that found no usable value", "{lookup}"},
		{&m.populations, MetricPopulations, "Values inserted on a miss", "{entry}"},
		{&m.evictions, MetricEvictions, "Values removed after failing validation", "{entry}"},
		{&m.loadErrors, MetricLoadErrors, "Backing fetches that returned an error", "{error}"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	hist, err := meter.Float64Histogram(
		MetricLoadDuration,
		metric.WithDescription("Backing fetch duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}
	m.loadDuration = hist

	return m, nil
}

func (m *metricsImpl) RecordLookup(ctx context.Context, meta CacheMeta, hit bool) {
	opt := metric.WithAttributes(attribute.String("cache.name", meta.Name))
	if hit {
		m.hits.Add(ctx, 1, opt)
	} else {
		m.misses.Add(ctx, 1, opt)
	}
}

func (m *metricsImpl) RecordPopulate(ctx context.Context, meta CacheMeta) {
	m.populations.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.name", meta.Name)))
}

func (m *metricsImpl) RecordEviction(ctx context.Context, meta CacheMeta) {
	m.evictions.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.name", meta.Name)))
}

func (m *metricsImpl) RecordLoad(ctx context.Context, meta CacheMeta, duration time.Duration, err error) {
	// Entry keys stay out of metric attributes.
	meta.Key = ""
	opt := metric.WithAttributes(meta.attributes()...)
	if err != nil {
		m.loadErrors.Add(ctx, 1, opt)
	}
	m.loadDuration.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

type noopMetrics struct{}

// NewNoopMetrics returns CacheMetrics that records nothing.
func NewNoopMetrics() CacheMetrics { return noopMetrics{} }

func (noopMetrics) RecordLookup(context.Context, CacheMeta, bool)                   {}
func (noopMetrics) RecordPopulate(context.Context, CacheMeta)                       {}
func (noopMetrics) RecordEviction(context.Context, CacheMeta)                       {}
func (noopMetrics) RecordLoad(context.Context, CacheMeta, time.Duration, error)     {}
