package cache

import "github.com/jonwraymond/synccache/observe"

// DefaultName is the telemetry name of a cache created without WithName.
const DefaultName = "cache"

// Option configures a Cache.
type Option func(*options)

type options struct {
	name    string
	metrics observe.CacheMetrics
	logger  observe.Logger
}

func defaultOptions() options {
	return options{
		name:    DefaultName,
		metrics: observe.NewNoopMetrics(),
		logger:  observe.NewNoopLogger(),
	}
}

// WithName sets the name reported in metrics and log fields.
// An empty name keeps DefaultName.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithMetrics records lookups, populations and evictions.
func WithMetrics(m observe.CacheMetrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithLogger logs populations and evictions at debug level.
func WithLogger(l observe.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithInstrumentation applies the metrics and logger of inst.
func WithInstrumentation(inst *observe.Instrumentation) Option {
	return func(o *options) {
		if inst == nil {
			return
		}
		WithMetrics(inst.Metrics)(o)
		WithLogger(inst.Logger)(o)
	}
}
