// Package observe provides logging, metrics and tracing for caches.
//
// It is a pure instrumentation library: no caching and no I/O beyond exporter
// setup. Caches and loaders accept the primitives defined here through their
// options; everything defaults to a no-op implementation.
package observe
