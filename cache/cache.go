package cache

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/jonwraymond/synccache/observe"
)

// Generator produces a value for a missing key. It returns false when no
// value could be produced, in which case nothing is stored.
type Generator[V any] func() (V, bool)

// Validator reports whether a stored value is still usable. A false result
// causes the entry to be evicted.
type Validator[V any] func(V) bool

// Cache is a concurrency-safe map from K to V.
//
// Contract:
//   - Concurrency: all methods are safe for concurrent use. Read paths share
//     the lock; writes, population and eviction hold it exclusively.
//   - Callbacks: Generator runs under the write lock. Validator runs once with
//     no lock held and, if it fails, again under the write lock before the
//     entry is evicted. Neither may call back into the Cache.
//   - Errors: absence and invalidation are reported as (zero, false).
//   - Panics: a panicking callback releases the lock and leaves the map as it
//     was before that step.
type Cache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V

	meta    observe.CacheMeta
	metrics observe.CacheMetrics
	logger  observe.Logger

	queue writeQueue[K, V]
}

// New creates an empty cache.
func New[K comparable, V any](opts ...Option) *Cache[K, V] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Cache[K, V]{
		entries: make(map[K]V),
		meta:    observe.CacheMeta{Name: o.name},
		metrics: o.metrics,
		logger:  o.logger.WithCache(observe.CacheMeta{Name: o.name}),
	}
	c.queue.init()
	return c
}

// Name returns the name the cache reports in telemetry.
func (c *Cache[K, V]) Name() string {
	return c.meta.Name
}

// Get returns the value stored for key. It never mutates the cache.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	v, ok := c.lookup(key)
	c.metrics.RecordLookup(context.Background(), c.meta, ok)
	return v, ok
}

// GetOrPopulate returns the value stored for key. On a miss it takes the
// write lock, checks again, and calls generate only if the key is still
// absent. The returned value is whatever the map holds when the call
// completes: the existing value, one stored by a concurrent caller, or the
// freshly generated one.
func (c *Cache[K, V]) GetOrPopulate(key K, generate Generator[V]) (V, bool) {
	if v, ok := c.lookup(key); ok {
		c.metrics.RecordLookup(context.Background(), c.meta, true)
		return v, true
	}
	c.metrics.RecordLookup(context.Background(), c.meta, false)
	return c.populate(key, generate)
}

// GetOrRevalidate returns the value stored for key if validate accepts it.
// A rejected value is validated again under the write lock and evicted only
// if the current value still fails. It never populates.
func (c *Cache[K, V]) GetOrRevalidate(key K, validate Validator[V]) (V, bool) {
	v, ok := c.lookup(key)
	if !ok {
		c.metrics.RecordLookup(context.Background(), c.meta, false)
		return v, false
	}
	if validate(v) {
		c.metrics.RecordLookup(context.Background(), c.meta, true)
		return v, true
	}
	return c.revalidate(key, validate)
}

// GetOrPopulateWithRevalidation populates a missing key like GetOrPopulate and
// validates a present one like GetOrRevalidate. Exactly one of the two paths
// runs per call; a freshly generated value is not validated.
func (c *Cache[K, V]) GetOrPopulateWithRevalidation(key K, generate Generator[V], validate Validator[V]) (V, bool) {
	v, ok := c.lookup(key)
	if !ok {
		c.metrics.RecordLookup(context.Background(), c.meta, false)
		return c.populate(key, generate)
	}
	if validate(v) {
		c.metrics.RecordLookup(context.Background(), c.meta, true)
		return v, true
	}
	return c.revalidate(key, validate)
}

// Set stores value for key, replacing any existing value. Writes previously
// requested with SetAsync are applied first.
func (c *Cache[K, V]) Set(key K, value V) {
	c.Flush()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// Delete removes key. Idempotent - no-op on miss.
func (c *Cache[K, V]) Delete(key K) {
	c.Flush()

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes every entry.
func (c *Cache[K, V]) Clear() {
	c.Flush()

	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Keys returns a snapshot of the keys present at a single instant, in no
// particular order.
func (c *Cache[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Collect(maps.Keys(c.entries))
}

// ForEach calls fn once per entry while holding the write lock, so no other
// reader or writer runs during the iteration.
func (c *Cache[K, V]) ForEach(fn func(key K, value V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range c.entries {
		fn(k, v)
	}
}

// WithReadLock runs fn while holding the read lock.
func (c *Cache[K, V]) WithReadLock(fn func()) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn()
}

// WithWriteLock runs fn while holding the write lock.
func (c *Cache[K, V]) WithWriteLock(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
}

func (c *Cache[K, V]) lookup(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *Cache[K, V]) populate(key K, generate Generator[V]) (V, bool) {
	v, ok, inserted := c.populateLocked(key, generate)
	if inserted {
		c.metrics.RecordPopulate(context.Background(), c.meta)
		c.logger.Debug(context.Background(), "cache entry populated")
	}
	return v, ok
}

func (c *Cache[K, V]) populateLocked(key K, generate Generator[V]) (v V, ok, inserted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have populated key since the optimistic read.
	if v, ok = c.entries[key]; ok {
		return v, true, false
	}

	if v, ok = generate(); !ok {
		var zero V
		return zero, false, false
	}
	c.entries[key] = v
	return v, true, true
}

func (c *Cache[K, V]) revalidate(key K, validate Validator[V]) (V, bool) {
	v, ok, evicted := c.revalidateLocked(key, validate)
	if evicted {
		c.metrics.RecordEviction(context.Background(), c.meta)
		c.logger.Debug(context.Background(), "cache entry evicted")
	}
	c.metrics.RecordLookup(context.Background(), c.meta, ok)
	return v, ok
}

func (c *Cache[K, V]) revalidateLocked(key K, validate Validator[V]) (v V, ok, evicted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// The entry may have been replaced or removed since the unlocked check,
	// so the current value is validated again before anything is evicted.
	if v, ok = c.entries[key]; !ok {
		return v, false, false
	}
	if validate(v) {
		return v, true, false
	}

	delete(c.entries, key)
	var zero V
	return zero, false, true
}
