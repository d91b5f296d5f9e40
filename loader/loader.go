package loader

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/synccache/cache"
	"github.com/jonwraymond/synccache/observe"
	"github.com/jonwraymond/synccache/resilience"
)

// FetchFunc loads the value for key from the backing source.
type FetchFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Config configures a Loader. The zero value is usable.
type Config[V any] struct {
	// Validate, if set, is applied to cached values on every Load. Rejected
	// values are evicted and fetched again.
	Validate cache.Validator[V]

	// Executor wraps every fetch. Default: fetch is called directly.
	Executor *resilience.Executor

	// Instrumentation records a span, a load duration and a log line per
	// fetch. Default: no-op.
	Instrumentation *observe.Instrumentation

	// Keyer hashes cache keys into the cache.key span attribute and log
	// field, so raw keys stay out of telemetry.
	// Default: cache.NewHashKeyer()
	Keyer cache.Keyer
}

// Loader is a read-through front for a Cache.
//
// Contract:
//   - Concurrency: safe for concurrent use. Concurrent Loads of the same key
//     share one fetch; keys are compared with ==, never by formatting.
//   - Context: Load and Refresh return ctx.Err() once ctx is done.
//   - Errors: fetch errors are wrapped and returned, never stored.
type Loader[K comparable, V any] struct {
	cache    *cache.Cache[K, V]
	fetch    FetchFunc[K, V]
	validate cache.Validator[V]
	exec     *resilience.Executor
	inst     *observe.Instrumentation
	keyer    cache.Keyer
	meta     observe.CacheMeta
	group    singleflight.Group

	mu     sync.Mutex
	keys   map[K]*keyState
	nextID uint64
}

// keyState tracks a key while a Load or Refresh for it is running.
type keyState struct {
	id    uint64 // unique per state; names the singleflight call
	epoch uint64 // bumped by Forget
	refs  int
}

// New creates a Loader that fills c with fetch.
func New[K comparable, V any](c *cache.Cache[K, V], fetch FetchFunc[K, V], cfg Config[V]) (*Loader[K, V], error) {
	if c == nil {
		return nil, ErrNilCache
	}
	if fetch == nil {
		return nil, ErrNilFetch
	}
	if cfg.Instrumentation == nil {
		cfg.Instrumentation = observe.NoopInstrumentation()
	}
	if cfg.Keyer == nil {
		cfg.Keyer = cache.NewHashKeyer()
	}

	return &Loader[K, V]{
		cache:    c,
		fetch:    fetch,
		validate: cfg.Validate,
		exec:     cfg.Executor,
		inst:     cfg.Instrumentation,
		keyer:    cfg.Keyer,
		meta:     observe.CacheMeta{Name: c.Name()},
		keys:     make(map[K]*keyState),
	}, nil
}

// Cache returns the underlying cache.
func (l *Loader[K, V]) Cache() *cache.Cache[K, V] {
	return l.cache
}

// Load returns the cached value for key, fetching it on a miss.
func (l *Loader[K, V]) Load(ctx context.Context, key K) (V, error) {
	if v, ok := l.cached(key); ok {
		return v, nil
	}

	var zero V
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	st, epoch := l.acquire(key)
	defer l.release(key, st)

	fetchCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan(flightKey(st.id, epoch), func() (any, error) {
		return l.loadFlight(fetchCtx, key)
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(V)
		return v, nil
	}
}

// loadFlight fetches key and stores the result unless Forget was called for
// key after the fetch started.
func (l *Loader[K, V]) loadFlight(ctx context.Context, key K) (any, error) {
	st, epoch := l.acquire(key)
	defer l.release(key, st)

	v, err := l.fetchObserved(ctx, key, "load")
	if err != nil {
		return nil, err
	}
	l.publish(st, epoch, func() {
		fetched := v
		v, _ = l.cache.GetOrPopulate(key, func() (V, bool) { return fetched, true })
	})
	return v, nil
}

// Refresh fetches key unconditionally and overwrites the cached value. The
// value is not stored if Forget is called for key while the fetch runs.
func (l *Loader[K, V]) Refresh(ctx context.Context, key K) (V, error) {
	var zero V
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	st, epoch := l.acquire(key)
	defer l.release(key, st)

	v, err := l.fetchObserved(ctx, key, "refresh")
	if err != nil {
		return zero, err
	}
	l.publish(st, epoch, func() { l.cache.Set(key, v) })
	return v, nil
}

// Forget removes key from the cache. Fetches for key that are already
// running still answer their callers but do not store their result, and a
// Load started afterwards fetches again.
func (l *Loader[K, V]) Forget(key K) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if st := l.keys[key]; st != nil {
		st.epoch++
	}
	l.cache.Delete(key)
}

func (l *Loader[K, V]) cached(key K) (V, bool) {
	if l.validate == nil {
		return l.cache.Get(key)
	}
	return l.cache.GetOrRevalidate(key, l.validate)
}

// acquire returns the state for key, creating it if needed, and the current
// epoch. Every acquire must be paired with a release.
func (l *Loader[K, V]) acquire(key K) (*keyState, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := l.keys[key]
	if st == nil {
		l.nextID++
		st = &keyState{id: l.nextID}
		l.keys[key] = st
	}
	st.refs++
	return st, st.epoch
}

func (l *Loader[K, V]) release(key K, st *keyState) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if st.refs--; st.refs == 0 {
		delete(l.keys, key)
	}
}

// publish runs store if no Forget happened since epoch was read. Forget
// takes the same lock, so a store either lands before the delete or not at
// all.
func (l *Loader[K, V]) publish(st *keyState, epoch uint64, store func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if st.epoch == epoch {
		store()
	}
}

func flightKey(id, epoch uint64) string {
	return strconv.FormatUint(id, 10) + "/" + strconv.FormatUint(epoch, 10)
}

// metaFor returns the telemetry metadata for op on key. The key is hashed;
// a key the Keyer cannot encode is left out.
func (l *Loader[K, V]) metaFor(key K, op string) observe.CacheMeta {
	meta := l.meta.WithOperation(op)
	if k, err := l.keyer.Key(l.meta.Name, fmt.Sprintf("%#v", key)); err == nil {
		meta.Key = k
	}
	return meta
}

func (l *Loader[K, V]) fetchObserved(ctx context.Context, key K, op string) (V, error) {
	var v V
	err := l.inst.Observe(ctx, l.metaFor(key, op), func(ctx context.Context) error {
		var err error
		v, err = resilience.Do(ctx, l.exec, func(ctx context.Context) (V, error) {
			return l.safeFetch(ctx, key)
		})
		return err
	})
	if err != nil {
		var zero V
		return zero, fmt.Errorf("loader: %s %s: %w", op, l.meta.Name, err)
	}
	return v, nil
}

func (l *Loader[K, V]) safeFetch(ctx context.Context, key K) (v V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = resilience.Permanent(fmt.Errorf("%w: %v", ErrFetchPanic, r))
		}
	}()
	return l.fetch(ctx, key)
}
