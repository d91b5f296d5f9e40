// Package loader adds context-aware read-through loading on top of a
// cache.Cache.
//
// A Loader answers Load from the cache when it can. On a miss it fetches the
// value from a backing source without holding any cache lock, coalesces
// concurrent fetches for the same key into one call, and publishes the
// result with GetOrPopulate, so a value stored by a concurrent writer in the
// meantime wins over the fetched one. Errors are never cached.
//
// Forget invalidates a key: fetches already running for it still answer
// their callers but no longer store their result.
//
// # Context handling
//
// Each caller waits on its own context. The shared fetch runs on a context
// detached from the caller's cancellation but carrying its values, so one
// caller giving up does not fail the others. Bound the fetch itself with a
// resilience.Executor timeout.
//
// # Usage
//
//	users := cache.New[int, User](cache.WithName("users"))
//	l, err := loader.New(users, store.LoadUser, loader.Config[User]{
//	    Validate: func(u User) bool { return !u.Disabled },
//	    Executor: resilience.NewExecutor(resilience.WithTimeout(2 * time.Second)),
//	})
//	if err != nil {
//	    return err
//	}
//	u, err := l.Load(ctx, 42)
package loader
