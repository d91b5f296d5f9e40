// Package cache provides a generic multi-reader/single-writer key/value cache.
//
// A Cache is an unbounded map guarded by a sync.RWMutex. Reads share the lock;
// writes, miss population and validation-driven eviction take it exclusively
// and re-check the map after the upgrade so that a value is populated at most
// once per miss episode and an invalid value is never served after it has been
// confirmed invalid under the write lock.
//
// Callbacks passed to a Cache must not call back into the same Cache: the
// lock is not reentrant and doing so deadlocks.
//
// The package also provides Keyer, which derives deterministic string keys
// from structured inputs.
package cache
