package cache

import "sync"

type pendingWrite[K comparable, V any] struct {
	key   K
	value V
}

// writeQueue holds SetAsync requests. At most one drain goroutine runs at a
// time and it exits once the queue is empty, so writes land in request order.
type writeQueue[K comparable, V any] struct {
	mu        sync.Mutex
	applied   *sync.Cond
	pending   []pendingWrite[K, V]
	draining  bool
	requested uint64
	done      uint64
}

func (q *writeQueue[K, V]) init() {
	q.applied = sync.NewCond(&q.mu)
}

// SetAsync requests that value be stored for key without waiting for the
// write. Async writes are applied in the order they were requested; use
// Flush to wait for them.
func (c *Cache[K, V]) SetAsync(key K, value V) {
	q := &c.queue

	q.mu.Lock()
	q.pending = append(q.pending, pendingWrite[K, V]{key: key, value: value})
	q.requested++
	start := !q.draining
	q.draining = true
	q.mu.Unlock()

	if start {
		go c.drain()
	}
}

// Flush blocks until every SetAsync requested before the call has been
// applied. Writes requested concurrently with Flush may or may not be
// included.
func (c *Cache[K, V]) Flush() {
	q := &c.queue

	q.mu.Lock()
	defer q.mu.Unlock()
	target := q.requested
	for q.done < target {
		q.applied.Wait()
	}
}

func (c *Cache[K, V]) drain() {
	q := &c.queue
	for {
		q.mu.Lock()
		batch := q.pending
		q.pending = nil
		if len(batch) == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
		q.mu.Unlock()

		c.applyBatch(batch)

		q.mu.Lock()
		q.done += uint64(len(batch))
		q.applied.Broadcast()
		q.mu.Unlock()
	}
}

func (c *Cache[K, V]) applyBatch(batch []pendingWrite[K, V]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, w := range batch {
		c.entries[w.key] = w.value
	}
}
