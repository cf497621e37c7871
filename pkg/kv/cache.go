// Package kv provides a concurrency-safe cache whose entries are checked for
// freshness on every read, used for documents keyed by file path.
package kv

import (
	"sync"
	"sync/atomic"
)

// Cache maps keys to values that may go stale. Readers pass a freshness
// check to Lookup; stale entries are evicted on read.
type Cache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Stats reports cache effectiveness since creation or the last Reset.
type Stats struct {
	Entries int
	Hits    uint64
	Misses  uint64
}

func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{entries: make(map[K]V)}
}

// Lookup returns the value for key while fresh reports it valid.
func (c *Cache[K, V]) Lookup(key K, fresh func(V) bool) (V, bool) {
	c.mu.RLock()
	val, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && fresh(val) {
		c.hits.Add(1)
		return val, true
	}
	c.misses.Add(1)

	var zero V
	if !ok {
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// a writer may have replaced the entry since the read lock was released
	if cur, ok := c.entries[key]; ok && !fresh(cur) {
		delete(c.entries, key)
	}
	return zero, false
}

func (c *Cache[K, V]) Put(key K, val V) {
	c.mu.Lock()
	c.entries[key] = val
	c.mu.Unlock()
}

func (c *Cache[K, V]) Forget(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Reset drops every entry and zeroes the counters.
func (c *Cache[K, V]) Reset() {
	c.mu.Lock()
	c.entries = make(map[K]V)
	c.mu.Unlock()
	c.hits.Store(0)
	c.misses.Store(0)
}

func (c *Cache[K, V]) Stats() Stats {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	return Stats{Entries: n, Hits: c.hits.Load(), Misses: c.misses.Load()}
}
