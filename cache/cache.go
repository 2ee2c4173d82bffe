// Package cache provides a generic, thread-safe LRU cache with per-entry
// TTL and an eviction hook.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"
)

// Cache is a generic thread-safe LRU cache. Capacity bounds the entry count;
// an optional TTL bounds entry freshness. An eviction hook, when set, runs
// for every value that leaves the cache (capacity pressure, expiry, Delete,
// Clear, or replacement by Set).
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	items    map[K]*entry[K, V]
	order    *list.List
	capacity int
	ttl      time.Duration
	onEvict  func(K, V)

	// Metrics (lock-free using atomics)
	hits    atomic.Uint64
	misses  atomic.Uint64
	evicts  atomic.Uint64
	expires atomic.Uint64
	sets    atomic.Uint64

	now func() time.Time // test hook
}

// entry holds a cached value, its position in the LRU list, and its expiry.
type entry[K comparable, V any] struct {
	key       K
	value     V
	element   *list.Element
	expiresAt time.Time // zero means no expiry
}

// New creates a Cache with the given capacity and no TTL.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	return NewWithTTL[K, V](capacity, 0)
}

// NewWithTTL creates a Cache whose entries expire ttl after insertion.
// A zero ttl disables expiry.
func NewWithTTL[K comparable, V any](capacity int, ttl time.Duration) *Cache[K, V] {
	if capacity <= 0 {
		capacity = 100
	}
	return &Cache[K, V]{
		items:    make(map[K]*entry[K, V], capacity),
		order:    list.New(),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// OnEvict registers fn to run for every value removed from the cache.
// The hook runs outside the cache lock. It must be set before the cache is
// shared between goroutines.
func (c *Cache[K, V]) OnEvict(fn func(K, V)) {
	c.onEvict = fn
}

// Get retrieves a value. Expired entries are removed and reported as misses.
// A hit moves the entry to the front of the LRU order.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	var dropped *entry[K, V]

	c.mu.Lock()
	e, ok := c.items[key]
	if ok && c.isExpired(e) {
		c.remove(e)
		c.expires.Add(1)
		dropped = e
		ok = false
	}
	var value V
	if ok {
		c.order.MoveToFront(e.element)
		value = e.value
	}
	c.mu.Unlock()

	if dropped != nil && c.onEvict != nil {
		c.onEvict(dropped.key, dropped.value)
	}
	if !ok {
		c.misses.Add(1)
		return value, false
	}
	c.hits.Add(1)
	return value, true
}

// Set adds or updates a value. At capacity, the least recently used entry is
// evicted first.
func (c *Cache[K, V]) Set(key K, value V) {
	c.sets.Add(1)

	var dropped []*entry[K, V]

	c.mu.Lock()
	if e, ok := c.items[key]; ok {
		old := *e
		e.value = value
		e.expiresAt = c.expiry()
		c.order.MoveToFront(e.element)
		c.mu.Unlock()
		if c.onEvict != nil {
			c.onEvict(old.key, old.value)
		}
		return
	}

	if len(c.items) >= c.capacity {
		if e := c.evictOldest(); e != nil {
			dropped = append(dropped, e)
		}
	}

	element := c.order.PushFront(key)
	c.items[key] = &entry[K, V]{
		key:       key,
		value:     value,
		element:   element,
		expiresAt: c.expiry(),
	}
	c.mu.Unlock()

	if c.onEvict != nil {
		for _, e := range dropped {
			c.onEvict(e.key, e.value)
		}
	}
}

// Delete removes an entry.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	e, ok := c.items[key]
	if ok {
		c.remove(e)
	}
	c.mu.Unlock()

	if ok && c.onEvict != nil {
		c.onEvict(e.key, e.value)
	}
}

// Len returns the current entry count, including not-yet-collected expired
// entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Clear removes all entries.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	removed := make([]*entry[K, V], 0, len(c.items))
	for _, e := range c.items {
		removed = append(removed, e)
	}
	c.items = make(map[K]*entry[K, V], c.capacity)
	c.order.Init()
	c.mu.Unlock()

	if c.onEvict != nil {
		for _, e := range removed {
			c.onEvict(e.key, e.value)
		}
	}
}

// Keys returns all keys in no particular order.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	return keys
}

// Stats holds cache statistics.
type Stats struct {
	Size     int
	Capacity int
	Hits     uint64
	Misses   uint64
	Evicts   uint64
	Expires  uint64
	Sets     uint64
	HitRate  float64
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	size := len(c.items)
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		Size:     size,
		Capacity: c.capacity,
		Hits:     hits,
		Misses:   misses,
		Evicts:   c.evicts.Load(),
		Expires:  c.expires.Load(),
		Sets:     c.sets.Load(),
		HitRate:  hitRate,
	}
}

// expiry computes the expiry timestamp for a fresh entry.
func (c *Cache[K, V]) expiry() time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return c.now().Add(c.ttl)
}

func (c *Cache[K, V]) isExpired(e *entry[K, V]) bool {
	return !e.expiresAt.IsZero() && c.now().After(e.expiresAt)
}

// evictOldest removes the least recently used entry. Must be called with mu
// held; the caller runs the eviction hook.
func (c *Cache[K, V]) evictOldest() *entry[K, V] {
	oldest := c.order.Back()
	if oldest == nil {
		return nil
	}
	key := oldest.Value.(K)
	e := c.items[key]
	delete(c.items, key)
	c.order.Remove(oldest)
	c.evicts.Add(1)
	return e
}

// remove unlinks an entry. Must be called with mu held.
func (c *Cache[K, V]) remove(e *entry[K, V]) {
	delete(c.items, e.key)
	c.order.Remove(e.element)
}
