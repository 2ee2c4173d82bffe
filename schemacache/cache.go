// Package schemacache caches compiled schema handles keyed by schema
// identity. Concurrent requests for the same uncached identity are collapsed
// into a single compile, and recent compile failures are answered from a
// short grace window instead of hammering the origin.
package schemacache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	xmlvalidator "github.com/xmlvalid/validator"
	"github.com/xmlvalid/validator/cache"
	"github.com/xmlvalid/validator/engine"
	"github.com/xmlvalid/validator/store"
)

type failure struct {
	err error
	at  time.Time
}

// Cache resolves schema identities to ready-to-use compiled handles.
//
// Every handle returned by Get carries a reference owned by the caller, who
// must Release it when done. The cache holds its own reference for as long
// as the entry lives, so eviction never invalidates a handle still in use.
type Cache struct {
	engine  *engine.Engine
	store   *store.Store
	group   singleflight.Group
	metrics *xmlvalidator.Metrics
	log     *slog.Logger
	grace   time.Duration

	mu       sync.Mutex
	entries  *cache.Cache[string, *engine.Handle]
	failures map[string]failure
}

// New creates a Cache backed by eng and st.
func New(eng *engine.Engine, st *store.Store, opts *xmlvalidator.Options, metrics *xmlvalidator.Metrics, log *slog.Logger) *Cache {
	if opts == nil {
		opts = xmlvalidator.DefaultOptions()
	}
	if metrics == nil {
		metrics = xmlvalidator.NewMetrics()
	}
	if log == nil {
		log = slog.Default()
	}

	c := &Cache{
		engine:   eng,
		store:    st,
		metrics:  metrics,
		log:      log,
		grace:    opts.FailureGrace,
		entries:  cache.NewWithTTL[string, *engine.Handle](opts.ParsedEntries, opts.ParsedTTL),
		failures: make(map[string]failure),
	}
	c.entries.OnEvict(func(_ string, h *engine.Handle) {
		h.Release()
	})
	return c
}

// Get returns a compiled handle for identity, compiling and caching it on a
// miss. The caller owns one reference on the returned handle and must
// Release it.
func (c *Cache) Get(ctx context.Context, identity string) (*engine.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	first := true
	for {
		if h := c.acquire(identity); h != nil {
			if first {
				c.metrics.RecordParsedCache(true)
			}
			return h, nil
		}
		if first {
			c.metrics.RecordParsedCache(false)
			first = false
		}

		if err := c.recentFailure(identity); err != nil {
			return nil, err
		}

		_, err, _ := c.group.Do(identity, func() (any, error) {
			if c.cached(identity) {
				return nil, nil
			}
			h, err := c.build(ctx, identity)
			if err != nil {
				c.recordFailure(identity, err)
				return nil, err
			}
			c.insert(identity, h)
			return nil, nil
		})
		if err != nil {
			return nil, err
		}
		// The entry is cached now; loop back to take a reference. A retry
		// only happens if the entry was evicted in the meantime.
	}
}

// build fetches raw bytes from the store and compiles them. Nested
// xs:include and xs:import locations resolve through the same store.
func (c *Cache) build(ctx context.Context, identity string) (*engine.Handle, error) {
	rec, err := c.store.Get(ctx, identity)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	h, err := c.engine.Parse(identity, rec.Data, c.store.Resolver(ctx))
	if err != nil {
		return nil, err
	}
	c.metrics.RecordParse()
	c.log.Debug("compiled schema", "identity", identity, "duration", time.Since(start))
	return h, nil
}

// acquire takes a caller reference on the cached handle for identity, or
// returns nil on a miss. The retain happens under the cache lock so an
// eviction cannot race the returned handle to zero references.
func (c *Cache) acquire(identity string) *engine.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.entries.Get(identity)
	if !ok {
		return nil
	}
	return h.Retain()
}

func (c *Cache) cached(identity string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries.Get(identity)
	return ok
}

// insert hands the handle's creator reference to the cache and clears any
// remembered failure for the identity.
func (c *Cache) insert(identity string, h *engine.Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Set(identity, h)
	delete(c.failures, identity)
}

// recentFailure returns the remembered error for identity if it failed
// within the grace window.
func (c *Cache) recentFailure(identity string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.failures[identity]
	if !ok {
		return nil
	}
	if time.Since(f.at) >= c.grace {
		delete(c.failures, identity)
		return nil
	}
	return f.err
}

func (c *Cache) recordFailure(identity string, err error) {
	if c.grace <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[identity] = failure{err: err, at: time.Now()}
}

// Len reports the number of cached handles.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Stats returns entry cache statistics.
func (c *Cache) Stats() cache.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Stats()
}

// Close releases every cached handle. Handles still held by callers stay
// valid until their own Release.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Clear()
	c.failures = make(map[string]failure)
}
