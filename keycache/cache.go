// Package keycache holds the most recently fetched key set for a bounded time.
//
// A Cache never performs I/O. Callers decide what a miss means. Writes
// replace the whole entry, so concurrent readers never observe a partially
// updated key set.
package keycache

import (
	"sync"
	"time"

	"github.com/MarioArnt/azure-ad-jwt-lite/keyset"
)

// DefaultTTL is how long a fetched key set stays fresh.
const DefaultTTL = 5 * time.Minute

type entry struct {
	keys      *keyset.KeySet
	source    string
	fetchedAt time.Time
}

// Cache is a time-bounded, single-entry key set store safe for concurrent use.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.RWMutex
	entry *entry
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates an empty cache. A non-positive ttl selects DefaultTTL.
func New(ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the cache's own freshness window.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns the cached key set if present and fresh under the cache TTL.
func (c *Cache) Get() (*keyset.KeySet, bool) {
	return c.lookup("", false, c.ttl)
}

// Lookup returns the cached key set if it was fetched from source and is no
// older than ttl. A non-positive ttl falls back to the cache TTL.
func (c *Cache) Lookup(source string, ttl time.Duration) (*keyset.KeySet, bool) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	return c.lookup(source, true, ttl)
}

func (c *Cache) lookup(source string, matchSource bool, ttl time.Duration) (*keyset.KeySet, bool) {
	c.mu.RLock()
	e := c.entry
	c.mu.RUnlock()

	if e == nil {
		return nil, false
	}
	if matchSource && e.source != source {
		return nil, false
	}
	if c.now().Sub(e.fetchedAt) > ttl {
		return nil, false
	}
	return e.keys, true
}

// Put replaces the cached key set and stamps it with the current time.
func (c *Cache) Put(ks *keyset.KeySet) {
	c.Store("", ks)
}

// Store replaces the cached key set, remembering which endpoint produced it.
func (c *Cache) Store(source string, ks *keyset.KeySet) {
	e := &entry{keys: ks, source: source, fetchedAt: c.now()}
	c.mu.Lock()
	c.entry = e
	c.mu.Unlock()
}

// Invalidate clears the cache unconditionally.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entry = nil
	c.mu.Unlock()
}

// FetchedAt reports when the current entry was stored.
func (c *Cache) FetchedAt() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entry == nil {
		return time.Time{}, false
	}
	return c.entry.fetchedAt, true
}
