// Package cache provides an in-process TTL cache with a pluggable eviction
// policy and hit/miss accounting.
package cache

import (
	"sync"
	"time"
)

// Store is the contract callers depend on, so a different backing store can
// be swapped in without touching them.
type Store[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V, ttl time.Duration)
	Delete(key string)
	Clear()
	Stats() Stats
}

// Stats is a point-in-time view of cache accounting.
type Stats struct {
	Name        string  `json:"name"`
	Hits        uint64  `json:"hits"`
	Misses      uint64  `json:"misses"`
	Evictions   uint64  `json:"evictions"`
	Expirations uint64  `json:"expirations"`
	Size        int     `json:"size"`
	HitRate     float64 `json:"hit_rate"`
}

type entry[V any] struct {
	key       string
	value     V
	createdAt time.Time
	expiresAt time.Time // zero means no expiry
	hitCount  int
}

func (e *entry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

type options struct {
	maxSize    int
	defaultTTL time.Duration
	policy     Policy
	now        func() time.Time
}

// Option configures a Cache.
type Option func(*options)

// WithMaxSize bounds the number of entries. Zero or negative means unbounded.
func WithMaxSize(n int) Option {
	return func(o *options) { o.maxSize = n }
}

// WithDefaultTTL sets the TTL used when Set is called with ttl <= 0.
func WithDefaultTTL(d time.Duration) Option {
	return func(o *options) { o.defaultTTL = d }
}

// WithPolicy replaces the default LRU eviction policy.
func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Cache is a mutex-guarded TTL cache. Writes are last-write-wins.
type Cache[V any] struct {
	name string

	mu      sync.Mutex
	entries map[string]*entry[V]
	opts    options

	hits        uint64
	misses      uint64
	evictions   uint64
	expirations uint64
}

var _ Store[int] = (*Cache[int])(nil)

// New creates a cache. The name labels stats and metrics.
func New[V any](name string, opts ...Option) *Cache[V] {
	o := options{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	if o.policy == nil {
		o.policy = NewLRU()
	}
	return &Cache[V]{
		name:    name,
		entries: make(map[string]*entry[V]),
		opts:    o,
	}
}

// Name returns the cache label.
func (c *Cache[V]) Name() string { return c.name }

// Get returns the value for key if present and not expired. Expired entries
// are dropped on access.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return zero, false
	}
	if e.expired(c.opts.now()) {
		c.removeLocked(key)
		c.expirations++
		c.misses++
		return zero, false
	}

	c.hits++
	e.hitCount++
	c.opts.policy.Touch(key)
	return e.value, true
}

// Set stores value under key. A ttl <= 0 falls back to the default TTL; if
// that is also zero the entry never expires.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		ttl = c.opts.defaultTTL
	}
	now := c.opts.now()
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.createdAt = now
		e.expiresAt = expiresAt
		c.opts.policy.Touch(key)
		return
	}

	if c.opts.maxSize > 0 {
		for len(c.entries) >= c.opts.maxSize {
			if !c.evictLocked(now) {
				break
			}
		}
	}

	c.entries[key] = &entry[V]{
		key:       key,
		value:     value,
		createdAt: now,
		expiresAt: expiresAt,
	}
	c.opts.policy.Add(key)
}

// Delete removes key if present.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key)
}

// Clear drops every entry. Counters are kept.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry[V])
	c.opts.policy.Reset()
}

// Len returns the number of stored entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// PurgeExpired drops every expired entry and returns how many were removed.
func (c *Cache[V]) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.opts.now()
	n := 0
	for key, e := range c.entries {
		if e.expired(now) {
			c.removeLocked(key)
			c.expirations++
			n++
		}
	}
	return n
}

// Stats returns a snapshot of the accounting counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Name:        c.name,
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		Expirations: c.expirations,
		Size:        len(c.entries),
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// expirySample bounds how many entries an insert at capacity inspects for an
// expired one. Map order is random, so repeated inserts sample different
// entries; PurgeExpired does the full sweep.
const expirySample = 8

// evictLocked removes one entry, preferring an expired one found in a bounded
// sample over the policy's victim. Returns false if nothing could be removed.
func (c *Cache[V]) evictLocked(now time.Time) bool {
	checked := 0
	for key, e := range c.entries {
		if e.expired(now) {
			c.removeLocked(key)
			c.expirations++
			return true
		}
		if checked++; checked >= expirySample {
			break
		}
	}
	victim, ok := c.opts.policy.Victim()
	if !ok {
		return false
	}
	if e, ok := c.entries[victim]; ok && e.expired(now) {
		c.expirations++
	} else {
		c.evictions++
	}
	c.removeLocked(victim)
	return true
}

func (c *Cache[V]) removeLocked(key string) {
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	c.opts.policy.Remove(key)
}
