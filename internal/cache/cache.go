package cache

import (
	"encoding/json"
	"sync"
	"time"
)

// Clock provides the current time; injectable for deterministic tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// entry holds one cached value and its bookkeeping.
type entry[V any] struct {
	value      V
	expiry     time.Time
	size       int // bytes estimate from the serialized value
	hits       int
	lastAccess time.Time
}

// Stats is a snapshot of cache usage.
type Stats struct {
	Size    int     `json:"size"` // total estimated bytes
	Entries int     `json:"entries"`
	Hits    int     `json:"hits"`
	Misses  int     `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// Options configures a Cache. Zero values get defaults in New.
type Options struct {
	// MaxSizeBytes is the total size budget across all entries.
	MaxSizeBytes int
	// DefaultTTL applies to Set when no per-entry TTL is given.
	DefaultTTL time.Duration
	// Metrics receives cache events. Nil means NoopMetrics.
	Metrics Metrics
	// Clock overrides the time source. Nil means wall clock.
	Clock Clock
}

// Cache is a bounded in-memory store with TTL expiry and
// least-recently-accessed eviction under a byte budget.
// Safe for concurrent use by multiple goroutines.
type Cache[V any] struct {
	mu        sync.Mutex
	entries   map[string]*entry[V]
	totalSize int
	hits      int
	misses    int

	maxSize int
	ttl     time.Duration
	metrics Metrics
	clock   Clock
}

// New constructs a Cache with the provided options.
// Defaults: 50MB budget, 60s TTL.
func New[V any](opt Options) *Cache[V] {
	if opt.MaxSizeBytes <= 0 {
		opt.MaxSizeBytes = 50 * 1024 * 1024
	}
	if opt.DefaultTTL <= 0 {
		opt.DefaultTTL = 60 * time.Second
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Clock == nil {
		opt.Clock = realClock{}
	}
	return &Cache[V]{
		entries: make(map[string]*entry[V]),
		maxSize: opt.MaxSizeBytes,
		ttl:     opt.DefaultTTL,
		metrics: opt.Metrics,
		clock:   opt.Clock,
	}
}

// Set stores value under key with the default TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.SetTTL(key, value, c.ttl)
}

// SetTTL stores value under key, expiring after ttl. Entries are evicted
// least-recently-accessed first until the new entry fits the byte budget.
func (c *Cache[V]) SetTTL(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	size := estimateSize(value)
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.totalSize -= old.size
		delete(c.entries, key)
	}

	// Evict until the new entry fits. An entry larger than the whole
	// budget is still admitted once the cache is empty.
	for c.totalSize+size > c.maxSize && len(c.entries) > 0 {
		c.evictLRU()
	}

	c.entries[key] = &entry[V]{
		value:      value,
		expiry:     now.Add(ttl),
		size:       size,
		lastAccess: now,
	}
	c.totalSize += size
	c.metrics.Size(len(c.entries), c.totalSize)
}

// Get returns the value for key if present and not expired.
// A hit refreshes the entry's last access; expired entries are
// deleted on the access that discovers them.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		c.metrics.Miss()
		return zero, false
	}
	if now.After(e.expiry) {
		c.removeLocked(key, e)
		c.misses++
		c.metrics.Miss()
		return zero, false
	}

	e.hits++
	e.lastAccess = now
	c.hits++
	c.metrics.Hit()
	return e.value, true
}

// Has reports whether key is present and not expired, without
// touching hit/miss statistics or the entry's last access.
func (c *Cache[V]) Has(key string) bool {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	if now.After(e.expiry) {
		c.removeLocked(key, e)
		return false
	}
	return true
}

// Delete removes key and reports whether it was present.
func (c *Cache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.removeLocked(key, e)
	return true
}

// Clear removes all entries and resets hit/miss counters.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry[V])
	c.totalSize = 0
	c.hits = 0
	c.misses = 0
	c.metrics.Size(0, 0)
}

// Stats returns a snapshot of current usage.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	rate := 0.0
	if total := c.hits + c.misses; total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return Stats{
		Size:    c.totalSize,
		Entries: len(c.entries),
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: rate,
	}
}

// Len returns the number of resident entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictLRU removes the entry with the oldest lastAccess. O(n) scan;
// acceptable at the entry counts and TTLs this cache is used with.
func (c *Cache[V]) evictLRU() {
	var oldestKey string
	var oldest *entry[V]
	for k, e := range c.entries {
		if oldest == nil || e.lastAccess.Before(oldest.lastAccess) {
			oldestKey = k
			oldest = e
		}
	}
	if oldest != nil {
		c.removeLocked(oldestKey, oldest)
		c.metrics.Evict()
	}
}

func (c *Cache[V]) removeLocked(key string, e *entry[V]) {
	c.totalSize -= e.size
	delete(c.entries, key)
	c.metrics.Size(len(c.entries), c.totalSize)
}

// estimateSize approximates the memory footprint of a value by the
// length of its JSON serialization. Coarse, but good enough for an
// advisory eviction budget.
func estimateSize[V any](value V) int {
	data, err := json.Marshal(value)
	if err != nil {
		return 1
	}
	return len(data)
}
