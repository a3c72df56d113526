package cryptofolio

import (
	"crypto/sha1"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Cache TTL bounds. The configured TTL is clamped into [MinCacheTTL, MaxCacheTTL].
const (
	DefaultCacheTTL = 300 * time.Second
	MinCacheTTL     = 60 * time.Second
	MaxCacheTTL     = 3600 * time.Second
)

// Fingerprint returns the deterministic cache key for an operation and its
// parameters. The operation name is kept as a plain prefix so that a whole
// namespace can be swept at once; the parameters are hashed, so a single
// entry cannot be targeted individually. Clearing is all-or-nothing per
// namespace, a deliberate simplicity/precision trade-off.
func Fingerprint(op string, params ...string) string {
	sum := sha1.Sum([]byte(op + "\x00" + strings.Join(params, "\x00")))
	return fmt.Sprintf("%s:%x", op, sum)
}

type cacheEntry struct {
	value   any
	expires time.Time
}

// Cache is an in-memory TTL cache. Reads and writes are last-write-wins:
// cached values are advisory snapshots, not ledger truth. Negative results
// must not be stored, so a failed lookup is retried on the very next call.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewCache creates a cache with the given TTL, clamped to the allowed bounds.
// A zero ttl selects DefaultCacheTTL.
func NewCache(ttl time.Duration) *Cache {
	switch {
	case ttl == 0:
		ttl = DefaultCacheTTL
	case ttl < MinCacheTTL:
		ttl = MinCacheTTL
	case ttl > MaxCacheTTL:
		ttl = MaxCacheTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// TTL returns the effective time-to-live of entries.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns the cached value for key, or ok=false if absent or expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expires) {
		return nil, false
	}
	return e.value, true
}

// Put stores value under key for the cache TTL.
func (c *Cache) Put(key string, value any) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Delete removes a single key. Only usable for keys that are not
// content-hashed, such as the per-user snapshot keys.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// ClearNamespace sweeps every entry whose key belongs to the given operation
// namespace.
func (c *Cache) ClearNamespace(op string) {
	prefix := op + ":"
	c.mu.Lock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}
