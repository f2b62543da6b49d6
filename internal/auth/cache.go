package auth

import (
	"sync"
	"time"
)

// cacheEntry memoizes one identity resolution.
type cacheEntry struct {
	user *Identity
	role string
	at   time.Time
}

// Cache is a short-TTL memo of identity resolutions keyed by
// path + "|" + raw cookie header. The composite key means the same user
// hitting two paths inside the TTL resolves twice; that waste is accepted
// until the intended cache granularity is settled.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	ttl        time.Duration
	maxEntries int

	now func() time.Time
}

// NewCache builds a cache that holds entries for ttl and sweeps stale ones
// whenever the entry count passes maxEntries.
func NewCache(ttl time.Duration, maxEntries int) *Cache {
	return &Cache{
		entries:    make(map[string]cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// CacheKey builds the composite lookup key.
func CacheKey(path, cookieHeader string) string {
	return path + "|" + cookieHeader
}

// Get returns a live entry. Entries past their TTL are never served.
func (c *Cache) Get(key string) (*Identity, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.at) >= c.ttl {
		return nil, "", false
	}
	return e.user, e.role, true
}

// Put records a fresh resolution, overwriting any previous entry. When the
// cache has outgrown its threshold, stale entries are swept opportunistically.
func (c *Cache) Put(key string, user *Identity, role string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = cacheEntry{user: user, role: role, at: now}
	if len(c.entries) > c.maxEntries {
		for k, e := range c.entries {
			if now.Sub(e.at) >= c.ttl {
				delete(c.entries, k)
			}
		}
	}
}

func (c *Cache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
