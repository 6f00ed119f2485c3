package cache

import (
	"sync"
	"time"
)

type Clock func() time.Time

type entry struct {
	value     any
	expiresAt time.Time
}

// TTLCache is a small read cache for listings that may serve stale data
// for at most one TTL window. The clock is injected so expiry is testable;
// invalidation is explicit. It must never sit in front of transactional
// reads.
type TTLCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	clock   Clock
	entries map[string]entry
}

func NewTTLCache(ttl time.Duration, clock Clock) *TTLCache {
	if clock == nil {
		clock = time.Now
	}
	return &TTLCache{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]entry),
	}
}

func (c *TTLCache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.clock().After(e.expiresAt) {
		c.mu.Lock()
		// Recheck under the write lock; a concurrent Set may have renewed it.
		if cur, ok := c.entries[key]; ok && c.clock().After(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

func (c *TTLCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: c.clock().Add(c.ttl)}
}

func (c *TTLCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *TTLCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}
