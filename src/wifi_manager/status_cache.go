package wifi_manager

import (
	"sync"
	"time"
)

// StatusCache memoizes a Status snapshot for a bounded TTL so frequent
// dashboard-style reads do not re-probe the radio on every call.
type StatusCache struct {
	mu        sync.Mutex
	value     Status
	fetchedAt time.Time
	valid     bool
	ttl       time.Duration
}

// NewStatusCache returns a cache with the given TTL.
func NewStatusCache(ttl time.Duration) *StatusCache {
	return &StatusCache{ttl: ttl}
}

// Get returns the cached value if it is still fresh, otherwise calls
// fetch, stores the result and returns it.
func (c *StatusCache) Get(fetch func() Status) Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && time.Since(c.fetchedAt) < c.ttl {
		return c.value
	}

	c.value = fetch()
	c.fetchedAt = time.Now()
	c.valid = true
	return c.value
}

// Invalidate drops the cached value so the next Get re-derives it.
func (c *StatusCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = false
}
