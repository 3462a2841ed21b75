package cache

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// BulkKey is the singleton key holding the full enriched account listing
const BulkKey = "accounts:all"

// AccountKey returns the per-account cache key for a username
func AccountKey(username string) string {
	return "account:" + username
}

type entry struct {
	value     any
	createdAt time.Time
}

// ResultCache is a TTL keyed cache shared by the bulk and per-account paths
// expiry is lazy: a get on an expired entry behaves as a miss and drops the entry
type ResultCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

func New(ttl time.Duration) *ResultCache {
	return &ResultCache{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the cached value for key, or false when absent or expired
func (c *ResultCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[key]

	if !found {
		return nil, false
	}

	if c.now().Sub(e.createdAt) >= c.ttl {
		log.WithField("cacheKey", key).Debug("cache entry expired. will be refetched")

		delete(c.entries, key)
		return nil, false
	}

	return e.value, true
}

// Set replaces the whole value for key
// callers must never set a value computed from a failed upstream cycle
func (c *ResultCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{value: value, createdAt: c.now()}
}
