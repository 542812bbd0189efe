package embedding

import (
	"sync"
	"time"

	"github.com/doclens/doclens/internal/config"
)

type cacheEntry struct {
	vector    []float32
	expiresAt time.Time
}

// ttlCache memoizes embeddings by exact input text. Vectors are
// deterministic for identical text, so last-writer-wins on concurrent
// inserts of the same key is fine.
type ttlCache struct {
	mu         sync.RWMutex
	entries    map[string]cacheEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

func newTTLCache() *ttlCache {
	return &ttlCache{
		entries:    make(map[string]cacheEntry),
		ttl:        config.EmbeddingCacheTTL,
		maxEntries: config.EmbeddingCacheMaxEntries,
		now:        time.Now,
	}
}

func (c *ttlCache) get(key string) ([]float32, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.vector, true
}

func (c *ttlCache) put(key string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}
	c.entries[key] = cacheEntry{vector: vector, expiresAt: c.now().Add(c.ttl)}
}

// evictLocked drops expired entries first; if the cache is still full it
// drops arbitrary entries until a quarter of the capacity is free.
func (c *ttlCache) evictLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	target := c.maxEntries - c.maxEntries/4
	for key := range c.entries {
		if len(c.entries) < target {
			break
		}
		delete(c.entries, key)
	}
}

func (c *ttlCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
