package store

import (
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rahul-omni/court-scraper/internal/database"
	"github.com/rahul-omni/court-scraper/internal/reconcile"
)

// CacheStats is exposed over the API for observability.
type CacheStats struct {
	Hits       int64     `json:"hits"`
	Misses     int64     `json:"misses"`
	Size       int       `json:"size"`
	LastAccess time.Time `json:"last_access"`
}

// lookupCache fronts the natural-key lookup. Entries are invalidated
// on every write to their key, so a stale read can only ever miss.
type lookupCache struct {
	cache *gocache.Cache
	mu    sync.RWMutex
	stats CacheStats
}

func newLookupCache(ttl time.Duration) *lookupCache {
	return &lookupCache{
		cache: gocache.New(ttl, ttl*2),
	}
}

func cacheKey(key reconcile.NaturalKey) string {
	return fmt.Sprintf("case:%s:%s:%s", key.DiaryNumber, key.Court, key.District)
}

func (c *lookupCache) get(key reconcile.NaturalKey) (*database.Case, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.LastAccess = time.Now()
	if data, found := c.cache.Get(cacheKey(key)); found {
		if record, ok := data.(*database.Case); ok {
			c.stats.Hits++
			return record, true
		}
	}
	c.stats.Misses++
	return nil, false
}

func (c *lookupCache) set(key reconcile.NaturalKey, record *database.Case) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Set(cacheKey(key), record, gocache.DefaultExpiration)
}

func (c *lookupCache) invalidate(key reconcile.NaturalKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Delete(cacheKey(key))
}

func (c *lookupCache) statsSnapshot() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snapshot := c.stats
	snapshot.Size = c.cache.ItemCount()
	return snapshot
}
