package intake

import (
	"fmt"
	"os"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ResultCache holds extraction results in memory with a TTL. Keys bind
// a result to one version of one file, so a rewritten file misses
// naturally and stale entries simply age out.
type ResultCache struct {
	cache *gocache.Cache
}

// NewResultCache creates a result cache with the given TTL and cleanup
// interval
func NewResultCache(ttl, cleanupInterval time.Duration) *ResultCache {
	return &ResultCache{
		cache: gocache.New(ttl, cleanupInterval),
	}
}

// CacheKey derives the cache key for a file: absolute path plus
// modification time plus size
func CacheKey(absPath string, info os.FileInfo) string {
	return fmt.Sprintf("%s|%d|%d", absPath, info.ModTime().UnixNano(), info.Size())
}

// Get retrieves a cached extraction
func (c *ResultCache) Get(key string) (*ExtractFileResult, bool) {
	if val, found := c.cache.Get(key); found {
		return val.(*ExtractFileResult), true
	}
	return nil, false
}

// Set stores an extraction under the default TTL
func (c *ResultCache) Set(key string, result *ExtractFileResult) {
	c.cache.Set(key, result, gocache.DefaultExpiration)
}

// ItemCount returns the number of cached entries, expired ones included
func (c *ResultCache) ItemCount() int {
	return c.cache.ItemCount()
}

// Flush drops all cached entries
func (c *ResultCache) Flush() {
	c.cache.Flush()
}
