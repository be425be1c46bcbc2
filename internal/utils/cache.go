package utils

import (
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheItem wraps cached data with its expiry.
type CacheItem struct {
	Data      any
	ExpiresAt time.Time
}

// Cache is a size-bounded local cache with per-entry TTL.
type Cache struct {
	lruCache *lru.Cache[string, CacheItem]
	now      func() time.Time
}

var (
	cacheInstance *Cache
	cacheOnce     sync.Once
)

// GetCache returns the shared 500-entry cache.
func GetCache() *Cache {
	cacheOnce.Do(func() {
		cacheInstance = NewCache(500)
	})
	return cacheInstance
}

func NewCache(size int) *Cache {
	l, err := lru.New[string, CacheItem](size)
	if err != nil {
		// only fails for size <= 0
		panic(err)
	}
	return &Cache{lruCache: l, now: time.Now}
}

func (c *Cache) Set(key string, data any, ttl time.Duration) {
	c.lruCache.Add(key, CacheItem{
		Data:      data,
		ExpiresAt: c.now().Add(ttl),
	})
}

// Get returns nil if the key is missing or expired.
func (c *Cache) Get(key string) any {
	val, ok := c.lruCache.Get(key)
	if !ok {
		return nil
	}
	if c.now().After(val.ExpiresAt) {
		c.lruCache.Remove(key)
		return nil
	}
	return val.Data
}

func (c *Cache) Delete(key string) {
	c.lruCache.Remove(key)
}

// DeletePrefix drops every key starting with prefix.
func (c *Cache) DeletePrefix(prefix string) {
	for _, key := range c.lruCache.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.lruCache.Remove(key)
		}
	}
}
