package repositories

import (
	gocache "github.com/patrickmn/go-cache"
	"time"
)

// CachedData is a read-through cache in front of a slower store.
// Only hits are cached, a miss always goes to the underlying store.
type CachedData struct {
	store KeyValueStore
	cache *gocache.Cache
}

func NewCachedData(store KeyValueStore) *CachedData {
	return &CachedData{store: store, cache: gocache.New(10*time.Minute, 20*time.Minute)}
}

func (c *CachedData) Get(key string) (string, bool) {
	if value, found := c.cache.Get(key); found {
		return value.(string), true
	}

	value, found := c.store.Get(key)
	if found {
		c.cache.SetDefault(key, value)
	}
	return value, found
}

func (c *CachedData) Set(key, value string) {
	c.store.Set(key, value)
	c.cache.SetDefault(key, value)
}

func (c *CachedData) Remove(key string) {
	c.store.Remove(key)
	c.cache.Delete(key)
}
