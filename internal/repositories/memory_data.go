package repositories

import (
	gocache "github.com/patrickmn/go-cache"
)

// MemoryData keeps values for the lifetime of the process only.
type MemoryData struct {
	cache *gocache.Cache
}

func NewMemoryData() *MemoryData {
	return &MemoryData{cache: gocache.New(gocache.NoExpiration, 0)}
}

func (m *MemoryData) Get(key string) (string, bool) {
	if value, found := m.cache.Get(key); found {
		return value.(string), true
	}
	return "", false
}

func (m *MemoryData) Set(key, value string) {
	m.cache.Set(key, value, gocache.NoExpiration)
}

func (m *MemoryData) Remove(key string) {
	m.cache.Delete(key)
}
