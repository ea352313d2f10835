package cache

import (
	"errors"
	"time"

	"github.com/ppiankov/reltext/internal/model"
)

// LayeredCache keeps recently used annotations in memory in front of the on-disk store.
// Disk hits are promoted to memory; writes go to both layers.
type LayeredCache struct {
	memory *MemoryCache
	disk   Cache
}

// NewLayeredCache builds the annotation cache described by cfg
func NewLayeredCache(cfg model.CacheConfig) *LayeredCache {
	return &LayeredCache{
		memory: NewMemoryCache(cfg.MemoryTTL, 10*time.Minute),
		disk:   NewDiskCache(cfg.Dir, cfg.TTL),
	}
}

func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, ok := c.memory.Get(key); ok {
		return val, true
	}
	val, ok := c.disk.Get(key)
	if !ok {
		return nil, false
	}
	_ = c.memory.Set(key, val, 0)
	return val, true
}

// Set writes value to memory with the memory TTL and to disk with ttl.
// A failed disk write leaves the memory entry in place.
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	_ = c.memory.Set(key, value, 0)
	return c.disk.Set(key, value, ttl)
}

func (c *LayeredCache) Delete(key string) error {
	return errors.Join(c.memory.Delete(key), c.disk.Delete(key))
}

func (c *LayeredCache) Clear() error {
	return errors.Join(c.memory.Clear(), c.disk.Clear())
}
