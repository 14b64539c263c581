package cache

import (
	"errors"
	"time"
)

// LayeredCache checks memory first and falls back to disk
type LayeredCache struct {
	memory Cache
	disk   Cache
}

// NewLayeredCache creates a new layered cache
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		memory: NewMemoryCache(memoryTTL, 10*time.Minute),
		disk:   NewDiskCache(diskDir, diskTTL),
	}
}

// Get retrieves a count, promoting disk hits into memory
func (c *LayeredCache) Get(key string) (int64, bool) {
	if count, found := c.memory.Get(key); found {
		return count, true
	}

	if count, found := c.disk.Get(key); found {
		_ = c.memory.Set(key, count, 0)
		return count, true
	}

	return 0, false
}

// Set stores a count in both layers
func (c *LayeredCache) Set(key string, count int64, ttl time.Duration) error {
	if err := c.memory.Set(key, count, ttl); err != nil {
		return err
	}
	return c.disk.Set(key, count, ttl)
}

// Delete removes a count from both layers
func (c *LayeredCache) Delete(key string) error {
	return errors.Join(c.memory.Delete(key), c.disk.Delete(key))
}

// Clear empties both layers
func (c *LayeredCache) Clear() error {
	return errors.Join(c.memory.Clear(), c.disk.Clear())
}
