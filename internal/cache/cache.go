package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores works counts keyed by lookup request
type Cache interface {
	Get(key string) (int64, bool)
	Set(key string, count int64, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey generates a cache key from a lookup request URL
func CacheKey(requestURL string) string {
	hash := sha256.Sum256([]byte(requestURL))
	return "realitycheck:v1:" + hex.EncodeToString(hash[:])
}
