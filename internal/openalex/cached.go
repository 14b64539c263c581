package openalex

import (
	"context"
	"time"

	"github.com/ppiankov/realitycheck/internal/cache"
)

// CachedCounter serves counts from a cache before asking the wrapped counter
type CachedCounter struct {
	inner   Counter
	cache   cache.Cache
	keyFunc func(query string) string
	ttl     time.Duration
}

// NewCachedCounter wraps inner. Keys are derived from the full request URL
// when inner is a *Client, otherwise from the query itself.
func NewCachedCounter(inner Counter, c cache.Cache, ttl time.Duration) *CachedCounter {
	keyFunc := cache.CacheKey
	if client, ok := inner.(*Client); ok {
		keyFunc = func(query string) string {
			return cache.CacheKey(client.RequestURL(query))
		}
	}
	return &CachedCounter{inner: inner, cache: c, keyFunc: keyFunc, ttl: ttl}
}

// CountWorks returns a cached count or fetches and stores a fresh one.
// Failed lookups are never cached.
func (c *CachedCounter) CountWorks(ctx context.Context, query string) (int64, error) {
	key := c.keyFunc(query)
	if count, ok := c.cache.Get(key); ok {
		return count, nil
	}

	count, err := c.inner.CountWorks(ctx, query)
	if err != nil {
		return 0, err
	}

	// Cache write failures only cost a refetch
	_ = c.cache.Set(key, count, c.ttl)
	return count, nil
}
