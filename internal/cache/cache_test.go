package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	a := CacheKey("https://api.openalex.org/works?filter=default.search:malaria")
	b := CacheKey("https://api.openalex.org/works?filter=default.search:malaria")
	c := CacheKey("https://api.openalex.org/works?filter=default.search:cholera")

	assert.Equal(t, a, b, "key must be stable")
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "realitycheck:v1:")
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	_, found := c.Get("missing")
	assert.False(t, found)

	require.NoError(t, c.Set("k", 42, 0))
	count, found := c.Get("k")
	assert.True(t, found)
	assert.Equal(t, int64(42), count)

	// Zero is a legitimate count and must round-trip
	require.NoError(t, c.Set("zero", 0, 0))
	count, found = c.Get("zero")
	assert.True(t, found)
	assert.Zero(t, count)

	require.NoError(t, c.Delete("k"))
	_, found = c.Get("k")
	assert.False(t, found)

	require.NoError(t, c.Clear())
	assert.Zero(t, c.Len())
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	require.NoError(t, c.Set("short", 7, 10*time.Millisecond))

	time.Sleep(30 * time.Millisecond)

	_, found := c.Get("short")
	assert.False(t, found)
}

func TestDiskCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c := NewDiskCache(dir, time.Hour)

	_, found := c.Get("missing")
	assert.False(t, found)

	require.NoError(t, c.Set("k", 1234567, 0))
	count, found := c.Get("k")
	assert.True(t, found)
	assert.Equal(t, int64(1234567), count)

	assert.NoError(t, c.Delete("k"))
	assert.NoError(t, c.Delete("k"), "deleting a missing key is not an error")

	require.NoError(t, c.Set("k2", 1, 0))
	require.NoError(t, c.Clear())
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "cache dir should be removed, stat err = %v", err)
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set("k", 5, time.Minute))

	now = now.Add(2 * time.Minute)
	_, found := c.Get("k")
	assert.False(t, found)
	assert.NoFileExists(t, c.path("k"), "expired file should be removed")
}

func TestDiskCache_CorruptEntry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)

	require.NoError(t, os.WriteFile(c.path("bad"), []byte("{not json"), 0644))

	_, found := c.Get("bad")
	assert.False(t, found)
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	c := NewLayeredCache(time.Minute, t.TempDir(), time.Hour)

	// Seed disk only
	require.NoError(t, c.disk.Set("k", 99, 0))
	_, found := c.memory.Get("k")
	require.False(t, found, "memory layer should start empty")

	count, found := c.Get("k")
	require.True(t, found)
	assert.Equal(t, int64(99), count)

	count, found = c.memory.Get("k")
	assert.True(t, found, "disk hit should be promoted to memory")
	assert.Equal(t, int64(99), count)
}

func TestLayeredCache_SetDeleteClear(t *testing.T) {
	c := NewLayeredCache(time.Minute, t.TempDir(), time.Hour)

	require.NoError(t, c.Set("k", 3, 0))
	_, found := c.disk.Get("k")
	assert.True(t, found, "value should be written to disk layer")

	assert.NoError(t, c.Delete("k"))
	_, found = c.Get("k")
	assert.False(t, found)

	require.NoError(t, c.Set("a", 1, 0))
	assert.NoError(t, c.Clear())
	_, found = c.Get("a")
	assert.False(t, found)
}
