package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// tryWait takes a token only if one is available right now
func tryWait(l *Limiter, rawURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	return l.Wait(ctx, rawURL)
}

func TestNewLimiter_Defaults(t *testing.T) {
	l := NewLimiter(10, 5)
	assert.Equal(t, 5, l.burst)
	assert.Equal(t, rate.Limit(10), l.limit)

	l = NewLimiter(10, -1)
	assert.Equal(t, 5, l.burst, "non-positive burst falls back to 5")

	l = NewLimiter(0, 1)
	assert.Equal(t, rate.Inf, l.limit)
}

func TestLimiter_Unlimited(t *testing.T) {
	l := NewLimiter(0, 1)

	for i := 0; i < 100; i++ {
		require.NoError(t, tryWait(l, "https://api.openalex.org/works"), "request %d", i)
	}
}

func TestLimiter_PerHost(t *testing.T) {
	l := NewLimiter(0.001, 1)

	require.NoError(t, tryWait(l, "https://api.openalex.org/works?filter=x"))

	// Token for this host is spent
	assert.Error(t, tryWait(l, "https://api.openalex.org/works?filter=y"))

	// Other hosts have their own bucket
	assert.NoError(t, tryWait(l, "https://mirror.example.org/works"))
}

func TestLimiter_WaitWithDelay(t *testing.T) {
	l := NewLimiter(100, 1)

	start := time.Now()
	require.NoError(t, l.WaitWithDelay(context.Background(), "https://api.openalex.org", 50*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestLimiter_WaitWithDelay_Cancelled(t *testing.T) {
	l := NewLimiter(100, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, l.WaitWithDelay(ctx, "https://api.openalex.org", time.Second))
}

func TestHostOf(t *testing.T) {
	host, err := hostOf("https://api.openalex.org/works?per_page=1")
	require.NoError(t, err)
	assert.Equal(t, "api.openalex.org", host)

	_, err = hostOf("::invalid")
	assert.Error(t, err)
}
