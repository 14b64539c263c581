package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductToken(t *testing.T) {
	tests := []struct {
		ua   string
		want string
	}{
		{"RealityCheck/0.1 (+https://github.com/ppiankov/realitycheck)", "RealityCheck"},
		{"curl/8.0", "curl"},
		{"bot", "bot"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ProductToken(tt.ua), "ProductToken(%q)", tt.ua)
	}
}

func TestRobotsChecker_CanFetch(t *testing.T) {
	var robotsHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			robotsHits.Add(1)
			_, _ = fmt.Fprint(w, "User-agent: RealityCheck\nDisallow: /private\nCrawl-delay: 2\n")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewRobotsChecker(server.Client(), "RealityCheck/0.1", 5*time.Second)

	allowed, delay, err := checker.CanFetch(context.Background(), server.URL+"/works?per_page=1")
	require.NoError(t, err)
	assert.True(t, allowed, "/works should be allowed")
	assert.Equal(t, 2*time.Second, delay)

	allowed, _, _ = checker.CanFetch(context.Background(), server.URL+"/private/x")
	assert.False(t, allowed, "/private should be disallowed")

	assert.Equal(t, int32(1), robotsHits.Load(), "robots.txt fetched once per host")
}

func TestRobotsChecker_MissingRobotsAllows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	checker := NewRobotsChecker(nil, "RealityCheck/0.1", 5*time.Second)
	allowed, _, err := checker.CanFetch(context.Background(), server.URL+"/works")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.local:3128", "", "localhost")

	req, _ := http.NewRequest(http.MethodGet, "https://api.openalex.org/works", nil)
	u, err := proxy(req)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "proxy.local:3128", u.Host)

	req, _ = http.NewRequest(http.MethodGet, "http://localhost:8080/health", nil)
	u, err = proxy(req)
	require.NoError(t, err)
	assert.Nil(t, u, "NO_PROXY host goes direct")
}
