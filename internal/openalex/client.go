package openalex

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/realitycheck/internal/model"
	"github.com/ppiankov/realitycheck/internal/util"
	"github.com/ppiankov/realitycheck/internal/worker"
)

// DefaultBaseURL is the public OpenAlex API
const DefaultBaseURL = "https://api.openalex.org"

// fetchSleepFunc waits between retries; it returns early with ctx's error.
// Tests swap it out.
var fetchSleepFunc = sleepContext

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Counter returns the number of indexed works matching a search phrase
type Counter interface {
	CountWorks(ctx context.Context, query string) (int64, error)
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// Retryable reports whether the status is worth retrying (429 or 5xx)
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// ErrDisallowed is returned when robots.txt forbids the works endpoint
var ErrDisallowed = errors.New("disallowed by robots.txt")

type worksResponse struct {
	Meta struct {
		Count *int64 `json:"count"`
	} `json:"meta"`
}

// Client counts works through the OpenAlex /works endpoint
type Client struct {
	httpClient *http.Client
	baseURL    string
	mailto     string
	userAgent  string
	maxBytes   int64
	maxRetries int
	limiter    *worker.Limiter
	robots     *util.RobotsChecker
}

// NewClient creates a client. limiter may be nil.
func NewClient(httpCfg model.HTTPConfig, oaCfg model.OpenAlexConfig, limiter *worker.Limiter) *Client {
	transport := &http.Transport{
		Proxy: util.NewProxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy),
	}
	if httpCfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- opt-in via config
	}

	httpClient := &http.Client{
		Timeout:   httpCfg.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("stopped after 3 redirects")
			}
			return nil
		},
	}

	baseURL := strings.TrimRight(oaCfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	maxBytes := httpCfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}

	c := &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		mailto:     oaCfg.Mailto,
		userAgent:  httpCfg.UserAgent,
		maxBytes:   maxBytes,
		maxRetries: httpCfg.MaxRetries,
		limiter:    limiter,
	}
	if oaCfg.RespectRobots {
		c.robots = util.NewRobotsChecker(httpClient, httpCfg.UserAgent, httpCfg.Timeout)
	}
	return c
}

// RequestURL builds the works-count URL for a search phrase
func (c *Client) RequestURL(query string) string {
	u := c.baseURL + "/works?filter=default.search:" + escapeComponent(query) + "&per_page=1"
	if c.mailto != "" {
		u += "&mailto=" + escapeComponent(c.mailto)
	}
	return u
}

// CountWorks returns meta.count for the search phrase, retrying 429 and
// 5xx responses with exponential backoff.
func (c *Client) CountWorks(ctx context.Context, query string) (int64, error) {
	requestURL := c.RequestURL(query)

	var crawlDelay time.Duration
	if c.robots != nil {
		allowed, delay, err := c.robots.CanFetch(ctx, requestURL)
		if err != nil {
			return 0, fmt.Errorf("check robots.txt: %w", err)
		}
		if !allowed {
			return 0, fmt.Errorf("count works: %w", ErrDisallowed)
		}
		crawlDelay = delay
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := fetchSleepFunc(ctx, backoff(attempt)); err != nil {
				return 0, err
			}
		}

		count, err := c.count(ctx, requestURL, crawlDelay)
		if err == nil {
			return count, nil
		}
		lastErr = err

		var statusErr *StatusError
		if !errors.As(err, &statusErr) || !statusErr.Retryable() {
			return 0, err
		}
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
	}

	return 0, fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}

// count sends one request. Every attempt takes a single limiter token
// followed by the robots.txt crawl delay, if any.
func (c *Client) count(ctx context.Context, requestURL string, crawlDelay time.Duration) (int64, error) {
	switch {
	case c.limiter != nil:
		if err := c.limiter.WaitWithDelay(ctx, requestURL, crawlDelay); err != nil {
			return 0, fmt.Errorf("rate limit: %w", err)
		}
	case crawlDelay > 0:
		if err := sleepContext(ctx, crawlDelay); err != nil {
			return 0, fmt.Errorf("crawl delay: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return 0, fmt.Errorf("read body: %w", err)
	}

	var works worksResponse
	if err := json.Unmarshal(body, &works); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}

	// Missing count reads as zero
	if works.Meta.Count == nil {
		return 0, nil
	}
	return *works.Meta.Count, nil
}

// backoff doubles from 500ms: 500ms, 1s, 2s, ...
func backoff(attempt int) time.Duration {
	return time.Duration(1<<(attempt-1)) * 500 * time.Millisecond
}
