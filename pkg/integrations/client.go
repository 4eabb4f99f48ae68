package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/matzehuels/stackresolve/pkg/cache"
	errs "github.com/matzehuels/stackresolve/pkg/errors"
	"github.com/matzehuels/stackresolve/pkg/observability"
)

// Client provides shared HTTP functionality for repository adapters.
// It handles response caching, retry logic, and common request headers.
type Client struct {
	http      *http.Client
	cache     cache.Cache
	keyer     cache.Keyer
	namespace string
	ttl       time.Duration
	headers   map[string]string
}

// NewClient creates a Client that caches under namespace for ttl.
// Headers are applied to all requests made through this client.
// Pass nil for c to disable caching and nil for headers if none are needed.
func NewClient(c cache.Cache, namespace string, ttl time.Duration, headers map[string]string) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Client{
		http:      NewHTTPClient(),
		cache:     c,
		keyer:     cache.NewDefaultKeyer(),
		namespace: namespace,
		ttl:       ttl,
		headers:   headers,
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// Cache returns the response cache.
func (c *Client) Cache() cache.Cache { return c.cache }

// Cached retrieves a value from cache or executes fetch and caches the result.
// If refresh is true, the cache is bypassed and fetch is always called.
// The fetch function should populate v; on success, v is stored as JSON.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	key = c.keyer.HTTPKey(c.namespace, key)
	if !refresh {
		if data, ok, _ := c.cache.Get(ctx, key); ok && json.Unmarshal(data, v) == nil {
			return nil
		}
	}
	if err := cache.RetryWithBackoff(ctx, fetch); err != nil {
		return err
	}
	if data, err := json.Marshal(v); err == nil {
		_ = c.cache.Set(ctx, key, data, c.ttl)
	}
	return nil
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
func (c *Client) Get(ctx context.Context, url string, v any) error {
	return c.GetWithHeaders(ctx, url, nil, v)
}

// GetWithHeaders performs an HTTP GET with additional headers merged with defaults.
// Request-specific headers override client defaults for the same key.
func (c *Client) GetWithHeaders(ctx context.Context, url string, headers map[string]string, v any) error {
	body, _, err := c.Open(ctx, url, headers)
	if err != nil {
		return err
	}
	defer body.Close()
	return json.NewDecoder(body).Decode(v)
}

// GetBytes performs an HTTP GET request and returns the whole response body.
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	body, _, err := c.Open(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

// Open performs an HTTP GET request and returns the response body with its
// content length (-1 if unknown). The caller closes the body.
//
// Transient failures are wrapped with [cache.Retryable]; a 404 yields an
// error matching [ErrNotFound] with code NOT_FOUND.
func (c *Client) Open(ctx context.Context, rawURL string, headers map[string]string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, errs.Wrap(errs.ErrCodeInvalidInput, err, "build request for %s", rawURL)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if u := req.URL.User; u != nil {
		pw, _ := u.Password()
		req.SetBasicAuth(u.Username(), pw)
		req.URL.User = nil
	}

	host, path, redacted := req.URL.Host, req.URL.Path, req.URL.Redacted()
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, http.MethodGet, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, host, path, err)
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		return nil, 0, cache.Retryable(errs.Wrap(errs.ErrCodeNetwork, fmt.Errorf("%w: %v", ErrNetwork, err), "GET %s", redacted))
	}
	hooks.OnResponse(ctx, http.MethodGet, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode, redacted); err != nil {
		resp.Body.Close()
		return nil, 0, err
	}
	return resp.Body, resp.ContentLength, nil
}

func checkStatus(code int, url string) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound || code == http.StatusGone:
		return errs.Wrap(errs.ErrCodeNotFound, ErrNotFound, "GET %s", url)
	case code == http.StatusTooManyRequests || code >= 500:
		return cache.Retryable(errs.Wrap(errs.ErrCodeNetwork, fmt.Errorf("%w: status %d", ErrNetwork, code), "GET %s", url))
	default:
		return errs.Wrap(errs.ErrCodeNetwork, fmt.Errorf("%w: status %d", ErrNetwork, code), "GET %s", url)
	}
}
