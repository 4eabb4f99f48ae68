// Package observability provides hooks for metrics and tracing.
//
// Library packages emit events through hook interfaces with no-op defaults;
// the binary installs a backend at startup. [PrometheusHooks] is the
// backend shipped with stackresolve.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    prom := observability.NewPrometheusHooks(prometheus.DefaultRegisterer)
//	    observability.SetResolutionHooks(prom)
//	    observability.SetCacheHooks(prom)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Resolution().OnCollectStart(ctx, root)
//	// ... walk the graph ...
//	observability.Resolution().OnCollectComplete(ctx, root, nodes, failures, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Resolution Hooks
// =============================================================================

// ResolutionHooks receives events from graph collection and resolution.
type ResolutionHooks interface {
	// Collect events
	OnCollectStart(ctx context.Context, root string)
	OnCollectComplete(ctx context.Context, root string, nodeCount, failures int, duration time.Duration, err error)

	// Flatten events
	OnFlattenComplete(ctx context.Context, scope string, winners, kept int)

	// Resolve events
	OnResolveStart(ctx context.Context, root, scope string)
	OnResolveComplete(ctx context.Context, root, scope string, files int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from repository HTTP requests.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopResolutionHooks is a no-op implementation of ResolutionHooks.
type NoopResolutionHooks struct{}

func (NoopResolutionHooks) OnCollectStart(context.Context, string) {}
func (NoopResolutionHooks) OnCollectComplete(context.Context, string, int, int, time.Duration, error) {
}
func (NoopResolutionHooks) OnFlattenComplete(context.Context, string, int, int) {}
func (NoopResolutionHooks) OnResolveStart(context.Context, string, string)      {}
func (NoopResolutionHooks) OnResolveComplete(context.Context, string, string, int, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	resolutionHooks ResolutionHooks = NoopResolutionHooks{}
	cacheHooks      CacheHooks      = NoopCacheHooks{}
	httpHooks       HTTPHooks       = NoopHTTPHooks{}
	hooksMu         sync.RWMutex
)

// SetResolutionHooks registers custom resolution hooks.
// This should be called once at application startup.
func SetResolutionHooks(h ResolutionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		resolutionHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Resolution returns the registered resolution hooks.
func Resolution() ResolutionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return resolutionHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	resolutionHooks = NoopResolutionHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
