// Package observability provides hooks for metrics and tracing.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about enrichment runs, cache operations, and API calls.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so library packages never
// import a metrics backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetEnrichHooks(&myEnrichHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Enrich().OnRecordComplete(ctx, "repository", "github", "updated", elapsed, nil)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Enrichment Hooks
// =============================================================================

// RunSummary is the outcome of one enrichment run.
type RunSummary struct {
	Total     int
	Updated   int
	Unchanged int
	Failed    int
	Skipped   int
}

// EnrichHooks receives events from the enrichment orchestrator.
type EnrichHooks interface {
	OnRunStart(ctx context.Context, runID string, records int)
	// OnRecordComplete is called once per record. outcome is one of
	// "updated", "unchanged", "failed" or "skipped".
	OnRecordComplete(ctx context.Context, kind, source, outcome string, duration time.Duration, err error)
	OnRunComplete(ctx context.Context, runID string, summary RunSummary, duration time.Duration)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, source string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, source string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, source string, size int)

	// OnCacheError records a backend failure that was degraded to a miss.
	OnCacheError(ctx context.Context, source string, err error)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// Limit Hooks
// =============================================================================

// LimitHooks receives rate-limit and retry events from source clients.
type LimitHooks interface {
	// OnRateLimited records a refused request.
	OnRateLimited(ctx context.Context, source string, retryAfter time.Duration)

	// OnRetry records a retry about to sleep for delay.
	OnRetry(ctx context.Context, source string, attempt int, delay time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopEnrichHooks is a no-op implementation of EnrichHooks.
type NoopEnrichHooks struct{}

func (NoopEnrichHooks) OnRunStart(context.Context, string, int) {}
func (NoopEnrichHooks) OnRecordComplete(context.Context, string, string, string, time.Duration, error) {
}
func (NoopEnrichHooks) OnRunComplete(context.Context, string, RunSummary, time.Duration) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)          {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)         {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int)     {}
func (NoopCacheHooks) OnCacheError(context.Context, string, error) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// NoopLimitHooks is a no-op implementation of LimitHooks.
type NoopLimitHooks struct{}

func (NoopLimitHooks) OnRateLimited(context.Context, string, time.Duration)       {}
func (NoopLimitHooks) OnRetry(context.Context, string, int, time.Duration, error)     {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	enrichHooks EnrichHooks = NoopEnrichHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	httpHooks   HTTPHooks   = NoopHTTPHooks{}
	limitHooks  LimitHooks  = NoopLimitHooks{}
	hooksMu     sync.RWMutex
)

// SetEnrichHooks registers custom enrichment hooks.
// This should be called once at application startup before any run.
func SetEnrichHooks(h EnrichHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		enrichHooks = h
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

// SetLimitHooks registers custom rate-limit and retry hooks.
func SetLimitHooks(h LimitHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		limitHooks = h
	}
}

// Enrich returns the registered enrichment hooks.
func Enrich() EnrichHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return enrichHooks
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

// Limit returns the registered rate-limit hooks.
func Limit() LimitHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return limitHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	enrichHooks = NoopEnrichHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
	limitHooks = NoopLimitHooks{}
}
