// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register
// hooks at startup to receive events about locus pipeline runs, graph
// updates, cache operations, and elimination engine calls.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetLocusHooks(&myLocusHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Locus().OnEliminationStart(ctx, target, nPolys)
//	// ... call the engine ...
//	observability.Locus().OnEliminationComplete(ctx, target, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Graph Hooks
// =============================================================================

// GraphHooks receives events from construction graph updates.
type GraphHooks interface {
	// OnUpdate records a numeric propagation pass: how many elements
	// were re-evaluated and how long the pass took.
	OnUpdate(ctx context.Context, visited int, duration time.Duration)

	// OnElementAdded records a structural mutation.
	OnElementAdded(ctx context.Context, kind string)

	// OnElementRemoved records a removal cascade.
	OnElementRemoved(ctx context.Context, removed int)
}

// =============================================================================
// Locus Hooks
// =============================================================================

// LocusHooks receives events from the symbolic locus pipeline.
type LocusHooks interface {
	// Elimination events
	OnEliminationStart(ctx context.Context, target int, polynomials int)
	OnEliminationComplete(ctx context.Context, target int, duration time.Duration, err error)

	// Trace events
	OnTraceStart(ctx context.Context, target int)
	OnTraceComplete(ctx context.Context, target int, branches, points int, duration time.Duration)

	// OnStale records a locus falling back to its previous curve.
	OnStale(ctx context.Context, target int, err error)
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
// No-op Implementations
// =============================================================================

// NoopGraphHooks is a no-op implementation of GraphHooks.
type NoopGraphHooks struct{}

func (NoopGraphHooks) OnUpdate(context.Context, int, time.Duration) {}
func (NoopGraphHooks) OnElementAdded(context.Context, string)       {}
func (NoopGraphHooks) OnElementRemoved(context.Context, int)        {}

// NoopLocusHooks is a no-op implementation of LocusHooks.
type NoopLocusHooks struct{}

func (NoopLocusHooks) OnEliminationStart(context.Context, int, int)                   {}
func (NoopLocusHooks) OnEliminationComplete(context.Context, int, time.Duration, error) {
}
func (NoopLocusHooks) OnTraceStart(context.Context, int)                         {}
func (NoopLocusHooks) OnTraceComplete(context.Context, int, int, int, time.Duration) {}
func (NoopLocusHooks) OnStale(context.Context, int, error)                       {}

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
	graphHooks GraphHooks = NoopGraphHooks{}
	locusHooks LocusHooks = NoopLocusHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	httpHooks  HTTPHooks  = NoopHTTPHooks{}
	hooksMu    sync.RWMutex
)

// SetGraphHooks registers custom graph hooks.
// This should be called once at application startup before any graph operations.
func SetGraphHooks(h GraphHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		graphHooks = h
	}
}

// SetLocusHooks registers custom locus hooks.
// This should be called once at application startup before any locus operations.
func SetLocusHooks(h LocusHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		locusHooks = h
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

// Graph returns the registered graph hooks.
func Graph() GraphHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return graphHooks
}

// Locus returns the registered locus hooks.
func Locus() LocusHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return locusHooks
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
