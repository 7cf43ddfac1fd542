// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries in this module never import a metrics backend directly. They
// emit events through the hook interfaces below; the CLI registers a
// backend (see package prom) at startup.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetSwitchHooks(prom.NewSwitchHooks(reg))
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Switch().OnToggleStart(ctx, id)
//	// ... remote toggle ...
//	observability.Switch().OnToggleComplete(ctx, id, position, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Session Hooks
// =============================================================================

// SessionHooks receives events from operator session loading.
type SessionHooks interface {
	// OnLoadStart fires before the layout and catalog are fetched.
	OnLoadStart(ctx context.Context, controller string)

	// OnLoadComplete fires once the scene is built or loading has failed.
	OnLoadComplete(ctx context.Context, controller string, nodes, switches int, duration time.Duration, err error)
}

// =============================================================================
// Switch Hooks
// =============================================================================

// SwitchHooks receives events from the switch controller and calibration
// sessions.
type SwitchHooks interface {
	// OnToggleStart fires when a toggle request is sent to the controller.
	OnToggleStart(ctx context.Context, id string)

	// OnToggleComplete fires when the controller answered or the request
	// failed. position is the confirmed position, or -1 on failure.
	OnToggleComplete(ctx context.Context, id string, position int, duration time.Duration, err error)

	// OnToggleRejected fires when a toggle is refused locally (not
	// configured, busy, unknown) without reaching the controller.
	OnToggleRejected(ctx context.Context, id, reason string)

	// OnCalibrationCommit fires after a commit round trip.
	OnCalibrationCommit(ctx context.Context, id string, err error)
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

// NoopSessionHooks is a no-op implementation of SessionHooks.
type NoopSessionHooks struct{}

func (NoopSessionHooks) OnLoadStart(context.Context, string) {}
func (NoopSessionHooks) OnLoadComplete(context.Context, string, int, int, time.Duration, error) {
}

// NoopSwitchHooks is a no-op implementation of SwitchHooks.
type NoopSwitchHooks struct{}

func (NoopSwitchHooks) OnToggleStart(context.Context, string) {}
func (NoopSwitchHooks) OnToggleComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopSwitchHooks) OnToggleRejected(context.Context, string, string)  {}
func (NoopSwitchHooks) OnCalibrationCommit(context.Context, string, error) {}

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
	sessionHooks SessionHooks = NoopSessionHooks{}
	switchHooks  SwitchHooks  = NoopSwitchHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	httpHooks    HTTPHooks    = NoopHTTPHooks{}
	hooksMu      sync.RWMutex
)

// SetSessionHooks registers custom session hooks. Nil is ignored.
func SetSessionHooks(h SessionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		sessionHooks = h
	}
}

// SetSwitchHooks registers custom switch hooks. Nil is ignored.
func SetSwitchHooks(h SwitchHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		switchHooks = h
	}
}

// SetCacheHooks registers custom cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks. Nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Session returns the registered session hooks.
func Session() SessionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return sessionHooks
}

// Switch returns the registered switch hooks.
func Switch() SwitchHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return switchHooks
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
	sessionHooks = NoopSessionHooks{}
	switchHooks = NoopSwitchHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
