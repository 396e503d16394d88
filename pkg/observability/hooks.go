// Package observability provides hooks for metrics and tracing.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register
// hooks at startup to receive events about render pipeline execution.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach avoids import cycles (hooks are registered by main, not
// by libraries) and keeps the core library free of observability
// framework dependencies.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetRenderHooks(&myRenderHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Render().OnLayoutStart(ctx, nodeCount, edgeCount)
//	// ... run layout ...
//	observability.Render().OnLayoutComplete(ctx, duration, warnings, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// RenderHooks receives events from the render pipeline.
type RenderHooks interface {
	// Parse events
	OnParseStart(ctx context.Context, sourceBytes int)
	OnParseComplete(ctx context.Context, nodeCount, edgeCount int, duration time.Duration, err error)

	// Layout events
	OnLayoutStart(ctx context.Context, nodeCount, edgeCount int)
	OnLayoutComplete(ctx context.Context, duration time.Duration, warnings int, err error)

	// Render events
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnParseStart(context.Context, int)                                 {}
func (NoopRenderHooks) OnParseComplete(context.Context, int, int, time.Duration, error)   {}
func (NoopRenderHooks) OnLayoutStart(context.Context, int, int)                           {}
func (NoopRenderHooks) OnLayoutComplete(context.Context, time.Duration, int, error)       {}
func (NoopRenderHooks) OnRenderStart(context.Context, []string)                           {}
func (NoopRenderHooks) OnRenderComplete(context.Context, []string, time.Duration, error)  {}

var (
	mu          sync.RWMutex
	renderHooks RenderHooks = NoopRenderHooks{}
)

// SetRenderHooks registers the pipeline hook implementation. Call once
// at startup before rendering begins.
func SetRenderHooks(h RenderHooks) {
	mu.Lock()
	defer mu.Unlock()
	if h == nil {
		h = NoopRenderHooks{}
	}
	renderHooks = h
}

// Render returns the registered pipeline hooks.
func Render() RenderHooks {
	mu.RLock()
	defer mu.RUnlock()
	return renderHooks
}
