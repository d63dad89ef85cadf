// Package observability carries build, cache and request events to whatever
// metrics or tracing the embedding program wires up. Nothing here depends on
// a backend.
//
// A program registers its hooks once at startup, usually by embedding the
// Noop types and overriding the events it cares about:
//
//	type trialCounter struct {
//	    observability.NoopPipelineHooks
//	    n atomic.Int64
//	}
//
//	func (c *trialCounter) OnTrial(context.Context, int, int, int, bool) { c.n.Add(1) }
//
//	observability.SetPipelineHooks(&trialCounter{})
//
// Until then every hook is a no-op.
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from sheet builds.
type PipelineHooks interface {
	// Measure events: decoding sprite headers.
	OnMeasureStart(ctx context.Context, files int)
	OnMeasureComplete(ctx context.Context, files int, duration time.Duration, err error)

	// Pack events. OnTrial fires once per canvas size the optimizer tries.
	OnPackStart(ctx context.Context, items int)
	OnTrial(ctx context.Context, index, width, height int, packed bool)
	OnPackComplete(ctx context.Context, width, height int, duration time.Duration, err error)

	// Export events: composing and encoding the sheet and its map.
	OnExportStart(ctx context.Context, formats []string)
	OnExportComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache lookups. keyType is one of
// "measure", "layout" or "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Server Hooks
// =============================================================================

// ServerHooks receives events from the HTTP API.
type ServerHooks interface {
	// OnRequest records an incoming request before routing, so path is
	// the raw URL path.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records the status written for a request. route is the
	// matched pattern, such as "/v1/atlases/{id}".
	OnResponse(ctx context.Context, method, route string, status int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnMeasureStart(context.Context, int)                              {}
func (NoopPipelineHooks) OnMeasureComplete(context.Context, int, time.Duration, error)     {}
func (NoopPipelineHooks) OnPackStart(context.Context, int)                                 {}
func (NoopPipelineHooks) OnTrial(context.Context, int, int, int, bool)                     {}
func (NoopPipelineHooks) OnPackComplete(context.Context, int, int, time.Duration, error)   {}
func (NoopPipelineHooks) OnExportStart(context.Context, []string)                          {}
func (NoopPipelineHooks) OnExportComplete(context.Context, []string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopServerHooks is a no-op implementation of ServerHooks.
type NoopServerHooks struct{}

func (NoopServerHooks) OnRequest(context.Context, string, string)                      {}
func (NoopServerHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Registry
// =============================================================================

// slot holds one registered hook set and falls back to its no-op value.
type slot[T any] struct {
	mu   sync.RWMutex
	noop T
	cur  T
}

func newSlot[T any](noop T) *slot[T] {
	return &slot[T]{noop: noop, cur: noop}
}

func (s *slot[T]) get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

func (s *slot[T]) set(v T) {
	s.mu.Lock()
	s.cur = v
	s.mu.Unlock()
}

func (s *slot[T]) reset() { s.set(s.noop) }

var (
	pipelineSlot = newSlot[PipelineHooks](NoopPipelineHooks{})
	cacheSlot    = newSlot[CacheHooks](NoopCacheHooks{})
	serverSlot   = newSlot[ServerHooks](NoopServerHooks{})
)

// SetPipelineHooks registers pipeline hooks. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) {
	if h != nil {
		pipelineSlot.set(h)
	}
}

// SetCacheHooks registers cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		cacheSlot.set(h)
	}
}

// SetServerHooks registers HTTP server hooks. A nil h is ignored.
func SetServerHooks(h ServerHooks) {
	if h != nil {
		serverSlot.set(h)
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks { return pipelineSlot.get() }

// Cache returns the registered cache hooks.
func Cache() CacheHooks { return cacheSlot.get() }

// Server returns the registered HTTP server hooks.
func Server() ServerHooks { return serverSlot.get() }

// Reset restores the no-op hooks. Tests that register hooks call it in
// t.Cleanup.
func Reset() {
	pipelineSlot.reset()
	cacheSlot.reset()
	serverSlot.reset()
}
