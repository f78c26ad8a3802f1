// Package observability lets callers instrument the analysis pipeline, the
// caches, and the HTTP clients without coupling those packages to any
// metrics or tracing backend.
//
// The libraries emit events through package-level accessors:
//
//	observability.Pipeline().OnAnalyzeStart(ctx, repo)
//	defer observability.Pipeline().OnAnalyzeComplete(ctx, repo, cached, time.Since(start), err)
//
// By default every event lands in a no-op sink. A main package that wants
// metrics registers its own implementations once at startup:
//
//	observability.SetPipelineHooks(&otelPipelineHooks{})
//	observability.SetCacheHooks(&otelCacheHooks{})
//
// Registration lives in main rather than in the libraries, which keeps the
// dependency arrow pointing at this package only.
package observability

import (
	"context"
	"sync"
	"time"
)

// PipelineHooks receives events from the analysis pipeline.
type PipelineHooks interface {
	// Analysis events, emitted once per repository. cached reports whether
	// the result came from cache rather than a fresh model call.
	OnAnalyzeStart(ctx context.Context, repo string)
	OnAnalyzeComplete(ctx context.Context, repo string, cached bool, duration time.Duration, err error)

	// Extraction events, emitted once per consolidated report. reportHash
	// identifies the report content being extracted.
	OnExtractStart(ctx context.Context, reportHash string)
	OnExtractComplete(ctx context.Context, reportHash string, components, flows int, duration time.Duration, err error)

	// Diagram build events.
	OnBuildStart(ctx context.Context, components int)
	OnBuildComplete(ctx context.Context, cells int, duration time.Duration, err error)
}

// NoopPipelineHooks discards all pipeline events. Embed it to implement
// only the events you care about.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnAnalyzeStart(context.Context, string) {}
func (NoopPipelineHooks) OnAnalyzeComplete(context.Context, string, bool, time.Duration, error) {
}
func (NoopPipelineHooks) OnExtractStart(context.Context, string) {}
func (NoopPipelineHooks) OnExtractComplete(context.Context, string, int, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnBuildStart(context.Context, int)                          {}
func (NoopPipelineHooks) OnBuildComplete(context.Context, int, time.Duration, error) {}

// CacheHooks receives events from cache operations. keyType names the class
// of cached value ("analysis", "extract", "tmserver", "github").
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// NoopCacheHooks discards all cache events.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// HTTPHooks receives events from the shared HTTP client.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError fires for transport failures where no response arrived.
	OnError(ctx context.Context, method, host, path string, err error)
}

// NoopHTTPHooks discards all HTTP events.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

var registry = struct {
	sync.RWMutex
	pipeline PipelineHooks
	cache    CacheHooks
	http     HTTPHooks
}{
	pipeline: NoopPipelineHooks{},
	cache:    NoopCacheHooks{},
	http:     NoopHTTPHooks{},
}

// SetPipelineHooks registers h as the pipeline event sink. Call once at
// startup, before the pipeline runs; nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	if h == nil {
		return
	}
	registry.Lock()
	defer registry.Unlock()
	registry.pipeline = h
}

// SetCacheHooks registers h as the cache event sink; nil is ignored.
func SetCacheHooks(h CacheHooks) {
	if h == nil {
		return
	}
	registry.Lock()
	defer registry.Unlock()
	registry.cache = h
}

// SetHTTPHooks registers h as the HTTP event sink; nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h == nil {
		return
	}
	registry.Lock()
	defer registry.Unlock()
	registry.http = h
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	registry.RLock()
	defer registry.RUnlock()
	return registry.pipeline
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	registry.RLock()
	defer registry.RUnlock()
	return registry.cache
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	registry.RLock()
	defer registry.RUnlock()
	return registry.http
}

// Reset restores the no-op sinks. Tests use it to undo registrations.
func Reset() {
	registry.Lock()
	defer registry.Unlock()
	registry.pipeline = NoopPipelineHooks{}
	registry.cache = NoopCacheHooks{}
	registry.http = NoopHTTPHooks{}
}
