package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/threatmap/threatmap/pkg/observability"
)

// registerDebugHooks routes observability events into the debug log, so -v
// shows API traffic and cache behavior without the library packages ever
// importing the CLI logger.
func registerDebugHooks(logger *log.Logger) {
	observability.SetHTTPHooks(&httpLogHooks{logger: logger})
	observability.SetCacheHooks(&cacheLogHooks{logger: logger})
}

// httpLogHooks logs one line per API response or transport failure. Request
// starts stay silent; the response line already carries method and path.
type httpLogHooks struct {
	observability.NoopHTTPHooks
	logger *log.Logger
}

func (h *httpLogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("API response",
		"method", method, "host", host, "path", path,
		"status", status, "duration", d)
}

func (h *httpLogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("API request failed",
		"method", method, "host", host, "path", path, "error", err)
}

type cacheLogHooks struct {
	observability.NoopCacheHooks
	logger *log.Logger
}

func (h *cacheLogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *cacheLogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *cacheLogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache write", "type", keyType, "bytes", size)
}
