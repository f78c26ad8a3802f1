package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/threatmap/threatmap/pkg/cache"
	"github.com/threatmap/threatmap/pkg/config"
	"github.com/threatmap/threatmap/pkg/integrations/tmserver"
	"github.com/threatmap/threatmap/pkg/llm"
	"github.com/threatmap/threatmap/pkg/pipeline"
	"github.com/threatmap/threatmap/pkg/session"
)

// appName is the application name used for directories and display.
const appName = "threatmap"

// globalOpts holds the persistent flags shared by every command. A single
// instance is created in Execute and handed to each command constructor.
type globalOpts struct {
	verbose    bool
	quiet      bool
	noCache    bool
	cacheDir   string // overrides the config/XDG cache directory
	configPath string // explicit config file; empty means the default
}

// loadConfig loads the effective configuration, applying the --cache-dir
// override on top of the layered sources.
func (g *globalOpts) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.cacheDir != "" {
		cfg.CacheDir = g.cacheDir
	}
	return cfg, nil
}

// =============================================================================
// Cache wiring
// =============================================================================

// newCacheBackend selects the cache implementation: null under --no-cache,
// Redis when a Redis URL is configured, otherwise the local file cache.
// Backend failures degrade to the null cache so a broken cache never blocks
// an analysis.
func newCacheBackend(g *globalOpts, cfg *config.Config, logger *log.Logger) cache.Cache {
	if g.noCache {
		return cache.NewNullCache()
	}
	if cfg.RedisURL != "" {
		c, err := cache.NewRedisCache(cfg.RedisURL)
		if err == nil {
			return c
		}
		logger.Warn("Redis cache unavailable, falling back to file cache", "error", err)
	}
	dir, err := effectiveCacheDir(cfg)
	if err != nil {
		logger.Warn("Cache disabled", "error", err)
		return cache.NewNullCache()
	}
	c, err := cache.NewFileCache(dir)
	if err != nil {
		logger.Warn("Cache disabled", "error", err)
		return cache.NewNullCache()
	}
	return c
}

// effectiveCacheDir resolves the cache directory: the configured override
// wins, otherwise the XDG default applies.
func effectiveCacheDir(cfg *config.Config) (string, error) {
	if cfg != nil && cfg.CacheDir != "" {
		return cfg.CacheDir, nil
	}
	return cacheDir()
}

// cacheDir returns the cache directory using XDG standard (~/.cache/threatmap/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Client wiring
// =============================================================================

// newRunner assembles the analysis pipeline from the configuration: the
// OpenAI-compatible LLM client, the shared cache backend, and the default
// key derivation.
func newRunner(cfg *config.Config, backend cache.Cache, logger *log.Logger) *pipeline.Runner {
	client := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	return pipeline.NewRunner(client, backend, cache.NewDefaultKeyer(), logger)
}

// newSessionStore opens the per-server session store. Sessions follow the
// cache into Redis when a Redis URL is configured.
func newSessionStore(cfg *config.Config) (*session.CLIStore, error) {
	return session.NewCLIStore(cfg.ServerURL, cfg.RedisURL)
}

// ensureSession returns a valid session for the configured server,
// refreshing or re-authenticating as needed. force skips straight to the
// interactive browser flow.
func ensureSession(ctx context.Context, cfg *config.Config, force bool) (*session.Session, error) {
	store, err := newSessionStore(cfg)
	if err != nil {
		return nil, err
	}
	auth := tmserver.NewAuthenticator(cfg.ServerURL, cfg.OAuthIDP, cfg.CallbackPort)
	return auth.EnsureSession(ctx, store, force)
}

// newServerClient builds the TM server client from an authenticated
// session, sharing the cache backend for threat model and repository reads.
func newServerClient(cfg *config.Config, sess *session.Session, backend cache.Cache) *tmserver.Client {
	return tmserver.NewClient(cfg.ServerURL, sess.AccessToken, backend, cache.TTLDefault)
}
