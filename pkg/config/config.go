// Package config loads threatmap settings from the layered sources a CLI
// user expects: built-in defaults, then ~/.config/threatmap/config.toml,
// then a .env file in the working directory, then the process environment.
// Later layers win, so a THREATMAP_SERVER_URL export overrides everything.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/threatmap/threatmap/pkg/errors"
)

// Defaults applied before any file or environment layer.
const (
	DefaultServerURL    = "https://api.threatmap.dev"
	DefaultIDP          = "google"
	DefaultCallbackPort = 8888
	DefaultModel        = "gpt-4o"
	DefaultMaxRepos     = 3
	DefaultCloneTimeout = 300
	DefaultNoteName     = "Terraform Analysis Report"
	DefaultDiagramName  = "Terraform Architecture DFD"
)

// Config holds all threatmap settings.
type Config struct {
	// Threat model server
	ServerURL    string `toml:"server_url"`
	OAuthIDP     string `toml:"oauth_idp"`
	CallbackPort int    `toml:"callback_port"`

	// LLM provider
	OpenAIAPIKey  string `toml:"openai_api_key"`
	OpenAIModel   string `toml:"openai_model"`
	OpenAIBaseURL string `toml:"openai_base_url"`

	// GitHub API (optional, raises the unauthenticated rate limit)
	GitHubToken string `toml:"github_token"`

	// Analysis behavior
	MaxRepos     int    `toml:"max_repos"`
	CloneTimeout int    `toml:"clone_timeout"` // seconds
	NoteName     string `toml:"note_name"`
	DiagramName  string `toml:"diagram_name"`

	// Storage
	RedisURL string `toml:"redis_url"`
	CacheDir string `toml:"cache_dir"`
}

// Dir returns the threatmap config directory (~/.config/threatmap).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "threatmap"), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load builds a Config from defaults, the config file, a .env file in the
// working directory, and the environment, in that order. An empty path
// means the default location; a missing file at the default location is
// fine, a missing file at an explicit path is an error.
func Load(path string) (*Config, error) {
	cfg := defaults()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
	} else if explicit || !os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config file")
	}

	// godotenv never overrides variables already exported, so the process
	// environment still wins over .env values.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load .env")
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		ServerURL:    DefaultServerURL,
		OAuthIDP:     DefaultIDP,
		CallbackPort: DefaultCallbackPort,
		OpenAIModel:  DefaultModel,
		MaxRepos:     DefaultMaxRepos,
		CloneTimeout: DefaultCloneTimeout,
		NoteName:     DefaultNoteName,
		DiagramName:  DefaultDiagramName,
	}
}

func (c *Config) applyEnv() {
	c.ServerURL = envString("THREATMAP_SERVER_URL", c.ServerURL)
	c.OAuthIDP = envString("THREATMAP_OAUTH_IDP", c.OAuthIDP)
	c.CallbackPort = envInt("THREATMAP_CALLBACK_PORT", c.CallbackPort)

	c.OpenAIAPIKey = envString("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.OpenAIModel = envString("OPENAI_MODEL", c.OpenAIModel)
	c.OpenAIBaseURL = envString("OPENAI_BASE_URL", c.OpenAIBaseURL)

	c.GitHubToken = envString("GITHUB_TOKEN", c.GitHubToken)

	c.MaxRepos = envInt("THREATMAP_MAX_REPOS", c.MaxRepos)
	c.CloneTimeout = envInt("THREATMAP_CLONE_TIMEOUT", c.CloneTimeout)
	c.NoteName = envString("THREATMAP_NOTE_NAME", c.NoteName)
	c.DiagramName = envString("THREATMAP_DIAGRAM_NAME", c.DiagramName)

	c.RedisURL = envString("THREATMAP_REDIS_URL", c.RedisURL)
	c.CacheDir = envString("THREATMAP_CACHE_DIR", c.CacheDir)
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// Validate checks settings every command depends on. LLM credentials are
// checked separately by RequireLLM, so auth and listing commands work
// without an API key.
func (c *Config) Validate() error {
	if err := errors.ValidateURL(c.ServerURL); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "server URL")
	}
	if c.CallbackPort < 1 || c.CallbackPort > 65535 {
		return errors.New(errors.ErrCodeInvalidConfig, "callback port must be 1-65535, got %d", c.CallbackPort)
	}
	if c.MaxRepos < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "max repos must be at least 1, got %d", c.MaxRepos)
	}
	if c.CloneTimeout < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "clone timeout must be at least 1s, got %ds", c.CloneTimeout)
	}
	return nil
}

// RequireLLM verifies that an LLM API key is configured. Called by
// commands that run analysis, not at load time.
func (c *Config) RequireLLM() error {
	if c.OpenAIAPIKey == "" || c.OpenAIAPIKey == "placeholder" {
		return errors.New(errors.ErrCodeInvalidConfig,
			"OPENAI_API_KEY not configured: set it in the environment, .env, or config.toml")
	}
	return nil
}

// CloneDuration returns the clone timeout as a duration.
func (c *Config) CloneDuration() time.Duration {
	return time.Duration(c.CloneTimeout) * time.Second
}

// Mask hides a secret for display, keeping just enough to recognize it.
func Mask(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
