package cli

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/threatmap/threatmap/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		ServerURL:    "https://tm.example.com",
		OAuthIDP:     "google",
		CallbackPort: 8888,
		OpenAIAPIKey: "sk-secret-value-1234",
		OpenAIModel:  "gpt-4o",
		MaxRepos:     3,
		CloneTimeout: 300,
		NoteName:     "Terraform Analysis Report",
		DiagramName:  "Terraform Architecture DFD",
	}
}

// rowValue finds a display row by key.
func rowValue(t *testing.T, rows [][2]string, key string) string {
	t.Helper()
	for _, row := range rows {
		if row[0] == key {
			return row[1]
		}
	}
	t.Fatalf("row %q not found in %v", key, rows)
	return ""
}

func TestConfigRowsMasksSecrets(t *testing.T) {
	cfg := testConfig()
	cfg.GitHubToken = "ghp_abcdefghijklmnop"

	rows := configRows(cfg)

	apiKey := rowValue(t, rows, "API key")
	if strings.Contains(apiKey, "secret-value") {
		t.Errorf("API key row %q leaks the secret", apiKey)
	}
	if apiKey != config.Mask(cfg.OpenAIAPIKey) {
		t.Errorf("API key row = %q, want %q", apiKey, config.Mask(cfg.OpenAIAPIKey))
	}

	token := rowValue(t, rows, "GitHub token")
	if strings.Contains(token, "abcdefghijklmnop") {
		t.Errorf("GitHub token row %q leaks the secret", token)
	}
}

func TestConfigRowsOptionalEntries(t *testing.T) {
	cfg := testConfig()

	rows := configRows(cfg)
	for _, row := range rows {
		if row[0] == "Base URL" || row[0] == "Redis" {
			t.Errorf("unset optional %q should not appear, got %q", row[0], row[1])
		}
	}

	cfg.OpenAIBaseURL = "https://llm.internal/v1"
	cfg.RedisURL = "redis://localhost:6379/0"
	rows = configRows(cfg)
	if got := rowValue(t, rows, "Base URL"); got != cfg.OpenAIBaseURL {
		t.Errorf("Base URL row = %q, want %q", got, cfg.OpenAIBaseURL)
	}
	if got := rowValue(t, rows, "Redis"); got != cfg.RedisURL {
		t.Errorf("Redis row = %q, want %q", got, cfg.RedisURL)
	}
}

func TestConfigRowsCacheDirOverride(t *testing.T) {
	cfg := testConfig()
	cfg.CacheDir = filepath.Join(t.TempDir(), "cache")

	rows := configRows(cfg)
	if got := rowValue(t, rows, "Cache dir"); got != cfg.CacheDir {
		t.Errorf("Cache dir row = %q, want %q", got, cfg.CacheDir)
	}
}

func TestDescribeConfigFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "config.toml")
	if got := describeConfigFile(missing); !strings.Contains(got, "not found") {
		t.Errorf("describeConfigFile(missing) = %q, want not found marker", got)
	}
	if got := describeConfigFile(""); !strings.Contains(got, "unknown") {
		t.Errorf("describeConfigFile(\"\") = %q, want unknown", got)
	}
}
