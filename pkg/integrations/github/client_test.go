package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/threatmap/threatmap/pkg/cache"
	"github.com/threatmap/threatmap/pkg/integrations"
)

func TestClient_GetRepoInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/repos/acme/infra":
			json.NewEncoder(w).Encode(apiRepoResponse{
				Name:          "infra",
				FullName:      "acme/infra",
				DefaultBranch: "main",
				Language:      "HCL",
				Stars:         100,
				Size:          500,
				License: struct {
					SPDXID string `json:"spdx_id"`
				}{SPDXID: "MIT"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := testClient(t, server.URL, "")

	info, err := c.GetRepoInfo(context.Background(), "acme", "infra", true)
	if err != nil {
		t.Fatalf("GetRepoInfo failed: %v", err)
	}

	if info.FullName != "acme/infra" {
		t.Errorf("FullName = %q", info.FullName)
	}
	if info.Stars != 100 {
		t.Errorf("expected 100 stars, got %d", info.Stars)
	}
	if info.SizeKB != 500 {
		t.Errorf("expected 500 KB, got %d", info.SizeKB)
	}
	if info.DefaultBranch != "main" {
		t.Errorf("DefaultBranch = %q", info.DefaultBranch)
	}
}

func TestClient_GetRepoInfoNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	c := testClient(t, server.URL, "")

	_, err := c.GetRepoInfo(context.Background(), "acme", "missing", true)
	if err == nil {
		t.Fatal("GetRepoInfo should fail for missing repo")
	}
}

func TestClient_HasTerraformFiles(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  bool
	}{
		{"repo with tf files", 3, true},
		{"repo without tf files", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/search/code" {
					http.NotFound(w, r)
					return
				}
				json.NewEncoder(w).Encode(searchCountResponse{TotalCount: tt.count})
			}))
			defer server.Close()

			c := testClient(t, server.URL, "")

			got, err := c.HasTerraformFiles(context.Background(), "acme", "infra")
			if err != nil {
				t.Fatalf("HasTerraformFiles failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("HasTerraformFiles = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClient_RateLimit(t *testing.T) {
	reset := time.Now().Add(time.Hour).Unix()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rate_limit" {
			http.NotFound(w, r)
			return
		}
		var resp rateLimitResponse
		resp.Resources.Core.Limit = 5000
		resp.Resources.Core.Remaining = 4999
		resp.Resources.Core.Reset = reset
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := testClient(t, server.URL, "token")

	rl, err := c.RateLimit(context.Background())
	if err != nil {
		t.Fatalf("RateLimit failed: %v", err)
	}
	if rl.Limit != 5000 || rl.Remaining != 4999 {
		t.Errorf("RateLimit = %+v", rl)
	}
	if rl.Reset.Unix() != reset {
		t.Errorf("Reset = %v, want unix %d", rl.Reset, reset)
	}
}

func TestIsGitHubURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://github.com/acme/infra", true},
		{"https://www.github.com/acme/infra", true},
		{"git@github.com:acme/infra.git", true},
		{"https://gitlab.com/acme/infra", false},
		{"https://bitbucket.org/acme/infra", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsGitHubURL(tt.url); got != tt.want {
			t.Errorf("IsGitHubURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		url       string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{"https://github.com/acme/infra", "acme", "infra", false},
		{"https://github.com/acme/infra.git", "acme", "infra", false},
		{"git@github.com:acme/infra.git", "acme", "infra", false},
		{"https://github.com/acme/infra/tree/main", "acme", "infra", false},
		{"https://github.com/acme", "", "", true},
		{"https://gitlab.com/acme/infra", "", "", true},
	}

	for _, tt := range tests {
		owner, repo, err := ParseRepoURL(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRepoURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			continue
		}
		if owner != tt.wantOwner || repo != tt.wantRepo {
			t.Errorf("ParseRepoURL(%q) = %q/%q, want %q/%q", tt.url, owner, repo, tt.wantOwner, tt.wantRepo)
		}
	}
}

func TestRepoName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://github.com/acme/infra", "infra"},
		{"https://github.com/acme/infra.git", "infra"},
		{"git@github.com:acme/infra.git", "infra"},
		{"https://example.com/repos/custom", "custom"},
	}
	for _, tt := range tests {
		if got := RepoName(tt.url); got != tt.want {
			t.Errorf("RepoName(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestNewClient(t *testing.T) {
	c := NewClient(cache.NewNullCache(), "test-token", time.Hour)
	if c.Client == nil {
		t.Error("expected client to be initialized")
	}
}

func testClient(t *testing.T, serverURL, token string) *Client {
	t.Helper()
	backend, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	headers := map[string]string{"Accept": "application/vnd.github.v3+json"}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return &Client{
		Client:  integrations.NewClient(backend, "github:", time.Hour, headers),
		baseURL: serverURL,
	}
}
