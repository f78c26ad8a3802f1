package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/threatmap/threatmap/pkg/cache"
	"github.com/threatmap/threatmap/pkg/integrations"
)

var repoURLPattern = regexp.MustCompile(`https?://(?:www\.)?github\.com/([^/]+)/([^/]+?)(?:\.git)?(?:[/?#]|$)`)

// Client provides access to the GitHub API for repository metadata.
// It handles HTTP requests with caching, automatic retries, and optional authentication.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a GitHub API client with optional authentication.
// Pass an empty string for token to use unauthenticated requests (lower rate limits).
func NewClient(backend cache.Cache, token string, cacheTTL time.Duration) *Client {
	headers := map[string]string{"Accept": "application/vnd.github.v3+json"}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}

	return &Client{
		Client:  integrations.NewClient(backend, "github:", cacheTTL, headers),
		baseURL: "https://api.github.com",
	}
}

// IsGitHubURL reports whether raw points at a github.com repository.
// Accepts https, git@, and git:// forms.
func IsGitHubURL(raw string) bool {
	parsed, err := url.Parse(integrations.NormalizeRepoURL(raw))
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	return host == "github.com" || host == "www.github.com"
}

// ParseRepoURL extracts owner and repository name from a GitHub URL in any
// common form (https, git@, git://, trailing .git).
func ParseRepoURL(raw string) (owner, repo string, err error) {
	m := repoURLPattern.FindStringSubmatch(integrations.NormalizeRepoURL(raw))
	if len(m) < 3 {
		return "", "", fmt.Errorf("not a GitHub repository URL: %s", raw)
	}
	return m[1], m[2], nil
}

// RepoName returns the repository name from a GitHub URL, or the last path
// segment for non-GitHub URLs. Used for checkout directories and report
// headers.
func RepoName(raw string) string {
	if _, repo, err := ParseRepoURL(raw); err == nil {
		return repo
	}
	normalized := strings.TrimSuffix(integrations.NormalizeRepoURL(raw), "/")
	if idx := strings.LastIndex(normalized, "/"); idx >= 0 {
		return normalized[idx+1:]
	}
	return normalized
}

// GetRepoInfo retrieves repository metadata.
// If refresh is true, cached data is bypassed.
func (c *Client) GetRepoInfo(ctx context.Context, owner, repo string, refresh bool) (*RepoInfo, error) {
	if err := ValidateRepoRef(owner, repo); err != nil {
		return nil, err
	}

	var info RepoInfo
	err := c.Cached(ctx, owner+"/"+repo, refresh, &info, func() error {
		return c.fetchRepo(ctx, owner, repo, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) fetchRepo(ctx context.Context, owner, repo string, info *RepoInfo) error {
	var data apiRepoResponse
	u := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, owner, repo)
	if err := c.Get(ctx, u, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: github repo %s/%s", err, owner, repo)
		}
		return err
	}

	*info = RepoInfo{
		Name:          data.Name,
		FullName:      data.FullName,
		Description:   data.Description,
		Private:       data.Private,
		DefaultBranch: data.DefaultBranch,
		Language:      data.Language,
		SizeKB:        data.Size,
		Stars:         data.Stars,
		License:       data.License.SPDXID,
		Topics:        data.Topics,
		Archived:      data.Archived,
		PushedAt:      data.PushedAt,
	}
	return nil
}

// HasTerraformFiles searches the repository for .tf files. Search can fail
// on rate limits or private repos; callers typically treat an error as
// "unknown" and let the clone decide.
func (c *Client) HasTerraformFiles(ctx context.Context, owner, repo string) (bool, error) {
	if err := ValidateRepoRef(owner, repo); err != nil {
		return false, err
	}

	var result searchCountResponse
	err := c.Cached(ctx, "tf-search:"+owner+"/"+repo, false, &result, func() error {
		query := fmt.Sprintf("extension:tf repo:%s/%s", owner, repo)
		u := fmt.Sprintf("%s/search/code?q=%s&per_page=1", c.baseURL, integrations.URLEncode(query))
		return c.Get(ctx, u, &result)
	})
	if err != nil {
		return false, err
	}
	return result.TotalCount > 0, nil
}

// RateLimit reports the caller's current core API quota. Responses are
// never cached; the numbers are only useful live.
func (c *Client) RateLimit(ctx context.Context) (*RateLimit, error) {
	var data rateLimitResponse
	if err := c.Get(ctx, c.baseURL+"/rate_limit", &data); err != nil {
		return nil, err
	}
	return &RateLimit{
		Limit:     data.Resources.Core.Limit,
		Remaining: data.Resources.Core.Remaining,
		Reset:     time.Unix(data.Resources.Core.Reset, 0),
	}, nil
}
