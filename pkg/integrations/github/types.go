package github

import "time"

// RepoInfo contains repository metadata.
type RepoInfo struct {
	Name          string     `json:"name"`
	FullName      string     `json:"full_name"`
	Description   string     `json:"description"`
	Private       bool       `json:"private"`
	DefaultBranch string     `json:"default_branch"`
	Language      string     `json:"language"`
	SizeKB        int        `json:"size_kb"`
	Stars         int        `json:"stars"`
	License       string     `json:"license,omitempty"`
	Topics        []string   `json:"topics,omitempty"`
	Archived      bool       `json:"archived"`
	PushedAt      *time.Time `json:"pushed_at,omitempty"`
}

// RateLimit describes the caller's remaining GitHub API quota.
type RateLimit struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
}

// apiRepoResponse is the internal GitHub API response structure.
type apiRepoResponse struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	FullName      string     `json:"full_name"`
	Description   string     `json:"description"`
	Private       bool       `json:"private"`
	DefaultBranch string     `json:"default_branch"`
	Language      string     `json:"language"`
	Stars         int        `json:"stargazers_count"`
	Size          int        `json:"size"`
	PushedAt      *time.Time `json:"pushed_at"`
	License       struct {
		SPDXID string `json:"spdx_id"`
	} `json:"license"`
	Topics   []string `json:"topics"`
	Archived bool     `json:"archived"`
}

type searchCountResponse struct {
	TotalCount int `json:"total_count"`
}

type rateLimitResponse struct {
	Resources struct {
		Core struct {
			Limit     int   `json:"limit"`
			Remaining int   `json:"remaining"`
			Reset     int64 `json:"reset"`
		} `json:"core"`
	} `json:"resources"`
}
