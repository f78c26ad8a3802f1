// Package github provides an HTTP client for the GitHub API.
//
// # Overview
//
// This package fetches repository metadata from GitHub (https://api.github.com)
// during analysis preflight: repository existence and size, whether a repo
// looks like it contains Terraform, and the caller's remaining API quota.
//
// # Usage
//
//	client := github.NewClient(backend, token, 24*time.Hour)
//
//	info, err := client.GetRepoInfo(ctx, "acme", "infra", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Stars:", info.Stars)
//	fmt.Println("Size:", info.SizeKB, "KB")
//
// # Authentication
//
// A GitHub personal access token is optional but recommended to avoid rate
// limits. Without a token, the client is limited to 60 requests/hour.
// With a token, the limit is 5000 requests/hour. [Client.RateLimit] reports
// the live quota so the analyze preflight can warn before burning it.
//
// # Caching
//
// Responses are cached to reduce API calls. The cache TTL is set when
// creating the client. Pass refresh=true to bypass the cache.
//
// # URL Parsing
//
// [ParseRepoURL] extracts owner and repository from GitHub URLs in any
// common form (https, git@, git://, trailing .git); [IsGitHubURL] filters
// repository lists down to the GitHub entries threatmap can clone.
package github
