package integrations

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const httpTimeout = 10 * time.Second

var (
	// ErrNotFound reports a 404 from the remote service.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork covers transport failures and non-2xx statuses that have
	// no more specific sentinel.
	ErrNetwork = errors.New("network error")

	// ErrUnauthorized reports a 401. Callers holding a refresh token
	// should refresh and retry.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden reports a 403.
	ErrForbidden = errors.New("forbidden")
)

// NewHTTPClient returns the standard API client with a request timeout.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// NewNoRedirectClient returns a client that hands redirects back to the
// caller instead of following them. The OAuth flow needs the Location
// header of the authorize response, not the page it points at.
func NewNoRedirectClient() *http.Client {
	return &http.Client{
		Timeout: httpTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// NormalizeRepoURL rewrites the repository URL forms git hands out
// (git@github.com:, git://, git+ prefixes, .git suffix) into the canonical
// https form. An empty input stays empty.
func NormalizeRepoURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.TrimPrefix(s, "git+")
	if rest, ok := strings.CutPrefix(s, "git@github.com:"); ok {
		s = "https://github.com/" + rest
	} else if rest, ok := strings.CutPrefix(s, "git://github.com/"); ok {
		s = "https://github.com/" + rest
	}
	return strings.TrimSuffix(s, ".git")
}

// URLEncode percent-encodes a string for use in query parameters.
func URLEncode(s string) string { return url.QueryEscape(s) }
