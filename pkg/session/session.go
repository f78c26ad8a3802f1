// Package session provides session management for authenticated CLI users.
//
// This package defines the session storage interface with implementations
// for different backends:
//   - file: File-based storage, the default for CLI usage
//   - redis: Redis-backed storage for shared/CI environments
//
// # Architecture
//
// Sessions store the OAuth token triple (access token, refresh token,
// expiry) issued by a threat model server, keyed per server so a user can
// stay logged in to several servers at once. The Store interface supports:
//   - Get/Set/Delete operations
//   - Automatic expiration checking
//   - Cleanup of expired sessions
//
// # Usage
//
// Create a session store:
//
//	// CLI (default)
//	store, err := session.NewFileStore("")  // Uses ~/.config/threatmap/sessions/
//
//	// Shared environments
//	store, err := session.NewRedisStore("redis://localhost:6379/0")
//
// Manage sessions:
//
//	// Create session after login
//	sess := session.New(serverURL, idp, tokens, session.DefaultTTL)
//	store.Set(ctx, sess)
//
//	// Retrieve session
//	sess, err := store.Get(ctx, session.ServerID(serverURL))
//	if err != nil {
//	    return err
//	}
//	if sess == nil || sess.NeedsRefresh() {
//	    // Re-authenticate or refresh
//	}
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("not found")

	// ErrExpired is returned when a session has exceeded its TTL.
	ErrExpired = errors.New("expired")
)

// Tokens is the OAuth token triple returned by the server's authorize and
// refresh endpoints.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
}

// Session stores the authenticated state for one threat model server.
type Session struct {
	ID           string    `json:"id"`
	ServerURL    string    `json:"server_url"`
	IDP          string    `json:"idp,omitempty"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// expirySkew is subtracted from the expiry when deciding whether a token
// is still usable, so a request started just before expiry doesn't carry
// a token that dies in flight.
const expirySkew = 60 * time.Second

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// NeedsRefresh returns true if the access token is expired or within the
// skew window of expiring. Callers should refresh (or re-authenticate)
// before using the token.
func (s *Session) NeedsRefresh() bool {
	return time.Now().After(s.ExpiresAt.Add(-expirySkew))
}

// CanRefresh returns true if the session carries a refresh token.
func (s *Session) CanRefresh() bool {
	return s.RefreshToken != ""
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, session *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error

	// Cleanup removes expired sessions (optional, may be no-op for Redis).
	Cleanup(ctx context.Context) error
}

// Default durations.
const (
	// DefaultTTL is the session duration used when the server does not
	// report expires_in.
	DefaultTTL = time.Hour
)

// ServerID derives a stable session ID from a server URL, so repeated
// logins to the same server replace the existing session. The scheme is
// dropped and path separators are flattened:
//
//	https://tm.example.com      -> tm.example.com
//	https://tm.example.com:8443 -> tm.example.com-8443
func ServerID(serverURL string) string {
	id := serverURL
	for _, prefix := range []string{"https://", "http://"} {
		id = strings.TrimPrefix(id, prefix)
	}
	id = strings.TrimSuffix(id, "/")
	replacer := strings.NewReplacer("/", "-", ":", "-")
	return replacer.Replace(id)
}

// GenerateState creates a cryptographically secure random token for
// one-time use during the OAuth flow.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// New creates a session for the given server from a token triple. The
// expiry is computed from ExpiresIn; when the server omits it, DefaultTTL
// applies.
func New(serverURL, idp string, tokens Tokens, fallbackTTL time.Duration) *Session {
	now := time.Now()
	ttl := fallbackTTL
	if tokens.ExpiresIn > 0 {
		ttl = time.Duration(tokens.ExpiresIn) * time.Second
	}
	return &Session{
		ID:           ServerID(serverURL),
		ServerURL:    serverURL,
		IDP:          idp,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    now.Add(ttl),
		CreatedAt:    now,
	}
}
