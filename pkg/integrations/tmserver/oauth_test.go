package tmserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/threatmap/threatmap/pkg/errors"
	"github.com/threatmap/threatmap/pkg/session"
)

// newAuthServer fakes the TM server side of the login flow. The authorize
// endpoint redirects straight back to the client callback with the given
// query, as if the provider dance finished instantly.
func newAuthServer(t *testing.T, query string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth2/authorize":
			if got := r.URL.Query().Get("idp"); got != "google" {
				t.Errorf("idp = %q, want google", got)
			}
			if got := r.URL.Query().Get("scope"); got != "openid profile email" {
				t.Errorf("scope = %q, want %q", got, "openid profile email")
			}
			callback := r.URL.Query().Get("client_callback")
			if callback == "" {
				t.Error("authorize request missing client_callback")
			}
			http.Redirect(w, r, callback+"?"+query, http.StatusFound)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// browserGet stands in for the system browser: it follows the
// authorization URL to the local callback and captures the page body.
func browserGet(page *string) func(string) error {
	return func(u string) error {
		resp, err := http.Get(u)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		*page = string(data)
		return nil
	}
}

func TestAuthenticator_Login(t *testing.T) {
	srv := newAuthServer(t, "access_token=tok-123&refresh_token=ref-456&expires_in=7200")

	var page string
	auth := NewAuthenticator(srv.URL, "google", 0)
	auth.Timeout = 5 * time.Second
	auth.OpenBrowser = browserGet(&page)

	tokens, err := auth.Login(context.Background())
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if tokens.AccessToken != "tok-123" {
		t.Errorf("AccessToken = %q, want tok-123", tokens.AccessToken)
	}
	if tokens.RefreshToken != "ref-456" {
		t.Errorf("RefreshToken = %q, want ref-456", tokens.RefreshToken)
	}
	if tokens.ExpiresIn != 7200 {
		t.Errorf("ExpiresIn = %d, want 7200", tokens.ExpiresIn)
	}
	if !strings.Contains(page, "Authentication successful") {
		t.Errorf("callback page = %q, want success page", page)
	}
}

func TestAuthenticator_LoginJSONAuthorize(t *testing.T) {
	// Some servers answer the authorize request with JSON instead of a
	// redirect.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callback := r.URL.Query().Get("client_callback")
		json.NewEncoder(w).Encode(map[string]string{
			"authorization_url": callback + "?access_token=tok-json",
		})
	}))
	t.Cleanup(srv.Close)

	var page string
	auth := NewAuthenticator(srv.URL, "google", 0)
	auth.Timeout = 5 * time.Second
	auth.OpenBrowser = browserGet(&page)

	tokens, err := auth.Login(context.Background())
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if tokens.AccessToken != "tok-json" {
		t.Errorf("AccessToken = %q, want tok-json", tokens.AccessToken)
	}
}

func TestAuthenticator_LoginDenied(t *testing.T) {
	srv := newAuthServer(t, "error=access_denied&error_description=user+said+no")

	var page string
	auth := NewAuthenticator(srv.URL, "google", 0)
	auth.Timeout = 5 * time.Second
	auth.OpenBrowser = browserGet(&page)

	_, err := auth.Login(context.Background())
	if err == nil {
		t.Fatal("Login() expected error for denied authorization")
	}
	if !errors.Is(err, errors.ErrCodeAuthFailed) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeAuthFailed)
	}
	if !strings.Contains(err.Error(), "access_denied") {
		t.Errorf("error = %q, want the server's error code in it", err)
	}
	if !strings.Contains(page, "Authentication failed") {
		t.Errorf("callback page = %q, want failure page", page)
	}
}

func TestAuthenticator_LoginTimeout(t *testing.T) {
	srv := newAuthServer(t, "access_token=never-fetched")

	auth := NewAuthenticator(srv.URL, "google", 0)
	auth.Timeout = 50 * time.Millisecond
	auth.OpenBrowser = func(string) error { return nil } // user never completes the flow

	_, err := auth.Login(context.Background())
	if !errors.Is(err, errors.ErrCodeTimeout) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeTimeout)
	}
}

func TestParseCallback(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		wantErr     bool
		wantAccess  string
		wantExpires int
	}{
		{"full triple", "access_token=a&refresh_token=r&expires_in=3600", false, "a", 3600},
		{"no expiry", "access_token=a", false, "a", 0},
		{"bad expiry ignored", "access_token=a&expires_in=soon", false, "a", 0},
		{"missing token", "refresh_token=r", true, "", 0},
		{"server error", "error=access_denied", true, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("ParseQuery() error = %v", err)
			}

			res := parseCallback(q)
			if (res.err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", res.err, tt.wantErr)
			}
			if res.tokens.AccessToken != tt.wantAccess {
				t.Errorf("AccessToken = %q, want %q", res.tokens.AccessToken, tt.wantAccess)
			}
			if res.tokens.ExpiresIn != tt.wantExpires {
				t.Errorf("ExpiresIn = %d, want %d", res.tokens.ExpiresIn, tt.wantExpires)
			}
		})
	}
}

func TestAuthenticator_Refresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth2/refresh" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["refresh_token"] != "old-refresh" {
			t.Errorf("refresh_token = %q, want old-refresh", body["refresh_token"])
		}
		json.NewEncoder(w).Encode(tokenResponse{
			AccessToken:  "new-access",
			RefreshToken: "new-refresh",
			ExpiresIn:    3600,
		})
	}))
	t.Cleanup(srv.Close)

	auth := NewAuthenticator(srv.URL, "google", 0)
	tokens, err := auth.Refresh(context.Background(), "old-refresh")
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if tokens.AccessToken != "new-access" {
		t.Errorf("AccessToken = %q, want new-access", tokens.AccessToken)
	}
	if tokens.RefreshToken != "new-refresh" {
		t.Errorf("RefreshToken = %q, want new-refresh", tokens.RefreshToken)
	}
}

func TestAuthenticator_RefreshEmptyToken(t *testing.T) {
	auth := NewAuthenticator("http://localhost:1", "google", 0)

	_, err := auth.Refresh(context.Background(), "")
	if !errors.Is(err, errors.ErrCodeAuthFailed) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeAuthFailed)
	}
}

// memSessionStore is an in-memory SessionStore for flow tests.
type memSessionStore struct {
	sess  *session.Session
	saves int
}

func (m *memSessionStore) GetSession(ctx context.Context) (*session.Session, error) {
	return m.sess, nil
}

func (m *memSessionStore) SaveSession(ctx context.Context, sess *session.Session) error {
	m.sess = sess
	m.saves++
	return nil
}

func TestAuthenticator_EnsureSessionValid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be reached when the stored session is valid")
	}))
	t.Cleanup(srv.Close)

	store := &memSessionStore{sess: &session.Session{
		ServerURL:   srv.URL,
		AccessToken: "still-good",
		ExpiresAt:   time.Now().Add(time.Hour),
	}}

	auth := NewAuthenticator(srv.URL, "google", 0)
	sess, err := auth.EnsureSession(context.Background(), store, false)
	if err != nil {
		t.Fatalf("EnsureSession() error = %v", err)
	}

	if sess.AccessToken != "still-good" {
		t.Errorf("AccessToken = %q, want still-good", sess.AccessToken)
	}
	if store.saves != 0 {
		t.Errorf("saves = %d, want 0", store.saves)
	}
}

func TestAuthenticator_EnsureSessionRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth2/refresh" {
			t.Errorf("unexpected request to %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		// No refresh_token in the response: the server doesn't rotate.
		json.NewEncoder(w).Encode(tokenResponse{AccessToken: "refreshed-access", ExpiresIn: 3600})
	}))
	t.Cleanup(srv.Close)

	store := &memSessionStore{sess: &session.Session{
		ServerURL:    srv.URL,
		AccessToken:  "stale-access",
		RefreshToken: "old-refresh",
		ExpiresAt:    time.Now().Add(-time.Minute),
		CreatedAt:    time.Now().Add(-2 * time.Hour),
	}}

	auth := NewAuthenticator(srv.URL, "google", 0)
	sess, err := auth.EnsureSession(context.Background(), store, false)
	if err != nil {
		t.Fatalf("EnsureSession() error = %v", err)
	}

	if sess.AccessToken != "refreshed-access" {
		t.Errorf("AccessToken = %q, want refreshed-access", sess.AccessToken)
	}
	if sess.RefreshToken != "old-refresh" {
		t.Errorf("RefreshToken = %q, want the old token preserved", sess.RefreshToken)
	}
	if store.saves != 1 {
		t.Errorf("saves = %d, want 1", store.saves)
	}
	if sess.NeedsRefresh() {
		t.Error("refreshed session should not need another refresh")
	}
}

func TestAuthenticator_EnsureSessionInteractive(t *testing.T) {
	srv := newAuthServer(t, "access_token=fresh-login&expires_in=3600")

	var page string
	store := &memSessionStore{}

	auth := NewAuthenticator(srv.URL, "google", 0)
	auth.Timeout = 5 * time.Second
	auth.OpenBrowser = browserGet(&page)

	sess, err := auth.EnsureSession(context.Background(), store, false)
	if err != nil {
		t.Fatalf("EnsureSession() error = %v", err)
	}

	if sess.AccessToken != "fresh-login" {
		t.Errorf("AccessToken = %q, want fresh-login", sess.AccessToken)
	}
	if store.sess == nil {
		t.Fatal("session was not saved")
	}
	if store.sess.ID != session.ServerID(srv.URL) {
		t.Errorf("session ID = %q, want %q", store.sess.ID, session.ServerID(srv.URL))
	}
}

func TestAuthenticator_EnsureSessionForce(t *testing.T) {
	srv := newAuthServer(t, "access_token=forced-login&expires_in=3600")

	var page string
	store := &memSessionStore{sess: &session.Session{
		ServerURL:   srv.URL,
		AccessToken: "still-good",
		ExpiresAt:   time.Now().Add(time.Hour),
	}}

	auth := NewAuthenticator(srv.URL, "google", 0)
	auth.Timeout = 5 * time.Second
	auth.OpenBrowser = browserGet(&page)

	sess, err := auth.EnsureSession(context.Background(), store, true)
	if err != nil {
		t.Fatalf("EnsureSession() error = %v", err)
	}

	if sess.AccessToken != "forced-login" {
		t.Errorf("AccessToken = %q, want forced-login (force should re-login)", sess.AccessToken)
	}
}
