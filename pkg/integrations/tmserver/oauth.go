package tmserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/threatmap/threatmap/pkg/errors"
	"github.com/threatmap/threatmap/pkg/integrations"
	"github.com/threatmap/threatmap/pkg/session"
)

// DefaultLoginTimeout bounds how long Login waits for the user to finish
// the browser flow.
const DefaultLoginTimeout = 5 * time.Minute

// Authenticator drives the browser-based OAuth flow against a TM server.
// The server hands tokens back via a redirect to a local callback, so the
// flow is: start a one-shot callback server, resolve the authorization
// URL, open the browser, and wait for the redirect to land.
type Authenticator struct {
	ServerURL string
	IDP       string
	Port      int           // callback port; 0 lets the OS pick
	Timeout   time.Duration // defaults to DefaultLoginTimeout

	// OpenBrowser launches the user's browser at the authorization URL.
	// Defaults to [OpenBrowser]; tests substitute an HTTP GET.
	OpenBrowser func(url string) error
}

// NewAuthenticator creates an authenticator for the given server and
// identity provider.
func NewAuthenticator(serverURL, idp string, port int) *Authenticator {
	return &Authenticator{
		ServerURL:   strings.TrimSuffix(serverURL, "/"),
		IDP:         idp,
		Port:        port,
		Timeout:     DefaultLoginTimeout,
		OpenBrowser: OpenBrowser,
	}
}

// SessionStore is the subset of session storage the login flow needs.
// *session.CLIStore implements it.
type SessionStore interface {
	GetSession(ctx context.Context) (*session.Session, error)
	SaveSession(ctx context.Context, sess *session.Session) error
}

// callbackResult carries the outcome of the OAuth callback to the waiting
// login flow.
type callbackResult struct {
	tokens session.Tokens
	err    error
}

// Login runs the full interactive flow and returns the token triple.
//
// The callback listener is bound before the browser opens, so the redirect
// can never race the server startup. The callback handler resolves the
// result channel exactly once; stray hits after that just get the HTML
// page again.
func (a *Authenticator) Login(ctx context.Context) (*session.Tokens, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", a.Port))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAuthFailed, err, "callback port %d unavailable", a.Port)
	}

	port := listener.Addr().(*net.TCPAddr).Port
	redirectURI := fmt.Sprintf("http://localhost:%d/callback", port)

	authURL, err := a.authorizeURL(ctx, redirectURI)
	if err != nil {
		listener.Close()
		return nil, err
	}

	results := make(chan callbackResult, 1)
	var once sync.Once
	resolve := func(res callbackResult) {
		once.Do(func() { results <- res })
	}

	r := chi.NewRouter()
	r.Get("/callback", func(w http.ResponseWriter, req *http.Request) {
		res := parseCallback(req.URL.Query())
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if res.err != nil {
			fmt.Fprint(w, failureHTML)
		} else {
			fmt.Fprint(w, successHTML)
		}
		resolve(res)
	})

	srv := &http.Server{Handler: r}
	go srv.Serve(listener) //nolint:errcheck // returns ErrServerClosed on shutdown

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck // best-effort cleanup
	}()

	open := a.OpenBrowser
	if open == nil {
		open = OpenBrowser
	}
	if err := open(authURL); err != nil {
		log.Warn("Could not open browser, visit the URL manually", "url", authURL)
	}

	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultLoginTimeout
	}

	select {
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		return &res.tokens, nil
	case <-time.After(timeout):
		return nil, errors.New(errors.ErrCodeTimeout, "no login callback received within %s", timeout)
	case <-ctx.Done():
		return nil, errors.Wrap(errors.ErrCodeAuthFailed, ctx.Err(), "login canceled")
	}
}

// authorizeURL asks the server where to send the user. Servers either
// answer with a redirect (Location header) or a JSON body holding
// authorization_url.
func (a *Authenticator) authorizeURL(ctx context.Context, redirectURI string) (string, error) {
	params := url.Values{}
	params.Set("idp", a.IDP)
	params.Set("client_callback", redirectURI)
	params.Set("scope", "openid profile email")

	endpoint := fmt.Sprintf("%s/oauth2/authorize?%s", a.ServerURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeAuthFailed, err, "build authorize request")
	}

	resp, err := integrations.NewNoRedirectClient().Do(req)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeNetwork, err, "reach %s", a.ServerURL)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		loc := resp.Header.Get("Location")
		if loc == "" {
			return "", errors.New(errors.ErrCodeAuthFailed, "authorize redirect missing Location header")
		}
		return loc, nil
	case resp.StatusCode == http.StatusOK:
		var body authorizeResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return "", errors.Wrap(errors.ErrCodeAuthFailed, err, "decode authorize response")
		}
		if body.AuthorizationURL == "" {
			return "", errors.New(errors.ErrCodeAuthFailed, "authorize response missing authorization_url")
		}
		return body.AuthorizationURL, nil
	default:
		return "", errors.New(errors.ErrCodeAuthFailed, "authorize request failed with status %d", resp.StatusCode)
	}
}

// parseCallback extracts the token triple from the server's redirect query.
func parseCallback(q url.Values) callbackResult {
	if errMsg := q.Get("error"); errMsg != "" {
		if desc := q.Get("error_description"); desc != "" {
			errMsg = fmt.Sprintf("%s: %s", errMsg, desc)
		}
		return callbackResult{err: errors.New(errors.ErrCodeAuthFailed, "authorization failed: %s", errMsg)}
	}

	access := q.Get("access_token")
	if access == "" {
		return callbackResult{err: errors.New(errors.ErrCodeAuthFailed, "callback missing access_token")}
	}

	tokens := session.Tokens{
		AccessToken:  access,
		RefreshToken: q.Get("refresh_token"),
	}
	if v := q.Get("expires_in"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			tokens.ExpiresIn = n
		}
	}
	return callbackResult{tokens: tokens}
}

// Refresh exchanges a refresh token for a fresh token triple.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (*session.Tokens, error) {
	if refreshToken == "" {
		return nil, errors.New(errors.ErrCodeAuthFailed, "no refresh token")
	}

	body, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode refresh request")
	}

	endpoint := fmt.Sprintf("%s/oauth2/refresh", a.ServerURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAuthFailed, err, "build refresh request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := integrations.NewHTTPClient().Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "reach %s", a.ServerURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.ErrCodeAuthFailed, "token refresh failed with status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, errors.Wrap(errors.ErrCodeAuthFailed, err, "decode refresh response")
	}
	if tr.AccessToken == "" {
		return nil, errors.New(errors.ErrCodeAuthFailed, "refresh response missing access_token")
	}

	return &session.Tokens{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresIn:    tr.ExpiresIn,
	}, nil
}

// EnsureSession returns a usable session, in order of preference: the
// stored one when still valid, a refreshed one when the stored session
// carries a refresh token, and finally a fresh interactive login. force
// skips straight to the interactive flow.
func (a *Authenticator) EnsureSession(ctx context.Context, store SessionStore, force bool) (*session.Session, error) {
	if !force {
		sess, err := store.GetSession(ctx)
		if err != nil {
			return nil, err
		}
		if sess != nil && !sess.NeedsRefresh() {
			return sess, nil
		}
		if sess != nil && sess.CanRefresh() {
			refreshed, err := a.refreshSession(ctx, store, sess)
			if err == nil {
				return refreshed, nil
			}
			log.Debug("Session refresh failed, falling back to interactive login", "error", err)
		}
	}

	tokens, err := a.Login(ctx)
	if err != nil {
		return nil, err
	}

	sess := session.New(a.ServerURL, a.IDP, *tokens, session.DefaultTTL)
	if err := store.SaveSession(ctx, sess); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "save session")
	}
	return sess, nil
}

// refreshSession exchanges the stored refresh token and persists the
// result. Servers that rotate refresh tokens return a new one; those that
// don't omit the field, so the old token is kept.
func (a *Authenticator) refreshSession(ctx context.Context, store SessionStore, sess *session.Session) (*session.Session, error) {
	tokens, err := a.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		return nil, err
	}
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = sess.RefreshToken
	}

	next := session.New(a.ServerURL, a.IDP, *tokens, session.DefaultTTL)
	if err := store.SaveSession(ctx, next); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "save session")
	}
	return next, nil
}

// OpenBrowser launches the system browser at the given URL. It is the
// default for [Authenticator.OpenBrowser].
func OpenBrowser(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return fmt.Errorf("URL scheme must be http or https, got %q", parsed.Scheme)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "linux":
		cmd = exec.Command("xdg-open", rawURL)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", rawURL)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}

const successHTML = `<!DOCTYPE html>
<html>
<head><title>threatmap</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 4em;">
<h2>Authentication successful</h2>
<p>You can close this window and return to the terminal.</p>
</body>
</html>`

const failureHTML = `<!DOCTYPE html>
<html>
<head><title>threatmap</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 4em;">
<h2>Authentication failed</h2>
<p>Return to the terminal for details, then try again.</p>
</body>
</html>`
