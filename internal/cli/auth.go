package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/threatmap/threatmap/pkg/config"
	"github.com/threatmap/threatmap/pkg/session"
)

// newAuthCmd creates the auth command with subcommands.
func newAuthCmd(g *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication with the TM server",
		Long: `Log in to the threat modeling server and manage the stored session.

Login opens your browser for the server's OAuth flow; the resulting tokens
are stored in ~/.config/threatmap/sessions/ and refreshed automatically.`,
	}

	cmd.AddCommand(newAuthLoginCmd(g))
	cmd.AddCommand(newAuthStatusCmd(g))
	cmd.AddCommand(newAuthLogoutCmd(g))

	return cmd
}

// newAuthLoginCmd creates the login subcommand. Login always runs the
// interactive browser flow, replacing any stored session.
func newAuthLoginCmd(g *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the TM server in your browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthLogin(cmd.Context(), g)
		},
	}
}

func runAuthLogin(ctx context.Context, g *globalOpts) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	printNewline()
	fmt.Println(StyleTitle.Render("TM Server Login"))
	printNewline()
	printKeyValue("Server", StyleLink.Render(cfg.ServerURL))
	printKeyValue("Provider", cfg.OAuthIDP)
	printNewline()
	printDetail("Complete the sign-in in your browser; if it does not open,")
	printDetail("copy the printed URL.")
	printInline("Waiting for authorization...")

	sess, err := ensureSession(ctx, cfg, true)
	if err != nil {
		fmt.Println()
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Println()
	printSuccess("Logged in to %s", cfg.ServerURL)
	printDetail("Session valid until %s", sess.ExpiresAt.Format("Jan 2, 2006 15:04"))
	printNextStep("Analyze a threat model", "threatmap analyze <threat-model-id>")
	return nil
}

// newAuthStatusCmd creates the status subcommand.
func newAuthStatusCmd(g *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthStatus(cmd.Context(), g)
		},
	}
}

func runAuthStatus(ctx context.Context, g *globalOpts) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	sess, err := loadSession(ctx, cfg)
	if err != nil {
		return err
	}
	if sess == nil {
		printInfo("Not logged in to %s", cfg.ServerURL)
		printNextStep("Log in", "threatmap auth login")
		return nil
	}

	printSuccess("Session for %s", cfg.ServerURL)
	if sess.IDP != "" {
		printKeyValue("Provider", sess.IDP)
	}
	printKeyValue("Created", sess.CreatedAt.Format("Jan 2, 2006 15:04"))
	printKeyValue("Expires", describeExpiry(sess, time.Now()))
	printKeyValue("Refresh", describeRefresh(sess))
	return nil
}

// describeExpiry formats the session expiry relative to now, so status
// reads "in 42m" rather than a bare timestamp.
func describeExpiry(sess *session.Session, now time.Time) string {
	at := sess.ExpiresAt.Format("Jan 2, 2006 15:04")
	remaining := sess.ExpiresAt.Sub(now)
	switch {
	case remaining <= 0:
		return fmt.Sprintf("%s (expired)", at)
	case remaining < time.Hour:
		return fmt.Sprintf("%s (in %dm)", at, int(remaining.Minutes()))
	case remaining < 48*time.Hour:
		return fmt.Sprintf("%s (in %dh)", at, int(remaining.Hours()))
	default:
		return fmt.Sprintf("%s (in %dd)", at, int(remaining.Hours()/24))
	}
}

// describeRefresh reports whether the session can renew itself without a
// new browser login.
func describeRefresh(sess *session.Session) string {
	if sess.CanRefresh() {
		return "automatic (refresh token stored)"
	}
	return "not available (log in again when expired)"
}

// newAuthLogoutCmd creates the logout subcommand.
func newAuthLogoutCmd(g *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			store, err := newSessionStore(cfg)
			if err != nil {
				return fmt.Errorf("open session store: %w", err)
			}
			if err := store.DeleteSession(cmd.Context()); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
			printSuccess("Logged out of %s", cfg.ServerURL)
			return nil
		},
	}
}

// loadSession fetches the stored session for the configured server without
// triggering a login. Returns nil when no session exists.
func loadSession(ctx context.Context, cfg *config.Config) (*session.Session, error) {
	store, err := newSessionStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	sess, err := store.GetSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}
