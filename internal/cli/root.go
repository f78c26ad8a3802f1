package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/threatmap/threatmap/pkg/buildinfo"
)

// Execute runs the threatmap CLI and returns an error if any command fails.
// This is the main entry point for the CLI application.
//
// The function sets up the root command with all subcommands (analyze,
// auth, repos, config, cache, completion), configures logging based on the
// --verbose/--quiet flags, and executes the command tree.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//   - With --quiet (-q): warnings and errors only
//
// The logger is attached to the context and accessible to all commands via
// loggerFromContext.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the CLI under an externally controlled context, so
// main can wire signal handling to command cancellation.
func ExecuteContext(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// newRootCmd builds the root command tree with persistent flags and the
// context logger hookup.
func newRootCmd() *cobra.Command {
	g := &globalOpts{}

	root := &cobra.Command{
		Use:   "threatmap",
		Short: "Threatmap turns Terraform repositories into threat model reports",
		Long: `Threatmap connects a threat modeling server to your infrastructure code.

It clones the Terraform repositories attached to a threat model, analyzes
them with an LLM, and publishes the findings back to the server as a
markdown report and a data flow diagram.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if g.verbose {
				level = charmlog.DebugLevel
			}
			if g.quiet {
				level = charmlog.WarnLevel
			}
			logger := newLogger(os.Stderr, level)
			if g.verbose {
				registerDebugHooks(logger)
			}
			cmd.SetContext(withLogger(cmd.Context(), logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().BoolVarP(&g.quiet, "quiet", "q", false, "only log warnings and errors")
	root.PersistentFlags().BoolVar(&g.noCache, "no-cache", false, "disable the local cache")
	root.PersistentFlags().StringVar(&g.cacheDir, "cache-dir", "", "cache directory (default ~/.cache/threatmap)")
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "config file (default ~/.config/threatmap/config.toml)")

	root.AddCommand(newAnalyzeCmd(g))
	root.AddCommand(newAuthCmd(g))
	root.AddCommand(newReposCmd(g))
	root.AddCommand(newConfigCmd(g))
	root.AddCommand(newCacheCmd(g))
	root.AddCommand(newCompletionCmd())

	return root
}
