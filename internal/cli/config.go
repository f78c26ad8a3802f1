package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/threatmap/threatmap/pkg/config"
)

// newConfigCmd creates the config command showing the effective settings.
func newConfigCmd(g *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Show the configuration after merging defaults, the config file, .env,
and environment variables. Secrets are masked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}

			path := g.configPath
			if path == "" {
				if p, err := config.DefaultPath(); err == nil {
					path = p
				}
			}

			printNewline()
			fmt.Println(StyleTitle.Render("Configuration"))
			printDetail("%s", describeConfigFile(path))
			printNewline()

			for _, row := range configRows(cfg) {
				printKeyValue(row[0], row[1])
			}
			printNewline()
			return nil
		},
	}
}

// describeConfigFile reports the config file path and whether it exists.
func describeConfigFile(path string) string {
	if path == "" {
		return "config file: unknown"
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Sprintf("config file: %s (not found, using defaults)", path)
	}
	return fmt.Sprintf("config file: %s", path)
}

// configRows flattens the effective configuration into display rows.
// Secrets go through config.Mask; optional values show "(not set)".
func configRows(cfg *config.Config) [][2]string {
	rows := [][2]string{
		{"Server", cfg.ServerURL},
		{"OAuth IDP", cfg.OAuthIDP},
		{"Callback", fmt.Sprintf("port %d", cfg.CallbackPort)},
		{"Model", cfg.OpenAIModel},
		{"API key", config.Mask(cfg.OpenAIAPIKey)},
	}
	if cfg.OpenAIBaseURL != "" {
		rows = append(rows, [2]string{"Base URL", cfg.OpenAIBaseURL})
	}
	rows = append(rows,
		[2]string{"GitHub token", config.Mask(cfg.GitHubToken)},
		[2]string{"Max repos", fmt.Sprintf("%d", cfg.MaxRepos)},
		[2]string{"Clone timeout", fmt.Sprintf("%ds", cfg.CloneTimeout)},
		[2]string{"Note name", cfg.NoteName},
		[2]string{"Diagram", cfg.DiagramName},
	)
	if cfg.RedisURL != "" {
		rows = append(rows, [2]string{"Redis", cfg.RedisURL})
	}
	if dir, err := effectiveCacheDir(cfg); err == nil {
		rows = append(rows, [2]string{"Cache dir", dir})
	}
	return rows
}
