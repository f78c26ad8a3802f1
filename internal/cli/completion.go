package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// newCompletionCmd generates shell completion scripts via cobra.
func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for your shell.

Load it into the current session:

  source <(threatmap completion bash)
  threatmap completion fish | source

Or install it permanently:

  # bash (Linux)
  threatmap completion bash > /etc/bash_completion.d/threatmap
  # bash (macOS with Homebrew)
  threatmap completion bash > $(brew --prefix)/etc/bash_completion.d/threatmap
  # zsh
  threatmap completion zsh > "${fpath[1]}/_threatmap"
  # fish
  threatmap completion fish > ~/.config/fish/completions/threatmap.fish
  # powershell: generate threatmap.ps1 and dot-source it from your profile
  threatmap completion powershell > threatmap.ps1
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
		},
	}
}
