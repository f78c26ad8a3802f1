package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/threatmap/threatmap/pkg/errors"
	"github.com/threatmap/threatmap/pkg/integrations/github"
	"github.com/threatmap/threatmap/pkg/integrations/tmserver"
)

// reposOpts holds the command-line flags for the repos command.
type reposOpts struct {
	refresh bool // bypass the cached repository list
}

// newReposCmd creates the repos command for listing a threat model's
// repositories.
func newReposCmd(g *globalOpts) *cobra.Command {
	opts := reposOpts{}

	cmd := &cobra.Command{
		Use:   "repos <threat-model-id>",
		Short: "List the repositories attached to a threat model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepos(cmd.Context(), g, args[0], &opts)
		},
	}

	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached server responses")

	return cmd
}

func runRepos(ctx context.Context, g *globalOpts, tmID string, opts *reposOpts) error {
	logger := loggerFromContext(ctx)

	if err := errors.ValidateThreatModelID(tmID); err != nil {
		return err
	}
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	sess, err := ensureSession(ctx, cfg, false)
	if err != nil {
		return err
	}
	backend := newCacheBackend(g, cfg, logger)
	defer backend.Close()
	client := newServerClient(cfg, sess, backend)

	tm, err := client.GetThreatModel(ctx, tmID, opts.refresh)
	if err != nil {
		return err
	}
	repos, err := client.ListRepositories(ctx, tmID, opts.refresh)
	if err != nil {
		return err
	}

	printNewline()
	fmt.Println(StyleTitle.Render(tm.Name))
	printKeyValue("ID", tm.ID)
	printKeyValue("Repositories", fmt.Sprintf("%d (%d on GitHub)", len(repos), countGitHub(repos)))
	printNewline()

	for i, repo := range repos {
		printRepo(i+1, repo)
	}

	if len(repos) == 0 {
		printInfo("No repositories attached; add them on the server first")
		return nil
	}
	printNextStep("Analyze them", fmt.Sprintf("threatmap analyze %s", tmID))
	return nil
}

// printRepo prints one numbered repository entry.
func printRepo(n int, repo tmserver.Repository) {
	fmt.Printf("%s %s %s\n",
		StyleDim.Render(fmt.Sprintf("%2d.", n)),
		StyleValue.Render(repoDisplayName(repo)),
		repoBadge(repo))
	printDetail("%s", repo.URI)
}

// repoBadge labels a repository with its hosting and declared type.
// GitHub repositories are the ones analyze can clone.
func repoBadge(repo tmserver.Repository) string {
	badge := "other"
	style := StyleDim
	if github.IsGitHubURL(repo.URI) {
		badge = "github"
		style = StyleSuccess
	}
	if repo.Type != "" {
		badge += ":" + repo.Type
	}
	return style.Render("[" + badge + "]")
}

// countGitHub counts the repositories hosted on GitHub.
func countGitHub(repos []tmserver.Repository) int {
	n := 0
	for _, repo := range repos {
		if github.IsGitHubURL(repo.URI) {
			n++
		}
	}
	return n
}
