package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/threatmap/threatmap/pkg/buildinfo"
	"github.com/threatmap/threatmap/pkg/cache"
	"github.com/threatmap/threatmap/pkg/config"
	"github.com/threatmap/threatmap/pkg/dfd"
	"github.com/threatmap/threatmap/pkg/errors"
	"github.com/threatmap/threatmap/pkg/integrations/github"
	"github.com/threatmap/threatmap/pkg/integrations/tmserver"
	"github.com/threatmap/threatmap/pkg/pipeline"
	"github.com/threatmap/threatmap/pkg/render"
	"github.com/threatmap/threatmap/pkg/report"
	"github.com/threatmap/threatmap/pkg/source/git"
)

// analyzeOpts holds the command-line flags for the analyze command.
type analyzeOpts struct {
	maxRepos    int    // cap on repositories to analyze (0 = from config)
	all         bool   // include non-GitHub repositories
	dryRun      bool   // analyze without uploading anything
	output      string // save the markdown report locally
	renderPath  string // write a local diagram preview (.svg/.png/.pdf/.dot)
	forceAuth   bool   // skip the stored session and log in again
	skipDiagram bool   // skip extraction and diagram upload
	refresh     bool   // bypass cached server responses and analyses
}

// newAnalyzeCmd creates the analyze command, the main entry point of the
// tool.
//
// The command walks the full pipeline: fetch the threat model and its
// repositories, sparse-clone each one, analyze the Terraform sources with
// the configured LLM, publish the consolidated markdown report as a note,
// then extract a structured model from the report and publish it as a data
// flow diagram. Per-repository failures are reported but do not stop the
// run, and diagram failures never take down an already uploaded report.
func newAnalyzeCmd(g *globalOpts) *cobra.Command {
	opts := analyzeOpts{}

	cmd := &cobra.Command{
		Use:   "analyze <threat-model-id>",
		Short: "Analyze a threat model's Terraform repositories",
		Long: `Analyze the Terraform repositories attached to a threat model.

Each repository is sparse-cloned (Terraform files and docs only), analyzed
by the configured LLM, and summarized in a markdown report that is uploaded
to the threat model as a note. A data flow diagram is then extracted from
the report and uploaded alongside it.

Examples:
  threatmap analyze 01234567-89ab-cdef-0123-456789abcdef
  threatmap analyze <id> --max-repos 5 --output report.md
  threatmap analyze <id> --dry-run --render preview.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), g, args[0], &opts)
		},
	}

	cmd.Flags().IntVar(&opts.maxRepos, "max-repos", 0, "maximum repositories to analyze (default from config)")
	cmd.Flags().BoolVar(&opts.all, "all", false, "include repositories not hosted on GitHub")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "analyze but upload nothing")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "save the markdown report to a file")
	cmd.Flags().StringVar(&opts.renderPath, "render", "", "write a local diagram preview (.svg, .png, .pdf, or .dot)")
	cmd.Flags().BoolVar(&opts.forceAuth, "force-auth", false, "force a new login, ignoring the stored session")
	cmd.Flags().BoolVar(&opts.skipDiagram, "skip-diagram", false, "skip data flow diagram generation")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached server responses and analyses")

	return cmd
}

func runAnalyze(ctx context.Context, g *globalOpts, tmID string, opts *analyzeOpts) error {
	logger := loggerFromContext(ctx)

	if err := errors.ValidateThreatModelID(tmID); err != nil {
		return err
	}
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	if opts.maxRepos > 0 {
		cfg.MaxRepos = opts.maxRepos
	}
	if err := cfg.RequireLLM(); err != nil {
		return err
	}

	logger.Info("Terraform analysis", "threatModel", tmID, "maxRepos", cfg.MaxRepos, "server", cfg.ServerURL)

	logger.Info("[1/7] Initializing clients...")
	backend := newCacheBackend(g, cfg, logger)
	defer backend.Close()
	if !opts.forceAuth {
		if stored, _ := loadSession(ctx, cfg); stored == nil || (stored.IsExpired() && !stored.CanRefresh()) {
			printWarning("Not logged in to %s. Starting login flow...", cfg.ServerURL)
		}
	}
	sess, err := ensureSession(ctx, cfg, opts.forceAuth)
	if err != nil {
		return err
	}
	client := newServerClient(cfg, sess, backend)
	runner := newRunner(cfg, backend, logger)
	cloner := git.NewSparseCloner(cfg.CloneDuration())

	logger.Info("[2/7] Fetching threat model...")
	tm, err := client.GetThreatModel(ctx, tmID, opts.refresh)
	if err != nil {
		return err
	}
	logger.Info("Threat model found", "name", tm.Name)

	logger.Info("[3/7] Fetching repositories...")
	repos, err := client.ListRepositories(ctx, tmID, opts.refresh)
	if err != nil {
		return err
	}
	logger.Info("Repositories attached", "total", len(repos))

	candidates := filterRepos(repos, opts.all)
	if !opts.all {
		logger.Info("GitHub repositories", "count", len(candidates))
	}
	if len(candidates) == 0 {
		return errors.New(errors.ErrCodeNotFound,
			"no analyzable repositories in threat model %s (use --all to include non-GitHub URLs)", tmID)
	}
	if cfg.GitHubToken == "" && countGitHub(candidates) > 0 {
		warnRateLimit(ctx, backend)
	}

	targets, err := selectRepos(ctx, candidates, cfg.MaxRepos)
	if err != nil {
		return err
	}

	logger.Info(fmt.Sprintf("[4/7] Analyzing %d repositories...", len(targets)))
	pipeOpts := pipeline.Options{Model: cfg.OpenAIModel, Refresh: opts.refresh}
	analyses, err := analyzeRepos(ctx, cloner, runner, targets, pipeOpts)
	if err != nil {
		return err
	}

	succeeded := 0
	for _, a := range analyses {
		if a.Success {
			succeeded++
		}
	}
	if succeeded == 0 {
		return errors.New(errors.ErrCodeLLMFailed, "no repositories were successfully analyzed")
	}
	logger.Info(fmt.Sprintf("[5/7] Successfully analyzed %d repositories", succeeded))

	logger.Info("[6/7] Generating markdown report...")
	builder := report.Builder{Engine: cfg.OpenAIModel, Version: buildinfo.Version}
	content := builder.Generate(tm.Name, tm.ID, analyses)

	if opts.output != "" {
		if err := report.WriteFile(opts.output, content); err != nil {
			return err
		}
		printFile(opts.output)
	}

	if opts.dryRun {
		logger.Info("[7/7] Dry run - skipping note upload")
		if opts.output == "" {
			fmt.Println(content)
		}
	} else {
		logger.Info("[7/7] Uploading report note...")
		note, err := client.CreateOrUpdateNote(ctx, tmID, tmserver.NoteInput{
			Name:        cfg.NoteName,
			Content:     content,
			Description: fmt.Sprintf("Automated analysis of %d Terraform repositories", succeeded),
		})
		if err != nil {
			return err
		}
		logger.Info("Note saved", "id", note.ID, "name", note.Name)
	}

	// The step counter stops at 7; the diagram stage was added later and
	// kept the original numbering.
	switch {
	case opts.skipDiagram:
		logger.Info("[8/7] Skipping diagram generation (--skip-diagram)")
	case opts.dryRun && opts.renderPath == "":
		logger.Info("[8/7] Dry run - skipping diagram")
	default:
		logger.Info("[8/7] Generating data flow diagram...")
		if err := buildDiagram(ctx, client, cfg, runner, tmID, content, opts, pipeOpts); err != nil {
			logger.Error("Failed to generate diagram", "error", err)
			logger.Info("Continuing without diagram...")
		}
	}

	printNewline()
	printSuccess("Analysis complete: %s", tm.Name)
	if !opts.dryRun {
		printNextStep("Review it on the server", fmt.Sprintf("%s/threat_models/%s", cfg.ServerURL, tmID))
	}
	return nil
}

// filterRepos keeps the repositories analyze can clone. Only GitHub URLs
// qualify unless --all is set.
func filterRepos(repos []tmserver.Repository, all bool) []tmserver.Repository {
	if all {
		return repos
	}
	var out []tmserver.Repository
	for _, repo := range repos {
		if github.IsGitHubURL(repo.URI) {
			out = append(out, repo)
		}
	}
	return out
}

// selectRepos narrows the candidates to at most limit repositories. On a
// terminal the user picks interactively; otherwise, or when the picker is
// skipped or unavailable, the first N are taken with a warning, matching
// non-interactive runs in CI.
func selectRepos(ctx context.Context, repos []tmserver.Repository, limit int) ([]tmserver.Repository, error) {
	logger := loggerFromContext(ctx)
	if limit <= 0 || len(repos) <= limit {
		return repos, nil
	}
	if isInteractive() {
		chosen, ok, err := pickRepositories(repos, limit)
		switch {
		case err != nil:
			logger.Warn("Interactive selection unavailable", "error", err)
		case ok && len(chosen) > 0:
			return chosen, nil
		default:
			logger.Info("Selection skipped, analyzing the first repositories", "count", limit)
		}
	} else {
		logger.Warn("Limiting analysis", "selected", limit, "total", len(repos))
	}
	return repos[:limit], nil
}

// analyzeRepos clones and analyzes each repository in turn. Failures become
// failed report entries and the loop continues; repositories without
// Terraform files are skipped entirely. Only context cancellation stops the
// run.
func analyzeRepos(ctx context.Context, cloner *git.SparseCloner, runner *pipeline.Runner, repos []tmserver.Repository, opts pipeline.Options) ([]report.RepoAnalysis, error) {
	logger := loggerFromContext(ctx)
	analyses := make([]report.RepoAnalysis, 0, len(repos))

	for i, repo := range repos {
		name := repoDisplayName(repo)
		logger.Info(fmt.Sprintf("Repository %d/%d: %s", i+1, len(repos), name), "url", repo.URI)

		analysis, err := analyzeOne(ctx, cloner, runner, repo, name, opts)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, errors.ErrCodeNoTerraform) {
				logger.Warn("Skipping repository, no Terraform files found", "repo", name)
				continue
			}
			logger.Error("Analysis failed", "repo", name, "error", err)
			analyses = append(analyses, report.Failed(name, repo.URI, err))
			continue
		}
		analyses = append(analyses, analysis)
	}
	return analyses, nil
}

// analyzeOne runs the clone and LLM stages for a single repository.
func analyzeOne(ctx context.Context, cloner *git.SparseCloner, runner *pipeline.Runner, repo tmserver.Repository, name string, opts pipeline.Options) (report.RepoAnalysis, error) {
	logger := loggerFromContext(ctx)

	if err := errors.ValidateRepoURL(repo.URI); err != nil {
		return report.RepoAnalysis{}, err
	}

	sp := newSpinnerWithContext(ctx, fmt.Sprintf("Cloning %s...", name))
	sp.Start()
	checkout, err := cloner.Clone(ctx, repo.URI, name)
	if err != nil {
		sp.Stop()
		return report.RepoAnalysis{}, err
	}
	sp.Stop()
	defer checkout.Close()
	logger.Debug("Checkout collected", "terraform", len(checkout.Files), "docs", len(checkout.Docs))

	sp = newSpinnerWithContext(ctx, fmt.Sprintf("Analyzing %s with %s...", name, opts.Model))
	sp.Start()
	analysis, cached, err := runner.AnalyzeRepoWithCacheInfo(ctx, checkout, opts)
	if err != nil {
		sp.Stop()
		return report.RepoAnalysis{}, err
	}
	suffix := ""
	if cached {
		suffix = " (cached)"
	}
	sp.StopWithSuccess(fmt.Sprintf("%s analyzed%s", name, suffix))

	return report.RepoAnalysis{
		RepoName: name,
		RepoURL:  repo.URI,
		Content:  analysis,
		Success:  true,
	}, nil
}

// buildDiagram extracts the structured model from the consolidated report,
// writes the optional local preview, and uploads the diagram unless this is
// a dry run.
func buildDiagram(ctx context.Context, client *tmserver.Client, cfg *config.Config, runner *pipeline.Runner, tmID, reportContent string, opts *analyzeOpts, pipeOpts pipeline.Options) error {
	logger := loggerFromContext(ctx)

	res, err := runner.Execute(ctx, reportContent, pipeOpts)
	if err != nil {
		return err
	}
	printStats(res.Stats.ComponentCount, res.Stats.FlowCount, res.CacheInfo.ExtractHit)

	if opts.renderPath != "" {
		if err := writePreview(res.Cells, opts.renderPath); err != nil {
			logger.Warn("Preview failed", "path", opts.renderPath, "error", err)
		} else {
			printFile(opts.renderPath)
		}
	}

	if opts.dryRun {
		return nil
	}

	diagram, err := client.CreateOrUpdateDiagram(ctx, tmID, tmserver.DiagramInput{
		Name:  cfg.DiagramName,
		Cells: res.Cells,
	})
	if err != nil {
		return err
	}
	logger.Info("Diagram saved", "id", diagram.ID, "cells", res.Stats.CellCount)
	return nil
}

// writePreview renders cells into the format implied by the path extension.
func writePreview(cells []dfd.Cell, path string) error {
	dot := render.ToDOT(cells, render.Options{})

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg":
		data, err = render.RenderSVG(dot)
	case ".png":
		data, err = render.RenderPNG(dot, 2.0)
	case ".pdf":
		data, err = render.RenderPDF(dot)
	case ".dot":
		data = []byte(dot)
	default:
		return errors.New(errors.ErrCodeUnsupported,
			"unsupported preview format %q (use .svg, .png, .pdf, or .dot)", filepath.Ext(path))
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// warnRateLimit checks the anonymous GitHub API quota before cloning.
// Purely advisory; failures never block the run.
func warnRateLimit(ctx context.Context, backend cache.Cache) {
	logger := loggerFromContext(ctx)
	rl, err := github.NewClient(backend, "", cache.TTLDefault).RateLimit(ctx)
	if err != nil {
		logger.Debug("GitHub rate limit check failed", "error", err)
		return
	}
	logger.Debug("GitHub rate limit", "remaining", rl.Remaining, "limit", rl.Limit)
	if rl.Remaining < 10 {
		logger.Warn("GitHub API rate limit nearly exhausted, set github_token in the config",
			"remaining", rl.Remaining, "resets", rl.Reset.Format("15:04"))
	}
}

// repoDisplayName returns the name to show for a repository, falling back
// to the last URL segment when the server omits one.
func repoDisplayName(repo tmserver.Repository) string {
	if repo.Name != "" {
		return repo.Name
	}
	return github.RepoName(repo.URI)
}
