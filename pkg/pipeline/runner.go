package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/threatmap/threatmap/pkg/cache"
	"github.com/threatmap/threatmap/pkg/dfd"
	"github.com/threatmap/threatmap/pkg/llm"
	"github.com/threatmap/threatmap/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for its collaborators - it doesn't store
// stage results. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	LLM    llm.Client
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given model client and cache.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (caching disabled).
func NewRunner(client llm.Client, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		LLM:    client,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the extract → build stages over a consolidated report.
// The analysis stage runs separately, once per repository, via
// [Runner.AnalyzeRepo].
func (r *Runner) Execute(ctx context.Context, report string, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage: Extract
	extractStart := time.Now()
	model, extractHit, err := r.ExtractModelWithCacheInfo(ctx, report, opts)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	result.Model = model
	result.Stats.ExtractTime = time.Since(extractStart)
	result.Stats.ComponentCount = len(model.Components)
	result.Stats.FlowCount = len(model.Flows)
	result.CacheInfo.ExtractHit = extractHit

	r.Logger.Info("extracted structured model",
		"components", len(model.Components),
		"flows", len(model.Flows),
		"duration", result.Stats.ExtractTime)

	// Stage: Build
	buildStart := time.Now()
	observability.Pipeline().OnBuildStart(ctx, len(model.Components))
	cells, err := dfd.Build(model)
	observability.Pipeline().OnBuildComplete(ctx, len(cells), time.Since(buildStart), err)
	if err != nil {
		return nil, fmt.Errorf("build diagram: %w", err)
	}
	result.Cells = cells
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.CellCount = len(cells)

	r.Logger.Info("built diagram cells",
		"cells", len(cells),
		"duration", result.Stats.BuildTime)

	return result, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
