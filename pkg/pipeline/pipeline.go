// Package pipeline provides the cached LLM stages behind a threatmap
// analysis run.
//
// # Architecture
//
// A run has three stages:
//
//  1. Analyze: send one repository checkout to the model and get back a
//     markdown infrastructure analysis. Cached per repository content.
//  2. Extract: turn the consolidated report into structured components and
//     flows. Cached per report content.
//  3. Build: synthesize diagram cells from the structured model. Pure
//     computation, never cached.
//
// Analyze runs once per repository; Extract and Build run once per report.
// The CLI assembles the consolidated report between the stages, so the
// Runner exposes Analyze on its own and Extract+Build together as Execute.
//
// # Usage
//
//	runner := pipeline.NewRunner(llmClient, cache, nil, logger)
//	opts := pipeline.Options{Model: cfg.OpenAIModel}
//
//	analysis, err := runner.AnalyzeRepo(ctx, checkout, opts)
//	// ... assemble report from all analyses ...
//	result, err := runner.Execute(ctx, report, opts)
//	cells := result.Cells
//
// Cache keys incorporate every option that changes a stage's output, so a
// model switch or changed repository re-runs the stage instead of serving a
// stale result.
package pipeline

import (
	"fmt"
	"time"

	"github.com/threatmap/threatmap/pkg/dfd"
)

// Options configures a pipeline run.
// This struct supports JSON serialization for cache key derivation.
type Options struct {
	// Model is the LLM model identifier. Part of every cache key: results
	// from different models never alias.
	Model string `json:"model"`

	// MaxFiles bounds how many Terraform files go into the analysis prompt.
	// Zero means all files. Part of the analysis cache key.
	MaxFiles int `json:"max_files,omitempty"`

	// Refresh bypasses cache reads. Fresh results still get written back.
	Refresh bool `json:"refresh,omitempty"`
}

// Validate checks required fields.
func (o *Options) Validate() error {
	if o.Model == "" {
		return fmt.Errorf("model is required")
	}
	if o.MaxFiles < 0 {
		return fmt.Errorf("max_files must be zero or positive")
	}
	return nil
}

// Result contains the outputs of the extract and build stages.
type Result struct {
	// Model is the structured component/flow model extracted from the
	// report.
	Model *dfd.Model

	// Cells are the diagram cells built from the model, ready for upload.
	Cells []dfd.Cell

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ComponentCount int
	FlowCount      int
	CellCount      int
	ExtractTime    time.Duration
	BuildTime      time.Duration
}

// CacheInfo tracks cache hits inside Execute.
type CacheInfo struct {
	ExtractHit bool // whether the structured model came from cache
}
