package pipeline

import (
	"context"
	"time"

	"github.com/threatmap/threatmap/pkg/cache"
	"github.com/threatmap/threatmap/pkg/errors"
	"github.com/threatmap/threatmap/pkg/llm"
	"github.com/threatmap/threatmap/pkg/observability"
	"github.com/threatmap/threatmap/pkg/source/git"
)

// AnalyzeRepoWithCacheInfo runs the repository analysis stage with caching
// and returns cache hit info.
//
// The cache key covers the repository URL, the content hash of the collected
// files, the model, and the file bound: a changed repository or a different
// prompt re-analyzes instead of serving a stale result.
func (r *Runner) AnalyzeRepoWithCacheInfo(ctx context.Context, checkout *git.Checkout, opts Options) (analysis string, hit bool, err error) {
	if err := opts.Validate(); err != nil {
		return "", false, err
	}

	key := r.Keyer.AnalysisKey(checkout.URL, cache.AnalysisKeyOpts{
		Model:       opts.Model,
		ContentHash: checkout.ContentHash(),
		MaxFiles:    opts.MaxFiles,
	})

	start := time.Now()
	observability.Pipeline().OnAnalyzeStart(ctx, checkout.Name)
	defer func() {
		observability.Pipeline().OnAnalyzeComplete(ctx, checkout.Name, hit, time.Since(start), err)
	}()

	if !opts.Refresh {
		if data, ok, cacheErr := r.Cache.Get(ctx, key); cacheErr == nil && ok {
			observability.Cache().OnCacheHit(ctx, "analysis")
			r.Logger.Debug("analysis cache hit", "repo", checkout.Name)
			return string(data), true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "analysis")
	}

	analysis, err = r.LLM.Complete(ctx, llm.BuildAnalysisRequest(r.boundedCheckout(checkout, opts)))
	if err != nil {
		return "", false, errors.Wrap(errors.ErrCodeLLMFailed, err, "analyze repository %s", checkout.Name)
	}

	if setErr := r.Cache.Set(ctx, key, []byte(analysis), cache.TTLAnalysis); setErr == nil {
		observability.Cache().OnCacheSet(ctx, "analysis", len(analysis))
	}

	return analysis, false, nil
}

// AnalyzeRepo is a convenience wrapper that calls AnalyzeRepoWithCacheInfo
// and discards the cache hit info.
func (r *Runner) AnalyzeRepo(ctx context.Context, checkout *git.Checkout, opts Options) (string, error) {
	analysis, _, err := r.AnalyzeRepoWithCacheInfo(ctx, checkout, opts)
	return analysis, err
}

// boundedCheckout applies the MaxFiles bound before prompt assembly. The
// checkout itself is never mutated; the bound copy exists only for the
// prompt.
func (r *Runner) boundedCheckout(checkout *git.Checkout, opts Options) *git.Checkout {
	if opts.MaxFiles <= 0 || len(checkout.Files) <= opts.MaxFiles {
		return checkout
	}

	r.Logger.Warn("Truncating Terraform files for analysis prompt",
		"repo", checkout.Name,
		"files", len(checkout.Files),
		"max_files", opts.MaxFiles)

	bounded := *checkout
	bounded.Files = checkout.Files[:opts.MaxFiles]
	return &bounded
}
