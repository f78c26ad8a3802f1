package pipeline

import (
	"context"
	"time"

	"github.com/threatmap/threatmap/pkg/cache"
	"github.com/threatmap/threatmap/pkg/dfd"
	"github.com/threatmap/threatmap/pkg/errors"
	"github.com/threatmap/threatmap/pkg/llm"
	"github.com/threatmap/threatmap/pkg/observability"
)

// ExtractModelWithCacheInfo runs the structured-extraction stage with
// caching and returns cache hit info.
//
// The cached value is the extracted JSON payload, not the parsed model:
// cache hits re-run validation, so an entry written by an older build that
// no longer passes the current rules falls through to recompute instead of
// resurfacing.
func (r *Runner) ExtractModelWithCacheInfo(ctx context.Context, report string, opts Options) (model *dfd.Model, hit bool, err error) {
	if err := opts.Validate(); err != nil {
		return nil, false, err
	}

	reportHash := cache.Hash([]byte(report))
	key := r.Keyer.ExtractKey(reportHash, cache.ExtractKeyOpts{Model: opts.Model})

	start := time.Now()
	observability.Pipeline().OnExtractStart(ctx, reportHash)
	defer func() {
		var components, flows int
		if model != nil {
			components, flows = len(model.Components), len(model.Flows)
		}
		observability.Pipeline().OnExtractComplete(ctx, reportHash, components, flows, time.Since(start), err)
	}()

	if !opts.Refresh {
		if data, ok, cacheErr := r.Cache.Get(ctx, key); cacheErr == nil && ok {
			if cached, parseErr := dfd.Parse(data); parseErr == nil {
				observability.Cache().OnCacheHit(ctx, "extract")
				r.Logger.Debug("extraction cache hit", "report_hash", reportHash)
				return cached, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "extract")
	}

	raw, err := r.LLM.Complete(ctx, llm.BuildExtractionRequest(report))
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeLLMFailed, err, "extract structured model")
	}

	data, err := dfd.ExtractJSON(raw)
	if err != nil {
		return nil, false, err
	}
	model, err = dfd.Parse(data)
	if err != nil {
		return nil, false, err
	}

	if setErr := r.Cache.Set(ctx, key, data, cache.TTLExtract); setErr == nil {
		observability.Cache().OnCacheSet(ctx, "extract", len(data))
	}

	return model, false, nil
}

// ExtractModel is a convenience wrapper that calls ExtractModelWithCacheInfo
// and discards the cache hit info.
func (r *Runner) ExtractModel(ctx context.Context, report string, opts Options) (*dfd.Model, error) {
	model, _, err := r.ExtractModelWithCacheInfo(ctx, report, opts)
	return model, err
}
