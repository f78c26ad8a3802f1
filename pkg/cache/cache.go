// Package cache provides the caching layer shared by the analysis pipeline
// and the API clients.
//
// The [Cache] interface abstracts the storage backend. Two implementations
// exist:
//
//   - [FileCache]: per-user cache directory, the CLI default
//   - [RedisCache]: shared Redis backend for teams running many analyses
//
// [NullCache] disables caching entirely (--no-cache).
//
// Cache keys are built through a [Keyer] so that every input that affects a
// stage's output (LLM model, collected file contents) is part of the key.
// Stale entries can therefore only occur through TTL expiry, never through
// input drift.
package cache

import (
	"context"
	"time"
)

// TTL policies per cached artifact kind.
//
// Analysis and extraction results are keyed on a content hash of their
// inputs, so long TTLs are safe: a changed repository produces a different
// key, not a stale hit.
const (
	// TTLDefault is the fallback TTL for entries without a specific policy.
	TTLDefault = 24 * time.Hour

	// TTLAnalysis applies to LLM repository analyses. These are the most
	// expensive artifacts in the pipeline.
	TTLAnalysis = 7 * 24 * time.Hour

	// TTLExtract applies to structured component/flow extraction results.
	TTLExtract = 7 * 24 * time.Hour
)

// Cache is the storage interface used by the pipeline and clients.
//
// Get returns (data, true, nil) on a hit and (nil, false, nil) on a miss.
// Errors are reserved for backend failures; an expired or corrupt entry is
// reported as a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
