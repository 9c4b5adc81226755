// Package embed provides embedding acquisition: the external provider client
// and the bounded, disk-backed embedding cache.
//
// Provider failures are soft. The cache degrades to "no vector" and the
// search path continues sparse-only; callers never see a provider error.
package embed

import (
	"context"
	"time"
)

// Common embedding constants.
const (
	// DefaultCacheMaxEntries bounds the embedding cache. When full, the
	// oldest inserted entries are evicted first (insertion order, not LRU).
	DefaultCacheMaxEntries = 5000

	// DefaultBatchDelay is the pause between successive provider calls
	// during batch embedding, to stay under upstream rate limits.
	DefaultBatchDelay = 200 * time.Millisecond

	// DefaultRequestTimeout is the per-call provider timeout.
	DefaultRequestTimeout = 30 * time.Second
)

// Provider generates vector embeddings for text.
type Provider interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Available checks if the provider is ready. It must be consulted
	// before Embed: missing credentials surface here, not as a failed call.
	Available(ctx context.Context) bool

	// Dimensions returns the embedding dimension (0 if unknown).
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Close releases resources.
	Close() error
}

// CacheKey builds the cache key for a chunk embedding: "tenantID:id" when a
// tenant is given, else just the id.
func CacheKey(tenantID, id string) string {
	if tenantID == "" {
		return id
	}
	return tenantID + ":" + id
}
