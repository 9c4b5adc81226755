package embed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vocalia/hybridrag/internal/store"
)

// CacheConfig configures the embedding cache.
type CacheConfig struct {
	// MaxEntries bounds the cache (default: 5000).
	MaxEntries int

	// BatchDelay is the pause between provider calls in BatchEmbed
	// (default: 200ms, 0 disables pacing).
	BatchDelay time.Duration
}

// DefaultCacheConfig returns the standard cache bounds.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		MaxEntries: DefaultCacheMaxEntries,
		BatchDelay: DefaultBatchDelay,
	}
}

// Cache is the bounded, disk-backed embedding cache. Entries are keyed by
// "tenantID:chunkID" (or just the chunk id when tenant-agnostic). When the
// cache is full, the oldest *inserted* entries are evicted first; access
// order is irrelevant.
//
// All provider failures are soft: lookups return (nil, false) and search
// degrades to sparse-only. A duplicate concurrent embedding request is
// accepted rework, not a correctness hazard, so the provider is never
// called under the lock.
type Cache struct {
	provider Provider
	disk     *FileStore
	max      int
	limiter  *rate.Limiter

	mu      sync.RWMutex
	entries map[string][]float32
	order   []string // insertion order, oldest first
}

// NewCache creates a cache over the given provider and disk store, loading
// any persisted entries eagerly. disk may be nil for a memory-only cache.
func NewCache(provider Provider, disk *FileStore, cfg CacheConfig) *Cache {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultCacheMaxEntries
	}

	var limiter *rate.Limiter
	if cfg.BatchDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.BatchDelay), 1)
	}

	c := &Cache{
		provider: provider,
		disk:     disk,
		max:      cfg.MaxEntries,
		limiter:  limiter,
		entries:  map[string][]float32{},
	}

	if disk != nil {
		loaded := disk.Load()
		for key, vec := range loaded {
			c.entries[key] = vec
			c.order = append(c.order, key)
		}
		if len(loaded) > 0 {
			slog.Info("embedding_cache_loaded",
				slog.String("path", disk.Path()),
				slog.Int("entries", len(loaded)))
		}
	}

	return c
}

// GetEmbedding returns the vector for a chunk, generating it through the
// provider on a cache miss. The second return is false when no vector could
// be acquired; that is a soft failure and never an error.
func (c *Cache) GetEmbedding(ctx context.Context, id, text, tenantID string) ([]float32, bool) {
	key := CacheKey(tenantID, id)

	c.mu.RLock()
	vec, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return vec, true
	}

	if !c.provider.Available(ctx) {
		slog.Debug("embedding_provider_unavailable", slog.String("key", key))
		return nil, false
	}

	vec, err := c.provider.Embed(ctx, text)
	if err != nil {
		slog.Warn("embedding_failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return nil, false
	}

	c.insert(key, vec)
	return vec, true
}

// GetQueryEmbedding embeds a query. Queries are not corpus members and are
// never cached. Same soft-failure contract as GetEmbedding.
func (c *Cache) GetQueryEmbedding(ctx context.Context, query string) ([]float32, bool) {
	if !c.provider.Available(ctx) {
		slog.Debug("embedding_provider_unavailable", slog.String("scope", "query"))
		return nil, false
	}

	vec, err := c.provider.Embed(ctx, query)
	if err != nil {
		slog.Warn("query_embedding_failed", slog.String("error", err.Error()))
		return nil, false
	}
	return vec, true
}

// BatchEmbed generates embeddings for every chunk missing from the cache,
// pacing provider calls to respect upstream rate limits, and persists the
// whole cache once at the end iff anything was inserted. Returns the number
// of vectors added. The only hard error is context cancellation.
func (c *Cache) BatchEmbed(ctx context.Context, chunks []*store.Chunk, tenantID string) (int, error) {
	added := 0
	for _, chunk := range chunks {
		if c.Contains(CacheKey(tenantID, chunk.ID)) {
			continue
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				break
			}
		} else if err := ctx.Err(); err != nil {
			break
		}

		if _, ok := c.GetEmbedding(ctx, chunk.ID, chunk.Text, tenantID); ok {
			added++
		}
	}

	if added > 0 {
		if err := c.Persist(); err != nil {
			return added, err
		}
	}
	return added, ctx.Err()
}

// Persist writes the full cache to the disk store, if one is configured.
func (c *Cache) Persist() error {
	if c.disk == nil {
		return nil
	}

	c.mu.RLock()
	snapshot := make(map[string][]float32, len(c.entries))
	for key, vec := range c.entries {
		snapshot[key] = vec
	}
	c.mu.RUnlock()

	return c.disk.Save(snapshot)
}

// Contains reports whether the given cache key is present.
func (c *Cache) Contains(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[key]
	return ok
}

// Len returns the current entry count.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// insert stores a vector, evicting the oldest inserted entries first when
// the cache is full, so there is room for exactly one more.
func (c *Cache) insert(key string, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = vec
		return
	}

	evicted := 0
	for len(c.entries) >= c.max && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		if _, ok := c.entries[oldest]; ok {
			delete(c.entries, oldest)
			evicted++
		}
	}
	if evicted > 0 {
		slog.Debug("embedding_cache_evicted",
			slog.Int("count", evicted),
			slog.Int("max", c.max))
	}

	c.entries[key] = vec
	c.order = append(c.order, key)
}
