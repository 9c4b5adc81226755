// Package registry owns one hybrid search engine per (tenant, language)
// pair. Engines are built lazily on first query and dropped on explicit
// invalidation when the underlying corpus changes.
package registry

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/vocalia/hybridrag/internal/embed"
	"github.com/vocalia/hybridrag/internal/errors"
	"github.com/vocalia/hybridrag/internal/kb"
	"github.com/vocalia/hybridrag/internal/search"
	"github.com/vocalia/hybridrag/internal/store"
)

// Registry maps "tenantId:lang" keys to built engines.
//
// The mutex guards the map only. Corpus loads and index builds run outside
// it, so two concurrent first queries for the same key may both build; the
// duplicate work is accepted in exchange for never blocking readers on I/O.
type Registry struct {
	loader kb.Loader
	cache  *embed.Cache
	cfg    search.EngineConfig

	mu      sync.RWMutex
	engines map[string]*search.TenantEngine
}

// New creates a registry over the given loader and embedding cache.
func New(loader kb.Loader, cache *embed.Cache, cfg search.EngineConfig) *Registry {
	return &Registry{
		loader:  loader,
		cache:   cache,
		cfg:     cfg,
		engines: make(map[string]*search.TenantEngine),
	}
}

func engineKey(tenantID, lang string) string {
	return tenantID + ":" + lang
}

// Engine returns the engine for a tenant and language, building it on first
// use. An engine over an empty corpus is returned but not cached, so a later
// corpus write is picked up on the next query without an explicit
// invalidate. A loader failure surfaces as a typed not-ready error, distinct
// from "no results".
func (r *Registry) Engine(ctx context.Context, tenantID, lang string) (*search.TenantEngine, error) {
	key := engineKey(tenantID, lang)

	r.mu.RLock()
	engine, ok := r.engines[key]
	r.mu.RUnlock()
	if ok {
		return engine, nil
	}

	start := time.Now()
	corpus, err := r.loadCorpus(ctx, tenantID, lang)
	if err != nil {
		return nil, errors.TenantNotReady(tenantID, lang, err)
	}

	engine = search.NewTenantEngine(tenantID, lang, corpus, r.cache, r.cfg)

	slog.Info("tenant_engine_built",
		slog.String("tenant", tenantID),
		slog.String("lang", lang),
		slog.Int("chunks", len(corpus)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	if len(corpus) == 0 {
		return engine, nil
	}

	r.mu.Lock()
	// A concurrent build may have won; keep the first cached engine so
	// callers observe a consistent snapshot.
	if existing, ok := r.engines[key]; ok {
		engine = existing
	} else {
		r.engines[key] = engine
	}
	r.mu.Unlock()

	return engine, nil
}

// Search resolves the engine for a tenant and language and runs a hybrid
// query against it.
func (r *Registry) Search(ctx context.Context, tenantID, lang, query string, opts search.Options) (*search.Response, error) {
	engine, err := r.Engine(ctx, tenantID, lang)
	if err != nil {
		return nil, err
	}
	return engine.Search(ctx, query, opts)
}

// Invalidate drops every language variant for a tenant and returns how many
// engines were removed. Idempotent: invalidating an absent tenant is a
// no-op.
func (r *Registry) Invalidate(tenantID string) int {
	prefix := tenantID + ":"

	r.mu.Lock()
	removed := 0
	for key := range r.engines {
		if strings.HasPrefix(key, prefix) {
			delete(r.engines, key)
			removed++
		}
	}
	r.mu.Unlock()

	if removed > 0 {
		slog.Info("tenant_engines_invalidated",
			slog.String("tenant", tenantID),
			slog.Int("removed", removed))
	}
	return removed
}

// InvalidateAll drops every cached engine.
func (r *Registry) InvalidateAll() int {
	r.mu.Lock()
	removed := len(r.engines)
	r.engines = make(map[string]*search.TenantEngine)
	r.mu.Unlock()
	return removed
}

// Keys returns the cached engine keys, for diagnostics.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.engines))
	for key := range r.engines {
		keys = append(keys, key)
	}
	return keys
}

// Len returns the number of cached engines.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.engines)
}

// loadCorpus fetches the chunks visible to a tenant: its own knowledge base
// plus the shared and universal scopes. Tenant-owned chunks come first so
// downstream tie-breaks favor them.
func (r *Registry) loadCorpus(ctx context.Context, tenantID, lang string) ([]*store.Chunk, error) {
	scopes := []string{tenantID, store.TenantShared, store.TenantUniversal}

	var corpus []*store.Chunk
	seen := make(map[string]struct{}, len(scopes))
	for _, scope := range scopes {
		if _, dup := seen[scope]; dup {
			continue
		}
		seen[scope] = struct{}{}

		entries, err := r.loader.GetKB(ctx, scope, lang)
		if err != nil {
			return nil, err
		}
		corpus = append(corpus, kb.Chunks(entries, scope)...)
	}
	return corpus, nil
}
