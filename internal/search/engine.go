package search

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vocalia/hybridrag/internal/embed"
	"github.com/vocalia/hybridrag/internal/store"
)

// candidateMultiplier widens each leg's candidate pool before fusion so RRF
// has overlap to work with.
const candidateMultiplier = 2

// TenantEngine is the hybrid search engine for one tenant corpus: a built
// sparse index, a dense retriever over the shared embedding cache, and a
// fuser. It is safe for concurrent use once built; the corpus is immutable
// after construction.
type TenantEngine struct {
	tenantID string
	lang     string
	chunks   []*store.Chunk
	sparse   *store.SparseIndex
	dense    *DenseRetriever
	cache    *embed.Cache
	fuser    *Fuser
}

// NewTenantEngine builds an engine over the given corpus. The sparse index
// is built eagerly; chunk embeddings are resolved lazily through the cache
// at query time.
func NewTenantEngine(tenantID, lang string, chunks []*store.Chunk, cache *embed.Cache, cfg EngineConfig) *TenantEngine {
	idx := store.NewSparseIndex(store.SparseConfig{K1: cfg.K1, B: cfg.B})
	idx.Build(chunks)

	floor := cfg.SimilarityFloor
	if floor == 0 {
		floor = DefaultSimilarityFloor
	}
	boosts := cfg.Boosts
	if boosts == nil {
		boosts = DefaultBoosts()
	}
	fuser := NewFuserWithK(cfg.RRFConstant, boosts...)

	return &TenantEngine{
		tenantID: tenantID,
		lang:     lang,
		chunks:   chunks,
		sparse:   idx,
		dense:    NewDenseRetriever(cache, floor),
		cache:    cache,
		fuser:    fuser,
	}
}

// EngineConfig carries per-engine tuning. Zero values select the defaults
// (k1=1.5, b=0.75, rrf k=60, floor=0.65, default boosts).
type EngineConfig struct {
	K1              float64
	B               float64
	RRFConstant     int
	SimilarityFloor float64
	Boosts          []BoostRule
}

// TenantID returns the owning tenant.
func (e *TenantEngine) TenantID() string { return e.tenantID }

// Lang returns the corpus language.
func (e *TenantEngine) Lang() string { return e.lang }

// Size returns the corpus chunk count.
func (e *TenantEngine) Size() int { return len(e.chunks) }

// Stats exposes the underlying sparse index statistics.
func (e *TenantEngine) Stats() *store.IndexStats { return e.sparse.Stats() }

// Search runs the sparse and dense legs in parallel and fuses their results.
//
// When the embedding provider cannot produce a query vector, the dense leg
// returns nothing, Degraded is set, and sparse results flow through fusion
// alone. Only context cancellation is a hard error.
func (e *TenantEngine) Search(ctx context.Context, query string, opts Options) (*Response, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultFuseLimit
	}
	start := time.Now()

	// Each leg over-fetches so fusion sees candidates beyond the final cut.
	legLimit := limit * candidateMultiplier

	var (
		sparseResults []*store.SparseResult
		denseResults  []*store.DenseResult
		degraded      bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sparseResults, err = e.sparse.Search(gctx, query, legLimit)
		return err
	})
	g.Go(func() error {
		queryVec, ok := e.cache.GetQueryEmbedding(gctx, query)
		if !ok {
			degraded = true
			denseResults = []*store.DenseResult{}
			return gctx.Err()
		}
		denseResults = e.dense.Search(gctx, e.chunks, queryVec, e.tenantID, legLimit)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fused := e.fuser.Fuse(sparseResults, denseResults, query, limit)

	slog.Debug("hybrid search complete",
		"tenant", e.tenantID,
		"lang", e.lang,
		"sparse_hits", len(sparseResults),
		"dense_hits", len(denseResults),
		"fused", len(fused),
		"degraded", degraded,
		"duration_ms", time.Since(start).Milliseconds())

	return &Response{Results: fused, Degraded: degraded}, nil
}
