package search

import (
	"context"
	"math"
	"sort"

	"github.com/vocalia/hybridrag/internal/embed"
	"github.com/vocalia/hybridrag/internal/store"
)

// DefaultSimilarityFloor discards dense candidates whose cosine similarity
// with the query falls below this value.
const DefaultSimilarityFloor = 0.65

// DenseRetriever scores corpus chunks against a query vector by cosine
// similarity, resolving chunk vectors through the embedding cache
// (generating on demand).
type DenseRetriever struct {
	cache *embed.Cache
	floor float64
}

// NewDenseRetriever creates a retriever over the given cache.
// floor <= -1 disables the similarity floor.
func NewDenseRetriever(cache *embed.Cache, floor float64) *DenseRetriever {
	return &DenseRetriever{cache: cache, floor: floor}
}

// Search returns the chunks most similar to queryVec, sorted descending and
// truncated to limit. A nil query vector (provider unavailable) yields an
// empty result so sparse results alone still flow through fusion. Chunks
// whose vectors cannot be acquired are skipped, never fatal.
func (d *DenseRetriever) Search(ctx context.Context, chunks []*store.Chunk, queryVec []float32, tenantID string, limit int) []*store.DenseResult {
	if len(queryVec) == 0 {
		return []*store.DenseResult{}
	}

	results := make([]*store.DenseResult, 0, limit)
	for _, chunk := range chunks {
		if ctx.Err() != nil {
			break
		}

		vec, ok := d.cache.GetEmbedding(ctx, chunk.ID, chunk.Text, tenantID)
		if !ok {
			continue
		}

		sim := CosineSimilarity(queryVec, vec)
		if sim < d.floor {
			continue
		}
		results = append(results, &store.DenseResult{Chunk: chunk, Score: sim})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// CosineSimilarity computes dot(a,b) / (||a||*||b||).
// Returns 0 for empty or mismatched-length vectors and for zero norms,
// never NaN and never an error.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		av := float64(a[i])
		bv := float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}
