// Package search provides hybrid retrieval: dense (cosine) search over
// cached embeddings, and Reciprocal Rank Fusion of the sparse and dense
// result lists.
package search

import (
	"github.com/vocalia/hybridrag/internal/store"
)

// Options configures a search query.
type Options struct {
	// Limit is the maximum number of fused results (default: 10).
	Limit int
}

// FusedResult is a single result after RRF fusion.
// Sparse and dense ranks are 1-indexed for display; 0 means the result was
// absent from that list.
type FusedResult struct {
	// Chunk is the underlying corpus chunk.
	Chunk *store.Chunk

	// RRFScore is the fused score, including any boost contributions.
	RRFScore float64

	// SparseScore is the original BM25 score (0 if absent from the
	// sparse list).
	SparseScore float64

	// SparseRank is the position in the sparse list (1-indexed, 0 if absent).
	SparseRank int

	// DenseScore is the original cosine similarity (0 if absent from the
	// dense list).
	DenseScore float64

	// DenseRank is the position in the dense list (1-indexed, 0 if absent).
	DenseRank int
}

// InBothLists reports whether the result appeared in both source lists.
// Cross-list agreement is the dominant ranking signal under RRF.
func (r *FusedResult) InBothLists() bool {
	return r.SparseRank > 0 && r.DenseRank > 0
}

// Response is the outcome of a tenant search.
type Response struct {
	// Results is the fused, descending-sorted result list.
	Results []*FusedResult

	// Degraded is true when the embedding provider was unavailable and
	// only the sparse leg contributed. Never an error: sparse-only
	// retrieval is the documented fallback.
	Degraded bool
}
