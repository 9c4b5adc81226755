// Package store provides the sparse (BM25) index and the corpus data model.
// An index is a derived, rebuildable artifact over a fixed corpus snapshot:
// callers rebuild after corpus mutation, never mutate in place.
package store

// Reserved tenant scopes. Chunks owned by these scopes are visible to every
// tenant in addition to the tenant's own chunks.
const (
	TenantShared    = "shared"
	TenantUniversal = "universal"
)

// Chunk is a retrievable unit of tenant knowledge content.
// Immutable once indexed; replaced wholesale on corpus rebuild.
type Chunk struct {
	// ID is unique within tenant scope.
	ID string

	// Text is the raw content to index.
	Text string

	// TenantID is the owning scope: a tenant id, or TenantShared/TenantUniversal.
	TenantID string

	// Intent is an optional declared-intent annotation used by boost rules.
	Intent string
}

// VisibleTo reports whether the chunk may be surfaced to the given tenant.
func (c *Chunk) VisibleTo(tenantID string) bool {
	return c.TenantID == tenantID || c.TenantID == TenantShared || c.TenantID == TenantUniversal
}

// SparseResult is a single BM25 search hit.
type SparseResult struct {
	Chunk *Chunk
	Score float64
}

// DenseResult is a single semantic search hit (cosine similarity).
type DenseResult struct {
	Chunk *Chunk
	Score float64
}

// IndexStats describes a built sparse index.
type IndexStats struct {
	DocumentCount int
	TermCount     int
	AvgDocLength  float64
}
