package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocalia/hybridrag/internal/embed"
	"github.com/vocalia/hybridrag/internal/store"
)

// stubProvider returns canned vectors per input text.
type stubProvider struct {
	vectors   map[string][]float32
	available bool
	calls     int
}

func (p *stubProvider) Embed(_ context.Context, text string) ([]float32, error) {
	p.calls++
	vec, ok := p.vectors[text]
	if !ok {
		return nil, errors.New("no vector for text")
	}
	return vec, nil
}

func (p *stubProvider) Available(context.Context) bool { return p.available }
func (p *stubProvider) Dimensions() int                { return 3 }
func (p *stubProvider) ModelName() string              { return "stub" }
func (p *stubProvider) Close() error                   { return nil }

func newStubCache(vectors map[string][]float32) (*embed.Cache, *stubProvider) {
	p := &stubProvider{vectors: vectors, available: true}
	return embed.NewCache(p, nil, embed.CacheConfig{MaxEntries: 100}), p
}

func TestCosineSimilarity_Identities(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical vectors", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"orthogonal vectors", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite vectors", []float32{1, 2}, []float32{-1, -2}, -1.0},
		{"scaled copy", []float32{1, 2, 3}, []float32{2, 4, 6}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestCosineSimilarity_DegenerateInputsAreZero(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
	}{
		{"both empty", nil, nil},
		{"one empty", []float32{1, 2}, nil},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}},
		{"zero norm", []float32{0, 0}, []float32{1, 2}},
		{"both zero norm", []float32{0, 0}, []float32{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			assert.Equal(t, 0.0, got)
			assert.False(t, got != got, "must never be NaN")
		})
	}
}

func TestDenseRetriever_RanksBySimilarity(t *testing.T) {
	cache, _ := newStubCache(map[string][]float32{
		"close":   {0.9, 0.1, 0},
		"closer":  {1, 0, 0},
		"far off": {0, 1, 0},
	})
	d := NewDenseRetriever(cache, 0.65)

	chunks := []*store.Chunk{
		{ID: "c1", Text: "close"},
		{ID: "c2", Text: "closer"},
		{ID: "c3", Text: "far off"},
	}
	queryVec := []float32{1, 0, 0}

	results := d.Search(context.Background(), chunks, queryVec, "t1", 10)
	require.Len(t, results, 2)
	assert.Equal(t, "c2", results[0].Chunk.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, "c1", results[1].Chunk.ID)
}

func TestDenseRetriever_FloorFiltersWeakMatches(t *testing.T) {
	cache, _ := newStubCache(map[string][]float32{
		"weak": {0.5, 0.87, 0}, // cosine ~0.5 against the query
	})
	d := NewDenseRetriever(cache, 0.65)

	chunks := []*store.Chunk{{ID: "c1", Text: "weak"}}
	results := d.Search(context.Background(), chunks, []float32{1, 0, 0}, "t1", 10)
	assert.Empty(t, results)
}

func TestDenseRetriever_NilQueryVectorIsEmpty(t *testing.T) {
	cache, p := newStubCache(nil)
	d := NewDenseRetriever(cache, 0.65)

	chunks := []*store.Chunk{{ID: "c1", Text: "anything"}}
	results := d.Search(context.Background(), chunks, nil, "t1", 10)
	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Zero(t, p.calls, "no chunk embedding work without a query vector")
}

func TestDenseRetriever_SkipsUnacquirableVectors(t *testing.T) {
	cache, _ := newStubCache(map[string][]float32{
		"known": {1, 0, 0},
		// "unknown" has no vector; the provider errors and the chunk is
		// skipped, not fatal.
	})
	d := NewDenseRetriever(cache, 0.0)

	chunks := []*store.Chunk{
		{ID: "c1", Text: "unknown"},
		{ID: "c2", Text: "known"},
	}
	results := d.Search(context.Background(), chunks, []float32{1, 0, 0}, "t1", 10)
	require.Len(t, results, 1)
	assert.Equal(t, "c2", results[0].Chunk.ID)
}

func TestDenseRetriever_TruncatesToLimit(t *testing.T) {
	vectors := map[string][]float32{}
	chunks := make([]*store.Chunk, 0, 5)
	for i := 0; i < 5; i++ {
		text := string(rune('a' + i))
		vectors[text] = []float32{1, 0, 0}
		chunks = append(chunks, &store.Chunk{ID: text, Text: text})
	}
	cache, _ := newStubCache(vectors)
	d := NewDenseRetriever(cache, 0.65)

	results := d.Search(context.Background(), chunks, []float32{1, 0, 0}, "t1", 2)
	assert.Len(t, results, 2)
}
