package store

import (
	"context"
	"math"
	"sort"
)

// BM25 parameter defaults.
const (
	// DefaultK1 is the term-frequency saturation parameter.
	DefaultK1 = 1.5

	// DefaultB is the document-length normalization parameter.
	DefaultB = 0.75

	// IDFFloor is the minimum inverse document frequency. Terms present in
	// nearly every document still contribute a small positive weight.
	IDFFloor = 0.01

	// DefaultTopK is the result count when the caller passes topK <= 0.
	DefaultTopK = 10

	// scoreBlockSize is the number of documents scored between cancellation
	// checks, so a large corpus does not starve concurrent requests.
	scoreBlockSize = 4096
)

// SparseConfig configures BM25 scoring.
type SparseConfig struct {
	K1 float64
	B  float64
}

// DefaultSparseConfig returns the standard BM25 parameters.
func DefaultSparseConfig() SparseConfig {
	return SparseConfig{K1: DefaultK1, B: DefaultB}
}

// SparseIndex is an in-memory BM25 index over a fixed corpus snapshot.
// All derived state (vocabulary, idf, term frequencies, lengths) is computed
// by Build; the index is stale if the corpus changes without a rebuild.
//
// Methods are not safe for concurrent use with Build; the registry treats a
// built index as read-only.
type SparseIndex struct {
	k1 float64
	b  float64

	documents    []*Chunk
	vocabulary   map[string]int
	idf          map[string]float64
	termFreqs    []map[string]int
	docLengths   []int
	avgDocLength float64
}

// NewSparseIndex creates an empty index with the given parameters.
func NewSparseIndex(cfg SparseConfig) *SparseIndex {
	if cfg.K1 <= 0 {
		cfg.K1 = DefaultK1
	}
	if cfg.B <= 0 {
		cfg.B = DefaultB
	}
	return &SparseIndex{
		k1:         cfg.K1,
		b:          cfg.B,
		vocabulary: make(map[string]int),
		idf:        make(map[string]float64),
	}
}

// Build resets all derived state and indexes the given corpus snapshot.
// Building over an empty corpus is legal and yields a zero-result index.
func (s *SparseIndex) Build(corpus []*Chunk) {
	n := len(corpus)
	s.documents = corpus
	s.vocabulary = make(map[string]int)
	s.idf = make(map[string]float64, n)
	s.termFreqs = make([]map[string]int, 0, n)
	s.docLengths = make([]int, 0, n)
	s.avgDocLength = 0

	df := make(map[string]int)
	totalLen := 0

	for _, doc := range corpus {
		tokens := Tokenize(doc.Text)
		tf := make(map[string]int, len(tokens))
		for _, t := range tokens {
			tf[t]++
		}
		s.termFreqs = append(s.termFreqs, tf)
		s.docLengths = append(s.docLengths, len(tokens))
		totalLen += len(tokens)

		for term := range tf {
			df[term]++
			if _, ok := s.vocabulary[term]; !ok {
				s.vocabulary[term] = len(s.vocabulary)
			}
		}
	}

	if n > 0 {
		s.avgDocLength = float64(totalLen) / float64(n)
	}

	for term, freq := range df {
		idf := math.Log((float64(n)-float64(freq)+0.5)/(float64(freq)+0.5) + 1)
		s.idf[term] = math.Max(idf, IDFFloor)
	}
}

// Search scores the query against every document and returns the topK hits
// sorted by descending BM25 score. Documents with no overlapping terms are
// excluded, never returned with score zero. An empty query or empty index
// yields an empty result, not an error.
func (s *SparseIndex) Search(ctx context.Context, query string, topK int) ([]*SparseResult, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	terms := UniqueTerms(Tokenize(query))
	if len(terms) == 0 || len(s.documents) == 0 {
		return []*SparseResult{}, nil
	}

	results := make([]*SparseResult, 0, topK)
	for i, tf := range s.termFreqs {
		if i%scoreBlockSize == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		docLen := float64(s.docLengths[i])
		score := 0.0
		for _, term := range terms {
			f, ok := tf[term]
			if !ok {
				continue
			}
			idf := s.idf[term]
			freq := float64(f)
			numerator := freq * (s.k1 + 1)
			denominator := freq + s.k1*(1-s.b+s.b*(docLen/s.avgDocLength))
			score += idf * (numerator / denominator)
		}

		if score > 0 {
			results = append(results, &SparseResult{Chunk: s.documents[i], Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// IDF returns the inverse document frequency of a term, or 0 if the term is
// not in the vocabulary.
func (s *SparseIndex) IDF(term string) float64 {
	return s.idf[term]
}

// Documents returns the corpus snapshot this index was built over.
func (s *SparseIndex) Documents() []*Chunk {
	return s.documents
}

// Stats returns statistics about the built index.
func (s *SparseIndex) Stats() *IndexStats {
	return &IndexStats{
		DocumentCount: len(s.documents),
		TermCount:     len(s.vocabulary),
		AvgDocLength:  s.avgDocLength,
	}
}
