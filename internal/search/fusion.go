package search

import (
	"sort"
	"strings"

	"github.com/vocalia/hybridrag/internal/store"
)

// DefaultRRFConstant is the standard RRF smoothing parameter.
// k=60 is empirically validated across domains (used by Azure AI Search,
// OpenSearch, etc.).
const DefaultRRFConstant = 60

// DefaultFuseLimit is the fused result count when the caller passes
// limit <= 0.
const DefaultFuseLimit = 10

// Boost bonuses for the default domain rules.
const (
	// PolicyKeyBonus applies when the query contains a policy chunk's key.
	// Large enough to dominate base RRF scores for exact policy hits.
	PolicyKeyBonus = 100.0

	// PolicyContentBonus applies when any query word occurs in a policy
	// chunk's text.
	PolicyContentBonus = 10.0

	// IntentPrefixBonus applies when a query token prefixes a chunk's
	// declared intent.
	IntentPrefixBonus = 0.05

	policyIDPrefix = "policy_"
)

// BoostRule adjusts a fused result's score after base fusion. Rules must be
// deterministic and idempotent per (query, result); the fuser re-sorts after
// applying them, so rules never break the sortedness contract.
type BoostRule func(query string, r *FusedResult) float64

// Fuser merges ranked sparse and dense result lists with Reciprocal Rank
// Fusion.
//
// Contribution of an item at 0-based rank r is 1/(r+k); an item present in
// both lists has its contributions summed, making cross-list agreement the
// dominant ranking signal.
type Fuser struct {
	k      int
	boosts []BoostRule
}

// NewFuser creates a fuser with the default k=60 and default boost rules.
func NewFuser() *Fuser {
	return NewFuserWithK(DefaultRRFConstant, DefaultBoosts()...)
}

// NewFuserWithK creates a fuser with a custom k and boost rules.
// If k <= 0, defaults to 60.
func NewFuserWithK(k int, boosts ...BoostRule) *Fuser {
	if k <= 0 {
		k = DefaultRRFConstant
	}
	return &Fuser{k: k, boosts: boosts}
}

// Fuse merges the two ranked lists into one list sorted descending by fused
// score, truncated to limit. The sparse list is folded in first, so exact
// score ties resolve in favor of sparse ordering (stable sort over fold-in
// order).
func (f *Fuser) Fuse(sparse []*store.SparseResult, dense []*store.DenseResult, query string, limit int) []*FusedResult {
	if limit <= 0 {
		limit = DefaultFuseLimit
	}
	if len(sparse) == 0 && len(dense) == 0 {
		return []*FusedResult{}
	}

	byID := make(map[string]*FusedResult, len(sparse)+len(dense))
	ordered := make([]*FusedResult, 0, len(sparse)+len(dense))

	for i, r := range sparse {
		fr := &FusedResult{
			Chunk:       r.Chunk,
			RRFScore:    1.0 / float64(i+f.k),
			SparseScore: r.Score,
			SparseRank:  i + 1,
		}
		byID[r.Chunk.ID] = fr
		ordered = append(ordered, fr)
	}

	for i, r := range dense {
		if fr, ok := byID[r.Chunk.ID]; ok {
			fr.RRFScore += 1.0 / float64(i+f.k)
			fr.DenseScore = r.Score
			fr.DenseRank = i + 1
			continue
		}
		fr := &FusedResult{
			Chunk:      r.Chunk,
			RRFScore:   1.0 / float64(i+f.k),
			DenseScore: r.Score,
			DenseRank:  i + 1,
		}
		byID[r.Chunk.ID] = fr
		ordered = append(ordered, fr)
	}

	for _, fr := range ordered {
		for _, boost := range f.boosts {
			fr.RRFScore += boost(query, fr)
		}
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].RRFScore > ordered[j].RRFScore
	})
	if len(ordered) > limit {
		ordered = ordered[:limit]
	}
	return ordered
}

// DefaultBoosts returns the standard domain boost rules. They are an
// optional, swappable policy layer on top of base RRF, not core fusion.
func DefaultBoosts() []BoostRule {
	return []BoostRule{PolicyKeywordBoost, IntentPrefixBoost}
}

// PolicyKeywordBoost boosts policy chunks (id "policy_<key>") when the
// query names the policy key, with a smaller bonus when any query word
// occurs in the chunk text. Exact policy hits must outrank everything.
func PolicyKeywordBoost(query string, r *FusedResult) float64 {
	if !strings.HasPrefix(r.Chunk.ID, policyIDPrefix) {
		return 0
	}

	lowerQuery := strings.ToLower(query)
	bonus := 0.0

	key := strings.ReplaceAll(strings.TrimPrefix(r.Chunk.ID, policyIDPrefix), "_", " ")
	if key != "" && strings.Contains(lowerQuery, key) {
		bonus += PolicyKeyBonus
	}

	lowerText := strings.ToLower(r.Chunk.Text)
	for _, word := range strings.Fields(lowerQuery) {
		if strings.Contains(lowerText, word) {
			bonus += PolicyContentBonus
			break
		}
	}
	return bonus
}

// IntentPrefixBoost adds a small bonus when a query token is a prefix of
// the chunk's declared intent.
func IntentPrefixBoost(query string, r *FusedResult) float64 {
	if r.Chunk.Intent == "" {
		return 0
	}

	lowerIntent := strings.ToLower(r.Chunk.Intent)
	for _, token := range store.Tokenize(query) {
		if strings.HasPrefix(lowerIntent, token) {
			return IntentPrefixBonus
		}
	}
	return 0
}
