// Package kb loads tenant knowledge bases. A knowledge base is a flat
// mapping of chunk id to content, per tenant and language; loaders exist for
// JSON files on disk and for a SQLite store.
package kb

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/vocalia/hybridrag/internal/store"
)

// MetaKey is the reserved bookkeeping key in a knowledge base. It is never
// indexed.
const MetaKey = "__meta"

// Entry is one knowledge-base value, normalized to indexable text.
type Entry struct {
	// Text is the raw content. Structured values are stored as their JSON
	// encoding so they remain searchable lexically.
	Text string

	// Intent is an optional declared intent, used by fusion boosts.
	Intent string
}

// Loader fetches a tenant's knowledge base for one language.
//
// A missing knowledge base is an empty map, not an error; errors are
// reserved for genuine I/O or backend failures.
type Loader interface {
	GetKB(ctx context.Context, tenantID, lang string) (map[string]Entry, error)
}

// Chunks converts a knowledge base into corpus chunks owned by tenantID,
// excluding the reserved meta key. Output is sorted by id so corpus order
// (and therefore tie-break order downstream) is deterministic.
func Chunks(entries map[string]Entry, tenantID string) []*store.Chunk {
	chunks := make([]*store.Chunk, 0, len(entries))
	for id, e := range entries {
		if id == MetaKey {
			continue
		}
		chunks = append(chunks, &store.Chunk{
			ID:       id,
			Text:     e.Text,
			TenantID: tenantID,
			Intent:   e.Intent,
		})
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].ID < chunks[j].ID })
	return chunks
}

// decodeValue normalizes a raw knowledge-base value. Strings pass through;
// anything else is JSON-encoded, with a string "intent" field lifted out
// when present.
func decodeValue(raw any) Entry {
	switch v := raw.(type) {
	case string:
		return Entry{Text: v}
	case map[string]any:
		var e Entry
		if intent, ok := v["intent"].(string); ok {
			e.Intent = intent
		}
		if data, err := json.Marshal(v); err == nil {
			e.Text = string(data)
		}
		return e
	default:
		data, err := json.Marshal(raw)
		if err != nil {
			return Entry{}
		}
		return Entry{Text: string(data)}
	}
}
