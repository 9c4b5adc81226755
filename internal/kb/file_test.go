package kb

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeKB(t *testing.T, root, tenant, lang, content string) {
	t.Helper()
	dir := filepath.Join(root, tenant)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kb_"+lang+".json"), []byte(content), 0o644))
}

func TestFileLoader_LoadsStringValues(t *testing.T) {
	root := t.TempDir()
	writeKB(t, root, "alpha", "en", `{
		"greeting": "hello and welcome",
		"hours": "open nine to five"
	}`)

	entries, err := NewFileLoader(root).GetKB(context.Background(), "alpha", "en")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "hello and welcome", entries["greeting"].Text)
	assert.Empty(t, entries["greeting"].Intent)
}

func TestFileLoader_StructuredValuesKeepJSONAndIntent(t *testing.T) {
	root := t.TempDir()
	writeKB(t, root, "alpha", "en", `{
		"booking": {"intent": "booking_create", "steps": ["pick a slot", "confirm"]}
	}`)

	entries, err := NewFileLoader(root).GetKB(context.Background(), "alpha", "en")
	require.NoError(t, err)

	e := entries["booking"]
	assert.Equal(t, "booking_create", e.Intent)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(e.Text), &decoded))
	assert.Equal(t, "booking_create", decoded["intent"])
}

func TestFileLoader_MissingFileIsEmpty(t *testing.T) {
	entries, err := NewFileLoader(t.TempDir()).GetKB(context.Background(), "ghost", "en")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestFileLoader_CorruptFileIsEmptyNotFatal(t *testing.T) {
	root := t.TempDir()
	writeKB(t, root, "alpha", "en", `{broken`)

	entries, err := NewFileLoader(root).GetKB(context.Background(), "alpha", "en")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileLoader_LanguageVariantsAreSeparate(t *testing.T) {
	root := t.TempDir()
	writeKB(t, root, "alpha", "en", `{"k": "english"}`)
	writeKB(t, root, "alpha", "fr", `{"k": "français"}`)

	l := NewFileLoader(root)
	en, err := l.GetKB(context.Background(), "alpha", "en")
	require.NoError(t, err)
	fr, err := l.GetKB(context.Background(), "alpha", "fr")
	require.NoError(t, err)

	assert.Equal(t, "english", en["k"].Text)
	assert.Equal(t, "français", fr["k"].Text)
}

func TestFileLoader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileLoader(t.TempDir()).GetKB(ctx, "alpha", "en")
	assert.Error(t, err)
}

func TestChunks_ExcludesMetaAndSorts(t *testing.T) {
	entries := map[string]Entry{
		"zebra":  {Text: "z"},
		"apple":  {Text: "a"},
		MetaKey:  {Text: "bookkeeping"},
		"mango":  {Text: "m", Intent: "fruit_info"},
	}

	chunks := Chunks(entries, "alpha")
	require.Len(t, chunks, 3)
	assert.Equal(t, "apple", chunks[0].ID)
	assert.Equal(t, "mango", chunks[1].ID)
	assert.Equal(t, "zebra", chunks[2].ID)
	assert.Equal(t, "alpha", chunks[1].TenantID)
	assert.Equal(t, "fruit_info", chunks[1].Intent)
}

func TestDecodeValue_Kinds(t *testing.T) {
	assert.Equal(t, Entry{Text: "plain"}, decodeValue("plain"))

	num := decodeValue(float64(42))
	assert.Equal(t, "42", num.Text)

	arr := decodeValue([]any{"a", "b"})
	assert.JSONEq(t, `["a","b"]`, arr.Text)
}
