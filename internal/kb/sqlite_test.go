package kb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteLoader(t *testing.T) *SQLiteLoader {
	t.Helper()
	l, err := NewSQLiteLoader("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestSQLiteLoader_PutAndGet(t *testing.T) {
	l := newTestSQLiteLoader(t)
	ctx := context.Background()

	require.NoError(t, l.Put(ctx, "alpha", "en", "c1", "dentist appointment", "booking_create"))
	require.NoError(t, l.Put(ctx, "alpha", "en", "c2", "consultation fee", ""))
	require.NoError(t, l.Put(ctx, "alpha", "fr", "c1", "rendez-vous dentiste", ""))
	require.NoError(t, l.Put(ctx, "beta", "en", "c1", "other tenant", ""))

	entries, err := l.GetKB(ctx, "alpha", "en")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "dentist appointment", entries["c1"].Text)
	assert.Equal(t, "booking_create", entries["c1"].Intent)
}

func TestSQLiteLoader_EmptyTenantIsEmptyMap(t *testing.T) {
	l := newTestSQLiteLoader(t)

	entries, err := l.GetKB(context.Background(), "ghost", "en")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestSQLiteLoader_MetaKeyExcluded(t *testing.T) {
	l := newTestSQLiteLoader(t)
	ctx := context.Background()

	require.NoError(t, l.Put(ctx, "alpha", "en", MetaKey, "version 3", ""))
	require.NoError(t, l.Put(ctx, "alpha", "en", "c1", "content", ""))

	entries, err := l.GetKB(ctx, "alpha", "en")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries, MetaKey)
}

func TestSQLiteLoader_PutReplaces(t *testing.T) {
	l := newTestSQLiteLoader(t)
	ctx := context.Background()

	require.NoError(t, l.Put(ctx, "alpha", "en", "c1", "old text", ""))
	require.NoError(t, l.Put(ctx, "alpha", "en", "c1", "new text", ""))

	entries, err := l.GetKB(ctx, "alpha", "en")
	require.NoError(t, err)
	assert.Equal(t, "new text", entries["c1"].Text)
}

func TestSQLiteLoader_DeleteTenantRemovesAllLangs(t *testing.T) {
	l := newTestSQLiteLoader(t)
	ctx := context.Background()

	require.NoError(t, l.Put(ctx, "alpha", "en", "c1", "x", ""))
	require.NoError(t, l.Put(ctx, "alpha", "fr", "c1", "y", ""))
	require.NoError(t, l.Put(ctx, "beta", "en", "c1", "z", ""))

	require.NoError(t, l.DeleteTenant(ctx, "alpha"))

	en, err := l.GetKB(ctx, "alpha", "en")
	require.NoError(t, err)
	assert.Empty(t, en)
	fr, err := l.GetKB(ctx, "alpha", "fr")
	require.NoError(t, err)
	assert.Empty(t, fr)

	beta, err := l.GetKB(ctx, "beta", "en")
	require.NoError(t, err)
	assert.Len(t, beta, 1)
}

func TestSQLiteLoader_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.db")
	ctx := context.Background()

	l, err := NewSQLiteLoader(path)
	require.NoError(t, err)
	require.NoError(t, l.Put(ctx, "alpha", "en", "c1", "durable", ""))
	require.NoError(t, l.Close())

	reopened, err := NewSQLiteLoader(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	entries, err := reopened.GetKB(ctx, "alpha", "en")
	require.NoError(t, err)
	assert.Equal(t, "durable", entries["c1"].Text)
}

func TestSQLiteLoader_ClosedErrors(t *testing.T) {
	l, err := NewSQLiteLoader("")
	require.NoError(t, err)
	require.NoError(t, l.Close())

	_, err = l.GetKB(context.Background(), "alpha", "en")
	assert.Error(t, err)
	assert.Error(t, l.Put(context.Background(), "a", "en", "c", "x", ""))
}
