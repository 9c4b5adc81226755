package kb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

// SQLiteLoader reads knowledge bases from a SQLite database, for deployments
// that keep tenant content in one store instead of per-tenant JSON files.
// Uses WAL mode so an external writer can update content while the engine
// serves queries.
type SQLiteLoader struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

var _ Loader = (*SQLiteLoader)(nil)

// NewSQLiteLoader opens (or creates) the database at path. An empty path
// opens an in-memory database for testing.
func NewSQLiteLoader(path string) (*SQLiteLoader, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection prevents lock contention with modernc.org/sqlite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// WAL mode must be set via PRAGMA for modernc.org/sqlite.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	l := &SQLiteLoader{db: db}
	if err := l.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return l, nil
}

func (l *SQLiteLoader) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kb_entries (
		tenant_id TEXT NOT NULL,
		lang      TEXT NOT NULL,
		chunk_id  TEXT NOT NULL,
		content   TEXT NOT NULL,
		intent    TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (tenant_id, lang, chunk_id)
	);
	CREATE INDEX IF NOT EXISTS idx_kb_tenant_lang ON kb_entries (tenant_id, lang);
	`
	_, err := l.db.Exec(schema)
	return err
}

// GetKB returns all entries for one tenant and language. The reserved meta
// key is excluded at read time.
func (l *SQLiteLoader) GetKB(ctx context.Context, tenantID, lang string) (map[string]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, fmt.Errorf("loader is closed")
	}

	rows, err := l.db.QueryContext(ctx,
		`SELECT chunk_id, content, intent FROM kb_entries
		 WHERE tenant_id = ? AND lang = ? AND chunk_id != ?`,
		tenantID, lang, MetaKey)
	if err != nil {
		return nil, fmt.Errorf("query knowledge base: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]Entry)
	for rows.Next() {
		var id, content, intent string
		if err := rows.Scan(&id, &content, &intent); err != nil {
			return nil, fmt.Errorf("scan knowledge base row: %w", err)
		}
		entries[id] = Entry{Text: content, Intent: intent}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate knowledge base rows: %w", err)
	}
	return entries, nil
}

// Put inserts or replaces one entry.
func (l *SQLiteLoader) Put(ctx context.Context, tenantID, lang, chunkID, content, intent string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return fmt.Errorf("loader is closed")
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO kb_entries (tenant_id, lang, chunk_id, content, intent)
		 VALUES (?, ?, ?, ?, ?)`,
		tenantID, lang, chunkID, content, intent)
	return err
}

// DeleteTenant removes every entry for a tenant across all languages.
func (l *SQLiteLoader) DeleteTenant(ctx context.Context, tenantID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return fmt.Errorf("loader is closed")
	}

	_, err := l.db.ExecContext(ctx, `DELETE FROM kb_entries WHERE tenant_id = ?`, tenantID)
	return err
}

// Close releases the database handle.
func (l *SQLiteLoader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.db.Close()
}
