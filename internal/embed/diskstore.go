package embed

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileStore persists the embedding cache as a single JSON file mapping
// cache key to float vector. The file is rewritten wholesale on each
// mutation batch, never per entry.
type FileStore struct {
	path string
	lock *flock.Flock
}

// NewFileStore creates a store backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the backing file path.
func (fs *FileStore) Path() string {
	return fs.path
}

// Load reads the full cache from disk. A missing file yields an empty map;
// a corrupt file is treated as an empty cache and logged, never a fatal
// startup error.
func (fs *FileStore) Load() map[string][]float32 {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("embedding_cache_unreadable",
				slog.String("path", fs.path),
				slog.String("error", err.Error()))
		}
		return map[string][]float32{}
	}

	var entries map[string][]float32
	if err := json.Unmarshal(data, &entries); err != nil {
		slog.Warn("embedding_cache_corrupt",
			slog.String("path", fs.path),
			slog.String("error", err.Error()))
		return map[string][]float32{}
	}
	if entries == nil {
		entries = map[string][]float32{}
	}
	return entries
}

// Save writes the full cache to disk atomically (temp file + rename),
// guarded by a file lock so concurrent processes do not interleave writes.
func (fs *FileStore) Save(entries map[string][]float32) error {
	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	if err := fs.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock cache file: %w", err)
	}
	defer func() { _ = fs.lock.Unlock() }()

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return fmt.Errorf("failed to replace cache: %w", err)
	}
	return nil
}
