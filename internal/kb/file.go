package kb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileLoader reads knowledge bases from JSON files laid out as
// <root>/<tenant>/kb_<lang>.json. Each file is a flat JSON object mapping
// chunk id to a string or structured value.
type FileLoader struct {
	root string
}

var _ Loader = (*FileLoader)(nil)

// NewFileLoader creates a loader rooted at dir.
func NewFileLoader(dir string) *FileLoader {
	return &FileLoader{root: dir}
}

// Path returns the knowledge-base file path for a tenant and language.
func (l *FileLoader) Path(tenantID, lang string) string {
	return filepath.Join(l.root, tenantID, fmt.Sprintf("kb_%s.json", lang))
}

// GetKB loads one tenant+lang knowledge base. A missing file yields an empty
// map; a malformed file yields an empty map with a warning, so one corrupt
// tenant never takes down the others. Only genuine read failures are errors.
func (l *FileLoader) GetKB(ctx context.Context, tenantID, lang string) (map[string]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := l.Path(tenantID, lang)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read knowledge base %s: %w", path, err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		slog.Warn("kb_file_corrupt",
			slog.String("path", path),
			slog.String("tenant", tenantID),
			slog.String("lang", lang),
			slog.String("error", err.Error()))
		return map[string]Entry{}, nil
	}

	entries := make(map[string]Entry, len(raw))
	for id, value := range raw {
		entries[id] = decodeValue(value)
	}
	return entries, nil
}
