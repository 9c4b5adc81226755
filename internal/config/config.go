// Package config loads and validates engine configuration.
//
// Precedence, lowest to highest:
//  1. Built-in defaults (NewConfig)
//  2. YAML config file (--config or ./hybridrag.yaml)
//  3. Environment variables (HYBRIDRAG_*)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete engine configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Paths      PathsConfig      `yaml:"paths" json:"paths"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Server     ServerConfig     `yaml:"server" json:"server"`
	Watcher    WatcherConfig    `yaml:"watcher" json:"watcher"`
}

// PathsConfig configures on-disk locations.
type PathsConfig struct {
	// KBDir is the root of the per-tenant knowledge base files
	// (<kb_dir>/<tenant>/kb_<lang>.json).
	KBDir string `yaml:"kb_dir" json:"kb_dir"`

	// DataDir holds engine-owned artifacts such as the embedding cache.
	DataDir string `yaml:"data_dir" json:"data_dir"`
}

// SearchConfig configures sparse scoring, the similarity floor, and fusion.
type SearchConfig struct {
	// K1 is the BM25 term-frequency saturation parameter (default: 1.5).
	K1 float64 `yaml:"k1" json:"k1"`

	// B is the BM25 length normalization parameter (default: 0.75).
	B float64 `yaml:"b" json:"b"`

	// RRFConstant is the RRF fusion smoothing parameter k.
	// Default: 60 (industry standard used by Azure AI Search, OpenSearch).
	RRFConstant int `yaml:"rrf_constant" json:"rrf_constant"`

	// SimilarityFloor discards dense candidates below this cosine
	// similarity (default: 0.65).
	SimilarityFloor float64 `yaml:"similarity_floor" json:"similarity_floor"`

	// DefaultLimit is the result count when the caller does not specify one.
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`

	// MaxLimit caps the per-request result count.
	MaxLimit int `yaml:"max_limit" json:"max_limit"`
}

// EmbeddingsConfig configures the embedding provider and cache.
type EmbeddingsConfig struct {
	// Model is the provider model identifier.
	Model string `yaml:"model" json:"model"`

	// Endpoint overrides the provider API endpoint (empty = default).
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// CachePath is the embedding cache file. Empty derives it from
	// Paths.DataDir.
	CachePath string `yaml:"cache_path" json:"cache_path"`

	// CacheMaxEntries bounds the embedding cache (default: 5000).
	// Oldest inserted entries are evicted first.
	CacheMaxEntries int `yaml:"cache_max_entries" json:"cache_max_entries"`

	// BatchDelay is the pause between provider calls during batch
	// embedding, to stay under upstream rate limits (default: 200ms).
	BatchDelay time.Duration `yaml:"batch_delay" json:"batch_delay"`

	// RequestTimeout is the per-call provider timeout (default: 30s).
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
}

// WatcherConfig configures KB-directory change watching.
type WatcherConfig struct {
	// Enabled turns on fsnotify-based invalidation (default: true for serve).
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Debounce coalesces rapid bursts of file events (default: 500ms).
	Debounce time.Duration `yaml:"debounce" json:"debounce"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			KBDir:   defaultDataPath("kb"),
			DataDir: defaultDataPath("data"),
		},
		Search: SearchConfig{
			K1:              1.5,
			B:               0.75,
			RRFConstant:     60,
			SimilarityFloor: 0.65,
			DefaultLimit:    10,
			MaxLimit:        100,
		},
		Embeddings: EmbeddingsConfig{
			Model:           "gemini-embedding-001",
			CacheMaxEntries: 5000,
			BatchDelay:      200 * time.Millisecond,
			RequestTimeout:  30 * time.Second,
		},
		Server: ServerConfig{
			Transport: "stdio",
			LogLevel:  "info",
		},
		Watcher: WatcherConfig{
			Enabled:  true,
			Debounce: 500 * time.Millisecond,
		},
	}
}

// defaultDataPath returns a path under ~/.hybridrag.
func defaultDataPath(sub string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".hybridrag", sub)
	}
	return filepath.Join(home, ".hybridrag", sub)
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (if non-empty or if ./hybridrag.yaml exists), then env overrides.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		if _, err := os.Stat("hybridrag.yaml"); err == nil {
			path = "hybridrag.yaml"
		}
	}
	if path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadYAML merges the YAML file at path into the config.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// applyEnv applies HYBRIDRAG_* environment overrides, highest priority.
func (c *Config) applyEnv() {
	if v := os.Getenv("HYBRIDRAG_KB_DIR"); v != "" {
		c.Paths.KBDir = v
	}
	if v := os.Getenv("HYBRIDRAG_DATA_DIR"); v != "" {
		c.Paths.DataDir = v
	}
	if v := os.Getenv("HYBRIDRAG_RRF_CONSTANT"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			c.Search.RRFConstant = k
		}
	}
	if v := os.Getenv("HYBRIDRAG_SIMILARITY_FLOOR"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Search.SimilarityFloor = f
		}
	}
	if v := os.Getenv("HYBRIDRAG_EMBED_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("HYBRIDRAG_EMBED_ENDPOINT"); v != "" {
		c.Embeddings.Endpoint = v
	}
	if v := os.Getenv("HYBRIDRAG_CACHE_MAX_ENTRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Embeddings.CacheMaxEntries = n
		}
	}
	if v := os.Getenv("HYBRIDRAG_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
}

// CacheFilePath returns the effective embedding cache path.
func (c *Config) CacheFilePath() string {
	if c.Embeddings.CachePath != "" {
		return c.Embeddings.CachePath
	}
	return filepath.Join(c.Paths.DataDir, "embeddings_cache.json")
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Search.K1 <= 0 {
		return fmt.Errorf("search.k1 must be positive, got %v", c.Search.K1)
	}
	if c.Search.B < 0 || c.Search.B > 1 {
		return fmt.Errorf("search.b must be in [0,1], got %v", c.Search.B)
	}
	if c.Search.RRFConstant <= 0 {
		return fmt.Errorf("search.rrf_constant must be positive, got %d", c.Search.RRFConstant)
	}
	if c.Search.SimilarityFloor < -1 || c.Search.SimilarityFloor > 1 {
		return fmt.Errorf("search.similarity_floor must be in [-1,1], got %v", c.Search.SimilarityFloor)
	}
	if c.Search.DefaultLimit <= 0 || c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("search.default_limit must be in (0, max_limit], got %d", c.Search.DefaultLimit)
	}
	if c.Embeddings.CacheMaxEntries <= 0 {
		return fmt.Errorf("embeddings.cache_max_entries must be positive, got %d", c.Embeddings.CacheMaxEntries)
	}
	if c.Embeddings.BatchDelay < 0 {
		return fmt.Errorf("embeddings.batch_delay must not be negative, got %v", c.Embeddings.BatchDelay)
	}
	return nil
}
