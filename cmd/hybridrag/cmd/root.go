// Package cmd provides the CLI commands for hybridrag.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vocalia/hybridrag/internal/config"
	"github.com/vocalia/hybridrag/internal/embed"
	"github.com/vocalia/hybridrag/internal/kb"
	"github.com/vocalia/hybridrag/internal/logging"
	"github.com/vocalia/hybridrag/internal/registry"
	"github.com/vocalia/hybridrag/internal/search"
	"github.com/vocalia/hybridrag/pkg/version"
)

var (
	configPath string
	debugMode  bool

	loggingCleanup func()
)

// NewRootCmd creates the root command for the hybridrag CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hybridrag",
		Short: "Multi-tenant hybrid retrieval engine",
		Long: `hybridrag serves tenant-scoped knowledge retrieval, combining BM25
lexical matching with dense-vector semantic similarity and fusing
both signals into one ranked list.

Tenant knowledge bases live under the configured kb directory as
<tenant>/kb_<lang>.json files, or in a SQLite store.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("hybridrag version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ./hybridrag.yaml)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.hybridrag/logs/")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRun = teardownLogging

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newEmbedCmd())
	cmd.AddCommand(newInvalidateCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func setupLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}

	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("Debug logging enabled",
		slog.String("log_file", logging.DefaultLogPath()),
		slog.String("version", version.Version))
	return nil
}

func teardownLogging(_ *cobra.Command, _ []string) {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
}

// loadConfig loads the effective configuration for a command run.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// buildStack assembles the retrieval stack from configuration: embedding
// provider, disk-backed cache, knowledge-base loader, and engine registry.
func buildStack(cfg *config.Config) (*registry.Registry, *embed.Cache) {
	provider := embed.NewGeminiProvider(embed.GeminiConfig{
		Model:    cfg.Embeddings.Model,
		Endpoint: cfg.Embeddings.Endpoint,
		Timeout:  cfg.Embeddings.RequestTimeout,
	})

	cache := embed.NewCache(provider, embed.NewFileStore(cfg.CacheFilePath()), embed.CacheConfig{
		MaxEntries: cfg.Embeddings.CacheMaxEntries,
		BatchDelay: cfg.Embeddings.BatchDelay,
	})

	loader := kb.NewFileLoader(cfg.Paths.KBDir)

	reg := registry.New(loader, cache, search.EngineConfig{
		K1:              cfg.Search.K1,
		B:               cfg.Search.B,
		RRFConstant:     cfg.Search.RRFConstant,
		SimilarityFloor: cfg.Search.SimilarityFloor,
	})
	return reg, cache
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
