package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vocalia/hybridrag/internal/mcp"
	"github.com/vocalia/hybridrag/internal/watcher"
)

func newServeCmd() *cobra.Command {
	var transport string
	var noWatch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Long: `Run the retrieval engine as an MCP server over stdio.

Exposes search, invalidate, and status tools. While serving, the
knowledge-base directory is watched and tenant engines are rebuilt
automatically when their files change.

Examples:
  hybridrag serve
  hybridrag serve --no-watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			reg, cache := buildStack(cfg)

			server, err := mcp.NewServer(reg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			if cfg.Watcher.Enabled && !noWatch {
				w := watcher.New(cfg.Paths.KBDir, reg, cfg.Watcher.Debounce)
				if err := w.Start(ctx); err != nil {
					slog.Warn("kb_watcher_unavailable", slog.String("error", err.Error()))
				} else {
					defer func() { _ = w.Stop() }()
				}
			}

			defer func() {
				if err := cache.Persist(); err != nil {
					slog.Warn("embedding_cache_persist_failed", slog.String("error", err.Error()))
				}
			}()

			if transport == "" {
				transport = cfg.Server.Transport
			}
			return server.Serve(ctx, transport)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "", "Server transport (default from config: stdio)")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Disable knowledge-base directory watching")

	return cmd
}
