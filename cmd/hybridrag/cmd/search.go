package cmd

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vocalia/hybridrag/internal/search"
	"github.com/vocalia/hybridrag/internal/ui"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	tenant string
	lang   string
	limit  int
	format string // "text", "json"
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search a tenant's knowledge base",
		Long: `Search a tenant's knowledge base using hybrid retrieval.

Combines BM25 (keyword) and semantic (embedding) matching with
Reciprocal Rank Fusion. When the embedding provider is unavailable,
results degrade to keyword matching only.

Examples:
  hybridrag search "dentist appointment" --tenant clinic-rabat
  hybridrag search "horaires d'ouverture" --tenant clinic-rabat --lang fr
  hybridrag search "cancellation policy" --tenant spa-casa --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd, query, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.tenant, "tenant", "t", "", "Tenant identifier (required)")
	cmd.Flags().StringVarP(&opts.lang, "lang", "l", "en", "Knowledge base language")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, opts searchOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg, _ := buildStack(cfg)

	limit := opts.limit
	if limit <= 0 {
		limit = cfg.Search.DefaultLimit
	}
	if limit > cfg.Search.MaxLimit {
		limit = cfg.Search.MaxLimit
	}

	resp, err := reg.Search(cmd.Context(), opts.tenant, opts.lang, query, search.Options{Limit: limit})
	if err != nil {
		return err
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	ui.RenderResults(cmd.OutOrStdout(), query, resp)
	return nil
}
