package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vocalia/hybridrag/internal/kb"
)

func newEmbedCmd() *cobra.Command {
	var tenant string
	var lang string

	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Pre-generate embeddings for a tenant's knowledge base",
		Long: `Generate and cache embeddings for every chunk in a tenant's
knowledge base that is not already cached. Runs paced provider calls
and persists the cache once at the end.

Warming the cache ahead of time keeps first-query latency low and
avoids provider rate limits during live traffic.

Examples:
  hybridrag embed --tenant clinic-rabat
  hybridrag embed --tenant clinic-rabat --lang fr`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			_, cache := buildStack(cfg)

			loader := kb.NewFileLoader(cfg.Paths.KBDir)
			entries, err := loader.GetKB(cmd.Context(), tenant, lang)
			if err != nil {
				return err
			}
			chunks := kb.Chunks(entries, tenant)
			if len(chunks) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no knowledge base content for tenant %q lang %q\n", tenant, lang)
				return nil
			}

			added, err := cache.BatchEmbed(cmd.Context(), chunks, tenant)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "embedded %d of %d chunks (rest cached or skipped)\n",
				added, len(chunks))
			return nil
		},
	}

	cmd.Flags().StringVarP(&tenant, "tenant", "t", "", "Tenant identifier (required)")
	cmd.Flags().StringVarP(&lang, "lang", "l", "en", "Knowledge base language")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}
