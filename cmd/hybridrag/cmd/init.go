package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vocalia/hybridrag/configs"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter hybridrag.yaml in the current directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			const path = "hybridrag.yaml"

			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
			}

			if err := os.WriteFile(path, []byte(configs.ConfigTemplate), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing hybridrag.yaml")
	return cmd
}
