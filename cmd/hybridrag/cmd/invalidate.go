package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInvalidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invalidate <tenant>",
		Short: "Drop cached engines for a tenant",
		Long: `Drop every cached engine (all language variants) for a tenant.

Only useful against a long-running process sharing this registry;
for a fresh CLI process every query already rebuilds from disk. The
command exists mainly to verify configuration and KB layout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			reg, _ := buildStack(cfg)

			removed := reg.Invalidate(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached engine(s) for tenant %q\n", removed, args[0])
			return nil
		},
	}
	return cmd
}
