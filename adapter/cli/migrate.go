package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateSeed string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations and optionally seed regions",
	Long: `Apply pending schema migrations. With --seed, region configuration
(auto-enable flag, windows, day policy) is loaded from a YAML file afterwards.

Examples:
  autoresolve migrate
  autoresolve migrate --seed regions.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := requireApp()
		if err != nil {
			return err
		}
		if a.Maintenance == nil {
			return fmt.Errorf("migrations not available")
		}

		out := cmd.OutOrStdout()
		applied, err := a.Maintenance.Migrate(cmd.Context())
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Fprintln(out, "Schema is up to date.")
		}
		for _, v := range applied {
			fmt.Fprintf(out, "Applied migration %s\n", v)
		}

		if migrateSeed != "" {
			n, err := a.Maintenance.SeedRegions(cmd.Context(), migrateSeed)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Seeded %d region(s) from %s\n", n, migrateSeed)
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateSeed, "seed", "", "region seed YAML file")
	rootCmd.AddCommand(migrateCmd)
}
