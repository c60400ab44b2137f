package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nubster/flaps/internal/cli"
	"github.com/nubster/flaps/internal/flags"
)

var listEnabledOnly bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all feature flags",
	Long: `List all feature flags known to the server.

Examples:
  flaps list --env prod
  flaps list --env prod --format json
  flaps list --env prod --enabled-only`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		c, effectiveEnv, err := newClient(ctx)
		if err != nil {
			return err
		}

		flagList, err := c.ListFlags(ctx)
		if err != nil {
			return fmt.Errorf("failed to list flags: %w", err)
		}

		// Filter to flags enabled in the target environment if requested.
		if listEnabledOnly {
			var enabled []flags.Flag
			for _, f := range flagList {
				if cfg, ok := f.Environment(effectiveEnv); ok && cfg.Enabled {
					enabled = append(enabled, f)
				}
			}
			flagList = enabled
		}

		if !quiet {
			if len(flagList) == 0 {
				fmt.Println("No flags found")
				return nil
			}
			return cli.PrintFlags(flagList, cli.OutputFormat(format))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolVar(&listEnabledOnly, "enabled-only", false, "Show only flags enabled in the target environment")
}
