package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nubster/flaps/internal/cli"
)

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a feature flag",
	Long: `Get a single feature flag by key.

Examples:
  flaps get my_flag --env prod
  flaps get my_flag --env prod --format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		c, _, err := newClient(ctx)
		if err != nil {
			return err
		}

		flag, err := c.GetFlag(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get flag: %w", err)
		}

		if !quiet {
			return cli.PrintFlag(flag, cli.OutputFormat(format))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
