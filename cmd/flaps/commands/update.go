package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nubster/flaps/internal/flags"
)

var (
	updateEnvironment string
	updateEnabled     bool
	updateRollout     int
	updateDescription string
)

var updateCmd = &cobra.Command{
	Use:   "update <key>",
	Short: "Update a feature flag",
	Long: `Update an existing feature flag's configuration in one environment.

The flag is fetched first, so only the settings you pass change.

Examples:
  flaps update feature_x --environment prod --enabled=false
  flaps update feature_x --environment prod --rollout 75
  flaps update feature_x --description "Checkout rewrite"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		ctx := context.Background()

		c, effectiveEnv, err := newClient(ctx)
		if err != nil {
			return err
		}

		flag, err := c.GetFlag(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to get existing flag: %w", err)
		}

		if cmd.Flags().Changed("description") {
			flag = flag.WithDescription(updateDescription)
		}

		targetEnv := updateEnvironment
		if targetEnv == "" {
			targetEnv = effectiveEnv
		}

		if cmd.Flags().Changed("enabled") || cmd.Flags().Changed("rollout") {
			cfg, ok := flag.Environment(targetEnv)
			if !ok {
				cfg = flags.EnvironmentConfig{DefaultValue: flag.DefaultValue()}
			}
			if cmd.Flags().Changed("enabled") {
				cfg = cfg.WithEnabled(updateEnabled)
			}
			if cmd.Flags().Changed("rollout") {
				cfg = cfg.WithRollout(updateRollout)
			}
			flag = flag.WithEnvironment(targetEnv, cfg)
		}

		if err := c.UpsertFlag(ctx, flag); err != nil {
			return fmt.Errorf("failed to update flag: %w", err)
		}

		if !quiet {
			fmt.Printf("Successfully updated flag '%s'\n", key)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().StringVar(&updateEnvironment, "environment", "", "Environment to modify (defaults to --env)")
	updateCmd.Flags().BoolVar(&updateEnabled, "enabled", false, "Enable/disable the flag")
	updateCmd.Flags().IntVar(&updateRollout, "rollout", 0, "Rollout percentage (0-100)")
	updateCmd.Flags().StringVar(&updateDescription, "description", "", "Flag description")

	updateCmd.Flags().Lookup("enabled").NoOptDefVal = "true"
}
