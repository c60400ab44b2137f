package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nubster/flaps/internal/flags"
)

var (
	createName        string
	createType        string
	createVariants    []string
	createDescription string
	createEnable      []string
	createRollout     int
	createProject     string
)

var createCmd = &cobra.Command{
	Use:   "create <key>",
	Short: "Create a new feature flag",
	Long: `Create a new feature flag with the specified key and options.

Boolean flags are the default; pass --type string with --variants for
A/B-style string flags. Environments named with --enable start enabled,
every other environment starts disabled.

Examples:
  flaps create feature_x --enable prod --rollout 50
  flaps create theme --type string --variants light,dark --enable dev,staging
  flaps create feature_y --description "New feature Y"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		name := createName
		if name == "" {
			name = key
		}

		projectID := uuid.Nil
		if createProject != "" {
			var err error
			if projectID, err = uuid.Parse(createProject); err != nil {
				return fmt.Errorf("invalid project id: %w", err)
			}
		}

		var flag flags.Flag
		var err error
		switch createType {
		case "boolean":
			flag, err = flags.NewBoolean(key, name, projectID, "cli")
		case "string":
			if len(createVariants) == 0 {
				return fmt.Errorf("string flags require at least one --variants entry")
			}
			flag, err = flags.NewString(key, name, createVariants, projectID, "cli")
		default:
			return fmt.Errorf("unknown flag type %q, valid types: boolean, string", createType)
		}
		if err != nil {
			return fmt.Errorf("invalid flag: %w", err)
		}

		if createDescription != "" {
			flag = flag.WithDescription(createDescription)
		}

		for _, envKey := range createEnable {
			cfg := flags.EnvironmentConfig{Enabled: true, DefaultValue: flag.DefaultValue()}
			if cmd.Flags().Changed("rollout") {
				cfg = cfg.WithRollout(createRollout)
			}
			flag = flag.WithEnvironment(envKey, cfg)
		}

		ctx := context.Background()
		c, _, err := newClient(ctx)
		if err != nil {
			return err
		}

		if err := c.UpsertFlag(ctx, flag); err != nil {
			return fmt.Errorf("failed to create flag: %w", err)
		}

		if !quiet {
			fmt.Printf("Successfully created flag '%s'\n", key)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringVar(&createName, "name", "", "Display name (defaults to the key)")
	createCmd.Flags().StringVar(&createType, "type", "boolean", "Flag type (boolean, string)")
	createCmd.Flags().StringSliceVar(&createVariants, "variants", nil, "Variants for string flags")
	createCmd.Flags().StringVar(&createDescription, "description", "", "Flag description")
	createCmd.Flags().StringSliceVar(&createEnable, "enable", nil, "Environments to enable the flag in")
	createCmd.Flags().IntVar(&createRollout, "rollout", 100, "Rollout percentage (0-100) for enabled environments")
	createCmd.Flags().StringVar(&createProject, "project", "", "Project ID (UUID)")
}
