package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nubster/flaps/internal/cli"
	"github.com/nubster/flaps/internal/segments"
)

var segmentsCmd = &cobra.Command{
	Use:   "segments",
	Short: "Manage user segments",
	Long:  `List, create, and delete the user segments targeting rules refer to.`,
}

var segmentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all segments",
	Long: `List all segments known to the server.

Examples:
  flaps segments list --env prod
  flaps segments list --env prod --format yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		c, _, err := newClient(ctx)
		if err != nil {
			return err
		}

		segmentList, err := c.ListSegments(ctx)
		if err != nil {
			return fmt.Errorf("failed to list segments: %w", err)
		}

		if !quiet {
			if len(segmentList) == 0 {
				fmt.Println("No segments found")
				return nil
			}
			return cli.PrintSegments(segmentList, cli.OutputFormat(format))
		}
		return nil
	},
}

var (
	segmentsCreateName     string
	segmentsCreateIncluded []string
	segmentsCreateExcluded []string
)

var segmentsCreateCmd = &cobra.Command{
	Use:   "create <key>",
	Short: "Create a segment",
	Long: `Create a segment with explicit user lists. Rule-based membership is
edited through import files or the API.

Examples:
  flaps segments create beta-testers --include user-1,user-2
  flaps segments create vip --name "VIP Customers" --include u1 --exclude u2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		name := segmentsCreateName
		if name == "" {
			name = key
		}

		segment := segments.New(key, name, uuid.Nil, "cli")
		for _, u := range segmentsCreateIncluded {
			segment = segment.WithIncludedUser(u)
		}
		for _, u := range segmentsCreateExcluded {
			segment = segment.WithExcludedUser(u)
		}

		ctx := context.Background()
		c, _, err := newClient(ctx)
		if err != nil {
			return err
		}

		if err := c.UpsertSegment(ctx, segment); err != nil {
			return fmt.Errorf("failed to create segment: %w", err)
		}

		if !quiet {
			fmt.Printf("Successfully created segment '%s' (%s)\n", key, segment.ID)
		}
		return nil
	},
}

var segmentsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a segment",
	Long: `Delete a segment by ID. Targeting rules that reference a deleted
segment stop matching anyone.

Example:
  flaps segments delete 0c2d4a9e-...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid segment id: %w", err)
		}

		ctx := context.Background()
		c, _, err := newClient(ctx)
		if err != nil {
			return err
		}

		if err := c.DeleteSegment(ctx, id); err != nil {
			return fmt.Errorf("failed to delete segment: %w", err)
		}

		if !quiet {
			fmt.Printf("Successfully deleted segment '%s'\n", id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(segmentsCmd)
	segmentsCmd.AddCommand(segmentsListCmd)
	segmentsCmd.AddCommand(segmentsCreateCmd)
	segmentsCmd.AddCommand(segmentsDeleteCmd)

	segmentsCreateCmd.Flags().StringVar(&segmentsCreateName, "name", "", "Display name (defaults to the key)")
	segmentsCreateCmd.Flags().StringSliceVar(&segmentsCreateIncluded, "include", nil, "Users to always include")
	segmentsCreateCmd.Flags().StringSliceVar(&segmentsCreateExcluded, "exclude", nil, "Users to always exclude")
}
