package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete a feature flag",
	Long: `Delete a feature flag. Deletion removes the flag from every
environment at once.

Examples:
  flaps delete feature_x
  flaps delete feature_x --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		// Confirm deletion unless --force
		if !deleteForce && !quiet {
			fmt.Printf("Are you sure you want to delete flag '%s'? (y/N): ", key)
			reader := bufio.NewReader(os.Stdin)
			response, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read confirmation: %w", err)
			}
			response = strings.ToLower(strings.TrimSpace(response))
			if response != "y" && response != "yes" {
				fmt.Println("Deletion cancelled")
				return nil
			}
		}

		ctx := context.Background()
		c, _, err := newClient(ctx)
		if err != nil {
			return err
		}

		if err := c.DeleteFlag(ctx, key); err != nil {
			return fmt.Errorf("failed to delete flag: %w", err)
		}

		if !quiet {
			fmt.Printf("Successfully deleted flag '%s'\n", key)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().BoolVar(&deleteForce, "force", false, "Skip confirmation prompt")
}
