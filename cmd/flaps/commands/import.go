package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nubster/flaps/internal/cli"
)

var (
	importDryRun bool
	importForce  bool
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import flags from a file",
	Long: `Import flags and segments from a YAML or JSON file.

Examples:
  flaps import flags.yaml --env prod
  flaps import flags.yaml --env staging --dry-run
  flaps import flags.yaml --env prod --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		// YAML is a superset of JSON, so one parser covers both formats.
		var importData ExportFormat
		if err := yaml.Unmarshal(data, &importData); err != nil {
			return fmt.Errorf("failed to parse file: %w", err)
		}

		if len(importData.Flags) == 0 && len(importData.Segments) == 0 {
			return fmt.Errorf("no flags or segments found in file")
		}

		if verbose {
			fmt.Printf("Found %d flag(s) and %d segment(s) to import\n",
				len(importData.Flags), len(importData.Segments))
		}

		// Dry run mode - just validate and show what would be imported
		if importDryRun {
			fmt.Println("Dry run mode - the following would be imported:")
			for _, flag := range importData.Flags {
				fmt.Printf("  - flag %s (%s, environments: %s)\n",
					flag.Key, flag.Type.Kind, cli.EnvironmentSummary(flag))
			}
			for _, segment := range importData.Segments {
				fmt.Printf("  - segment %s (%s)\n", segment.Key, segment.ID)
			}
			return nil
		}

		ctx := context.Background()
		c, _, err := newClient(ctx)
		if err != nil {
			return err
		}

		successCount := 0
		errorCount := 0

		for _, segment := range importData.Segments {
			if verbose {
				fmt.Printf("Importing segment: %s\n", segment.Key)
			}
			if err := c.UpsertSegment(ctx, segment); err != nil {
				errorCount++
				fmt.Fprintf(os.Stderr, "Failed to import segment '%s': %v\n", segment.Key, err)
				if !importForce {
					return fmt.Errorf("import failed, use --force to continue on errors")
				}
			} else {
				successCount++
			}
		}

		for _, flag := range importData.Flags {
			if verbose {
				fmt.Printf("Importing flag: %s\n", flag.Key)
			}
			if err := c.UpsertFlag(ctx, flag); err != nil {
				errorCount++
				fmt.Fprintf(os.Stderr, "Failed to import flag '%s': %v\n", flag.Key, err)
				if !importForce {
					return fmt.Errorf("import failed, use --force to continue on errors")
				}
			} else {
				successCount++
			}
		}

		if !quiet {
			fmt.Printf("Import complete: %d succeeded, %d failed\n", successCount, errorCount)
		}

		if errorCount > 0 && !importForce {
			return fmt.Errorf("import completed with errors")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate without importing")
	importCmd.Flags().BoolVar(&importForce, "force", false, "Continue on errors")
}
