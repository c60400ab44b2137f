package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nubster/flaps/internal/flags"
	"github.com/nubster/flaps/internal/segments"
)

var exportOutput string

// ExportFormat represents the structure for exporting flags and segments
type ExportFormat struct {
	Flags    []flags.Flag       `yaml:"flags" json:"flags"`
	Segments []segments.Segment `yaml:"segments,omitempty" json:"segments,omitempty"`
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export flags to a file",
	Long: `Export all flags and segments to a YAML or JSON file.

Examples:
  flaps export --env prod --output flags.yaml
  flaps export --env prod --output flags.json --format json
  flaps export --env prod > backup.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		c, _, err := newClient(ctx)
		if err != nil {
			return err
		}

		flagList, err := c.ListFlags(ctx)
		if err != nil {
			return fmt.Errorf("failed to list flags: %w", err)
		}
		segmentList, err := c.ListSegments(ctx)
		if err != nil {
			return fmt.Errorf("failed to list segments: %w", err)
		}

		exportData := ExportFormat{Flags: flagList, Segments: segmentList}

		// Determine output destination
		var output *os.File
		if exportOutput == "" || exportOutput == "-" {
			output = os.Stdout
		} else {
			output, err = os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer output.Close()
		}

		switch format {
		case "json":
			encoder := json.NewEncoder(output)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(exportData); err != nil {
				return fmt.Errorf("failed to encode JSON: %w", err)
			}
		case "yaml", "table":
			// Default to YAML for export
			encoder := yaml.NewEncoder(output)
			defer encoder.Close()
			encoder.SetIndent(2)
			if err := encoder.Encode(exportData); err != nil {
				return fmt.Errorf("failed to encode YAML: %w", err)
			}
		default:
			return fmt.Errorf("unsupported export format: %s", format)
		}

		if exportOutput != "" && exportOutput != "-" && !quiet {
			fmt.Fprintf(os.Stderr, "Successfully exported %d flag(s) and %d segment(s) to %s\n",
				len(flagList), len(segmentList), exportOutput)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")
}
