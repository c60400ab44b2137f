// Package cli holds shared plumbing for the flaps command-line tool:
// output rendering and the ~/.flaps config file.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/nubster/flaps/internal/flags"
	"github.com/nubster/flaps/internal/segments"
)

// OutputFormat specifies the output format for CLI commands
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// PrintFlags outputs flags in the specified format
func PrintFlags(flagList []flags.Flag, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(map[string][]flags.Flag{"flags": flagList})
	case FormatYAML:
		return printYAML(map[string][]flags.Flag{"flags": flagList})
	case FormatTable:
		return printFlagTable(flagList)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintFlag outputs a single flag in the specified format
func PrintFlag(flag flags.Flag, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(flag)
	case FormatYAML:
		return printYAML(flag)
	case FormatTable:
		return printFlagTable([]flags.Flag{flag})
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintSegments outputs segments in the specified format
func PrintSegments(segmentList []segments.Segment, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(map[string][]segments.Segment{"segments": segmentList})
	case FormatYAML:
		return printYAML(map[string][]segments.Segment{"segments": segmentList})
	case FormatTable:
		return printSegmentTable(segmentList)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printJSON(data interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func printYAML(data interface{}) error {
	encoder := yaml.NewEncoder(os.Stdout)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(data)
}

func printFlagTable(flagList []flags.Flag) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Key", "Name", "Type", "Environments", "Description", "Updated At")

	for _, flag := range flagList {
		description := flag.Description
		if len(description) > 40 {
			description = description[:37] + "..."
		}

		table.Append(
			flag.Key.String(),
			flag.Name,
			string(flag.Type.Kind),
			EnvironmentSummary(flag),
			description,
			flag.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}

	return table.Render()
}

func printSegmentTable(segmentList []segments.Segment) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Key", "Name", "Rules", "Included", "Excluded")

	for _, segment := range segmentList {
		table.Append(
			segment.ID.String(),
			segment.Key,
			segment.Name,
			fmt.Sprintf("%d", len(segment.Rules)),
			fmt.Sprintf("%d", len(segment.IncludedUsers)),
			fmt.Sprintf("%d", len(segment.ExcludedUsers)),
		)
	}

	return table.Render()
}

// EnvironmentSummary renders a flag's per-environment state as a compact
// string like "dev:on prod:off(25%)", sorted by environment key.
func EnvironmentSummary(flag flags.Flag) string {
	keys := make([]string, 0, len(flag.Environments))
	for k := range flag.Environments {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		cfg := flag.Environments[k]
		state := "off"
		if cfg.Enabled {
			state = "on"
		}
		if cfg.RolloutPercentage != nil {
			state += fmt.Sprintf("(%d%%)", *cfg.RolloutPercentage)
		}
		parts = append(parts, k+":"+state)
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}
