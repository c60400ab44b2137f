package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nubster/flaps/internal/engine"
	"github.com/nubster/flaps/internal/rules"
)

var (
	evalUser  string
	evalAttrs []string
)

var evalCmd = &cobra.Command{
	Use:   "eval <key>",
	Short: "Evaluate a feature flag",
	Long: `Evaluate a feature flag against a user context, locally, using the
server's current snapshot.

Attribute values are parsed as booleans or numbers when they look like
one, and strings otherwise.

Examples:
  flaps eval feature_x --user user-123
  flaps eval feature_x --user user-123 --attr plan=pro --attr age=34
  flaps eval feature_x --attr country=NL --env staging`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		evalCtx := engine.NewContext()
		if evalUser != "" {
			evalCtx = engine.WithUserID(evalUser)
		}
		for _, attr := range evalAttrs {
			name, raw, ok := strings.Cut(attr, "=")
			if !ok {
				return fmt.Errorf("invalid attribute %q, expected name=value", attr)
			}
			evalCtx = evalCtx.Set(name, parseAttrValue(raw))
		}

		ctx := context.Background()
		c, effectiveEnv, err := newClient(ctx)
		if err != nil {
			return err
		}

		result := c.Evaluate(key, evalCtx)

		if quiet {
			if !result.IsEnabled() {
				os.Exit(1)
			}
			return nil
		}

		out := struct {
			FlagKey     string        `json:"flag_key"`
			Environment string        `json:"environment"`
			Result      engine.Result `json:"result"`
			Enabled     bool          `json:"enabled"`
		}{key, effectiveEnv, result, result.IsEnabled()}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(out)
	},
}

// parseAttrValue guesses the type of a command-line attribute value.
func parseAttrValue(raw string) rules.Value {
	switch raw {
	case "true":
		return rules.BoolValue(true)
	case "false":
		return rules.BoolValue(false)
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return rules.NumberValue(n)
	}
	return rules.StringValue(raw)
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVar(&evalUser, "user", "", "User ID to evaluate for")
	evalCmd.Flags().StringSliceVar(&evalAttrs, "attr", nil, "Context attributes as name=value (repeatable)")
}
