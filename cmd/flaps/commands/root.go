package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nubster/flaps/internal/cli"
	"github.com/nubster/flaps/internal/client"
)

var (
	// Global flags
	profile string
	baseURL string
	apiKey  string
	env     string
	format  string
	quiet   bool
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "flaps",
	Short: "CLI tool for managing feature flags",
	Long: `Flaps is a command-line tool for managing feature flags in the flaps service.

It provides commands for creating, reading, updating, and deleting flags,
evaluating flags against a user context, and importing and exporting flag
configurations.

Examples:
  flaps list --env prod
  flaps create my_flag --enable prod
  flaps get my_flag --env prod
  flaps eval my_flag --user user-123 --attr plan=pro
  flaps export --env prod --output flags.yaml
  flaps import flags.yaml --env staging`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// newClient resolves the connection from profile, flags and environment
// variables, then connects. The returned environment name is the one
// evaluations and errors refer to.
func newClient(ctx context.Context) (*client.Client, string, error) {
	conn, err := cli.Resolve(profile, baseURL, apiKey, env)
	if err != nil {
		return nil, "", fmt.Errorf("configuration error: %w", err)
	}

	c, err := client.New(ctx, client.Options{
		BaseURL:      conn.BaseURL,
		Environment:  conn.Environment,
		APIKey:       conn.APIKey,
		PollInterval: -1, // one-shot commands never poll
	})
	if err != nil {
		return nil, "", err
	}
	return c, conn.Environment, nil
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "Connection profile from ~/.flaps/config.yaml")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Base URL of the flaps API")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for authentication")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "Environment (dev, staging, prod)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
}
