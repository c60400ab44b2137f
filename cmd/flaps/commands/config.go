package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nubster/flaps/internal/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage connection profiles",
	Long: `Manage the connection profiles stored in ~/.flaps/config.yaml.

A profile names a flaps server (base URL, API key) and the environment
evaluations target by default. Flags and the FLAPS_BASE_URL, FLAPS_API_KEY
and FLAPS_ENV variables override individual profile fields per invocation.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter config file",
	Long: `Write ~/.flaps/config.yaml with a 'local' profile pointing at a
development server. Fails if the file already exists.

Example:
  flaps config init`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := cli.Bootstrap()
		if err != nil {
			return err
		}

		fmt.Printf("Created %s with a 'local' profile.\n", path)
		fmt.Println("Add more profiles with, for example:")
		fmt.Println("  flaps config set prod --base-url https://flaps.example.com --api-key <key>")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved profiles",
	Long: `Show every saved profile. The current one is marked with '*'.

Example:
  flaps config list`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.Load()
		if err != nil {
			return err
		}
		if len(cfg.Profiles) == 0 {
			fmt.Println("No profiles saved. Run 'flaps config init' to create one.")
			return nil
		}

		for _, name := range cfg.ProfileNames() {
			p := cfg.Profiles[name]
			marker := " "
			if name == cfg.CurrentProfile {
				marker = "*"
			}
			environment := p.Environment
			if environment == "" {
				environment = cli.DefaultEnvironment
			}
			fmt.Printf("%s %s\n", marker, name)
			fmt.Printf("    base_url:    %s\n", p.BaseURL)
			fmt.Printf("    environment: %s\n", environment)
			fmt.Printf("    api_key:     %s\n", maskKey(p.APIKey))
		}
		return nil
	},
}

var configUseCmd = &cobra.Command{
	Use:   "use <profile>",
	Short: "Switch the current profile",
	Long: `Make a saved profile the default for future invocations.

Example:
  flaps config use prod`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.Load()
		if err != nil {
			return err
		}
		if err := cfg.Use(args[0]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}

		fmt.Printf("Current profile is now %q.\n", args[0])
		return nil
	},
}

var (
	setBaseURL     string
	setAPIKey      string
	setEnvironment string
)

var configSetCmd = &cobra.Command{
	Use:   "set <profile>",
	Short: "Create or update a profile",
	Long: `Create a profile, or update individual fields of an existing one.
Only the fields passed as flags change; the rest keep their saved values.

Examples:
  flaps config set prod --base-url https://flaps.example.com --api-key my-key
  flaps config set prod --environment staging`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if setBaseURL == "" && setAPIKey == "" && setEnvironment == "" {
			return fmt.Errorf("nothing to set: pass --base-url, --api-key, or --environment")
		}

		cfg, err := cli.Load()
		if err != nil {
			return err
		}
		cfg.SetProfile(args[0], cli.Profile{
			BaseURL:     setBaseURL,
			APIKey:      setAPIKey,
			Environment: setEnvironment,
		})
		if err := cfg.Save(); err != nil {
			return err
		}

		fmt.Printf("Saved profile %q.\n", args[0])
		return nil
	},
}

// maskKey keeps a short prefix so profiles stay distinguishable in listings
// without printing whole credentials.
func maskKey(key string) string {
	if key == "" {
		return "(none)"
	}
	if len(key) <= 4 {
		return "***"
	}
	return key[:4] + "***"
}

func init() {
	configSetCmd.Flags().StringVar(&setBaseURL, "base-url", "", "Server base URL")
	configSetCmd.Flags().StringVar(&setAPIKey, "api-key", "", "API key sent as a bearer token")
	configSetCmd.Flags().StringVar(&setEnvironment, "environment", "", "Default environment for evaluations")

	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configUseCmd)
	configCmd.AddCommand(configSetCmd)
}
