package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultEnvironment is targeted when neither the profile nor any override
// names one.
const DefaultEnvironment = "prod"

// Profile is one saved server connection. Environment is where evaluations
// land by default when using this profile; the same connection can be pointed
// at another environment per invocation with --env, because a flaps server
// serves every environment of a flag from one snapshot.
type Profile struct {
	BaseURL     string `yaml:"base_url"`
	APIKey      string `yaml:"api_key,omitempty"`
	Environment string `yaml:"environment,omitempty"`
}

// Config is the on-disk document at ~/.flaps/config.yaml.
type Config struct {
	CurrentProfile string             `yaml:"current_profile,omitempty"`
	Profiles       map[string]Profile `yaml:"profiles,omitempty"`
}

// Connection is a fully resolved target for one invocation: where to connect,
// how to authenticate, and which environment evaluations refer to.
type Connection struct {
	BaseURL     string
	APIKey      string
	Environment string
}

// Path is ~/.flaps/config.yaml.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".flaps", "config.yaml"), nil
}

// Load reads the config file. A missing file is an empty config, not an
// error: flags and environment variables can carry a whole connection.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the config file, creating ~/.flaps if needed. The file holds
// API keys, so it is written owner-only.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SetProfile upserts a profile, merging non-empty fields into any existing
// entry so 'config set' can update one field at a time. The first profile
// saved becomes the current one.
func (c *Config) SetProfile(name string, p Profile) {
	if c.Profiles == nil {
		c.Profiles = make(map[string]Profile)
	}
	merged := c.Profiles[name]
	if p.BaseURL != "" {
		merged.BaseURL = p.BaseURL
	}
	if p.APIKey != "" {
		merged.APIKey = p.APIKey
	}
	if p.Environment != "" {
		merged.Environment = p.Environment
	}
	c.Profiles[name] = merged
	if c.CurrentProfile == "" {
		c.CurrentProfile = name
	}
}

// Use marks a profile as the default for future invocations.
func (c *Config) Use(name string) error {
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("profile %q not found; run 'flaps config list'", name)
	}
	c.CurrentProfile = name
	return nil
}

// ProfileNames returns the saved profile names in sorted order.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve loads the config file and builds the connection for one
// invocation. See Config.Resolve for the layering rules.
func Resolve(profileName, baseURLFlag, apiKeyFlag, envFlag string) (Connection, error) {
	cfg, err := Load()
	if err != nil {
		return Connection{}, err
	}
	return cfg.Resolve(profileName, baseURLFlag, apiKeyFlag, envFlag)
}

// Resolve builds a connection by layering sources per field: command flags
// win, then FLAPS_BASE_URL / FLAPS_API_KEY / FLAPS_ENV, then the selected
// profile. The profile is profileName when given, otherwise current_profile.
// Only the base URL is mandatory; the snapshot endpoint is public, so a
// missing API key only matters once an admin operation is attempted.
func (c *Config) Resolve(profileName, baseURLFlag, apiKeyFlag, envFlag string) (Connection, error) {
	var profile Profile
	switch {
	case profileName != "":
		p, ok := c.Profiles[profileName]
		if !ok {
			return Connection{}, fmt.Errorf("profile %q not found; run 'flaps config list'", profileName)
		}
		profile = p
	case c.CurrentProfile != "":
		// A stale current_profile is not fatal: flags and environment
		// variables can still carry the connection.
		profile = c.Profiles[c.CurrentProfile]
	}

	conn := Connection{
		BaseURL:     firstNonEmpty(baseURLFlag, os.Getenv("FLAPS_BASE_URL"), profile.BaseURL),
		APIKey:      firstNonEmpty(apiKeyFlag, os.Getenv("FLAPS_API_KEY"), profile.APIKey),
		Environment: firstNonEmpty(envFlag, os.Getenv("FLAPS_ENV"), profile.Environment, DefaultEnvironment),
	}
	if conn.BaseURL == "" {
		return Connection{}, fmt.Errorf("no server configured: pass --base-url, set FLAPS_BASE_URL, or save a profile with 'flaps config set'")
	}
	return conn, nil
}

// Bootstrap writes a starter config with a local profile pointing at a dev
// server. It refuses to clobber an existing file.
func Bootstrap() (string, error) {
	path, err := Path()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("config already exists at %s", path)
	}

	cfg := &Config{
		CurrentProfile: "local",
		Profiles: map[string]Profile{
			"local": {BaseURL: "http://localhost:8080", Environment: "dev"},
		},
	}
	return path, cfg.Save()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
