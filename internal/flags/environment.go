package flags

import (
	"github.com/google/uuid"
)

// Environment is a deployment context where flags are evaluated
// (e.g., dev, staging, prod).
type Environment struct {
	ID           uuid.UUID `json:"id"`
	Key          string    `json:"key"`
	Name         string    `json:"name"`
	Color        string    `json:"color,omitempty"`
	IsProduction bool      `json:"is_production"`
	ProjectID    uuid.UUID `json:"project_id"`
	Order        uint32    `json:"order"`
}

// NewEnvironment creates an environment.
func NewEnvironment(key, name string, projectID uuid.UUID) Environment {
	return Environment{
		ID:        uuid.New(),
		Key:       key,
		Name:      name,
		ProjectID: projectID,
	}
}

// Development returns the standard development environment.
func Development(projectID uuid.UUID) Environment {
	return Environment{
		ID:        uuid.New(),
		Key:       "dev",
		Name:      "Development",
		Color:     "#22c55e",
		ProjectID: projectID,
		Order:     0,
	}
}

// Staging returns the standard staging environment.
func Staging(projectID uuid.UUID) Environment {
	return Environment{
		ID:        uuid.New(),
		Key:       "staging",
		Name:      "Staging",
		Color:     "#f59e0b",
		ProjectID: projectID,
		Order:     1,
	}
}

// Production returns the standard production environment. Changes to
// production flags may require approval.
func Production(projectID uuid.UUID) Environment {
	return Environment{
		ID:           uuid.New(),
		Key:          "prod",
		Name:         "Production",
		Color:        "#ef4444",
		IsProduction: true,
		ProjectID:    projectID,
		Order:        2,
	}
}

// EnvironmentConfig is a flag's configuration for a single environment.
type EnvironmentConfig struct {
	// Enabled acts as the environment-level kill switch. A disabled config
	// short-circuits evaluation regardless of rules or rollout.
	Enabled bool `json:"enabled"`
	// Rules are evaluated in ascending priority order.
	Rules []TargetingRule `json:"rules"`
	// DefaultValue is returned when the flag is enabled and no rule matches.
	DefaultValue Value `json:"default_value"`
	// RolloutPercentage, when set, gates the default value behind a global
	// percentage rollout applied after rule evaluation.
	RolloutPercentage *int `json:"rollout_percentage,omitempty"`
	// RequiresApproval marks configurations whose changes need sign-off.
	RequiresApproval bool `json:"requires_approval"`
}

// Disabled returns a config with the flag switched off.
func Disabled() EnvironmentConfig {
	return EnvironmentConfig{}
}

// EnabledBoolean returns an enabled config with a boolean default value.
func EnabledBoolean(value bool) EnvironmentConfig {
	return EnvironmentConfig{Enabled: true, DefaultValue: BoolFlagValue(value)}
}

// EnabledString returns an enabled config with a string default value.
func EnabledString(value string) EnvironmentConfig {
	return EnvironmentConfig{Enabled: true, DefaultValue: StringFlagValue(value)}
}

// WithEnabled sets the enabled state.
func (c EnvironmentConfig) WithEnabled(enabled bool) EnvironmentConfig {
	c.Enabled = enabled
	return c
}

// WithDefaultValue sets the default value.
func (c EnvironmentConfig) WithDefaultValue(value Value) EnvironmentConfig {
	c.DefaultValue = value
	return c
}

// WithRollout sets the global rollout percentage, clamped to 0-100.
func (c EnvironmentConfig) WithRollout(percentage int) EnvironmentConfig {
	p := clampPercentage(percentage)
	c.RolloutPercentage = &p
	return c
}

// WithRule appends a targeting rule.
func (c EnvironmentConfig) WithRule(rule TargetingRule) EnvironmentConfig {
	c.Rules = append(c.Rules[:len(c.Rules):len(c.Rules)], rule)
	return c
}

// WithApprovalRequired sets whether changes require approval.
func (c EnvironmentConfig) WithApprovalRequired(required bool) EnvironmentConfig {
	c.RequiresApproval = required
	return c
}
