// Package validation provides request-level validation for flags and
// segments arriving over the admin API. The domain constructors validate
// eagerly, but JSON decoding bypasses them, so admin writes re-check here and
// report field-level errors.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/nubster/flaps/internal/flags"
	"github.com/nubster/flaps/internal/rules"
	"github.com/nubster/flaps/internal/segments"
)

const (
	// MaxKeyLength is the maximum length for flag and segment keys.
	MaxKeyLength = 64
	// MaxEnvLength is the maximum length for environment names.
	MaxEnvLength = 32
	// MaxDescriptionLength is the maximum length for descriptions.
	MaxDescriptionLength = 500
	// MinRollout and MaxRollout bound rollout percentages.
	MinRollout = 0
	MaxRollout = 100
)

// keyPattern matches alphanumeric characters, underscores, and hyphens.
var keyPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Result accumulates field-level validation errors.
type Result struct {
	Errors map[string]string
}

// NewResult creates an empty validation result.
func NewResult() *Result {
	return &Result{Errors: make(map[string]string)}
}

// Valid reports whether no errors were recorded.
func (r *Result) Valid() bool {
	return len(r.Errors) == 0
}

// AddError records a field error. The first error per field wins.
func (r *Result) AddError(field, message string) {
	if _, exists := r.Errors[field]; !exists {
		r.Errors[field] = message
	}
}

// ValidateFlag checks a flag document as received over the wire. Returns a
// field-error map; empty means valid.
func ValidateFlag(f flags.Flag) map[string]string {
	result := NewResult()

	validateKey(result, "key", f.Key.String())

	if strings.TrimSpace(f.Name) == "" {
		result.AddError("name", "Name is required")
	}
	if utf8.RuneCountInString(f.Description) > MaxDescriptionLength {
		result.AddError("description", "Description must not exceed 500 characters")
	}

	switch f.Type.Kind {
	case flags.TypeBoolean:
		if len(f.Type.Variants) > 0 {
			result.AddError("flag_type", "Boolean flags cannot declare variants")
		}
	case flags.TypeString:
		if len(f.Type.Variants) == 0 {
			result.AddError("flag_type", "String flags must declare at least one variant")
		}
	default:
		result.AddError("flag_type", fmt.Sprintf("Unknown flag type %q", f.Type.Kind))
	}

	for envKey, cfg := range f.Environments {
		prefix := "environments." + envKey
		validateEnvName(result, prefix, envKey)
		validateRolloutPtr(result, prefix+".rollout_percentage", cfg.RolloutPercentage)
		for i, rule := range cfg.Rules {
			rulePrefix := fmt.Sprintf("%s.rules[%d]", prefix, i)
			validateRolloutPtr(result, rulePrefix+".rollout_percentage", rule.RolloutPercentage)
			if err := rules.ValidateConditions(rule.Conditions); err != nil {
				result.AddError(rulePrefix+".conditions", err.Error())
			}
		}
	}

	return result.Errors
}

// ValidateSegment checks a segment document as received over the wire.
func ValidateSegment(s segments.Segment) map[string]string {
	result := NewResult()

	if s.ID == uuid.Nil {
		result.AddError("id", "ID is required")
	}
	validateKey(result, "key", s.Key)

	if strings.TrimSpace(s.Name) == "" {
		result.AddError("name", "Name is required")
	}
	if utf8.RuneCountInString(s.Description) > MaxDescriptionLength {
		result.AddError("description", "Description must not exceed 500 characters")
	}

	for i, rule := range s.Rules {
		if err := rules.ValidateConditions(rule.Conditions); err != nil {
			result.AddError(fmt.Sprintf("rules[%d].conditions", i), err.Error())
		}
	}
	for i, userID := range s.IncludedUsers {
		if strings.TrimSpace(userID) == "" {
			result.AddError(fmt.Sprintf("included_users[%d]", i), "User ID cannot be empty")
		}
	}
	for i, userID := range s.ExcludedUsers {
		if strings.TrimSpace(userID) == "" {
			result.AddError(fmt.Sprintf("excluded_users[%d]", i), "User ID cannot be empty")
		}
	}

	return result.Errors
}

func validateKey(result *Result, field, key string) {
	key = strings.TrimSpace(key)
	if key == "" {
		result.AddError(field, "Key is required")
		return
	}
	if utf8.RuneCountInString(key) > MaxKeyLength {
		result.AddError(field, "Key must not exceed 64 characters")
		return
	}
	if !keyPattern.MatchString(key) {
		result.AddError(field, "Key must contain only alphanumeric characters, underscores, and hyphens")
	}
}

func validateEnvName(result *Result, field, env string) {
	env = strings.TrimSpace(env)
	if env == "" {
		result.AddError(field, "Environment name is required")
		return
	}
	if utf8.RuneCountInString(env) > MaxEnvLength {
		result.AddError(field, "Environment name must not exceed 32 characters")
	}
}

func validateRolloutPtr(result *Result, field string, rollout *int) {
	if rollout == nil {
		return
	}
	if *rollout < MinRollout || *rollout > MaxRollout {
		result.AddError(field, "Rollout must be between 0 and 100")
	}
}
