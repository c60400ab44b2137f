package engine

import (
	"github.com/google/uuid"

	"github.com/nubster/flaps/internal/flags"
)

// Reason explains why an evaluation produced its value. The string tags are
// a cross-service contract and must stay lower_snake_case.
type Reason string

const (
	// ReasonDefault: no rule matched; the environment default was returned.
	ReasonDefault Reason = "default"
	// ReasonTargetingMatch: a targeting rule matched.
	ReasonTargetingMatch Reason = "targeting_match"
	// ReasonRolloutIncluded: the user fell inside the global rollout.
	ReasonRolloutIncluded Reason = "rollout_included"
	// ReasonRolloutExcluded: the user fell outside the global rollout.
	ReasonRolloutExcluded Reason = "rollout_excluded"
	// ReasonFlagDisabled: the flag is disabled in this environment.
	ReasonFlagDisabled Reason = "flag_disabled"
	// ReasonEnvironmentNotFound: the flag has no config for the environment.
	ReasonEnvironmentNotFound Reason = "environment_not_found"
	// ReasonFlagNotFound: no flag with the requested key exists.
	ReasonFlagNotFound Reason = "flag_not_found"
	// ReasonError: evaluation failed upstream (storage, transport).
	ReasonError Reason = "error"
)

// Result is the deterministic output of Evaluate.
type Result struct {
	Value     flags.Value `json:"value"`
	Reason    Reason      `json:"reason"`
	RuleID    *uuid.UUID  `json:"rule_id,omitempty"`
	InRollout *bool       `json:"in_rollout,omitempty"`
}

// DefaultResult creates a result carrying the environment default.
func DefaultResult(value flags.Value) Result {
	return Result{Value: value, Reason: ReasonDefault}
}

// DisabledResult creates a result for a disabled flag. The value is still
// populated for logging and audit, but IsEnabled reports false.
func DisabledResult(value flags.Value) Result {
	return Result{Value: value, Reason: ReasonFlagDisabled}
}

// FlagNotFoundResult creates a result for a missing flag.
func FlagNotFoundResult() Result {
	return Result{Value: flags.BoolFlagValue(false), Reason: ReasonFlagNotFound}
}

// EnvironmentNotFoundResult creates a result for a missing environment.
func EnvironmentNotFoundResult() Result {
	return Result{Value: flags.BoolFlagValue(false), Reason: ReasonEnvironmentNotFound}
}

// ErrorResult creates a result for an upstream failure.
func ErrorResult() Result {
	return Result{Value: flags.BoolFlagValue(false), Reason: ReasonError}
}

// IsEnabled reports whether the flag should be treated as on.
//
// It is derived, never stored: disabled, not-found, rollout-excluded, and
// error outcomes are always off, regardless of the carried value; every
// other outcome follows the value's truthiness. This is what makes kill
// switches reliable for string flags whose fallback value is non-empty.
func (r Result) IsEnabled() bool {
	switch r.Reason {
	case ReasonFlagDisabled, ReasonFlagNotFound, ReasonEnvironmentNotFound,
		ReasonRolloutExcluded, ReasonError:
		return false
	default:
		return r.Value.IsTruthy()
	}
}

// AsBool returns the boolean value, or false for string flags.
func (r Result) AsBool() bool {
	b, _ := r.Value.AsBool()
	return b
}

// AsString returns the string value, or "" for boolean flags.
func (r Result) AsString() string {
	s, _ := r.Value.AsString()
	return s
}
