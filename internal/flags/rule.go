package flags

import (
	"github.com/google/uuid"

	"github.com/nubster/flaps/internal/rules"
)

// TargetingRule determines flag values for matching users.
//
// Rules are evaluated in ascending priority order (lower evaluates first);
// the first matching rule determines the flag value. A rule with no
// conditions is a catch-all that matches everyone.
type TargetingRule struct {
	ID                uuid.UUID         `json:"id"`
	Priority          uint32            `json:"priority"`
	Conditions        []rules.Condition `json:"conditions"`
	Value             Value             `json:"value"`
	RolloutPercentage *int              `json:"rollout_percentage,omitempty"`
	Description       string            `json:"description,omitempty"`
}

// NewTargetingRule creates a rule with the given priority and value.
func NewTargetingRule(priority uint32, value Value) TargetingRule {
	return TargetingRule{
		ID:       uuid.New(),
		Priority: priority,
		Value:    value,
	}
}

// WithCondition appends a condition (AND semantics).
func (r TargetingRule) WithCondition(c rules.Condition) TargetingRule {
	r.Conditions = append(r.Conditions[:len(r.Conditions):len(r.Conditions)], c)
	return r
}

// WithRollout sets the rule's rollout percentage, clamped to 0-100.
func (r TargetingRule) WithRollout(percentage int) TargetingRule {
	p := clampPercentage(percentage)
	r.RolloutPercentage = &p
	return r
}

// WithDescription sets the description.
func (r TargetingRule) WithDescription(description string) TargetingRule {
	r.Description = description
	return r
}

// IsCatchAll reports whether this rule has no conditions and therefore
// matches every context.
func (r TargetingRule) IsCatchAll() bool {
	return len(r.Conditions) == 0
}

func clampPercentage(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
