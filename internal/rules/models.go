// Package rules defines the attribute-value model, comparison operators, and
// targeting conditions used in feature-flag evaluation. Conditions within a
// rule are evaluated with AND semantics: all conditions must match for the
// rule to apply.
package rules

import (
	"github.com/google/uuid"
)

// Operator represents a comparison operator used in targeting conditions.
type Operator string

// Supported targeting operators (string values for clean JSON serialization).
const (
	OpEquals             Operator = "equals"
	OpNotEquals          Operator = "not_equals"
	OpContains           Operator = "contains"
	OpStartsWith         Operator = "starts_with"
	OpEndsWith           Operator = "ends_with"
	OpIn                 Operator = "in"
	OpNotIn              Operator = "not_in"
	OpGreaterThan        Operator = "greater_than"
	OpGreaterThanOrEqual Operator = "greater_than_or_equal"
	OpLessThan           Operator = "less_than"
	OpLessThanOrEqual    Operator = "less_than_or_equal"
	OpSemverGreaterThan  Operator = "semver_greater_than"
	OpSemverLessThan     Operator = "semver_less_than"
	OpMatchesSegment     Operator = "matches_segment"
	OpNotMatchesSegment  Operator = "not_matches_segment"
	OpRegex              Operator = "regex"
)

var knownOperators = map[Operator]struct{}{
	OpEquals:             {},
	OpNotEquals:          {},
	OpContains:           {},
	OpStartsWith:         {},
	OpEndsWith:           {},
	OpIn:                 {},
	OpNotIn:              {},
	OpGreaterThan:        {},
	OpGreaterThanOrEqual: {},
	OpLessThan:           {},
	OpLessThanOrEqual:    {},
	OpSemverGreaterThan:  {},
	OpSemverLessThan:     {},
	OpMatchesSegment:     {},
	OpNotMatchesSegment:  {},
	OpRegex:              {},
}

// Valid reports whether op is a known operator.
func (op Operator) Valid() bool {
	_, ok := knownOperators[op]
	return ok
}

// IsSegmentOperator reports whether op tests segment membership. Segment
// operators ignore the condition's attribute and operate on a
// segment-reference value.
func (op Operator) IsSegmentOperator() bool {
	return op == OpMatchesSegment || op == OpNotMatchesSegment
}

// Condition represents a single targeting predicate: one attribute compared
// against an expected value.
type Condition struct {
	Attribute string   `json:"attribute"`
	Operator  Operator `json:"operator"`
	Value     Value    `json:"value"`
}

// NewCondition creates a condition.
func NewCondition(attribute string, op Operator, value Value) Condition {
	return Condition{Attribute: attribute, Operator: op, Value: value}
}

// Equals creates an equality condition.
func Equals(attribute string, value Value) Condition {
	return NewCondition(attribute, OpEquals, value)
}

// NotEquals creates a "not equals" condition.
func NotEquals(attribute string, value Value) Condition {
	return NewCondition(attribute, OpNotEquals, value)
}

// Contains creates a substring condition.
func Contains(attribute, substring string) Condition {
	return NewCondition(attribute, OpContains, StringValue(substring))
}

// StartsWith creates a prefix condition.
func StartsWith(attribute, prefix string) Condition {
	return NewCondition(attribute, OpStartsWith, StringValue(prefix))
}

// EndsWith creates a suffix condition (useful for email domains).
func EndsWith(attribute, suffix string) Condition {
	return NewCondition(attribute, OpEndsWith, StringValue(suffix))
}

// InList creates a list-membership condition.
func InList(attribute string, values ...string) Condition {
	return NewCondition(attribute, OpIn, StringListValue(values...))
}

// MatchesSegment creates a segment-membership condition. The attribute is
// unused for segment operators.
func MatchesSegment(segmentID uuid.UUID) Condition {
	return NewCondition("", OpMatchesSegment, SegmentRefValue(segmentID))
}

// NotMatchesSegment creates a negated segment-membership condition.
func NotMatchesSegment(segmentID uuid.UUID) Condition {
	return NewCondition("", OpNotMatchesSegment, SegmentRefValue(segmentID))
}
