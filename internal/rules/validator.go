package rules

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by ValidateCondition.
var (
	ErrInvalidOperator  = errors.New("invalid operator")
	ErrInvalidCondition = errors.New("invalid condition")
	ErrInvalidValueType = errors.New("invalid value type")
)

// ValidateCondition performs strict validation of a Condition at
// creation/import time. Evaluation itself never fails on malformed
// conditions (Compare degrades to false); this catches authoring mistakes
// before they are stored.
//
// It is a pure function: it never mutates c and has no side effects.
func ValidateCondition(c Condition) error {
	if !c.Operator.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidOperator, c.Operator)
	}

	if c.Operator.IsSegmentOperator() {
		if _, ok := c.Value.AsSegmentRef(); !ok {
			return fmt.Errorf("%w: %s requires a segment reference value", ErrInvalidValueType, c.Operator)
		}
		return nil
	}

	if c.Attribute == "" {
		return fmt.Errorf("%w: attribute must not be empty", ErrInvalidCondition)
	}

	switch c.Operator {
	case OpIn, OpNotIn:
		if _, ok := c.Value.AsStringList(); !ok {
			return fmt.Errorf("%w: %s requires a string list value", ErrInvalidValueType, c.Operator)
		}
	case OpContains, OpStartsWith, OpEndsWith, OpRegex:
		if _, ok := c.Value.AsString(); !ok {
			return fmt.Errorf("%w: %s requires a string value", ErrInvalidValueType, c.Operator)
		}
	case OpGreaterThan, OpGreaterThanOrEqual, OpLessThan, OpLessThanOrEqual:
		if _, ok := c.Value.AsNumber(); !ok {
			return fmt.Errorf("%w: %s requires a numeric value", ErrInvalidValueType, c.Operator)
		}
	}

	return nil
}

// ValidateConditions validates every condition in a rule body.
func ValidateConditions(conditions []Condition) error {
	for i, c := range conditions {
		if err := ValidateCondition(c); err != nil {
			return fmt.Errorf("condition %d: %w", i, err)
		}
	}
	return nil
}
