package rules

import (
	"math"
	"strings"
)

// numericEpsilon is the tolerance for numeric equality. Attribute numbers are
// double precision, so equality checks must not rely on bitwise comparison.
const numericEpsilon = 1e-9

// Compare evaluates `actual op expected` and returns the result.
//
// Comparisons degrade gracefully: a type mismatch between actual and expected
// yields false rather than an error, so a single malformed condition can
// never fail a whole evaluation. The one asymmetry is OpNotIn, which returns
// true when the expected value is not a string list ("not found" semantics),
// whereas OpIn returns false on the same input.
//
// OpSemverGreaterThan, OpSemverLessThan, and OpRegex are unimplemented
// placeholders and always return false. OpMatchesSegment and
// OpNotMatchesSegment require segment lookups and are resolved by the
// evaluation engine before values are compared; seen here, they are false.
func Compare(actual Value, op Operator, expected Value) bool {
	switch op {
	case OpEquals:
		return valuesEqual(actual, expected)
	case OpNotEquals:
		return !valuesEqual(actual, expected)

	case OpContains:
		return stringCompare(actual, expected, strings.Contains)
	case OpStartsWith:
		return stringCompare(actual, expected, strings.HasPrefix)
	case OpEndsWith:
		return stringCompare(actual, expected, strings.HasSuffix)

	case OpIn:
		list, ok := expected.AsStringList()
		if !ok {
			return false
		}
		s, ok := actual.AsString()
		if !ok {
			return false
		}
		return containsString(list, s)

	case OpNotIn:
		list, ok := expected.AsStringList()
		if !ok {
			return true
		}
		s, ok := actual.AsString()
		if !ok {
			return true
		}
		return !containsString(list, s)

	case OpGreaterThan:
		return numericCompare(actual, expected, func(a, b float64) bool { return a > b })
	case OpGreaterThanOrEqual:
		return numericCompare(actual, expected, func(a, b float64) bool { return a >= b })
	case OpLessThan:
		return numericCompare(actual, expected, func(a, b float64) bool { return a < b })
	case OpLessThanOrEqual:
		return numericCompare(actual, expected, func(a, b float64) bool { return a <= b })

	case OpSemverGreaterThan, OpSemverLessThan:
		// Semantic version comparison is not implemented yet.
		return false
	case OpRegex:
		// Regex matching is not implemented yet.
		return false

	case OpMatchesSegment, OpNotMatchesSegment:
		// Resolved by the engine against its segment map.
		return false

	default:
		return false
	}
}

// valuesEqual compares two values of the same variant. Differing variants are
// never equal; numbers compare within numericEpsilon.
func valuesEqual(a, b Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case KindString:
		as, _ := a.AsString()
		bs, _ := b.AsString()
		return as == bs
	case KindNumber:
		an, _ := a.AsNumber()
		bn, _ := b.AsNumber()
		return math.Abs(an-bn) < numericEpsilon
	case KindBoolean:
		ab, _ := a.AsBool()
		bb, _ := b.AsBool()
		return ab == bb
	default:
		return false
	}
}

func stringCompare(actual, expected Value, cmp func(s, sub string) bool) bool {
	a, ok := actual.AsString()
	if !ok {
		return false
	}
	e, ok := expected.AsString()
	if !ok {
		return false
	}
	return cmp(a, e)
}

func numericCompare(actual, expected Value, cmp func(a, b float64) bool) bool {
	a, ok := actual.AsNumber()
	if !ok {
		return false
	}
	e, ok := expected.AsNumber()
	if !ok {
		return false
	}
	return cmp(a, e)
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
