// internal/rules/condition.go
package rules

import (
	"strings"

	"github.com/solatis/blockvis/internal/types"
)

/*
 * External-field condition evaluation.
 *
 * Operators:
 *   - equal / not_equal: exact string comparison
 *   - contains / not_contains: expected is a substring of the field value
 *   - empty / not_empty: field missing or zero length
 *
 * A field the provider could not resolve compares as "". Unknown operators
 * never match. No errors: a missing provider or field degrades to empty.
 */

// EvaluateField applies cond to a resolved field value.
func EvaluateField(cond types.FieldCondition, field types.FieldValue, expected string) bool {
	op, ok := types.ParseFieldCondition(string(cond))
	if !ok {
		return false
	}

	value := field.Value
	if !field.Found {
		value = ""
	}

	switch op {
	case types.CondEqual:
		return value == expected
	case types.CondNotEqual:
		return value != expected
	case types.CondContains:
		return strings.Contains(value, expected)
	case types.CondNotContains:
		return !strings.Contains(value, expected)
	case types.CondEmpty:
		return isEmpty(field)
	case types.CondNotEmpty:
		return !isEmpty(field)
	default:
		return false
	}
}

// isEmpty tests presence directly: not found or zero length.
func isEmpty(field types.FieldValue) bool {
	return !field.Found || field.Value == ""
}
