// internal/rules/condition_test.go
package rules

import (
	"testing"

	"github.com/solatis/blockvis/internal/types"
)

func found(v string) types.FieldValue {
	return types.FieldValue{Value: v, Found: true}
}

func TestEvaluateField(t *testing.T) {
	tests := []struct {
		name     string
		cond     types.FieldCondition
		field    types.FieldValue
		expected string
		want     bool
	}{
		{"equal_true", types.CondEqual, found("a"), "a", true},
		{"equal_false", types.CondEqual, found("a"), "b", false},
		{"not_equal_true", types.CondNotEqual, found("a"), "b", true},
		{"not_equal_false", types.CondNotEqual, found("a"), "a", false},
		{"contains_true", types.CondContains, found("hello world"), "world", true},
		{"contains_false", types.CondContains, found("hello world"), "moon", false},
		{"not_contains_true", types.CondNotContains, found("hello world"), "moon", true},
		{"not_contains_false", types.CondNotContains, found("hello world"), "hello", false},
		{"empty_missing", types.CondEmpty, types.FieldValue{}, "", true},
		{"empty_zero_length", types.CondEmpty, found(""), "", true},
		{"empty_false", types.CondEmpty, found("x"), "", false},
		{"not_empty_true", types.CondNotEmpty, found("x"), "", true},
		{"not_empty_missing", types.CondNotEmpty, types.FieldValue{}, "", false},
		{"empty_ignores_value", types.CondEmpty, found(""), "ignored", true},
		{"not_empty_ignores_value", types.CondNotEmpty, found("x"), "y", true},
		{"missing_equals_empty_string", types.CondEqual, types.FieldValue{}, "", true},
		{"missing_not_equal", types.CondNotEqual, types.FieldValue{}, "a", true},
		{"missing_ignores_stale_value", types.CondEqual, types.FieldValue{Value: "a"}, "a", false},
		{"camel_case_not_equal", "notEqual", found("a"), "a", false},
		{"camel_case_not_empty", "notEmpty", found("a"), "", true},
		{"unknown_operator", "greater", found("a"), "a", false},
		{"none_operator", "none", found("a"), "a", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateField(tt.cond, tt.field, tt.expected)
			if got != tt.want {
				t.Errorf("EvaluateField(%q, %+v, %q) = %v, want %v",
					tt.cond, tt.field, tt.expected, got, tt.want)
			}
		})
	}
}
