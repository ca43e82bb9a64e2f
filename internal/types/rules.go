// internal/types/rules.go
package types

import "strings"

/*
 * Domain types for block visibility rules.
 *
 * Two rule shapes coexist in stored documents:
 *   - RuleSet: current structured shape, stored under RuleSetKey
 *   - LegacyRuleSet: flat pre-v2 shape, stored under LegacyRuleSetKey
 *
 * BlockRules is the tagged variant the engine works with. SchemaState is the
 * tag; it is derived from which shapes are present and from RuleSet.Migrated,
 * never from probing individual fields.
 *
 * Wire keys match the persisted attribute bags exactly so documents written
 * by older editors decode unchanged.
 *
 * Dependencies: None
 */

// Breakpoint is a responsive device class.
type Breakpoint string

const (
	Desktop Breakpoint = "desktop"
	Tablet  Breakpoint = "tablet"
	Mobile  Breakpoint = "mobile"
)

// Breakpoints lists every breakpoint in canonical order.
var Breakpoints = []Breakpoint{Desktop, Tablet, Mobile}

// ParseBreakpoint returns the breakpoint named by s, case-insensitively.
func ParseBreakpoint(s string) (Breakpoint, bool) {
	switch Breakpoint(strings.ToLower(strings.TrimSpace(s))) {
	case Desktop:
		return Desktop, true
	case Tablet:
		return Tablet, true
	case Mobile:
		return Mobile, true
	default:
		return "", false
	}
}

// FieldVisibility selects whether an external-field condition shows or hides.
type FieldVisibility string

const (
	FieldVisibilityNone FieldVisibility = "none"
	FieldVisibilityShow FieldVisibility = "show"
	FieldVisibilityHide FieldVisibility = "hide"
)

// Active reports whether the visibility selects a rule. Empty and unknown
// values are inactive.
func (v FieldVisibility) Active() bool {
	return v == FieldVisibilityShow || v == FieldVisibilityHide
}

// FieldCondition is the comparison applied to an external field value.
// Persisted in snake_case.
type FieldCondition string

const (
	CondEqual       FieldCondition = "equal"
	CondNotEqual    FieldCondition = "not_equal"
	CondContains    FieldCondition = "contains"
	CondNotContains FieldCondition = "not_contains"
	CondEmpty       FieldCondition = "empty"
	CondNotEmpty    FieldCondition = "not_empty"
)

// ParseFieldCondition normalises snake_case and camelCase spellings.
// Returns false for "", "none" and anything unrecognised.
func ParseFieldCondition(s string) (FieldCondition, bool) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "")) {
	case "equal":
		return CondEqual, true
	case "notequal":
		return CondNotEqual, true
	case "contains":
		return CondContains, true
	case "notcontains":
		return CondNotContains, true
	case "empty":
		return CondEmpty, true
	case "notempty":
		return CondNotEmpty, true
	default:
		return "", false
	}
}

// Logic combines the auth-state rule with the field rule.
type Logic string

const (
	LogicUnset Logic = ""
	LogicAnd   Logic = "and"
	LogicOr    Logic = "or"
)

// RuleSet is the current-shape visibility configuration of one block.
type RuleSet struct {
	Migrated        bool            `json:"migrated"`
	DevicesEnabled  bool            `json:"devices"`
	Desktop         bool            `json:"desktop"`
	Tablet          bool            `json:"tablet"`
	Mobile          bool            `json:"mobile"`
	LoggedIn        bool            `json:"loggedin"`
	LoggedOut       bool            `json:"loggedout"`
	FieldVisibility FieldVisibility `json:"acf_visibility"`
	FieldID         string          `json:"acf_field"`
	FieldCondition  FieldCondition  `json:"acf_condition"`
	FieldValue      string          `json:"acf_value"`
	Logic           Logic           `json:"logic"`
}

// DefaultRuleSet returns the schema defaults: visible everywhere, to
// everyone, no field rule, not migrated.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		Desktop:         true,
		Tablet:          true,
		Mobile:          true,
		LoggedIn:        true,
		LoggedOut:       true,
		FieldVisibility: FieldVisibilityNone,
		Logic:           LogicUnset,
	}
}

// VisibleOn reports the breakpoint flag for b. Unknown breakpoints are visible.
func (r RuleSet) VisibleOn(b Breakpoint) bool {
	switch b {
	case Desktop:
		return r.Desktop
	case Tablet:
		return r.Tablet
	case Mobile:
		return r.Mobile
	default:
		return true
	}
}

// AuthRuleActive reports whether either auth state is filtered out.
func (r RuleSet) AuthRuleActive() bool {
	return !r.LoggedIn || !r.LoggedOut
}

// LegacyRuleSet is the flat pre-v2 rule shape. Breakpoint visibility is
// derived from Devices plus the per-breakpoint "on" flags.
type LegacyRuleSet struct {
	ID              string `json:"id"`
	Devices         string `json:"devices"`
	Desktop         string `json:"desktop"`
	Tablet          string `json:"tablet"`
	Mobile          string `json:"mobile"`
	State           string `json:"state"`
	FieldVisibility string `json:"acf_visibility"`
	FieldID         string `json:"acf_field"`
	FieldCondition  string `json:"acf_condition"`
	FieldValue      string `json:"acf_value"`
	Logic           string `json:"logic"`
}

// Legacy encodings.
const (
	LegacyDevicesShow = "show"
	LegacyDevicesHide = "hide"
	LegacyFlagOn      = "on"
	LegacyStateIn     = "in"
	LegacyStateOut    = "out"
)

// Flag returns the raw "on" flag for breakpoint b.
func (l LegacyRuleSet) Flag(b Breakpoint) string {
	switch b {
	case Desktop:
		return l.Desktop
	case Tablet:
		return l.Tablet
	case Mobile:
		return l.Mobile
	default:
		return ""
	}
}

// SchemaState tags which rule shape a block carries.
type SchemaState int

const (
	// SchemaNone: no rule set stored at all.
	SchemaNone SchemaState = iota
	// SchemaLegacy: a legacy rule set awaits migration.
	SchemaLegacy
	// SchemaCurrent: the current shape governs the block.
	SchemaCurrent
)

// String returns the persisted name of the state.
func (s SchemaState) String() string {
	switch s {
	case SchemaLegacy:
		return "legacy"
	case SchemaCurrent:
		return "current"
	default:
		return "none"
	}
}

// ParseSchemaState is the inverse of SchemaState.String. Unknown names
// map to SchemaNone.
func ParseSchemaState(s string) SchemaState {
	switch s {
	case "legacy":
		return SchemaLegacy
	case "current":
		return SchemaCurrent
	default:
		return SchemaNone
	}
}

// BlockRules is the decoded visibility configuration of a block.
// Legacy is non-nil only when State is SchemaLegacy. Current always holds a
// fully defaulted RuleSet, even for SchemaNone.
type BlockRules struct {
	State     SchemaState
	Current   RuleSet
	Legacy    *LegacyRuleSet
	ClassName string
}
