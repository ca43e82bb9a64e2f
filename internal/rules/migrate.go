// internal/rules/migrate.go
package rules

import (
	"github.com/solatis/blockvis/internal/types"
)

/*
 * One-way schema migration from LegacyRuleSet to RuleSet.
 *
 * Migrate is a pure transform over an attribute bag: the input is never
 * modified, a rewritten bag is returned. Callers invoke it once at the
 * document-load boundary and on every write; for already-migrated bags it
 * returns the input unchanged, so repeated calls are free.
 *
 * Breakpoint truth table (legacy devices x legacy "on" flag):
 *   devices=show, on  -> visible
 *   devices=show, off -> hidden
 *   devices=hide, on  -> hidden
 *   devices=hide, off -> visible
 *   devices=other     -> visible
 *
 * Auth: state=in hides from guests, state=out hides from members, anything
 * else is visible to both.
 *
 * Only RuleSetKey and ClassNameKey are ever written. LegacyRuleSetKey stays
 * in the bag untouched; Migrated=true guarantees it is never read again.
 *
 * MigrateCompat is the older compatibility path. It forces every breakpoint
 * visible and leaves Migrated=false, so it re-applies on every call and a
 * later Migrate still performs the primary upgrade.
 */

// MigrationPath names the transform that rewrote a bag.
type MigrationPath int

const (
	// PathNone: the bag was returned unchanged.
	PathNone MigrationPath = iota
	// PathPrimary: legacy rules upgraded and marked migrated.
	PathPrimary
	// PathCompat: devices reset to visible-everywhere, not marked migrated.
	PathCompat
)

// String returns the persisted name of the path.
func (p MigrationPath) String() string {
	switch p {
	case PathPrimary:
		return "primary"
	case PathCompat:
		return "compat"
	default:
		return "none"
	}
}

// Result carries a migrated attribute bag.
type Result struct {
	Attributes types.Attributes // bag to persist or render; the input when Path is PathNone
	Rules      types.RuleSet    // governing rule set, fully defaulted
	State      types.SchemaState
	Path       MigrationPath
	Issues     error // fields that fell back to defaults (wraps ErrMalformedRuleSet)
}

// Changed reports whether the bag was rewritten.
func (r Result) Changed() bool {
	return r.Path != PathNone
}

// Migrate upgrades a legacy rule set to the current shape exactly once.
func Migrate(attrs types.Attributes) Result {
	br, issues := Classify(attrs)
	if br.State != types.SchemaLegacy {
		return Result{Attributes: attrs, Rules: br.Current, State: br.State, Issues: issues}
	}

	rs := upgradeLegacy(br.Current, *br.Legacy)
	rs.Migrated = true

	return Result{
		Attributes: rewrite(attrs, rs, br),
		Rules:      rs,
		State:      types.SchemaCurrent,
		Path:       PathPrimary,
		Issues:     issues,
	}
}

// MigrateCompat applies the compatibility upgrade: auth and field rules are
// carried over, every breakpoint becomes visible, Migrated stays false.
func MigrateCompat(attrs types.Attributes) Result {
	br, issues := Classify(attrs)
	if br.State != types.SchemaLegacy {
		return Result{Attributes: attrs, Rules: br.Current, State: br.State, Issues: issues}
	}

	rs := upgradeLegacy(br.Current, *br.Legacy)
	rs.DevicesEnabled = false
	rs.Desktop = true
	rs.Tablet = true
	rs.Mobile = true
	rs.Migrated = false

	return Result{
		Attributes: rewrite(attrs, rs, br),
		Rules:      rs,
		State:      types.SchemaLegacy,
		Path:       PathCompat,
		Issues:     issues,
	}
}

// upgradeLegacy computes the current-shape fields from a legacy rule set,
// starting from base so unrelated current fields survive.
func upgradeLegacy(base types.RuleSet, legacy types.LegacyRuleSet) types.RuleSet {
	rs := base
	rs.DevicesEnabled = false
	rs.Desktop = legacyBreakpointVisible(legacy, types.Desktop)
	rs.Tablet = legacyBreakpointVisible(legacy, types.Tablet)
	rs.Mobile = legacyBreakpointVisible(legacy, types.Mobile)
	rs.LoggedIn = legacy.State != types.LegacyStateOut
	rs.LoggedOut = legacy.State != types.LegacyStateIn
	rs.FieldVisibility = types.FieldVisibility(legacy.FieldVisibility)
	rs.FieldID = legacy.FieldID
	rs.FieldCondition = types.FieldCondition(legacy.FieldCondition)
	rs.FieldValue = legacy.FieldValue
	rs.Logic = types.Logic(legacy.Logic)
	return rs
}

// legacyBreakpointVisible derives breakpoint visibility from the legacy
// devices mode and the breakpoint's "on" flag.
func legacyBreakpointVisible(legacy types.LegacyRuleSet, b types.Breakpoint) bool {
	on := legacy.Flag(b) == types.LegacyFlagOn
	hidden := (legacy.Devices == types.LegacyDevicesShow && !on) ||
		(legacy.Devices == types.LegacyDevicesHide && on)
	return !hidden
}

// rewrite builds the migrated bag: a copy of attrs with the new rule set and
// the legacy markers stripped from the class name. A missing class name is
// written as ""; a class attribute that is not a string is left as stored.
func rewrite(attrs types.Attributes, rs types.RuleSet, br types.BlockRules) types.Attributes {
	out := attrs.Clone()
	base, _ := attrs[types.RuleSetKey].(map[string]any)
	out[types.RuleSetKey] = encodeRuleSet(rs, base)

	raw := attrs[types.ClassNameKey]
	if _, isString := raw.(string); isString || raw == nil {
		out[types.ClassNameKey] = StripLegacyMarkers(br.ClassName, br.Legacy.ID)
	}
	return out
}
