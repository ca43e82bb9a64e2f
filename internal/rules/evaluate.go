// internal/rules/evaluate.go
package rules

import (
	"slices"
	"strings"

	"github.com/solatis/blockvis/internal/types"
)

/*
 * Visibility decision.
 *
 * Two tiers:
 *   1. Hard decision (Visible): auth-state rule and external-field rule,
 *      evaluated once per request on the server.
 *   2. Soft hints (StateClasses): per-breakpoint markers enforced by the
 *      client stylesheet. They never affect Visible, so a cached page stays
 *      correct on every viewport.
 *
 * Rule activity:
 *   - auth rule: active when loggedin or loggedout is false
 *   - field rule: active when acf_visibility is show/hide and acf_condition
 *     is a known operator. A blank acf_field places no constraint: the rule
 *     stays active with fieldVisible = true and still takes part in logic.
 *
 * Combination: both active -> logic (or, otherwise and); one active -> its
 * result; none active -> visible. An unknown operator is inactive, so a
 * malformed rule can only ever leave a block visible.
 */

// Features switches rule families on or off. A disabled family is treated
// as inactive regardless of stored values.
type Features struct {
	Devices   bool
	UserState bool
	Logic     bool
	Fields    bool
}

// AllFeatures enables every rule family.
func AllFeatures() Features {
	return Features{Devices: true, UserState: true, Logic: true, Fields: true}
}

// Decision is the outcome of evaluating a rule set in a rendering context.
type Decision struct {
	Visible      bool
	StateClasses []string

	// Diagnostics.
	AuthActive   bool
	AuthVisible  bool
	FieldActive  bool
	FieldMatched bool
	FieldVisible bool
}

// VisibleOn combines the hard decision with the breakpoint hint, for
// preview surfaces that know the viewport.
func (d Decision) VisibleOn(b types.Breakpoint) bool {
	if !d.Visible {
		return false
	}
	return !slices.Contains(d.StateClasses, StateClass(b))
}

// Decide evaluates rs with every rule family enabled.
func Decide(rs types.RuleSet, rc types.RenderingContext) Decision {
	return decide(rs, rc, AllFeatures())
}

func decide(rs types.RuleSet, rc types.RenderingContext, f Features) Decision {
	var d Decision

	if f.Devices {
		d.StateClasses = StateClasses(rs)
	}

	if f.UserState {
		d.AuthActive = rs.AuthRuleActive()
		d.AuthVisible = (rc.IsAuthenticated && rs.LoggedIn) || (!rc.IsAuthenticated && rs.LoggedOut)
	}

	d.FieldActive = f.Fields && FieldRuleActive(rs)
	switch {
	case !d.FieldActive:
	case strings.TrimSpace(rs.FieldID) == "":
		d.FieldVisible = true
	default:
		d.FieldMatched = EvaluateField(rs.FieldCondition, rc.Resolve(rs.FieldID), rs.FieldValue)
		if rs.FieldVisibility == types.FieldVisibilityShow {
			d.FieldVisible = d.FieldMatched
		} else {
			d.FieldVisible = !d.FieldMatched
		}
	}

	logic := types.LogicAnd
	if f.Logic {
		logic = normalizeLogic(rs.Logic)
	}

	switch {
	case d.AuthActive && d.FieldActive:
		d.Visible = Combine(d.AuthVisible, d.FieldVisible, logic)
	case d.AuthActive:
		d.Visible = d.AuthVisible
	case d.FieldActive:
		d.Visible = d.FieldVisible
	default:
		d.Visible = true
	}

	return d
}

// FieldRuleActive reports whether rs carries a field rule. A rule with a
// blank field id is active and unconstrained.
func FieldRuleActive(rs types.RuleSet) bool {
	if !rs.FieldVisibility.Active() {
		return false
	}
	if strings.TrimSpace(rs.FieldID) == "" {
		return true
	}
	_, ok := types.ParseFieldCondition(string(rs.FieldCondition))
	return ok
}

// Combine joins the auth and field results. Unset or unknown logic is and.
func Combine(authVisible, fieldVisible bool, logic types.Logic) bool {
	if normalizeLogic(logic) == types.LogicOr {
		return authVisible || fieldVisible
	}
	return authVisible && fieldVisible
}

func normalizeLogic(l types.Logic) types.Logic {
	switch types.Logic(strings.ToLower(strings.TrimSpace(string(l)))) {
	case types.LogicOr:
		return types.LogicOr
	default:
		return types.LogicAnd
	}
}
