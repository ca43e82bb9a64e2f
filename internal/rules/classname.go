// internal/rules/classname.go
package rules

import (
	"slices"
	"strings"
	"unicode"

	"github.com/solatis/blockvis/internal/types"
)

/*
 * Class-name synthesis.
 *
 * A class name is a list of tokens separated by whitespace; commas are
 * accepted as separators too because the class-name editor stored them that
 * way. All functions here return the canonical form: tokens joined by one
 * space, no leading or trailing whitespace. Token order is preserved.
 *
 * Legacy markers: the pre-v2 editor encoded the block identity as "b<id>"
 * and device rules as blockopts-* tokens. They are removed on migration.
 *
 * State classes: one "hidden-on-<breakpoint>" token per disabled breakpoint,
 * consumed by the client-side responsive stylesheet.
 */

// LegacyIdentityPrefix prefixes the legacy block id in the identity marker.
const LegacyIdentityPrefix = "b"

// StateClassPrefix prefixes breakpoint state classes.
const StateClassPrefix = "hidden-on-"

// legacyMarkers are the legacy device/display tokens, in removal order.
var legacyMarkers = []string{
	"blockopts-show",
	"blockopts-hide",
	"blockopts-desktop",
	"blockopts-tablet",
	"blockopts-mobile",
}

// Tokens splits a class name into its tokens.
func Tokens(className string) []string {
	return strings.FieldsFunc(className, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
}

// StripLegacyMarkers removes the identity marker for legacyID and every
// legacy device/display token. An empty result is "".
func StripLegacyMarkers(className, legacyID string) string {
	remove := make(map[string]bool, len(legacyMarkers)+1)
	for _, m := range legacyMarkers {
		remove[m] = true
	}
	if id := strings.TrimSpace(legacyID); id != "" {
		remove[LegacyIdentityPrefix+id] = true
	}

	tokens := Tokens(className)
	kept := tokens[:0]
	for _, tok := range tokens {
		if !remove[tok] {
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " ")
}

// ToggleStateClass adds token when present is true and removes every
// occurrence of it otherwise. A token already present keeps its position.
func ToggleStateClass(className, token string, present bool) string {
	tokens := Tokens(className)
	token = strings.TrimSpace(token)
	if token == "" {
		return strings.Join(tokens, " ")
	}

	if present {
		if !slices.Contains(tokens, token) {
			tokens = append(tokens, token)
		}
		return strings.Join(tokens, " ")
	}

	tokens = slices.DeleteFunc(tokens, func(t string) bool { return t == token })
	return strings.Join(tokens, " ")
}

// StateClass returns the state class hiding a block on b.
func StateClass(b types.Breakpoint) string {
	return StateClassPrefix + string(b)
}

// StateClasses returns the state classes for rs in breakpoint order.
// Emitted only when device filtering is on or a breakpoint is disabled.
func StateClasses(rs types.RuleSet) []string {
	if !rs.DevicesEnabled && rs.Desktop && rs.Tablet && rs.Mobile {
		return nil
	}
	var classes []string
	for _, b := range types.Breakpoints {
		if !rs.VisibleOn(b) {
			classes = append(classes, StateClass(b))
		}
	}
	return classes
}

// ApplyStateClasses brings className in line with classes: state classes
// in the list are added, all other state classes removed.
func ApplyStateClasses(className string, classes []string) string {
	for _, b := range types.Breakpoints {
		sc := StateClass(b)
		className = ToggleStateClass(className, sc, slices.Contains(classes, sc))
	}
	return className
}
