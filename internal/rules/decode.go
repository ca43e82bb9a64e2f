// internal/rules/decode.go
package rules

import (
	"errors"
	"fmt"
	"maps"

	"github.com/go-viper/mapstructure/v2"
	"github.com/solatis/blockvis/internal/types"
)

/*
 * Tolerant decoding of attribute bags into rule shapes.
 *
 * A field with the wrong type keeps its schema default and is reported as
 * ErrMalformedRuleSet; decoding never aborts. Current-shape fields decode
 * strictly (a string is not a bool). Legacy fields decode weakly because old
 * editors stored ids as numbers and flags as whatever the form produced.
 *
 * Classification:
 *   - current present with migrated=true      -> SchemaCurrent, legacy ignored
 *   - legacy present, current absent/unmigrated -> SchemaLegacy
 *   - current present, no legacy               -> SchemaCurrent
 *   - neither                                  -> SchemaNone
 */

// Classify decodes the visibility configuration carried by attrs.
// The returned error, when non-nil, wraps ErrMalformedRuleSet and lists the
// fields that fell back to defaults; the BlockRules value is always usable.
func Classify(attrs types.Attributes) (types.BlockRules, error) {
	br := types.BlockRules{
		State:     types.SchemaNone,
		Current:   types.DefaultRuleSet(),
		ClassName: attrs.ClassName(),
	}
	var issues []error

	if _, ok := attrs[types.ClassNameKey]; ok {
		if _, isString := attrs[types.ClassNameKey].(string); !isString {
			issues = append(issues, fmt.Errorf("%w: %s is not a string", types.ErrMalformedRuleSet, types.ClassNameKey))
		}
	}

	if raw, ok, err := ruleMap(attrs, types.RuleSetKey); ok {
		rs, err := decodeRuleSet(raw)
		if err != nil {
			issues = append(issues, err)
		}
		br.Current = rs
		br.State = types.SchemaCurrent
	} else if err != nil {
		issues = append(issues, err)
	}

	if br.Current.Migrated {
		return br, errors.Join(issues...)
	}

	if raw, ok, err := ruleMap(attrs, types.LegacyRuleSetKey); ok {
		legacy, err := decodeLegacy(raw)
		if err != nil {
			issues = append(issues, err)
		}
		br.Legacy = &legacy
		br.State = types.SchemaLegacy
	} else if err != nil {
		issues = append(issues, err)
	}

	return br, errors.Join(issues...)
}

// ruleMap extracts the object stored under key. A present value that is
// not an object is reported and treated as absent.
func ruleMap(attrs types.Attributes, key string) (map[string]any, bool, error) {
	raw, ok := attrs[key]
	if !ok || raw == nil {
		return nil, false, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, false, fmt.Errorf("%w: %s is not an object", types.ErrMalformedRuleSet, key)
	}
	return m, true, nil
}

// decodeRuleSet overlays raw on the schema defaults.
func decodeRuleSet(raw map[string]any) (types.RuleSet, error) {
	rs := types.DefaultRuleSet()
	if err := decodeInto(raw, &rs, false); err != nil {
		return rs, fmt.Errorf("%w: %s: %v", types.ErrMalformedRuleSet, types.RuleSetKey, err)
	}
	return rs, nil
}

// decodeLegacy decodes the flat legacy shape; absent fields are "".
func decodeLegacy(raw map[string]any) (types.LegacyRuleSet, error) {
	var legacy types.LegacyRuleSet
	if err := decodeInto(raw, &legacy, true); err != nil {
		return legacy, fmt.Errorf("%w: %s: %v", types.ErrMalformedRuleSet, types.LegacyRuleSetKey, err)
	}
	return legacy, nil
}

// decodeInto runs mapstructure with json tags. Fields that fail keep the
// value already present in out.
func decodeInto(raw map[string]any, out any, weak bool) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: weak,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// encodeRuleSet writes rs over a copy of base, keeping keys this engine
// does not know about.
func encodeRuleSet(rs types.RuleSet, base map[string]any) map[string]any {
	out := maps.Clone(base)
	if out == nil {
		out = make(map[string]any, 12)
	}
	out["migrated"] = rs.Migrated
	out["devices"] = rs.DevicesEnabled
	out["desktop"] = rs.Desktop
	out["tablet"] = rs.Tablet
	out["mobile"] = rs.Mobile
	out["loggedin"] = rs.LoggedIn
	out["loggedout"] = rs.LoggedOut
	out["acf_visibility"] = string(rs.FieldVisibility)
	out["acf_field"] = rs.FieldID
	out["acf_condition"] = string(rs.FieldCondition)
	out["acf_value"] = rs.FieldValue
	out["logic"] = string(rs.Logic)
	return out
}
