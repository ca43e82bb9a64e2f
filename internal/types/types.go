// Package types provides domain models shared across blockvis components.
//
// Attribute bags are the host document's per-block attribute maps. They are
// decoded from and encoded to JSON objects; the visibility rule set lives
// under a single key inside the bag and the class-name list under another.
package types

import (
	"encoding/json"
	"maps"
)

// BlockID identifies one content block (UUIDv7).
type BlockID string

// DocumentID identifies the document a block belongs to. Assigned by the host.
type DocumentID string

// TenantID identifies the host integration that owns a document.
type TenantID string

// Attribute keys managed by the rule engine. Nothing else in a bag is ever
// written by migration.
const (
	// RuleSetKey holds the current-shape RuleSet.
	RuleSetKey = "editorskit"

	// LegacyRuleSetKey holds the flat pre-v2 rule set.
	LegacyRuleSetKey = "blockOpts"

	// ClassNameKey holds the space separated class-name list.
	ClassNameKey = "className"
)

// Attributes is a block's attribute bag.
type Attributes map[string]any

// ParseAttributes decodes a JSON object into an attribute bag.
// A JSON null or empty input yields an empty bag.
func ParseAttributes(data []byte) (Attributes, error) {
	if len(data) == 0 {
		return Attributes{}, nil
	}
	var attrs Attributes
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, ErrInvalidAttributes
	}
	if attrs == nil {
		attrs = Attributes{}
	}
	return attrs, nil
}

// Clone returns a copy of the bag. The rule-set maps are copied one level
// deep so that rewriting them never aliases the source bag.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		if m, ok := v.(map[string]any); ok {
			v = maps.Clone(m)
		}
		out[k] = v
	}
	return out
}

// ClassName returns the class-name attribute, or "" when absent or not a string.
func (a Attributes) ClassName() string {
	s, _ := a[ClassNameKey].(string)
	return s
}

// Merge applies a shallow patch. A nil value in the patch removes the key.
func (a Attributes) Merge(patch Attributes) Attributes {
	out := a.Clone()
	for k, v := range patch {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// Resource limits enforced at the storage and transport boundary.
const (
	// MaxAttributesSize caps the encoded attribute bag of one block.
	MaxAttributesSize = 256 * 1024

	// MaxFieldValueLength caps one stored custom-field value.
	MaxFieldValueLength = 4096

	// MaxFieldIDLength caps custom-field identifiers.
	MaxFieldIDLength = 255
)
