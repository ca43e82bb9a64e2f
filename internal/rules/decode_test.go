// internal/rules/decode_test.go
package rules

import (
	"errors"
	"testing"

	"github.com/solatis/blockvis/internal/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		attrs      types.Attributes
		wantState  types.SchemaState
		wantLegacy bool
		wantIssue  bool
	}{
		{
			name:      "empty bag",
			attrs:     types.Attributes{},
			wantState: types.SchemaNone,
		},
		{
			name:      "current only",
			attrs:     types.Attributes{types.RuleSetKey: map[string]any{"mobile": false}},
			wantState: types.SchemaCurrent,
		},
		{
			name:       "legacy only",
			attrs:      types.Attributes{types.LegacyRuleSetKey: map[string]any{"devices": "show"}},
			wantState:  types.SchemaLegacy,
			wantLegacy: true,
		},
		{
			name: "legacy with unmigrated current",
			attrs: types.Attributes{
				types.RuleSetKey:       map[string]any{"migrated": false},
				types.LegacyRuleSetKey: map[string]any{"devices": "show"},
			},
			wantState:  types.SchemaLegacy,
			wantLegacy: true,
		},
		{
			name: "migrated ignores legacy",
			attrs: types.Attributes{
				types.RuleSetKey:       map[string]any{"migrated": true},
				types.LegacyRuleSetKey: "not even an object",
			},
			wantState: types.SchemaCurrent,
		},
		{
			name:      "null rule set",
			attrs:     types.Attributes{types.RuleSetKey: nil},
			wantState: types.SchemaNone,
		},
		{
			name:      "non-object legacy",
			attrs:     types.Attributes{types.LegacyRuleSetKey: []any{"x"}},
			wantState: types.SchemaNone,
			wantIssue: true,
		},
		{
			name:      "non-string class name",
			attrs:     types.Attributes{types.ClassNameKey: 7},
			wantState: types.SchemaNone,
			wantIssue: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			br, err := Classify(tt.attrs)
			if br.State != tt.wantState {
				t.Errorf("State = %v, want %v", br.State, tt.wantState)
			}
			if (br.Legacy != nil) != tt.wantLegacy {
				t.Errorf("Legacy = %v, want present=%v", br.Legacy, tt.wantLegacy)
			}
			if (err != nil) != tt.wantIssue {
				t.Errorf("err = %v, want issue=%v", err, tt.wantIssue)
			}
			if err != nil && !errors.Is(err, types.ErrMalformedRuleSet) {
				t.Errorf("err = %v, want ErrMalformedRuleSet", err)
			}
		})
	}
}

func TestClassify_FieldDefaults(t *testing.T) {
	br, err := Classify(types.Attributes{
		types.RuleSetKey: map[string]any{
			"migrated":       true,
			"desktop":        "false",
			"tablet":         false,
			"acf_visibility": "show",
			"acf_field":      12,
		},
	})
	if !errors.Is(err, types.ErrMalformedRuleSet) {
		t.Fatalf("err = %v, want ErrMalformedRuleSet", err)
	}

	rs := br.Current
	if !rs.Desktop {
		t.Errorf("Desktop = false, want default true for wrong type")
	}
	if rs.Tablet {
		t.Errorf("Tablet = true, want stored false")
	}
	if rs.FieldID != "" {
		t.Errorf("FieldID = %q, want default empty", rs.FieldID)
	}
	if rs.FieldVisibility != types.FieldVisibilityShow {
		t.Errorf("FieldVisibility = %q, want show", rs.FieldVisibility)
	}
	if !rs.LoggedIn || !rs.LoggedOut || !rs.Mobile {
		t.Errorf("absent fields should take defaults, got %+v", rs)
	}
}

func TestClassify_LegacyWeakTypes(t *testing.T) {
	br, err := Classify(types.Attributes{
		types.LegacyRuleSetKey: map[string]any{"id": 1234, "devices": "hide", "mobile": "on"},
	})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if br.Legacy.ID != "1234" {
		t.Errorf("ID = %q, want %q", br.Legacy.ID, "1234")
	}
	if br.Legacy.Flag(types.Mobile) != types.LegacyFlagOn || br.Legacy.Flag(types.Tablet) != "" {
		t.Errorf("flags = %+v", br.Legacy)
	}
}

func TestEncodeRuleSet_KeepsUnknownKeys(t *testing.T) {
	base := map[string]any{"custom": 1, "desktop": "junk"}
	out := encodeRuleSet(types.DefaultRuleSet(), base)

	if out["custom"] != 1 {
		t.Errorf("custom = %v, want 1", out["custom"])
	}
	if out["desktop"] != true {
		t.Errorf("desktop = %v, want true", out["desktop"])
	}
	if base["desktop"] != "junk" {
		t.Errorf("base modified")
	}
	if len(out) != 13 {
		t.Errorf("len(out) = %d, want 13", len(out))
	}
}
