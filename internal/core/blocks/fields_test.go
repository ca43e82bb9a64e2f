package blocks

import (
	"strings"
	"testing"

	"github.com/solatis/blockvis/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldValues(t *testing.T) {
	f := newFixture(t)
	store := NewStore(f.queries)

	values, err := store.FieldValues(f.ctx, f.tenant, testDoc)
	require.NoError(t, err)
	assert.Empty(t, values)

	require.NoError(t, store.SetFieldValues(f.ctx, f.tenant, testDoc, types.FieldValues{
		"promo":   "summer",
		"blank":   "",
		"discard": "x",
	}, nil))

	require.NoError(t, store.SetFieldValues(f.ctx, f.tenant, testDoc, types.FieldValues{
		"promo": "winter",
	}, []string{"discard", "never-set"}))

	values, err = store.FieldValues(f.ctx, f.tenant, testDoc)
	require.NoError(t, err)
	assert.Equal(t, types.FieldValues{"promo": "winter", "blank": ""}, values)

	v, ok := values.ResolveFieldValue("blank")
	assert.True(t, ok, "empty string is a stored value")
	assert.Equal(t, "", v)

	other, err := store.FieldValues(f.ctx, f.tenant, "post-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSetFieldValues_Validation(t *testing.T) {
	f := newFixture(t)
	store := NewStore(f.queries)

	tests := []struct {
		name    string
		doc     types.DocumentID
		set     types.FieldValues
		remove  []string
		wantErr error
	}{
		{"missing document", "", types.FieldValues{"a": "b"}, nil, types.ErrMissingDocument},
		{"empty field id", testDoc, types.FieldValues{"": "b"}, nil, types.ErrMissingFieldID},
		{"long field id", testDoc, types.FieldValues{strings.Repeat("f", types.MaxFieldIDLength+1): "b"}, nil, types.ErrFieldIDTooLong},
		{"long value", testDoc, types.FieldValues{"a": strings.Repeat("v", types.MaxFieldValueLength+1)}, nil, types.ErrFieldValueTooLong},
		{"empty removal", testDoc, nil, []string{""}, types.ErrMissingFieldID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.SetFieldValues(f.ctx, f.tenant, tt.doc, tt.set, tt.remove)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	values, err := store.FieldValues(f.ctx, f.tenant, testDoc)
	require.NoError(t, err)
	assert.Empty(t, values)
}
