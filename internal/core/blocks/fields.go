package blocks

import (
	"context"
	"fmt"

	"github.com/solatis/blockvis/internal/core/db"
	"github.com/solatis/blockvis/internal/types"
)

// FieldValues returns the stored custom-field values of a document.
func (s *Store) FieldValues(ctx context.Context, tenant types.TenantID, document types.DocumentID) (types.FieldValues, error) {
	var rows []struct {
		FieldID string `db:"field_id"`
		Value   string `db:"value"`
	}
	if err := s.queries.Select(ctx, "list-field-values", &rows, string(tenant), string(document)); err != nil {
		return nil, fmt.Errorf("list field values: %w", err)
	}

	values := make(types.FieldValues, len(rows))
	for _, r := range rows {
		values[r.FieldID] = r.Value
	}
	return values, nil
}

// SetFieldValues upserts set and deletes remove in one transaction. An
// empty string is a stored value, distinct from an absent field.
func (s *Store) SetFieldValues(ctx context.Context, tenant types.TenantID, document types.DocumentID, set types.FieldValues, remove []string) error {
	if document == "" {
		return types.ErrMissingDocument
	}
	for id, v := range set {
		if err := validateField(id); err != nil {
			return err
		}
		if len(v) > types.MaxFieldValueLength {
			return fmt.Errorf("%w: %s (%d bytes, max %d)", types.ErrFieldValueTooLong, id, len(v), types.MaxFieldValueLength)
		}
	}
	for _, id := range remove {
		if err := validateField(id); err != nil {
			return err
		}
	}

	now := s.now()
	return s.queries.InTx(ctx, func(q *db.Queries) error {
		for id, v := range set {
			if _, err := q.Exec(ctx, "upsert-field-value", string(tenant), string(document), id, v, now); err != nil {
				return fmt.Errorf("set field %s: %w", id, err)
			}
		}
		for _, id := range remove {
			if _, err := q.Exec(ctx, "delete-field-value", string(tenant), string(document), id); err != nil {
				return fmt.Errorf("delete field %s: %w", id, err)
			}
		}
		return nil
	})
}

func validateField(id string) error {
	if id == "" {
		return types.ErrMissingFieldID
	}
	if len(id) > types.MaxFieldIDLength {
		return fmt.Errorf("%w: %d bytes (max %d)", types.ErrFieldIDTooLong, len(id), types.MaxFieldIDLength)
	}
	return nil
}
