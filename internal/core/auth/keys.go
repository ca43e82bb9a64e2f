package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/solatis/blockvis/internal/types"
)

// IssuedKey is a newly created API key. Key is shown once and never stored.
type IssuedKey struct {
	ID       string
	TenantID types.TenantID
	Key      string
}

// EnsureTenant returns the ID of the tenant named name, creating it if needed.
func EnsureTenant(ctx context.Context, q Queries, name string) (types.TenantID, error) {
	if name == "" {
		return "", fmt.Errorf("tenant name required")
	}

	var row struct {
		TenantID  string    `db:"tenant_id"`
		Name      string    `db:"name"`
		CreatedAt time.Time `db:"created_at"`
	}
	err := q.Get(ctx, "get-tenant-by-name", &row, name)
	if err == nil {
		return types.TenantID(row.TenantID), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("get tenant: %w", err)
	}

	id := types.NewTenantID()
	if _, err := q.Exec(ctx, "create-tenant", string(id), name, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("create tenant: %w", err)
	}
	return id, nil
}

// IssueKey generates a key for tenant under secretID and stores its HMAC.
func IssueKey(ctx context.Context, q Queries, secrets map[string][]byte, secretID string, tenant types.TenantID, name string) (*IssuedKey, error) {
	secret, ok := secrets[secretID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, secretID)
	}

	key, err := GenerateAPIKey(secretID)
	if err != nil {
		return nil, err
	}

	id := types.NewRecordID()
	_, err = q.Exec(ctx, "create-api-key",
		id, string(tenant), name, secretID, ComputeHMAC(secret, key), time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("store api key: %w", err)
	}
	return &IssuedKey{ID: id, TenantID: tenant, Key: key}, nil
}

// RevokeKey marks a key revoked. Revoking twice is a no-op.
func RevokeKey(ctx context.Context, q Queries, apiKeyID string) error {
	if _, err := q.Exec(ctx, "revoke-api-key", time.Now().UTC(), apiKeyID); err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	return nil
}
