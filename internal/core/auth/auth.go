// Package auth provides HMAC-based API key authentication for gRPC services.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/solatis/blockvis/internal/core/logger"
	"github.com/solatis/blockvis/internal/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type contextKey string

const tenantIDKey = contextKey("tenant_id")

// lastUsedThrottle bounds last_used_at writes per key.
const lastUsedThrottle = time.Minute

// Queries is the subset of *db.Queries the authenticator needs.
type Queries interface {
	Get(ctx context.Context, name string, dest any, args ...any) error
	Exec(ctx context.Context, name string, args ...any) (sql.Result, error)
}

// Authenticator validates API keys against stored HMAC hashes. Secrets are
// held in memory keyed by secret ID.
type Authenticator struct {
	secrets map[string][]byte
	queries Queries
	log     *logger.Logger
	// public methods skip authentication (health checks).
	public map[string]bool
}

// NewAuthenticator creates an authenticator over the given secrets.
func NewAuthenticator(secrets map[string][]byte, queries Queries, log *logger.Logger, publicMethods ...string) *Authenticator {
	if log == nil {
		log = logger.Nop()
	}
	public := make(map[string]bool, len(publicMethods))
	for _, m := range publicMethods {
		public[m] = true
	}
	return &Authenticator{secrets: secrets, queries: queries, log: log, public: public}
}

// Authenticate validates apiKey and returns the owning tenant.
func (a *Authenticator) Authenticate(ctx context.Context, apiKey string) (types.TenantID, error) {
	secretID, _, err := ParseAPIKey(apiKey)
	if err != nil {
		return "", err
	}

	secret, ok := a.secrets[secretID]
	if !ok {
		return "", ErrUnknownKey
	}

	var row struct {
		APIKeyID   string       `db:"api_key_id"`
		TenantID   string       `db:"tenant_id"`
		RevokedAt  sql.NullTime `db:"revoked_at"`
		LastUsedAt sql.NullTime `db:"last_used_at"`
	}
	err = a.queries.Get(ctx, "get-api-key-by-hash", &row, ComputeHMAC(secret, apiKey))
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidKey
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if row.RevokedAt.Valid {
		return "", ErrKeyRevoked
	}

	if !row.LastUsedAt.Valid || time.Since(row.LastUsedAt.Time) > lastUsedThrottle {
		if _, err := a.queries.Exec(ctx, "update-last-used", time.Now().UTC(), row.APIKeyID); err != nil {
			a.log.Warn("failed to update api key last_used_at", "api_key_id", row.APIKeyID, "error", err)
		}
	}

	return types.TenantID(row.TenantID), nil
}

// UnaryInterceptor authenticates each call from x-api-key metadata and
// injects the tenant into the handler context.
func (a *Authenticator) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if a.public[info.FullMethod] {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}
		keys := md.Get("x-api-key")
		if len(keys) == 0 {
			return nil, status.Error(codes.Unauthenticated, ErrMissingKey.Error())
		}

		tenant, err := a.Authenticate(ctx, keys[0])
		if err != nil {
			a.log.Debug("authentication failed", "method", info.FullMethod, "error", err)
			return nil, status.Error(authCode(err), err.Error())
		}

		return handler(WithTenant(ctx, tenant), req)
	}
}

func authCode(err error) codes.Code {
	switch {
	case errors.Is(err, ErrKeyRevoked):
		return codes.PermissionDenied
	case errors.Is(err, ErrUnavailable):
		return codes.Unavailable
	default:
		return codes.Unauthenticated
	}
}

// WithTenant returns a context carrying tenant.
func WithTenant(ctx context.Context, tenant types.TenantID) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenant)
}

// TenantFromContext returns the authenticated tenant, or "" if none.
func TenantFromContext(ctx context.Context) types.TenantID {
	tenant, _ := ctx.Value(tenantIDKey).(types.TenantID)
	return tenant
}
