// Package api implements the blockvis.v1.VisibilityAPI gRPC service.
package api

import (
	"context"
	"fmt"

	"github.com/solatis/blockvis/internal/core/auth"
	"github.com/solatis/blockvis/internal/core/blocks"
	"github.com/solatis/blockvis/internal/core/config"
	"github.com/solatis/blockvis/internal/core/logger"
	"github.com/solatis/blockvis/internal/rules"
	"github.com/solatis/blockvis/internal/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Service implements VisibilityAPIServer. Thin orchestration over the block
// store and the rules engine.
type Service struct {
	store  *blocks.Store
	engine *rules.Engine
	cfg    *config.VisibilityAPIConfig
	log    *logger.Logger
}

var _ VisibilityAPIServer = (*Service)(nil)

// NewService creates the service.
func NewService(store *blocks.Store, engine *rules.Engine, cfg *config.VisibilityAPIConfig, log *logger.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: store, engine: engine, cfg: cfg, log: log}, nil
}

// EngineFeatures maps the rules configuration onto engine features.
func EngineFeatures(rc config.RulesConfig) rules.Features {
	return rules.Features{
		Devices:   !rc.DisableDevices,
		UserState: !rc.DisableUserState,
		Logic:     !rc.DisableLogic,
		Fields:    !rc.DisableFields,
	}
}

func tenantFrom(ctx context.Context) (types.TenantID, error) {
	tenant := auth.TenantFromContext(ctx)
	if tenant == "" {
		return "", status.Error(codes.Internal, "missing tenant_id in context")
	}
	return tenant, nil
}
