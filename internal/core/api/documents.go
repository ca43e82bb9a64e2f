package api

import (
	"context"

	"github.com/solatis/blockvis/internal/core/blocks"
	"github.com/solatis/blockvis/internal/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// MigrateDocument sweeps a document's blocks through the migrator.
// mode is "primary" (default) or "compat".
func (s *Service) MigrateDocument(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	tenant, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		DocumentID string `json:"document_id"`
		Mode       string `json:"mode"`
	}
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	mode, err := blocks.ParseMode(req.Mode)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	report, err := s.store.MigrateDocument(ctx, tenant, types.DocumentID(req.DocumentID), mode)
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeResponse(sweepMap(report))
}

// SetFieldValues stores custom-field values for a document. A string sets
// the field; null removes it.
func (s *Service) SetFieldValues(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	tenant, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		DocumentID string         `json:"document_id"`
		Values     map[string]any `json:"values"`
	}
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	if len(req.Values) > s.cfg.MaxBatchSize {
		return nil, status.Errorf(codes.InvalidArgument, "%d values exceeds maximum of %d", len(req.Values), s.cfg.MaxBatchSize)
	}

	set := make(types.FieldValues, len(req.Values))
	var remove []string
	for id, v := range req.Values {
		switch val := v.(type) {
		case nil:
			remove = append(remove, id)
		case string:
			set[id] = val
		default:
			return nil, status.Errorf(codes.InvalidArgument, "field %q: value must be a string or null", id)
		}
	}

	if err := s.store.SetFieldValues(ctx, tenant, types.DocumentID(req.DocumentID), set, remove); err != nil {
		return nil, toStatus(err)
	}
	return encodeResponse(map[string]any{"set": len(set), "removed": len(remove)})
}
