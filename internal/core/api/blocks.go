package api

import (
	"context"

	"github.com/solatis/blockvis/internal/types"
	"google.golang.org/protobuf/types/known/structpb"
)

// CreateBlock stores a new block. Legacy rule sets are migrated on write.
func (s *Service) CreateBlock(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	tenant, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		DocumentID string         `json:"document_id"`
		BlockType  string         `json:"block_type"`
		Attributes map[string]any `json:"attributes"`
	}
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}

	b, err := s.store.Create(ctx, tenant, types.DocumentID(req.DocumentID), req.BlockType, req.Attributes)
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeResponse(map[string]any{"block": blockMap(b)})
}

// GetBlock loads a block. This is the document-load boundary: a legacy rule
// set comes back in the current shape.
func (s *Service) GetBlock(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	tenant, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		BlockID string `json:"block_id"`
	}
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	if err := requireField("block_id", req.BlockID); err != nil {
		return nil, err
	}

	b, err := s.store.Get(ctx, tenant, types.BlockID(req.BlockID))
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeResponse(map[string]any{"block": blockMap(b)})
}

// SetBlockAttributes merges a patch into the stored bag; null removes a key.
// revision, when non-zero, must match the stored revision.
func (s *Service) SetBlockAttributes(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	tenant, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		BlockID    string         `json:"block_id"`
		Attributes map[string]any `json:"attributes"`
		Revision   int64          `json:"revision"`
	}
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	if err := requireField("block_id", req.BlockID); err != nil {
		return nil, err
	}

	b, err := s.store.SetAttributes(ctx, tenant, types.BlockID(req.BlockID), req.Attributes, req.Revision)
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeResponse(map[string]any{"block": blockMap(b)})
}

// DeleteBlock removes a block.
func (s *Service) DeleteBlock(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	tenant, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		BlockID string `json:"block_id"`
	}
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	if err := requireField("block_id", req.BlockID); err != nil {
		return nil, err
	}

	if err := s.store.Delete(ctx, tenant, types.BlockID(req.BlockID)); err != nil {
		return nil, toStatus(err)
	}
	return encodeResponse(map[string]any{"deleted": true})
}
