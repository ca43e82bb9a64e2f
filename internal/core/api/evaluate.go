package api

import (
	"context"

	"github.com/solatis/blockvis/internal/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// EvaluateBlock decides visibility for a stored block. Field values stored
// for the block's document are overlaid with the request's fields.
func (s *Service) EvaluateBlock(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	tenant, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		BlockID string         `json:"block_id"`
		Context contextRequest `json:"context"`
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
	rc, err := s.renderingContext(ctx, tenant, b.DocumentID, req.Context)
	if err != nil {
		return nil, err
	}

	ev := s.engine.Evaluate(b.Type, b.Attributes, rc)
	out := evaluationMap(ev, s.engine.IsRestricted(b.Type))
	out["block_id"] = string(b.ID)
	return encodeResponse(out)
}

// EvaluateAttributes decides visibility for an attribute bag the host holds
// itself. The migrated bag is returned so the host can persist it.
func (s *Service) EvaluateAttributes(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	tenant, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		BlockType  string         `json:"block_type"`
		DocumentID string         `json:"document_id"`
		Attributes map[string]any `json:"attributes"`
		Context    contextRequest `json:"context"`
	}
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}

	rc, err := s.renderingContext(ctx, tenant, types.DocumentID(req.DocumentID), req.Context)
	if err != nil {
		return nil, err
	}

	attrs := types.Attributes(req.Attributes)
	if attrs == nil {
		attrs = types.Attributes{}
	}
	ev := s.engine.Evaluate(req.BlockType, attrs, rc)
	out := evaluationMap(ev, s.engine.IsRestricted(req.BlockType))
	out["attributes"] = map[string]any(ev.Migration.Attributes)
	return encodeResponse(out)
}

// EvaluateDocument decides every block of a document in one rendering
// context, in document order. Reads do not persist migrations here.
func (s *Service) EvaluateDocument(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	tenant, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		DocumentID string         `json:"document_id"`
		Context    contextRequest `json:"context"`
	}
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	if err := requireField("document_id", req.DocumentID); err != nil {
		return nil, err
	}
	document := types.DocumentID(req.DocumentID)

	list, err := s.store.ListDocument(ctx, tenant, document)
	if err != nil {
		return nil, toStatus(err)
	}
	if len(list) > s.cfg.MaxBatchSize {
		return nil, status.Errorf(codes.FailedPrecondition,
			"document has %d blocks, exceeds maximum of %d", len(list), s.cfg.MaxBatchSize)
	}

	rc, err := s.renderingContext(ctx, tenant, document, req.Context)
	if err != nil {
		return nil, err
	}

	results := make([]any, 0, len(list))
	visible := 0
	for _, b := range list {
		ev := s.engine.Evaluate(b.Type, b.Attributes, rc)
		if ev.Visible {
			visible++
		}
		m := evaluationMap(ev, s.engine.IsRestricted(b.Type))
		m["block_id"] = string(b.ID)
		m["block_type"] = b.Type
		results = append(results, m)
	}

	return encodeResponse(map[string]any{
		"document_id":   req.DocumentID,
		"blocks":        results,
		"visible_count": visible,
	})
}

func (s *Service) renderingContext(ctx context.Context, tenant types.TenantID, document types.DocumentID, req contextRequest) (types.RenderingContext, error) {
	var stored types.FieldValues
	if document != "" {
		var err error
		stored, err = s.store.FieldValues(ctx, tenant, document)
		if err != nil {
			return types.RenderingContext{}, toStatus(err)
		}
	}
	return renderingContext(req, stored)
}
