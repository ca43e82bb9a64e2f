package api

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/solatis/blockvis/internal/core/blocks"
	"github.com/solatis/blockvis/internal/rules"
	"github.com/solatis/blockvis/internal/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// contextRequest is the rendering context supplied with evaluation calls.
type contextRequest struct {
	Authenticated bool              `json:"authenticated"`
	Viewport      string            `json:"viewport"`
	Fields        map[string]string `json:"fields"`
}

// decodeRequest maps a Struct onto out using json tags. Numbers arrive as
// float64 and are converted; unknown keys are rejected.
func decodeRequest(in *structpb.Struct, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return status.Errorf(codes.Internal, "request decoder: %v", err)
	}
	if err := dec.Decode(in.AsMap()); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	return nil
}

func encodeResponse(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// requireField rejects an empty required request field.
func requireField(name, value string) error {
	if value == "" {
		return status.Errorf(codes.InvalidArgument, "%s required", name)
	}
	return nil
}

func blockMap(b *blocks.Block) map[string]any {
	return map[string]any{
		"block_id":     string(b.ID),
		"document_id":  string(b.DocumentID),
		"block_type":   b.Type,
		"attributes":   map[string]any(b.Attributes),
		"schema_state": b.SchemaState.String(),
		"revision":     b.Revision,
		"created_at":   b.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at":   b.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func evaluationMap(ev rules.Evaluation, restricted bool) map[string]any {
	classes := make([]any, len(ev.StateClasses))
	for i, c := range ev.StateClasses {
		classes[i] = c
	}
	m := map[string]any{
		"visible":        ev.Visible,
		"state_classes":  classes,
		"class_name":     ev.ClassName,
		"restricted":     restricted,
		"auth_active":    ev.AuthActive,
		"auth_visible":   ev.AuthVisible,
		"field_active":   ev.FieldActive,
		"field_matched":  ev.FieldMatched,
		"field_visible":  ev.FieldVisible,
		"schema_state":   ev.Migration.State.String(),
		"migration_path": ev.Migration.Path.String(),
	}
	if ev.Migration.Issues != nil {
		m["issues"] = ev.Migration.Issues.Error()
	}
	return m
}

func sweepMap(r blocks.SweepReport) map[string]any {
	return map[string]any{
		"scanned":   r.Scanned,
		"migrated":  r.Migrated,
		"unchanged": r.Unchanged,
		"defaulted": r.Defaulted,
		"conflicts": r.Conflicts,
	}
}

// renderingContext overlays request field values on stored ones.
func renderingContext(req contextRequest, stored types.FieldValues) (types.RenderingContext, error) {
	rc := types.RenderingContext{IsAuthenticated: req.Authenticated}
	if req.Viewport != "" {
		b, ok := types.ParseBreakpoint(req.Viewport)
		if !ok {
			return rc, status.Errorf(codes.InvalidArgument, "unknown viewport %q", req.Viewport)
		}
		rc.Viewport = b
	}

	fields := make(types.FieldValues, len(stored)+len(req.Fields))
	for k, v := range stored {
		fields[k] = v
	}
	for k, v := range req.Fields {
		if len(v) > types.MaxFieldValueLength {
			return rc, status.Error(codes.InvalidArgument, fmt.Sprintf("%v: %s", types.ErrFieldValueTooLong, k))
		}
		fields[k] = v
	}
	rc.Fields = fields
	return rc, nil
}
