package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "blockvis.v1.VisibilityAPI"

// Method names of the visibility API.
const (
	MethodCreateBlock        = "CreateBlock"
	MethodGetBlock           = "GetBlock"
	MethodSetBlockAttributes = "SetBlockAttributes"
	MethodDeleteBlock        = "DeleteBlock"
	MethodEvaluateBlock      = "EvaluateBlock"
	MethodEvaluateAttributes = "EvaluateAttributes"
	MethodEvaluateDocument   = "EvaluateDocument"
	MethodMigrateDocument    = "MigrateDocument"
	MethodSetFieldValues     = "SetFieldValues"
)

// FullMethod returns the wire path of method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// VisibilityAPIServer is the server API. Requests and responses are JSON
// objects carried as google.protobuf.Struct, since attribute bags are
// schemaless.
type VisibilityAPIServer interface {
	CreateBlock(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetBlock(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetBlockAttributes(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteBlock(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EvaluateBlock(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EvaluateAttributes(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EvaluateDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	MigrateDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetFieldValues(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(VisibilityAPIServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func methodDesc(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(VisibilityAPIServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(VisibilityAPIServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes blockvis.v1.VisibilityAPI for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VisibilityAPIServer)(nil),
	Methods: []grpc.MethodDesc{
		methodDesc(MethodCreateBlock, VisibilityAPIServer.CreateBlock),
		methodDesc(MethodGetBlock, VisibilityAPIServer.GetBlock),
		methodDesc(MethodSetBlockAttributes, VisibilityAPIServer.SetBlockAttributes),
		methodDesc(MethodDeleteBlock, VisibilityAPIServer.DeleteBlock),
		methodDesc(MethodEvaluateBlock, VisibilityAPIServer.EvaluateBlock),
		methodDesc(MethodEvaluateAttributes, VisibilityAPIServer.EvaluateAttributes),
		methodDesc(MethodEvaluateDocument, VisibilityAPIServer.EvaluateDocument),
		methodDesc(MethodMigrateDocument, VisibilityAPIServer.MigrateDocument),
		methodDesc(MethodSetFieldValues, VisibilityAPIServer.SetFieldValues),
	},
	Metadata: "blockvis/v1/visibility.proto",
}

// RegisterVisibilityAPIServer registers srv on s.
func RegisterVisibilityAPIServer(s grpc.ServiceRegistrar, srv VisibilityAPIServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls the visibility API over a client connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a client connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with req.
func (c *Client) Call(ctx context.Context, method string, req map[string]any, opts ...grpc.CallOption) (map[string]any, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}
