package grpcservice

import (
	"context"

	"google.golang.org/genproto/googleapis/api/httpbody"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "recall.v1.HistoryService"

// HistoryServer is the server API for recall.v1.HistoryService. Messages are
// protobuf well-known types, so no generated code is needed on either side.
type HistoryServer interface {
	Status(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	List(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Get(context.Context, *wrapperspb.Int64Value) (*httpbody.HttpBody, error)
	Add(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	Cycle(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	Restore(context.Context, *wrapperspb.Int64Value) (*wrapperspb.StringValue, error)
	RestoreText(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	Clear(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

// Register adds srv to s.
func Register(s grpc.ServiceRegistrar, srv HistoryServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*HistoryServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Status", newEmpty, HistoryServer.Status),
		unary("List", newEmpty, HistoryServer.List),
		unary("Get", newInt64, HistoryServer.Get),
		unary("Add", newString, HistoryServer.Add),
		unary("Cycle", newEmpty, HistoryServer.Cycle),
		unary("Restore", newInt64, HistoryServer.Restore),
		unary("RestoreText", newString, HistoryServer.RestoreText),
		unary("Clear", newEmpty, HistoryServer.Clear),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "recall/v1/history.proto",
}

func newEmpty() *emptypb.Empty           { return new(emptypb.Empty) }
func newInt64() *wrapperspb.Int64Value   { return new(wrapperspb.Int64Value) }
func newString() *wrapperspb.StringValue { return new(wrapperspb.StringValue) }
func fullMethod(name string) string      { return "/" + ServiceName + "/" + name }

// unary builds the MethodDesc that protoc-gen-go-grpc would otherwise emit
// for one method.
func unary[Req, Resp proto.Message](
	name string,
	newReq func() Req,
	call func(HistoryServer, context.Context, Req) (Resp, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			hs := srv.(HistoryServer)
			if interceptor == nil {
				return call(hs, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(hs, ctx, req.(Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
