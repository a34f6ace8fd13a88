package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Сообщения — google.protobuf.Struct, поэтому отдельный .proto не нужен.
const (
	DiscoveryServiceName = "marketplace.v1.DiscoveryService"

	listProvidersMethod = "/" + DiscoveryServiceName + "/ListProviders"
	getProviderMethod   = "/" + DiscoveryServiceName + "/GetProvider"
)

type DiscoveryServer interface {
	ListProviders(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProvider(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedDiscoveryServer — встраивается для совместимости вперёд.
type UnimplementedDiscoveryServer struct{}

func (UnimplementedDiscoveryServer) ListProviders(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ListProviders not implemented")
}

func (UnimplementedDiscoveryServer) GetProvider(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetProvider not implemented")
}

func RegisterDiscoveryServer(s grpc.ServiceRegistrar, srv DiscoveryServer) {
	s.RegisterService(&DiscoveryServiceDesc, srv)
}

func listProvidersHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DiscoveryServer).ListProviders(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listProvidersMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DiscoveryServer).ListProviders(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getProviderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DiscoveryServer).GetProvider(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getProviderMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DiscoveryServer).GetProvider(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var DiscoveryServiceDesc = grpc.ServiceDesc{
	ServiceName: DiscoveryServiceName,
	HandlerType: (*DiscoveryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListProviders", Handler: listProvidersHandler},
		{MethodName: "GetProvider", Handler: getProviderHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "marketplace/v1/discovery.proto",
}

// DiscoveryClient — клиент для тех же методов.
type DiscoveryClient struct {
	cc grpc.ClientConnInterface
}

func NewDiscoveryClient(cc grpc.ClientConnInterface) *DiscoveryClient {
	return &DiscoveryClient{cc: cc}
}

func (c *DiscoveryClient) ListProviders(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, listProvidersMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *DiscoveryClient) GetProvider(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getProviderMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
