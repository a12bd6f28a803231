package user

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully-qualified gRPC service name of the user directory.
// Messages are protobuf well-known types, so no generated stubs are needed.
const ServiceName = "tienda.user.v1.UserService"

const (
	methodRegisterUser = "/" + ServiceName + "/RegisterUser"
	methodGetUser      = "/" + ServiceName + "/GetUser"
	methodValidateUser = "/" + ServiceName + "/ValidateUser"
	methodDeleteUser   = "/" + ServiceName + "/DeleteUser"
)

type UserServiceServer interface {
	RegisterUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetUser(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	ValidateUser(context.Context, *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error)
	DeleteUser(context.Context, *wrapperspb.Int64Value) (*emptypb.Empty, error)
}

func RegisterUserServiceServer(s grpc.ServiceRegistrar, srv UserServiceServer) {
	s.RegisterService(&userServiceDesc, srv)
}

var userServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*UserServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "RegisterUser",
			Handler: unaryHandler(methodRegisterUser, func(srv UserServiceServer, ctx context.Context, in *structpb.Struct) (any, error) {
				return srv.RegisterUser(ctx, in)
			}),
		},
		{
			MethodName: "GetUser",
			Handler: unaryHandler(methodGetUser, func(srv UserServiceServer, ctx context.Context, in *wrapperspb.Int64Value) (any, error) {
				return srv.GetUser(ctx, in)
			}),
		},
		{
			MethodName: "ValidateUser",
			Handler: unaryHandler(methodValidateUser, func(srv UserServiceServer, ctx context.Context, in *wrapperspb.Int64Value) (any, error) {
				return srv.ValidateUser(ctx, in)
			}),
		},
		{
			MethodName: "DeleteUser",
			Handler: unaryHandler(methodDeleteUser, func(srv UserServiceServer, ctx context.Context, in *wrapperspb.Int64Value) (any, error) {
				return srv.DeleteUser(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tienda/user/v1/user.proto",
}

// unaryHandler adapts a typed call into the handler shape grpc.MethodDesc expects.
func unaryHandler[Req any, PReq interface {
	*Req
}](fullMethod string, call func(UserServiceServer, context.Context, PReq) (any, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(UserServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(UserServiceServer), ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}
