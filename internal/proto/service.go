// Package proto defines the chainkeeper.CredentialService gRPC contract.
//
// Every request and response is a google.protobuf.Struct carrying one of the
// message types in messages.go, so the service needs no generated code.
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "chainkeeper.CredentialService"

const (
	SignupDataFullMethod = "/" + ServiceName + "/SignupData"
	SignupFullMethod     = "/" + ServiceName + "/Signup"
	AuthDataFullMethod   = "/" + ServiceName + "/AuthData"
	SigninFullMethod     = "/" + ServiceName + "/Signin"
	WhoamiFullMethod     = "/" + ServiceName + "/Whoami"
)

// CredentialServiceServer is the server API for CredentialService.
type CredentialServiceServer interface {
	SignupData(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Signup(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AuthData(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Signin(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Whoami(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedCredentialServiceServer answers every method with
// codes.Unimplemented. Embed it to stay forward compatible.
type UnimplementedCredentialServiceServer struct{}

func (UnimplementedCredentialServiceServer) SignupData(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method SignupData not implemented")
}

func (UnimplementedCredentialServiceServer) Signup(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Signup not implemented")
}

func (UnimplementedCredentialServiceServer) AuthData(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method AuthData not implemented")
}

func (UnimplementedCredentialServiceServer) Signin(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Signin not implemented")
}

func (UnimplementedCredentialServiceServer) Whoami(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Whoami not implemented")
}

func RegisterCredentialServiceServer(s grpc.ServiceRegistrar, srv CredentialServiceServer) {
	s.RegisterService(&CredentialService_ServiceDesc, srv)
}

type unaryMethod func(CredentialServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CredentialServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CredentialServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var CredentialService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CredentialServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SignupData", Handler: unaryHandler(SignupDataFullMethod, CredentialServiceServer.SignupData)},
		{MethodName: "Signup", Handler: unaryHandler(SignupFullMethod, CredentialServiceServer.Signup)},
		{MethodName: "AuthData", Handler: unaryHandler(AuthDataFullMethod, CredentialServiceServer.AuthData)},
		{MethodName: "Signin", Handler: unaryHandler(SigninFullMethod, CredentialServiceServer.Signin)},
		{MethodName: "Whoami", Handler: unaryHandler(WhoamiFullMethod, CredentialServiceServer.Whoami)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "chainkeeper/credential_service",
}

// CredentialServiceClient is the client API for CredentialService.
type CredentialServiceClient interface {
	SignupData(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Signup(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	AuthData(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Signin(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Whoami(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type credentialServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCredentialServiceClient(cc grpc.ClientConnInterface) CredentialServiceClient {
	return &credentialServiceClient{cc}
}

func (c *credentialServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *credentialServiceClient) SignupData(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SignupDataFullMethod, in, opts)
}

func (c *credentialServiceClient) Signup(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SignupFullMethod, in, opts)
}

func (c *credentialServiceClient) AuthData(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, AuthDataFullMethod, in, opts)
}

func (c *credentialServiceClient) Signin(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SigninFullMethod, in, opts)
}

func (c *credentialServiceClient) Whoami(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, WhoamiFullMethod, in, opts)
}
