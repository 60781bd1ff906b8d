package idpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "satkeeper.idp.IdentityProvider"

const (
	FullMethodRegister = "/" + ServiceName + "/Register"
	FullMethodLogin    = "/" + ServiceName + "/Login"
	FullMethodRefresh  = "/" + ServiceName + "/Refresh"
	FullMethodRevoke   = "/" + ServiceName + "/Revoke"
	FullMethodPing     = "/" + ServiceName + "/Ping"
)

// IdentityProviderClient is the client API of the identity provider.
type IdentityProviderClient interface {
	Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error)
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error)
	Refresh(ctx context.Context, in *RefreshRequest, opts ...grpc.CallOption) (*RefreshResponse, error)
	Revoke(ctx context.Context, in *RevokeRequest, opts ...grpc.CallOption) (*RevokeResponse, error)
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
}

type identityProviderClient struct {
	cc grpc.ClientConnInterface
}

func NewIdentityProviderClient(cc grpc.ClientConnInterface) IdentityProviderClient {
	return &identityProviderClient{cc: cc}
}

func (c *identityProviderClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	req, err := toWire(in)
	if err != nil {
		return status.Error(codes.Internal, err.Error())
	}
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, req, resp, opts...); err != nil {
		return err
	}
	if err := fromWire(resp, out); err != nil {
		return status.Error(codes.Internal, err.Error())
	}
	return nil
}

func (c *identityProviderClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	out := new(RegisterResponse)
	if err := c.invoke(ctx, FullMethodRegister, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *identityProviderClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	out := new(LoginResponse)
	if err := c.invoke(ctx, FullMethodLogin, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *identityProviderClient) Refresh(ctx context.Context, in *RefreshRequest, opts ...grpc.CallOption) (*RefreshResponse, error) {
	out := new(RefreshResponse)
	if err := c.invoke(ctx, FullMethodRefresh, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *identityProviderClient) Revoke(ctx context.Context, in *RevokeRequest, opts ...grpc.CallOption) (*RevokeResponse, error) {
	out := new(RevokeResponse)
	if err := c.invoke(ctx, FullMethodRevoke, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *identityProviderClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	out := new(PingResponse)
	if err := c.invoke(ctx, FullMethodPing, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// IdentityProviderServer is the server API of the identity provider.
// Implementations should embed UnimplementedIdentityProviderServer.
type IdentityProviderServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	Refresh(context.Context, *RefreshRequest) (*RefreshResponse, error)
	Revoke(context.Context, *RevokeRequest) (*RevokeResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
}

type UnimplementedIdentityProviderServer struct{}

func (UnimplementedIdentityProviderServer) Register(context.Context, *RegisterRequest) (*RegisterResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}
func (UnimplementedIdentityProviderServer) Login(context.Context, *LoginRequest) (*LoginResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}
func (UnimplementedIdentityProviderServer) Refresh(context.Context, *RefreshRequest) (*RefreshResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Refresh not implemented")
}
func (UnimplementedIdentityProviderServer) Revoke(context.Context, *RevokeRequest) (*RevokeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Revoke not implemented")
}
func (UnimplementedIdentityProviderServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}

func RegisterIdentityProviderServer(s grpc.ServiceRegistrar, srv IdentityProviderServer) {
	s.RegisterService(&IdentityProvider_ServiceDesc, srv)
}

// unaryHandler builds a grpc.MethodHandler that decodes Req from its wire
// form and dispatches to call, passing through the server's interceptor
// chain. Interceptors see the typed request; the response is converted back
// to its wire form afterwards.
func unaryHandler[Req any](fullMethod string, call func(IdentityProviderServer, context.Context, *Req) (any, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		wire := new(structpb.Struct)
		if err := dec(wire); err != nil {
			return nil, err
		}
		in := new(Req)
		if err := fromWire(wire, in); err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}

		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(IdentityProviderServer), ctx, req.(*Req))
		}
		var (
			resp any
			err  error
		)
		if interceptor == nil {
			resp, err = handler(ctx, in)
		} else {
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			resp, err = interceptor(ctx, in, info, handler)
		}
		if err != nil {
			return nil, err
		}

		out, err := toWire(resp)
		if err != nil {
			return nil, status.Error(codes.Internal, err.Error())
		}
		return out, nil
	}
}

var IdentityProvider_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IdentityProviderServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Register",
			Handler: unaryHandler(FullMethodRegister, func(s IdentityProviderServer, ctx context.Context, in *RegisterRequest) (any, error) {
				return s.Register(ctx, in)
			}),
		},
		{
			MethodName: "Login",
			Handler: unaryHandler(FullMethodLogin, func(s IdentityProviderServer, ctx context.Context, in *LoginRequest) (any, error) {
				return s.Login(ctx, in)
			}),
		},
		{
			MethodName: "Refresh",
			Handler: unaryHandler(FullMethodRefresh, func(s IdentityProviderServer, ctx context.Context, in *RefreshRequest) (any, error) {
				return s.Refresh(ctx, in)
			}),
		},
		{
			MethodName: "Revoke",
			Handler: unaryHandler(FullMethodRevoke, func(s IdentityProviderServer, ctx context.Context, in *RevokeRequest) (any, error) {
				return s.Revoke(ctx, in)
			}),
		},
		{
			MethodName: "Ping",
			Handler: unaryHandler(FullMethodPing, func(s IdentityProviderServer, ctx context.Context, in *PingRequest) (any, error) {
				return s.Ping(ctx, in)
			}),
		},
	},
	Streams: []grpc.StreamDesc{},
}
