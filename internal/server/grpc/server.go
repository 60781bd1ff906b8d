// Package grpc exposes the identity provider over gRPC through the idpb
// service bindings.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/satkeeper/internal/idpb"
	"github.com/dmitrijs2005/satkeeper/internal/logging"
	"github.com/dmitrijs2005/satkeeper/internal/server/auth"
	"github.com/dmitrijs2005/satkeeper/internal/server/models"
	"github.com/dmitrijs2005/satkeeper/internal/server/services"
	"google.golang.org/grpc"
)

// IdentityService is the business logic the server dispatches to.
type IdentityService interface {
	Register(ctx context.Context, username string, password []byte, clearance string) (*models.User, error)
	Login(ctx context.Context, username string, password []byte, classification string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Revoke(ctx context.Context, refreshToken string, access *auth.Claims) error
	Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error)
	AuthenticateAllowExpired(ctx context.Context, accessToken string) (*auth.Claims, error)
}

type GRPCServer struct {
	idpb.UnimplementedIdentityProviderServer
	address  string
	identity IdentityService
	logger   logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, is IdentityService) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		identity: is,
	}
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.requestLogInterceptor, s.accessTokenInterceptor))

	idpb.RegisterIdentityProviderServer(srv, s)

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Stopping gRPC server...")
			srv.GracefulStop()
		case <-stopped:
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
