package idp

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/satkeeper/internal/common"
	"github.com/dmitrijs2005/satkeeper/internal/idpb"
	"github.com/dmitrijs2005/satkeeper/internal/permissions"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// GRPCProvider implements IdentityProvider against a satkeeper identity
// provider server.
type GRPCProvider struct {
	conn   *grpc.ClientConn
	client idpb.IdentityProviderClient
}

// NewGRPCProvider creates a client for addr. Insecure transport credentials
// are applied first, so a credentials option in opts overrides them.
func NewGRPCProvider(addr string, opts ...grpc.DialOption) (*GRPCProvider, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc client for %s: %w", addr, err)
	}
	return &GRPCProvider{conn: conn, client: idpb.NewIdentityProviderClient(conn)}, nil
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

// Register creates an account upstream with the given clearance.
func (p *GRPCProvider) Register(ctx context.Context, username string, password []byte, clearance permissions.Classification) error {
	req := &idpb.RegisterRequest{Username: username, Password: password, Clearance: clearance.String()}

	if _, err := p.client.Register(ctx, req); err != nil {
		return p.mapError(err)
	}
	return nil
}

func (p *GRPCProvider) Login(ctx context.Context, username string, password []byte, classification permissions.Classification) (Tokens, error) {
	req := &idpb.LoginRequest{Username: username, Password: password, Classification: classification.String()}

	resp, err := p.client.Login(ctx, req)
	if err != nil {
		return Tokens{}, p.mapError(err)
	}
	return Tokens{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}, nil
}

func (p *GRPCProvider) Refresh(ctx context.Context, refreshToken string) (string, error) {
	resp, err := p.client.Refresh(ctx, &idpb.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return "", p.mapError(err)
	}
	return resp.AccessToken, nil
}

func (p *GRPCProvider) Revoke(ctx context.Context, tokens Tokens) error {
	ctx = withAccessToken(ctx, tokens.AccessToken)

	if _, err := p.client.Revoke(ctx, &idpb.RevokeRequest{RefreshToken: tokens.RefreshToken}); err != nil {
		return p.mapError(err)
	}
	return nil
}

func (p *GRPCProvider) Ping(ctx context.Context) error {
	resp, err := p.client.Ping(ctx, &idpb.PingRequest{})
	if err != nil {
		return p.mapError(err)
	}
	if resp.Status != "OK" {
		return WrapError(ErrUnavailable)
	}
	return nil
}

func (p *GRPCProvider) Close() error {
	return p.conn.Close()
}

func (p *GRPCProvider) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated:
		return WrapError(fmt.Errorf("%w: %s", ErrUnauthorized, st.Message()))
	case codes.PermissionDenied:
		return WrapError(fmt.Errorf("%w: %s", ErrForbidden, st.Message()))
	case codes.AlreadyExists:
		return WrapError(ErrAlreadyExists)
	case codes.Unavailable, codes.DeadlineExceeded:
		return WrapError(ErrUnavailable)
	default:
		return WrapError(fmt.Errorf("rpc error: %w", err))
	}
}
