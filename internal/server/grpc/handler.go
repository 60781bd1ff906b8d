package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/satkeeper/internal/common"
	"github.com/dmitrijs2005/satkeeper/internal/idpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Register(ctx context.Context, req *idpb.RegisterRequest) (*idpb.RegisterResponse, error) {
	s.logger.Info(ctx, "Registration request", "username", req.Username)

	user, err := s.identity.Register(ctx, req.Username, req.Password, req.Clearance)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &idpb.RegisterResponse{UserID: user.ID}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *idpb.LoginRequest) (*idpb.LoginResponse, error) {
	tokens, err := s.identity.Login(ctx, req.Username, req.Password, req.Classification)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &idpb.LoginResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) Refresh(ctx context.Context, req *idpb.RefreshRequest) (*idpb.RefreshResponse, error) {
	access, err := s.identity.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &idpb.RefreshResponse{AccessToken: access}, nil
}

func (s *GRPCServer) Revoke(ctx context.Context, req *idpb.RevokeRequest) (*idpb.RevokeResponse, error) {
	claims, ok := claimsFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	if err := s.identity.Revoke(ctx, req.RefreshToken, claims); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &idpb.RevokeResponse{}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *idpb.PingRequest) (*idpb.PingResponse, error) {
	return &idpb.PingResponse{Status: "OK"}, nil
}

// toStatus maps service errors to gRPC status errors. Unexpected errors are
// logged and reported as Internal without detail.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, common.ErrRefreshTokenExpired):
		return status.Error(codes.Unauthenticated, "refresh token expired")
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, common.ErrorForbidden):
		return status.Error(codes.PermissionDenied, "forbidden")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		s.logger.Error(ctx, "request failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}
