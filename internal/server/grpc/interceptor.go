package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/satkeeper/internal/common"
	"github.com/dmitrijs2005/satkeeper/internal/idpb"
	"github.com/dmitrijs2005/satkeeper/internal/server/auth"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// protectedMethods require a validly signed, unrevoked access token. The
// value tells whether an expired one is accepted.
var protectedMethods = map[string]bool{
	idpb.FullMethodRevoke: true,
}

func claimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*auth.Claims)
	return c, ok
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	allowExpired, ok := protectedMethods[info.FullMethod]
	if !ok {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AccessTokenHeaderName)
		if len(values) > 0 {
			accessToken = values[0]
		}
	}
	if len(accessToken) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	authenticate := s.identity.Authenticate
	if allowExpired {
		authenticate = s.identity.AuthenticateAllowExpired
	}

	claims, err := authenticate(ctx, accessToken)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrTokenExpired):
			return nil, status.Error(codes.Unauthenticated, "token expired")
		case errors.Is(err, common.ErrTokenRevoked):
			return nil, status.Error(codes.Unauthenticated, "token revoked")
		case errors.Is(err, common.ErrInvalidToken):
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		default:
			s.logger.Error(ctx, "token check failed", "error", err)
			return nil, status.Error(codes.Internal, "internal error")
		}
	}

	return handler(context.WithValue(ctx, claimsKey, claims), req)
}

func (s *GRPCServer) requestLogInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	requestID := uuid.NewString()

	resp, err := handler(ctx, req)

	s.logger.Debug(ctx, "request",
		"request_id", requestID,
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start),
	)
	return resp, err
}
