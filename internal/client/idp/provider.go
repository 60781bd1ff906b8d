// Package idp is the client side of the identity provider: the interface the
// authentication core talks to and its gRPC implementation.
package idp

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/satkeeper/internal/common"
	"github.com/dmitrijs2005/satkeeper/internal/permissions"
)

var (
	ErrUnavailable   = errors.New("identity provider unavailable")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrAlreadyExists = errors.New("already exists")
)

// Tokens are the bearer and refresh tokens returned by a successful login.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// IdentityProvider issues and revokes the tokens a session carries.
//
// Contract:
//   - Login: authenticate the user upstream; tokens are scoped by classification.
//   - Refresh: exchange a refresh token for a new access token.
//   - Revoke: invalidate both tokens.
//   - Ping: liveness probe.
type IdentityProvider interface {
	Login(ctx context.Context, username string, password []byte, classification permissions.Classification) (Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Revoke(ctx context.Context, tokens Tokens) error
	Ping(ctx context.Context) error
}

// WrapError tags a provider failure as an identity provider AuthError,
// keeping err in the chain. Errors that already carry a kind pass through.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	if common.KindOf(err) != "" {
		return err
	}
	return common.NewAuthError(common.KindIdentityProvider, err)
}
