// Package services contains the identity provider's business logic:
// account registration, login, access token refresh and revocation.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/satkeeper/internal/common"
	"github.com/dmitrijs2005/satkeeper/internal/dbx"
	"github.com/dmitrijs2005/satkeeper/internal/logging"
	"github.com/dmitrijs2005/satkeeper/internal/permissions"
	"github.com/dmitrijs2005/satkeeper/internal/server/auth"
	"github.com/dmitrijs2005/satkeeper/internal/server/config"
	"github.com/dmitrijs2005/satkeeper/internal/server/models"
	"github.com/dmitrijs2005/satkeeper/internal/server/repositories/repomanager"
)

// refreshTokenBytes is the entropy of an opaque refresh token.
const refreshTokenBytes = 32

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// PasswordHasher derives and verifies hex-encoded password hashes.
type PasswordHasher interface {
	Hash(ctx context.Context, password []byte, salt []byte) (hashHex, saltHex string, err error)
	Verify(ctx context.Context, password []byte, storedHash, storedSalt string) (bool, error)
}

// IdentityService issues and revokes tokens for registered users.
type IdentityService struct {
	repomanager                  repomanager.RepositoryManager
	hasher                       PasswordHasher
	logger                       logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	now                          func() time.Time

	dummyOnce sync.Once
	dummyHash string
	dummySalt string
	dummyErr  error
}

// NewIdentityService constructs an IdentityService using repositories and server config.
func NewIdentityService(m repomanager.RepositoryManager, h PasswordHasher, cfg *config.Config, l logging.Logger) *IdentityService {
	return &IdentityService{
		repomanager:                  m,
		hasher:                       h,
		logger:                       l.With("module", "identity_service"),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		now:                          time.Now,
	}
}

// Register creates a user. An empty clearance means unclassified.
func (s *IdentityService) Register(ctx context.Context, username string, password []byte, clearance string) (*models.User, error) {
	if username == "" || len(password) == 0 {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrorInvalidInput)
	}
	level, err := parseLevel(clearance)
	if err != nil {
		return nil, err
	}

	hash, salt, err := s.hasher.Hash(ctx, password, nil)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{UserName: username, PasswordHash: hash, Salt: salt, Clearance: level.String()}
	u, err := s.repomanager.Users(s.repomanager.Conn()).Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", u.ID, "clearance", u.Clearance)
	return u, nil
}

// Login verifies the password and returns a new TokenPair scoped to
// classification, which must not exceed the user's clearance. The key
// derivation runs even for unknown users.
func (s *IdentityService) Login(ctx context.Context, username string, password []byte, classification string) (*TokenPair, error) {
	level, err := parseLevel(classification)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.repomanager.Conn()).GetUserByLogin(ctx, username)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
		s.burnVerify(ctx, password)
		return nil, common.ErrorUnauthorized
	}

	ok, err := s.hasher.Verify(ctx, password, user.PasswordHash, user.Salt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	clearance, err := permissions.ParseClassification(user.Clearance)
	if err != nil {
		return nil, fmt.Errorf("%w: stored clearance: %v", common.ErrorInternal, err)
	}
	if !clearance.Dominates(level) {
		return nil, common.ErrorForbidden
	}

	pair, err := s.generateTokenPair(ctx, user.ID, level)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "login", "user_id", user.ID, "classification", level.String())
	return pair, nil
}

// Refresh mints a new access token for a stored refresh token. The refresh
// token keeps its value but its expiry slides to one refresh token lifetime
// from now. Expired tokens are deleted and yield common.ErrRefreshTokenExpired.
func (s *IdentityService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	repo := s.repomanager.RefreshTokens(s.repomanager.Conn())

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	now := s.now()
	if !now.Before(token.Expires) {
		if err := repo.Delete(ctx, refreshToken); err != nil {
			s.logger.Warn(ctx, "failed to delete expired refresh token", "error", err)
		}
		return "", common.ErrRefreshTokenExpired
	}

	level, err := permissions.ParseClassification(token.Classification)
	if err != nil {
		return "", fmt.Errorf("%w: stored classification: %v", common.ErrorInternal, err)
	}

	if err := repo.Extend(ctx, refreshToken, now.Add(s.refreshTokenValidityDuration)); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	access, _, err := auth.GenerateToken(token.UserID, level, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return access, nil
}

// Revoke deletes refreshToken and blacklists the presenting access token in
// one transaction. access may be past its expiry; it only has to carry a
// valid signature. A refresh token owned by another user is rejected with
// common.ErrorForbidden; an unknown one is ignored.
func (s *IdentityService) Revoke(ctx context.Context, refreshToken string, access *auth.Claims) error {
	err := s.repomanager.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		refreshRepo := s.repomanager.RefreshTokens(tx)

		token, err := refreshRepo.Find(ctx, refreshToken)
		switch {
		case errors.Is(err, common.ErrorNotFound):
		case err != nil:
			return fmt.Errorf("%w: %v", common.ErrorInternal, err)
		case token.UserID != access.Subject:
			return common.ErrorForbidden
		default:
			if err := refreshRepo.Delete(ctx, refreshToken); err != nil {
				return fmt.Errorf("%w: %v", common.ErrorInternal, err)
			}
		}

		if err := s.repomanager.Revocations(tx).Create(ctx, access.ID, access.ExpiresAt.Time); err != nil {
			return fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "tokens revoked", "user_id", access.Subject)
	return nil
}

// Authenticate validates an access token and checks it has not been revoked.
func (s *IdentityService) Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error) {
	return s.authenticate(ctx, accessToken, auth.ParseToken)
}

// AuthenticateAllowExpired is Authenticate without the expiry check. It
// authorizes Revoke, so a session can be closed after its access token ran out.
func (s *IdentityService) AuthenticateAllowExpired(ctx context.Context, accessToken string) (*auth.Claims, error) {
	return s.authenticate(ctx, accessToken, auth.ParseTokenAllowExpired)
}

func (s *IdentityService) authenticate(ctx context.Context, accessToken string, parse func(string, []byte) (*auth.Claims, error)) (*auth.Claims, error) {
	claims, err := parse(accessToken, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	revoked, err := s.repomanager.Revocations(s.repomanager.Conn()).IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if revoked {
		return nil, common.ErrTokenRevoked
	}
	return claims, nil
}

// PurgeExpired drops expired refresh tokens and revocation records.
func (s *IdentityService) PurgeExpired(ctx context.Context) error {
	now := s.now()
	conn := s.repomanager.Conn()

	refreshed, err := s.repomanager.RefreshTokens(conn).DeleteExpired(ctx, now)
	if err != nil {
		return err
	}
	revoked, err := s.repomanager.Revocations(conn).DeleteExpired(ctx, now)
	if err != nil {
		return err
	}

	if refreshed > 0 || revoked > 0 {
		s.logger.Debug(ctx, "purged expired tokens", "refresh_tokens", refreshed, "revocations", revoked)
	}
	return nil
}

// --- helpers below ---

func parseLevel(s string) (permissions.Classification, error) {
	if s == "" {
		return permissions.Unclassified, nil
	}
	level, err := permissions.ParseClassification(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorInvalidInput, err)
	}
	return level, nil
}

// burnVerify runs one verification against a throwaway hash so a missing
// user costs the same as a wrong password.
func (s *IdentityService) burnVerify(ctx context.Context, password []byte) {
	s.dummyOnce.Do(func() {
		secret, err := common.GenerateRandByteArray(refreshTokenBytes)
		if err != nil {
			s.dummyErr = err
			return
		}
		s.dummyHash, s.dummySalt, s.dummyErr = s.hasher.Hash(ctx, secret, nil)
	})
	if s.dummyErr != nil {
		return
	}
	_, _ = s.hasher.Verify(ctx, password, s.dummyHash, s.dummySalt)
}

func (s *IdentityService) generateTokenPair(ctx context.Context, userID string, level permissions.Classification) (*TokenPair, error) {
	access, _, err := auth.GenerateToken(userID, level, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	refresh, err := common.MakeRandHexString(refreshTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	err = s.repomanager.RefreshTokens(s.repomanager.Conn()).Create(ctx, &models.RefreshToken{
		UserID:         userID,
		Token:          refresh,
		Classification: level.String(),
		Expires:        s.now().Add(s.refreshTokenValidityDuration),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
