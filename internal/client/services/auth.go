// Package services contains application services for the satkeeper client.
// This file defines the authenticator: credential configuration, login
// against the stored record and the identity provider, session status and
// permission checks, and the headers handed to upstream API clients.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/satkeeper/internal/client/credentials"
	"github.com/dmitrijs2005/satkeeper/internal/client/idp"
	"github.com/dmitrijs2005/satkeeper/internal/client/repositories/audit"
	"github.com/dmitrijs2005/satkeeper/internal/client/sessions"
	"github.com/dmitrijs2005/satkeeper/internal/common"
	"github.com/dmitrijs2005/satkeeper/internal/logging"
	"github.com/dmitrijs2005/satkeeper/internal/permissions"
	"golang.org/x/time/rate"
)

// AuthService is the consumer-facing surface of the authentication core.
//
// Contract:
//   - StoreCredentials: replace the stored credential record.
//   - AuthenticateUser: verify against the record, log in upstream, issue a session.
//   - RefreshSession: renew the access token of the current session.
//   - Logout: revoke the current session; a no-op when there is none.
//   - Status: describe the current session, if any.
//   - ValidatePermission: check a capability against the current session.
//   - APIHeaders: bearer, classification and session headers for upstream calls.
//   - ClearStoredCredentials: delete the record; a no-op when absent.
//   - AuditTrail: most recent audit entries, newest first.
type AuthService interface {
	StoreCredentials(ctx context.Context, c credentials.Credentials) error
	AuthenticateUser(ctx context.Context, username string, password []byte) (*sessions.Session, error)
	RefreshSession(ctx context.Context) (*sessions.Session, error)
	Logout(ctx context.Context) error
	Status(ctx context.Context) Status
	ValidatePermission(ctx context.Context, permission string) bool
	APIHeaders(ctx context.Context) (http.Header, error)
	ClearStoredCredentials(ctx context.Context) error
	AuditTrail(ctx context.Context, limit int) ([]*audit.Entry, error)
}

// Status describes the current session. Only Authenticated is set when
// there is none.
type Status struct {
	Authenticated  bool
	Username       string
	Classification permissions.Classification
	SessionID      string
	ExpiresAt      time.Time
	Permissions    []string
}

// Verifier is the part of cryptox.PasswordHasher the authenticator needs.
type Verifier interface {
	Verify(ctx context.Context, password []byte, storedHash, storedSalt string) (bool, error)
}

// NewLoginLimiter returns a token bucket allowing perMinute attempts with
// the given burst. A non-positive perMinute disables throttling.
func NewLoginLimiter(perMinute, burst int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
}

type AuthOption func(*authService)

func WithAudit(r audit.Repository) AuthOption {
	return func(a *authService) { a.audit = r }
}

func WithLimiter(l *rate.Limiter) AuthOption {
	return func(a *authService) { a.limiter = l }
}

func WithLogger(l logging.Logger) AuthOption {
	return func(a *authService) { a.log = l }
}

// WithRequestTimeout bounds each identity provider call made by the
// authenticator.
func WithRequestTimeout(d time.Duration) AuthOption {
	return func(a *authService) { a.timeout = d }
}

type authService struct {
	store    credentials.Store
	hasher   Verifier
	provider idp.IdentityProvider
	sessions *sessions.Manager

	audit   audit.Repository
	limiter *rate.Limiter
	log     logging.Logger
	timeout time.Duration
}

// NewAuthService composes the authenticator. The session manager is owned by
// the caller and may be shared with other components.
func NewAuthService(store credentials.Store, hasher Verifier, provider idp.IdentityProvider, sm *sessions.Manager, opts ...AuthOption) AuthService {
	a := &authService{
		store:    store,
		hasher:   hasher,
		provider: provider,
		sessions: sm,
		log:      logging.Nop{},
		timeout:  sessions.DefaultTimeout,
	}
	for _, o := range opts {
		o(a)
	}
	a.log = a.log.With("module", "auth")
	return a
}

func (a *authService) StoreCredentials(ctx context.Context, c credentials.Credentials) error {
	if strings.TrimSpace(c.Username) == "" {
		return &common.AuthError{Kind: common.KindConfiguration, Field: "username", Err: errors.New("must not be empty")}
	}
	if !c.Classification.Valid() {
		return &common.AuthError{Kind: common.KindConfiguration, Field: "classification", Err: fmt.Errorf("unknown classification %q", c.Classification)}
	}

	rec, err := a.store.Store(ctx, c)
	if err != nil {
		return err
	}

	a.log.Info(ctx, "credentials stored", "username", rec.Username, "classification", rec.Classification)
	a.record(ctx, &audit.Entry{Event: audit.EventCredentialsStored, Username: rec.Username, Detail: string(rec.Classification)})
	return nil
}

func (a *authService) AuthenticateUser(ctx context.Context, username string, password []byte) (*sessions.Session, error) {
	s, err := a.authenticate(ctx, username, password)
	if err != nil {
		a.log.Warn(ctx, "authentication failed", "username", username, "kind", common.KindOf(err))
		a.record(ctx, &audit.Entry{Event: audit.EventLoginFailed, Username: username, Detail: failureDetail(err)})
		return nil, err
	}

	a.log.Info(ctx, "authenticated", "username", s.Username, "session_id", s.ID)
	a.record(ctx, &audit.Entry{Event: audit.EventLoginSucceeded, Username: s.Username, SessionID: s.ID, Detail: string(s.Classification)})
	return s, nil
}

func (a *authService) authenticate(ctx context.Context, username string, password []byte) (*sessions.Session, error) {
	if a.limiter != nil && !a.limiter.Allow() {
		return nil, common.ErrTooManyAttempts
	}

	rec, ok, err := a.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrNoCredentialsConfigured
	}

	// the KDF runs for a wrong username too, so both failures cost the same
	usernameOK := subtle.ConstantTimeCompare([]byte(username), []byte(rec.Username)) == 1
	passwordOK, err := a.hasher.Verify(ctx, password, rec.PasswordHash, rec.Salt)
	if err != nil {
		return nil, err
	}
	if !usernameOK {
		return nil, common.ErrInvalidUsername
	}
	if !passwordOK {
		return nil, common.ErrInvalidPassword
	}

	loginCtx, cancel := context.WithTimeout(ctx, a.timeout)
	tokens, err := a.provider.Login(loginCtx, rec.Username, password, rec.Classification)
	cancel()
	if err != nil {
		return nil, idp.WrapError(err)
	}

	if err := ctx.Err(); err != nil {
		a.discardTokens(ctx, tokens)
		return nil, err
	}

	s, err := a.sessions.New(rec.Username, rec.Classification, tokens)
	if err != nil {
		a.discardTokens(ctx, tokens)
		return nil, err
	}

	if _, err := a.store.TouchLastUsed(ctx, rec); err != nil {
		a.discardTokens(ctx, tokens)
		if common.KindOf(err) == "" {
			err = common.NewAuthError(common.KindConfiguration, err)
		}
		return nil, err
	}

	return a.sessions.Activate(s), nil
}

// discardTokens revokes tokens of a login that never became a session. It
// runs detached from ctx so a cancelled caller still releases them.
func (a *authService) discardTokens(ctx context.Context, tokens idp.Tokens) {
	revokeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	defer cancel()

	if err := a.provider.Revoke(revokeCtx, tokens); err != nil {
		a.log.Warn(ctx, "failed to revoke tokens of abandoned login", "error", err)
	}
}

func (a *authService) RefreshSession(ctx context.Context) (*sessions.Session, error) {
	cur := a.sessions.Current(ctx)
	if cur == nil {
		return nil, common.ErrNotAuthenticated
	}

	s, err := a.sessions.Refresh(ctx, cur.ID)
	if err != nil {
		return nil, err
	}

	a.record(ctx, &audit.Entry{Event: audit.EventSessionRefreshed, Username: s.Username, SessionID: s.ID})
	return s, nil
}

func (a *authService) Logout(ctx context.Context) error {
	cur := a.sessions.Current(ctx)
	if cur == nil {
		return nil
	}

	err := a.sessions.Revoke(ctx, cur.ID)
	a.record(ctx, &audit.Entry{Event: audit.EventLogout, Username: cur.Username, SessionID: cur.ID, Detail: failureDetail(err)})
	return err
}

func (a *authService) Status(ctx context.Context) Status {
	cur := a.sessions.Current(ctx)
	if cur == nil {
		return Status{}
	}
	return Status{
		Authenticated:  true,
		Username:       cur.Username,
		Classification: cur.Classification,
		SessionID:      cur.ID,
		ExpiresAt:      cur.ExpiresAt,
		Permissions:    cur.Permissions,
	}
}

func (a *authService) ValidatePermission(ctx context.Context, permission string) bool {
	cur := a.sessions.Current(ctx)
	if cur == nil {
		return false
	}
	return permissions.Allows(cur.Permissions, permission)
}

func (a *authService) APIHeaders(ctx context.Context) (http.Header, error) {
	cur := a.sessions.Current(ctx)
	if cur == nil {
		return nil, common.ErrNotAuthenticated
	}

	h := http.Header{}
	h.Set(common.AuthorizationHeaderName, "Bearer "+cur.AccessToken)
	h.Set(common.ClassificationHeaderName, cur.Classification.String())
	h.Set(common.SessionIDHeaderName, cur.ID)
	return h, nil
}

func (a *authService) ClearStoredCredentials(ctx context.Context) error {
	if err := a.store.Clear(ctx); err != nil {
		return err
	}
	a.log.Info(ctx, "credentials cleared")
	a.record(ctx, &audit.Entry{Event: audit.EventCredentialsCleared})
	return nil
}

func (a *authService) AuditTrail(ctx context.Context, limit int) ([]*audit.Entry, error) {
	if a.audit == nil {
		return nil, nil
	}
	return a.audit.List(ctx, limit)
}

// record appends e to the audit trail. Failures are logged only.
func (a *authService) record(ctx context.Context, e *audit.Entry) {
	if a.audit == nil {
		return
	}
	if err := a.audit.Append(context.WithoutCancel(ctx), e); err != nil {
		a.log.Error(ctx, "audit append failed", "event", e.Event, "error", err)
	}
}

func failureDetail(err error) string {
	if err == nil {
		return ""
	}
	if k := common.KindOf(err); k != "" {
		return string(k)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "cancelled"
	}
	return "error"
}
