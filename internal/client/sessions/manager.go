// Package sessions keeps the in-memory table of authenticated sessions.
//
// A Manager owns one table guarded by a single mutex. Sessions past their
// expiry are treated as absent by every read path and purged on detection.
// A purged id is remembered for one session lifetime so that later lookups
// report it as expired rather than unknown.
// Identity provider calls are made with the lock released and bounded by
// the manager's timeout.
package sessions

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/satkeeper/internal/client/idp"
	"github.com/dmitrijs2005/satkeeper/internal/common"
	"github.com/dmitrijs2005/satkeeper/internal/logging"
	"github.com/dmitrijs2005/satkeeper/internal/permissions"
)

const (
	// DefaultDuration is the lifetime of a session from issuance or refresh.
	DefaultDuration = 8 * time.Hour
	// DefaultTimeout bounds a single identity provider call.
	DefaultTimeout = 10 * time.Second

	idBytes = 32
)

// Session is an authenticated context derived from one successful login.
// Values handed out by the Manager are copies; mutating them has no effect
// on the table.
type Session struct {
	ID             string
	Username       string
	Classification permissions.Classification
	AccessToken    string
	RefreshToken   string
	IssuedAt       time.Time
	ExpiresAt      time.Time
	Permissions    []string
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Tokens returns the provider tokens held by the session.
func (s *Session) Tokens() idp.Tokens {
	return idp.Tokens{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken}
}

func (s *Session) clone() *Session {
	c := *s
	c.Permissions = slices.Clone(s.Permissions)
	return &c
}

// TokenProvider is the part of idp.IdentityProvider the manager calls.
type TokenProvider interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Revoke(ctx context.Context, tokens idp.Tokens) error
}

type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithDuration sets the session lifetime.
func WithDuration(d time.Duration) Option {
	return func(m *Manager) { m.duration = d }
}

// WithTimeout bounds each identity provider call.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

func WithLogger(l logging.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// Manager is the session table. The zero value is not usable; use NewManager.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	expired  map[string]time.Time // purged id -> its ExpiresAt
	current  string

	provider TokenProvider
	duration time.Duration
	timeout  time.Duration
	now      func() time.Time
	log      logging.Logger
}

func NewManager(provider TokenProvider, opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		expired:  make(map[string]time.Time),
		provider: provider,
		duration: DefaultDuration,
		timeout:  DefaultTimeout,
		now:      time.Now,
		log:      logging.Nop{},
	}
	for _, o := range opts {
		o(m)
	}
	m.log = m.log.With("module", "sessions")
	return m
}

// New builds a session for username without storing it. The id is 256 bits
// from crypto/rand and the permissions come from the catalog.
func (m *Manager) New(username string, classification permissions.Classification, tokens idp.Tokens) (*Session, error) {
	id, err := common.MakeRandHexString(idBytes)
	if err != nil {
		return nil, err
	}

	now := m.now()
	return &Session{
		ID:             id,
		Username:       username,
		Classification: classification,
		AccessToken:    tokens.AccessToken,
		RefreshToken:   tokens.RefreshToken,
		IssuedAt:       now,
		ExpiresAt:      now.Add(m.duration),
		Permissions:    permissions.ForClassification(classification),
	}, nil
}

// Activate stores s and makes it the current session.
func (m *Manager) Activate(s *Session) *Session {
	stored := s.clone()

	m.mu.Lock()
	m.sessions[stored.ID] = stored
	m.current = stored.ID
	m.mu.Unlock()

	return stored.clone()
}

// Issue creates, stores and activates a new session.
func (m *Manager) Issue(username string, classification permissions.Classification, tokens idp.Tokens) (*Session, error) {
	s, err := m.New(username, classification, tokens)
	if err != nil {
		return nil, err
	}
	return m.Activate(s), nil
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.lookupLocked(id)
	if err != nil {
		return nil, err
	}
	return s.clone(), nil
}

// lookupLocked finds id and purges it when expired. Ids purged for expiry
// keep yielding ErrSessionExpired. m.mu must be held.
func (m *Manager) lookupLocked(id string) (*Session, error) {
	now := m.now()
	s, ok := m.sessions[id]
	if !ok {
		if m.tombstonedLocked(id, now) {
			return nil, common.ErrSessionExpired
		}
		return nil, common.ErrSessionNotFound
	}
	if s.Expired(now) {
		m.expireLocked(s, now)
		return nil, common.ErrSessionExpired
	}
	return s, nil
}

func (m *Manager) removeLocked(id string) {
	delete(m.sessions, id)
	if m.current == id {
		m.current = ""
	}
}

// expireLocked purges s and records its id as expired. Records older than
// one session lifetime past their expiry are dropped on the way.
func (m *Manager) expireLocked(s *Session, now time.Time) {
	m.removeLocked(s.ID)
	for id, at := range m.expired {
		if now.Sub(at) > m.duration {
			delete(m.expired, id)
		}
	}
	m.expired[s.ID] = s.ExpiresAt
}

func (m *Manager) tombstonedLocked(id string, now time.Time) bool {
	at, ok := m.expired[id]
	if !ok {
		return false
	}
	if now.Sub(at) > m.duration {
		delete(m.expired, id)
		return false
	}
	return true
}

// Refresh obtains a new access token for the session and extends its expiry.
// The id and refresh token stay the same.
func (m *Manager) Refresh(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	s, err := m.lookupLocked(id)
	if err != nil {
		m.mu.Unlock()
		if common.KindOf(err) == common.KindSessionExpired {
			m.log.Info(ctx, "session expired", "session_id", id)
		}
		return nil, err
	}
	refreshToken := s.RefreshToken
	m.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	accessToken, err := m.provider.Refresh(callCtx, refreshToken)
	cancel()
	if err != nil {
		return nil, idp.WrapError(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// the session may have been revoked or have expired while the provider
	// was answering
	s, err = m.lookupLocked(id)
	if err != nil {
		return nil, err
	}
	s.AccessToken = accessToken
	s.ExpiresAt = m.now().Add(m.duration)

	m.log.Info(ctx, "session refreshed", "session_id", id)
	return s.clone(), nil
}

// Current returns the current session, or nil when there is none. An expired
// current session is revoked and nil is returned.
func (m *Manager) Current(ctx context.Context) *Session {
	m.mu.Lock()
	if m.current == "" {
		m.mu.Unlock()
		return nil
	}
	s := m.sessions[m.current]
	if s == nil {
		m.current = ""
		m.mu.Unlock()
		return nil
	}
	if now := m.now(); s.Expired(now) {
		m.expireLocked(s, now)
		m.mu.Unlock()

		m.log.Info(ctx, "current session expired", "session_id", s.ID)
		_ = m.notifyRevoke(ctx, s)
		return nil
	}
	out := s.clone()
	m.mu.Unlock()
	return out
}

// Revoke removes the session with the given id, or the current session when
// id is empty, and asks the identity provider to invalidate its tokens.
// Revoking an absent session is a no-op. The local entry is removed even when
// the provider call fails; the provider error is returned.
func (m *Manager) Revoke(ctx context.Context, id string) error {
	m.mu.Lock()
	if id == "" {
		id = m.current
	}
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return nil
	}
	m.removeLocked(id)
	delete(m.expired, id)
	m.mu.Unlock()

	m.log.Info(ctx, "session revoked", "session_id", id)
	return m.notifyRevoke(ctx, s)
}

func (m *Manager) notifyRevoke(ctx context.Context, s *Session) error {
	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.provider.Revoke(callCtx, s.Tokens()); err != nil {
		m.log.Warn(ctx, "token revocation failed", "session_id", s.ID, "error", err)
		return idp.WrapError(err)
	}
	return nil
}

// Len returns the number of sessions in the table, expired ones included.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
