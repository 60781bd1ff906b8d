package sessions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/satkeeper/internal/client/idp"
	"github.com/dmitrijs2005/satkeeper/internal/common"
	"github.com/dmitrijs2005/satkeeper/internal/permissions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeProvider struct {
	mu sync.Mutex

	refreshToken string
	refreshErr   error
	refreshHook  func()
	refreshCalls []string

	revokeErr   error
	revokeCalls []idp.Tokens
}

func (f *fakeProvider) Refresh(ctx context.Context, refreshToken string) (string, error) {
	f.mu.Lock()
	f.refreshCalls = append(f.refreshCalls, refreshToken)
	hook := f.refreshHook
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return f.refreshToken, f.refreshErr
}

func (f *fakeProvider) Revoke(ctx context.Context, tokens idp.Tokens) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revokeCalls = append(f.revokeCalls, tokens)
	return f.revokeErr
}

func (f *fakeProvider) revoked() []idp.Tokens {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]idp.Tokens(nil), f.revokeCalls...)
}

func newTestManager() (*Manager, *fakeProvider, *fakeClock) {
	p := &fakeProvider{refreshToken: "A2"}
	c := newClock()
	return NewManager(p, WithClock(c.Now)), p, c
}

var aliceTokens = idp.Tokens{AccessToken: "A1", RefreshToken: "R1"}

func TestIssue_PopulatesSession(t *testing.T) {
	m, _, c := newTestManager()

	s, err := m.Issue("alice", permissions.CUI, aliceTokens)
	require.NoError(t, err)

	assert.Len(t, s.ID, 2*idBytes)
	assert.Equal(t, "alice", s.Username)
	assert.Equal(t, permissions.CUI, s.Classification)
	assert.Equal(t, "A1", s.AccessToken)
	assert.Equal(t, "R1", s.RefreshToken)
	assert.Equal(t, c.Now(), s.IssuedAt)
	assert.Equal(t, c.Now().Add(DefaultDuration), s.ExpiresAt)
	assert.Equal(t, permissions.ForClassification(permissions.CUI), s.Permissions)

	cur := m.Current(context.Background())
	require.NotNil(t, cur)
	assert.Equal(t, s.ID, cur.ID)
}

func TestIssue_UniqueIDsAndSingleCurrent(t *testing.T) {
	m, _, _ := newTestManager()

	seen := map[string]bool{}
	var last *Session
	for i := 0; i < 50; i++ {
		s, err := m.Issue("alice", permissions.Unclassified, aliceTokens)
		require.NoError(t, err)
		require.False(t, seen[s.ID], "duplicate session id")
		seen[s.ID] = true
		last = s
	}

	assert.Equal(t, 50, m.Len())
	assert.Equal(t, last.ID, m.Current(context.Background()).ID)
}

func TestNew_IsInvisibleUntilActivated(t *testing.T) {
	m, _, _ := newTestManager()

	s, err := m.New("alice", permissions.Secret, aliceTokens)
	require.NoError(t, err)
	assert.Nil(t, m.Current(context.Background()))
	_, err = m.Get(s.ID)
	require.ErrorIs(t, err, common.ErrSessionNotFound)

	m.Activate(s)
	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
}

func TestReturnedSessionsAreCopies(t *testing.T) {
	m, _, _ := newTestManager()

	s, err := m.Issue("alice", permissions.Unclassified, aliceTokens)
	require.NoError(t, err)
	s.Permissions[0] = "*"
	s.AccessToken = "tampered"

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, "catalog:read", got.Permissions[0])
	assert.Equal(t, "A1", got.AccessToken)
}

func TestCurrent_ExpiredIsPurgedAndRevoked(t *testing.T) {
	m, p, c := newTestManager()
	ctx := context.Background()

	s, err := m.Issue("alice", permissions.Unclassified, aliceTokens)
	require.NoError(t, err)

	c.Advance(DefaultDuration)
	require.NotNil(t, m.Current(ctx), "expiry is exclusive at the boundary")

	c.Advance(time.Second)
	assert.Nil(t, m.Current(ctx))
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, []idp.Tokens{aliceTokens}, p.revoked())

	_, err = m.Refresh(ctx, s.ID)
	require.ErrorIs(t, err, common.ErrSessionExpired)
	_, err = m.Get(s.ID)
	require.ErrorIs(t, err, common.ErrSessionExpired)
	assert.Empty(t, p.refreshCalls)
}

func TestExpiredIDIsForgottenAfterOneLifetime(t *testing.T) {
	m, _, c := newTestManager()
	ctx := context.Background()

	s, err := m.Issue("alice", permissions.Unclassified, aliceTokens)
	require.NoError(t, err)

	c.Advance(DefaultDuration + time.Second)
	require.Nil(t, m.Current(ctx))

	c.Advance(DefaultDuration - time.Second)
	_, err = m.Get(s.ID)
	require.ErrorIs(t, err, common.ErrSessionExpired)

	c.Advance(time.Second)
	_, err = m.Get(s.ID)
	require.ErrorIs(t, err, common.ErrSessionNotFound)
}

func TestRefresh_ExtendsExpiryAndKeepsRefreshToken(t *testing.T) {
	m, p, c := newTestManager()
	ctx := context.Background()

	s, err := m.Issue("alice", permissions.CUI, aliceTokens)
	require.NoError(t, err)

	c.Advance(2 * time.Hour)
	r, err := m.Refresh(ctx, s.ID)
	require.NoError(t, err)

	assert.Equal(t, s.ID, r.ID)
	assert.Equal(t, "A2", r.AccessToken)
	assert.Equal(t, "R1", r.RefreshToken)
	assert.Equal(t, c.Now().Add(DefaultDuration), r.ExpiresAt)
	assert.Equal(t, s.IssuedAt, r.IssuedAt)
	assert.Equal(t, s.Permissions, r.Permissions)
	assert.Equal(t, []string{"R1"}, p.refreshCalls)
}

func TestRefresh_Errors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		m, _, _ := newTestManager()
		_, err := m.Refresh(context.Background(), "nope")
		require.ErrorIs(t, err, common.ErrSessionNotFound)
	})

	t.Run("expired", func(t *testing.T) {
		m, p, c := newTestManager()
		s, err := m.Issue("alice", permissions.CUI, aliceTokens)
		require.NoError(t, err)

		c.Advance(DefaultDuration + time.Minute)
		_, err = m.Refresh(context.Background(), s.ID)
		require.ErrorIs(t, err, common.ErrSessionExpired)
		assert.Empty(t, p.refreshCalls)
		assert.Equal(t, 0, m.Len())
		assert.Nil(t, m.Current(context.Background()))
	})

	t.Run("provider failure", func(t *testing.T) {
		m, p, _ := newTestManager()
		boom := errors.New("boom")
		p.refreshErr = boom

		s, err := m.Issue("alice", permissions.CUI, aliceTokens)
		require.NoError(t, err)

		_, err = m.Refresh(context.Background(), s.ID)
		require.ErrorIs(t, err, common.ErrIdentityProvider)
		require.ErrorIs(t, err, boom)

		got, err := m.Get(s.ID)
		require.NoError(t, err)
		assert.Equal(t, "A1", got.AccessToken)
	})

	t.Run("revoked while refreshing", func(t *testing.T) {
		m, p, _ := newTestManager()
		s, err := m.Issue("alice", permissions.CUI, aliceTokens)
		require.NoError(t, err)

		p.refreshHook = func() { require.NoError(t, m.Revoke(context.Background(), s.ID)) }

		_, err = m.Refresh(context.Background(), s.ID)
		require.ErrorIs(t, err, common.ErrSessionNotFound)
		assert.Equal(t, 0, m.Len())
	})

	t.Run("expired while refreshing", func(t *testing.T) {
		m, p, c := newTestManager()
		s, err := m.Issue("alice", permissions.CUI, aliceTokens)
		require.NoError(t, err)

		c.Advance(DefaultDuration - time.Second)
		p.refreshHook = func() { c.Advance(2 * time.Second) }

		_, err = m.Refresh(context.Background(), s.ID)
		require.ErrorIs(t, err, common.ErrSessionExpired)
		assert.Equal(t, 0, m.Len())
		assert.Nil(t, m.Current(context.Background()))
	})
}

func TestRevoke(t *testing.T) {
	t.Run("defaults to current", func(t *testing.T) {
		m, p, _ := newTestManager()
		_, err := m.Issue("alice", permissions.CUI, aliceTokens)
		require.NoError(t, err)

		require.NoError(t, m.Revoke(context.Background(), ""))
		assert.Nil(t, m.Current(context.Background()))
		assert.Equal(t, []idp.Tokens{aliceTokens}, p.revoked())
	})

	t.Run("absent is a no-op", func(t *testing.T) {
		m, p, _ := newTestManager()
		require.NoError(t, m.Revoke(context.Background(), ""))
		require.NoError(t, m.Revoke(context.Background(), "missing"))
		assert.Empty(t, p.revoked())
	})

	t.Run("non-current keeps current", func(t *testing.T) {
		m, _, _ := newTestManager()
		first, err := m.Issue("alice", permissions.CUI, aliceTokens)
		require.NoError(t, err)
		second, err := m.Issue("alice", permissions.CUI, idp.Tokens{AccessToken: "B1", RefreshToken: "S1"})
		require.NoError(t, err)

		require.NoError(t, m.Revoke(context.Background(), first.ID))
		cur := m.Current(context.Background())
		require.NotNil(t, cur)
		assert.Equal(t, second.ID, cur.ID)
	})

	t.Run("provider failure still removes locally", func(t *testing.T) {
		m, p, _ := newTestManager()
		p.revokeErr = errors.New("offline")
		s, err := m.Issue("alice", permissions.CUI, aliceTokens)
		require.NoError(t, err)

		err = m.Revoke(context.Background(), s.ID)
		require.ErrorIs(t, err, common.ErrIdentityProvider)
		_, err = m.Get(s.ID)
		require.ErrorIs(t, err, common.ErrSessionNotFound)
	})
}

func TestRevoke_UsesTimeout(t *testing.T) {
	p := &blockingProvider{}
	m := NewManager(p, WithTimeout(20*time.Millisecond))

	_, err := m.Issue("alice", permissions.CUI, aliceTokens)
	require.NoError(t, err)

	err = m.Revoke(context.Background(), "")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.ErrorIs(t, err, common.ErrIdentityProvider)
}

type blockingProvider struct{}

func (blockingProvider) Refresh(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (blockingProvider) Revoke(ctx context.Context, _ idp.Tokens) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestConcurrentAccess(t *testing.T) {
	m, _, _ := newTestManager()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := m.Issue("alice", permissions.CUI, aliceTokens)
			if !assert.NoError(t, err) {
				return
			}
			_, _ = m.Refresh(ctx, s.ID)
			_ = m.Current(ctx)
			assert.NoError(t, m.Revoke(ctx, s.ID))
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, m.Len())
	assert.Nil(t, m.Current(ctx))
}
