package credentials

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/dmitrijs2005/satkeeper/internal/common"
	"github.com/dmitrijs2005/satkeeper/internal/cryptox"
	"github.com/dmitrijs2005/satkeeper/internal/permissions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testParams = cryptox.Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 32}

func newTestStore(t *testing.T) (*FileStore, *cryptox.PasswordHasher) {
	t.Helper()
	h := cryptox.NewPasswordHasher(testParams, 1)
	dir := filepath.Join(t.TempDir(), "state")
	return NewFileStore(dir, h), h
}

type failingHasher struct{ err error }

func (f failingHasher) Hash(context.Context, []byte, []byte) (string, string, error) {
	return "", "", f.err
}

func TestLoad_EmptyStore_IsNotAnError(t *testing.T) {
	s, _ := newTestStore(t)

	rec, ok, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, rec)
}

func TestStore_WritesRecordThatVerifies(t *testing.T) {
	s, h := newTestStore(t)
	ctx := context.Background()

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	stored, err := s.Store(ctx, Credentials{
		Username:       "alice",
		Password:       []byte("secretpw"),
		Classification: permissions.Unclassified,
	})
	require.NoError(t, err)
	assert.Equal(t, common.DefaultAPIEndpoint, stored.APIEndpoint)
	assert.Equal(t, fixed, stored.CreatedAt)
	assert.Nil(t, stored.LastUsed)

	loaded, ok, err := s.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, stored, loaded)

	valid, err := h.Verify(ctx, []byte("secretpw"), loaded.PasswordHash, loaded.Salt)
	require.NoError(t, err)
	assert.True(t, valid)

	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secretpw")
}

func TestStore_Permissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix permissions only")
	}
	s, _ := newTestStore(t)

	_, err := s.Store(context.Background(), Credentials{Username: "u", Password: []byte("p"), Classification: permissions.CUI})
	require.NoError(t, err)

	di, err := os.Stat(filepath.Dir(s.Path()))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), di.Mode().Perm())

	fi, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
}

func TestStore_OverwritesWithFreshSalt(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	first, err := s.Store(ctx, Credentials{Username: "alice", Password: []byte("pw"), Classification: permissions.Secret})
	require.NoError(t, err)
	second, err := s.Store(ctx, Credentials{Username: "bob", Password: []byte("pw"), Classification: permissions.CUI, APIEndpoint: "https://example.test"})
	require.NoError(t, err)

	assert.NotEqual(t, first.Salt, second.Salt)
	assert.NotEqual(t, first.PasswordHash, second.PasswordHash)

	loaded, ok, err := s.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "bob", loaded.Username)
	assert.Equal(t, permissions.CUI, loaded.Classification)
	assert.Equal(t, "https://example.test", loaded.APIEndpoint)
}

func TestStore_HashErrorLeavesPreviousRecord(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Store(ctx, Credentials{Username: "alice", Password: []byte("pw"), Classification: permissions.CUI})
	require.NoError(t, err)

	broken := NewFileStore(filepath.Dir(s.Path()), failingHasher{err: errors.New("boom")})
	_, err = broken.Store(ctx, Credentials{Username: "mallory", Password: []byte("x")})
	require.Error(t, err)

	loaded, ok, err := s.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alice", loaded.Username)
}

func TestTouchLastUsed_RewritesOnlyLastUsed(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return created }
	rec, err := s.Store(ctx, Credentials{Username: "alice", Password: []byte("pw"), Classification: permissions.CUI})
	require.NoError(t, err)

	used := created.Add(time.Hour)
	s.now = func() time.Time { return used }
	touched, err := s.TouchLastUsed(ctx, rec)
	require.NoError(t, err)
	require.NotNil(t, touched.LastUsed)
	assert.Equal(t, used, *touched.LastUsed)
	assert.Nil(t, rec.LastUsed, "input record must not be mutated")

	loaded, _, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, created, loaded.CreatedAt)
	assert.Equal(t, rec.PasswordHash, loaded.PasswordHash)
	assert.Equal(t, rec.Salt, loaded.Salt)
	require.NotNil(t, loaded.LastUsed)
	assert.Equal(t, used, *loaded.LastUsed)
}

func TestClear_Idempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Clear(ctx))

	_, err := s.Store(ctx, Credentials{Username: "alice", Password: []byte("pw"), Classification: permissions.CUI})
	require.NoError(t, err)

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))

	_, ok, err := s.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoad_MalformedFile(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o700))
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o600))

	_, _, err := s.Load(context.Background())
	require.ErrorIs(t, err, common.ErrMalformedStoreData)
}

func TestLoad_IOErrorIsReported(t *testing.T) {
	s, _ := newTestStore(t)
	// a directory where the record file should be makes ReadFile fail
	require.NoError(t, os.MkdirAll(s.Path(), 0o700))

	_, _, err := s.Load(context.Background())
	require.ErrorIs(t, err, common.ErrConfiguration)
}

func TestStore_DirectoryCreationFailure(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	s := NewFileStore(filepath.Join(blocker, "state"), cryptox.NewPasswordHasher(testParams, 1))
	_, err := s.Store(context.Background(), Credentials{Username: "u", Password: []byte("p")})
	require.ErrorIs(t, err, common.ErrConfiguration)
}
