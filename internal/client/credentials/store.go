// Package credentials persists the single credential record of a satkeeper
// installation: username, Argon2id hash and salt, classification tier and
// upstream endpoint.
//
// The record lives in one JSON file inside an owner-only directory. Every
// write replaces the whole file atomically, so readers observe either the
// previous or the next record and never a mix of both.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/satkeeper/internal/common"
	"github.com/dmitrijs2005/satkeeper/internal/filex"
	"github.com/dmitrijs2005/satkeeper/internal/permissions"
)

// FileName is the name of the record file inside the store directory.
const FileName = "credentials.json"

// Credentials is the plaintext input of Store.
type Credentials struct {
	Username       string
	Password       []byte
	Classification permissions.Classification
	APIEndpoint    string
}

// Record is the persisted form. It never contains the plaintext password.
type Record struct {
	Username       string                     `json:"username"`
	PasswordHash   string                     `json:"password_hash"`
	Salt           string                     `json:"salt"`
	Classification permissions.Classification `json:"classification"`
	APIEndpoint    string                     `json:"api_endpoint"`
	CreatedAt      time.Time                  `json:"created_at"`
	LastUsed       *time.Time                 `json:"last_used,omitempty"`
}

// Hasher is the part of cryptox.PasswordHasher the store needs.
type Hasher interface {
	Hash(ctx context.Context, password []byte, salt []byte) (hashHex, saltHex string, err error)
}

// Store is the contract of the credential store.
//
//   - Store: hash the password with a fresh salt and replace any existing record.
//   - Load: return the record; ok is false when none has been stored yet.
//   - TouchLastUsed: rewrite the record with LastUsed set to now.
//   - Clear: remove the record; a missing record is not an error.
type Store interface {
	Store(ctx context.Context, c Credentials) (*Record, error)
	Load(ctx context.Context) (rec *Record, ok bool, err error)
	TouchLastUsed(ctx context.Context, rec *Record) (*Record, error)
	Clear(ctx context.Context) error
}

// FileStore is the JSON file implementation of Store.
type FileStore struct {
	dir    string
	hasher Hasher
	now    func() time.Time
}

// NewFileStore returns a store rooted at dir. The directory is created lazily
// on the first write.
func NewFileStore(dir string, hasher Hasher) *FileStore {
	return &FileStore{dir: dir, hasher: hasher, now: time.Now}
}

// Path returns the location of the record file.
func (s *FileStore) Path() string {
	return filepath.Join(s.dir, FileName)
}

// Store computes a fresh salt and hash for c.Password and writes the full
// record, irrecoverably replacing the previous one.
func (s *FileStore) Store(ctx context.Context, c Credentials) (*Record, error) {
	hash, salt, err := s.hasher.Hash(ctx, c.Password, nil)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	endpoint := c.APIEndpoint
	if endpoint == "" {
		endpoint = common.DefaultAPIEndpoint
	}

	rec := &Record{
		Username:       c.Username,
		PasswordHash:   hash,
		Salt:           salt,
		Classification: c.Classification,
		APIEndpoint:    endpoint,
		CreatedAt:      s.now().UTC(),
	}

	if err := s.write(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Load reads the record file.
func (s *FileStore) Load(ctx context.Context) (*Record, bool, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, common.NewAuthError(common.KindConfiguration, fmt.Errorf("read %s: %w", s.Path(), err))
	}

	rec := &Record{}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, false, &common.AuthError{Kind: common.KindMalformedStoreData, Field: FileName, Err: err}
	}
	return rec, true, nil
}

// TouchLastUsed rewrites rec with LastUsed set to the current time. rec is
// not modified; the updated copy is returned.
func (s *FileStore) TouchLastUsed(ctx context.Context, rec *Record) (*Record, error) {
	updated := *rec
	now := s.now().UTC()
	updated.LastUsed = &now

	if err := s.write(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Clear deletes the record file.
func (s *FileStore) Clear(ctx context.Context) error {
	err := os.Remove(s.Path())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return common.NewAuthError(common.KindConfiguration, fmt.Errorf("remove %s: %w", s.Path(), err))
	}
	return nil
}

func (s *FileStore) write(rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return common.NewAuthError(common.KindConfiguration, fmt.Errorf("encode record: %w", err))
	}

	if _, err := filex.EnsurePrivateDir(s.dir); err != nil {
		return common.NewAuthError(common.KindConfiguration, err)
	}

	if err := filex.WriteFileAtomic(s.Path(), data, filex.PrivateFilePerm); err != nil {
		return common.NewAuthError(common.KindConfiguration, err)
	}
	return nil
}
