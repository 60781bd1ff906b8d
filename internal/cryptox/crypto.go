// Package cryptox implements password hashing for satkeeper on top of
// Argon2id, a memory-hard key-derivation function.
//
// Hashes and salts travel as hex strings so they can be stored in JSON
// records and database rows unchanged. Verification always re-derives the
// key and compares it with crypto/subtle in constant time.
package cryptox

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/dmitrijs2005/satkeeper/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"
)

// Params are the Argon2id cost parameters.
type Params struct {
	Time    uint32 // passes over memory
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32 // derived key length, bytes
	SaltLen uint32 // random salt length, bytes
}

// DefaultParams are tuned for interactive logins: 64 MiB, one pass, four lanes.
var DefaultParams = Params{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	KeyLen:  32,
	SaltLen: 32,
}

// DefaultMaxConcurrent bounds how many derivations may run at once.
const DefaultMaxConcurrent = 2

// PasswordHasher derives and verifies password hashes. It is safe for
// concurrent use; at most maxConcurrent derivations run simultaneously and
// waiting callers honor context cancellation.
type PasswordHasher struct {
	params Params
	sem    *semaphore.Weighted
}

// NewPasswordHasher constructs a hasher. A non-positive maxConcurrent falls
// back to DefaultMaxConcurrent.
func NewPasswordHasher(p Params, maxConcurrent int64) *PasswordHasher {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &PasswordHasher{params: p, sem: semaphore.NewWeighted(maxConcurrent)}
}

// NewDefaultPasswordHasher returns a hasher with DefaultParams.
func NewDefaultPasswordHasher() *PasswordHasher {
	return NewPasswordHasher(DefaultParams, DefaultMaxConcurrent)
}

// Params returns the cost parameters the hasher was built with.
func (h *PasswordHasher) Params() Params { return h.params }

// Hash derives a key from password. When salt is empty a fresh random salt of
// Params.SaltLen bytes is generated. Hash and salt are returned hex-encoded.
func (h *PasswordHasher) Hash(ctx context.Context, password []byte, salt []byte) (hashHex, saltHex string, err error) {
	if len(salt) == 0 {
		salt, err = common.GenerateRandByteArray(int(h.params.SaltLen))
		if err != nil {
			return "", "", fmt.Errorf("generate salt: %w", err)
		}
	}

	key, err := h.derive(ctx, password, salt)
	if err != nil {
		return "", "", err
	}

	return hex.EncodeToString(key), hex.EncodeToString(salt), nil
}

// Verify re-derives the key for password with the stored salt and compares it
// against the stored hash in constant time. A mismatch is reported as
// (false, nil); an error is returned only for malformed stored data or a
// cancelled context.
func (h *PasswordHasher) Verify(ctx context.Context, password []byte, storedHash, storedSalt string) (bool, error) {
	want, err := hex.DecodeString(storedHash)
	if err != nil || len(want) == 0 {
		return false, &common.AuthError{Kind: common.KindMalformedStoreData, Field: "password_hash", Err: err}
	}
	salt, err := hex.DecodeString(storedSalt)
	if err != nil || len(salt) == 0 {
		return false, &common.AuthError{Kind: common.KindMalformedStoreData, Field: "salt", Err: err}
	}

	got, err := h.deriveLen(ctx, password, salt, uint32(len(want)))
	if err != nil {
		return false, err
	}

	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func (h *PasswordHasher) derive(ctx context.Context, password, salt []byte) ([]byte, error) {
	return h.deriveLen(ctx, password, salt, h.params.KeyLen)
}

func (h *PasswordHasher) deriveLen(ctx context.Context, password, salt []byte, keyLen uint32) ([]byte, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer h.sem.Release(1)

	p := h.params
	return argon2.IDKey(password, salt, p.Time, p.Memory, p.Threads, keyLen), nil
}
