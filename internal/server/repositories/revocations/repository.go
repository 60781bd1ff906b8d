// Package revocations stores the ids of access tokens that were revoked
// before their natural expiry.
package revocations

import (
	"context"
	"time"
)

type Repository interface {
	// Create records tokenID as revoked until expiresAt. Revoking the same
	// id twice is not an error.
	Create(ctx context.Context, tokenID string, expiresAt time.Time) error

	// IsRevoked reports whether tokenID has been revoked.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)

	// DeleteExpired drops records whose token would have expired before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
