package models

import "time"

// RevokedToken marks an access token, identified by its jti, as unusable
// until it would have expired anyway.
type RevokedToken struct {
	TokenID   string
	ExpiresAt time.Time
	RevokedAt time.Time
}
