package models

import "time"

// User is an identity provider account. PasswordHash and Salt are the
// hex-encoded Argon2id output; Clearance is the highest classification the
// user may request at login.
type User struct {
	ID           string
	UserName     string
	PasswordHash string
	Salt         string
	Clearance    string
	CreatedAt    time.Time
}
