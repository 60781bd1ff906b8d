// Package audit records security-relevant events of the authentication core
// in the local SQLite database.
package audit

import (
	"context"
	"time"
)

// Event names what happened.
type Event string

const (
	EventCredentialsStored  Event = "credentials_stored"
	EventCredentialsCleared Event = "credentials_cleared"
	EventLoginSucceeded     Event = "login_succeeded"
	EventLoginFailed        Event = "login_failed"
	EventSessionRefreshed   Event = "session_refreshed"
	EventLogout             Event = "logout"
)

// Entry is one row of the audit trail. Detail never carries secrets; for
// failures it holds the error kind.
type Entry struct {
	ID         string
	OccurredAt time.Time
	Event      Event
	Username   string
	SessionID  string
	Detail     string
}

type Repository interface {
	Append(ctx context.Context, e *Entry) error
	// List returns at most limit entries, newest first. A non-positive limit
	// returns everything.
	List(ctx context.Context, limit int) ([]*Entry, error)
	Clear(ctx context.Context) error
}
