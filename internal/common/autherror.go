package common

import "errors"

// ErrorKind classifies failures of the authentication core.
type ErrorKind string

const (
	KindConfiguration      ErrorKind = "configuration_error"
	KindNoCredentials      ErrorKind = "no_credentials_configured"
	KindInvalidUsername    ErrorKind = "invalid_username"
	KindInvalidPassword    ErrorKind = "invalid_password"
	KindSessionNotFound    ErrorKind = "session_not_found"
	KindSessionExpired     ErrorKind = "session_expired"
	KindNotAuthenticated   ErrorKind = "not_authenticated"
	KindIdentityProvider   ErrorKind = "identity_provider_error"
	KindTooManyAttempts    ErrorKind = "too_many_attempts"
	KindMalformedStoreData ErrorKind = "malformed_store_data"
)

// AuthError is a tagged error: Kind says what went wrong, Field optionally
// names the offending input and Err carries the underlying cause.
//
// Two AuthErrors match under errors.Is when their kinds are equal, so the
// package-level sentinels below can be used as match targets:
//
//	if errors.Is(err, common.ErrInvalidPassword) { ... }
type AuthError struct {
	Kind  ErrorKind
	Field string
	Err   error
}

func (e *AuthError) Error() string {
	msg := string(e.Kind)
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is reports whether target is an AuthError of the same kind.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewAuthError wraps err into an AuthError of the given kind.
func NewAuthError(kind ErrorKind, err error) *AuthError {
	return &AuthError{Kind: kind, Err: err}
}

// KindOf returns the kind of the first AuthError in err's chain, or an empty
// kind when there is none.
func KindOf(err error) ErrorKind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// Sentinels for errors.Is matching.
var (
	ErrConfiguration           = &AuthError{Kind: KindConfiguration}
	ErrNoCredentialsConfigured = &AuthError{Kind: KindNoCredentials}
	ErrInvalidUsername         = &AuthError{Kind: KindInvalidUsername, Field: "username"}
	ErrInvalidPassword         = &AuthError{Kind: KindInvalidPassword, Field: "password"}
	ErrSessionNotFound         = &AuthError{Kind: KindSessionNotFound}
	ErrSessionExpired          = &AuthError{Kind: KindSessionExpired}
	ErrNotAuthenticated        = &AuthError{Kind: KindNotAuthenticated}
	ErrIdentityProvider        = &AuthError{Kind: KindIdentityProvider}
	ErrTooManyAttempts         = &AuthError{Kind: KindTooManyAttempts}
	ErrMalformedStoreData      = &AuthError{Kind: KindMalformedStoreData}
)
