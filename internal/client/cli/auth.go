package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/dmitrijs2005/satkeeper/internal/client/credentials"
	"github.com/dmitrijs2005/satkeeper/internal/client/idp"
	"github.com/dmitrijs2005/satkeeper/internal/common"
	"github.com/dmitrijs2005/satkeeper/internal/permissions"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) promptClassification(prompt string) (permissions.Classification, error) {
	text, err := getSimpleText(a.reader, prompt+" (unclassified, cui, secret)", a.out)
	if err != nil {
		return "", err
	}
	if text == "" {
		return permissions.Unclassified, nil
	}
	return permissions.ParseClassification(text)
}

// Configure prompts for username, password, classification and an optional
// API endpoint, and replaces the stored credential record.
func (a *App) Configure(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	classification, err := a.promptClassification("Enter classification")
	if err != nil {
		return err
	}

	endpoint, err := getSimpleText(a.reader, "Enter API endpoint (empty for default)", a.out)
	if err != nil {
		return err
	}

	err = a.auth.StoreCredentials(ctx, credentials.Credentials{
		Username:       username,
		Password:       password,
		Classification: classification,
		APIEndpoint:    endpoint,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Credentials stored.")
	return nil
}

// Register prompts for a username, password and clearance and creates the
// account on the identity provider.
func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	clearance, err := a.promptClassification("Enter clearance")
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()

	if err := a.provider.Register(callCtx, username, password, clearance); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Success!")
	return nil
}

// Login prompts for credentials and authenticates.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.auth.AuthenticateUser(ctx, username, password)
	if err != nil {
		if errors.Is(err, idp.ErrUnavailable) {
			a.setMode(ModeOffline)
		}
		return err
	}

	a.setMode(ModeOnline)
	fmt.Fprintf(a.out, "Logged in as %s (%s), session expires %s\n", s.Username, s.Classification, s.ExpiresAt.Format(time.RFC3339))
	return nil
}

func (a *App) Status(ctx context.Context) error {
	st := a.auth.Status(ctx)
	if !st.Authenticated {
		fmt.Fprintln(a.out, "Not authenticated.")
		return nil
	}

	fmt.Fprintf(a.out, "User:           %s\n", st.Username)
	fmt.Fprintf(a.out, "Classification: %s\n", st.Classification)
	fmt.Fprintf(a.out, "Session:        %s\n", st.SessionID)
	fmt.Fprintf(a.out, "Expires:        %s\n", st.ExpiresAt.Format(time.RFC3339))
	fmt.Fprintln(a.out, "Permissions:")
	for _, p := range st.Permissions {
		fmt.Fprintf(a.out, "  %s\n", p)
	}
	return nil
}

func (a *App) Check(ctx context.Context, permission string) error {
	if a.auth.ValidatePermission(ctx, permission) {
		fmt.Fprintf(a.out, "%s: granted\n", permission)
	} else {
		fmt.Fprintf(a.out, "%s: denied\n", permission)
	}
	return nil
}

// Headers prints the headers an upstream API client would send. The bearer
// token is masked.
func (a *App) Headers(ctx context.Context) error {
	h, err := a.auth.APIHeaders(ctx)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		v := h.Get(k)
		if k == common.AuthorizationHeaderName {
			v = "Bearer ***"
		}
		fmt.Fprintf(a.out, "%s: %s\n", k, v)
	}
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	s, err := a.auth.RefreshSession(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Session refreshed, expires %s\n", s.ExpiresAt.Format(time.RFC3339))
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

// Clear asks for confirmation and deletes the stored credential record.
func (a *App) Clear(ctx context.Context) error {
	answer, err := getSimpleText(a.reader, "Delete stored credentials? (yes/no)", a.out)
	if err != nil {
		return err
	}
	if answer != "yes" {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}

	if err := a.auth.ClearStoredCredentials(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Credentials cleared.")
	return nil
}

func (a *App) Audit(ctx context.Context, limit int) error {
	entries, err := a.auth.AuditTrail(ctx, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No audit entries.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(a.out, "%s  %-20s %-12s %s %s\n",
			e.OccurredAt.Local().Format(time.DateTime), e.Event, e.Username, e.SessionID, e.Detail)
	}
	return nil
}

// describeError turns an error into a line for the terminal.
func describeError(err error) string {
	switch common.KindOf(err) {
	case common.KindNoCredentials:
		return "no credentials configured, run 'configure' first"
	case common.KindInvalidUsername, common.KindInvalidPassword:
		return "invalid username or password"
	case common.KindNotAuthenticated:
		return "not authenticated, run 'login' first"
	case common.KindSessionExpired, common.KindSessionNotFound:
		return "session is no longer valid, log in again"
	case common.KindTooManyAttempts:
		return "too many login attempts, try again later"
	case common.KindIdentityProvider:
		switch {
		case errors.Is(err, idp.ErrUnavailable):
			return "identity provider unavailable"
		case errors.Is(err, idp.ErrForbidden):
			return "identity provider refused the requested classification"
		case errors.Is(err, idp.ErrUnauthorized):
			return "identity provider rejected the credentials"
		case errors.Is(err, idp.ErrAlreadyExists):
			return "account already exists"
		}
	}
	if errors.Is(err, os.ErrPermission) {
		return "permission denied: " + err.Error()
	}
	return err.Error()
}
