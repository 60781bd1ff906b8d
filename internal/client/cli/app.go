package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dmitrijs2005/satkeeper/internal/client/config"
	"github.com/dmitrijs2005/satkeeper/internal/client/credentials"
	"github.com/dmitrijs2005/satkeeper/internal/client/idp"
	"github.com/dmitrijs2005/satkeeper/internal/client/repositories"
	"github.com/dmitrijs2005/satkeeper/internal/client/services"
	"github.com/dmitrijs2005/satkeeper/internal/client/sessions"
	"github.com/dmitrijs2005/satkeeper/internal/cryptox"
	"github.com/dmitrijs2005/satkeeper/internal/filex"
	"github.com/dmitrijs2005/satkeeper/internal/logging"
	"github.com/dmitrijs2005/satkeeper/internal/permissions"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// identityProvider is what the CLI needs from the provider client: the
// authenticator's interface plus account registration.
type identityProvider interface {
	idp.IdentityProvider
	Register(ctx context.Context, username string, password []byte, clearance permissions.Classification) error
}

type App struct {
	config   *config.Config
	auth     services.AuthService
	provider identityProvider
	logger   logging.Logger
	reader   *bufio.Reader
	out      io.Writer

	mu   sync.Mutex
	mode Mode

	closers []func() error
}

// NewApp builds the client: data directory, audit database, identity
// provider connection and the authenticator on top of them.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	dir, err := filex.EnsurePrivateDir(c.DataDir)
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	repos, err := repositories.Open(ctx, filepath.Join(dir, repositories.DBFileName))
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	provider, err := idp.NewGRPCProvider(c.ServerEndpointAddr)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	hasher := cryptox.NewPasswordHasher(cryptox.DefaultParams, int64(c.MaxConcurrentHashes))
	store := credentials.NewFileStore(dir, hasher)
	sm := sessions.NewManager(provider,
		sessions.WithTimeout(c.RequestTimeout),
		sessions.WithLogger(logger),
	)
	auth := services.NewAuthService(store, hasher, provider, sm,
		services.WithAudit(repos.Audit),
		services.WithLimiter(services.NewLoginLimiter(c.LoginAttemptsPerMinute, c.LoginBurst)),
		services.WithLogger(logger),
		services.WithRequestTimeout(c.RequestTimeout),
	)

	a := &App{
		config:   c,
		auth:     auth,
		provider: provider,
		logger:   logger.With("module", "cli"),
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		mode:     ModeOffline,
		closers:  []func() error{provider.Close, repos.Close},
	}
	return a, nil
}

// Close releases the provider connection and the database.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// Run starts the online watcher and blocks in the REPL until the user exits
// or ctx is done. The current session is revoked on the way out.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to satkeeper CLI (type 'help' for commands)")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader, a.out)

	if err := a.auth.Logout(context.WithoutCancel(ctx)); err != nil {
		a.logger.Warn(ctx, "logout on exit failed", "error", err)
	}
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.logger.Info(context.Background(), "mode switched", "mode", mode)
	}
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	return a.auth.Status(ctx).Authenticated
}

func (a *App) getStatus() string {
	s := ""
	st := a.auth.Status(context.Background())
	if st.Authenticated {
		s = st.Username + "@" + st.Classification.String() + " "
	}
	s += string(a.Mode())
	return fmt.Sprintf("(%s)", s)
}

// StartOnlineStatusWatcher pings the identity provider every interval and
// updates the mode until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	a.checkOnline(ctx)
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	err := a.provider.Ping(pingCtx)
	cancel()

	if err != nil {
		a.setMode(ModeOffline)
	} else {
		a.setMode(ModeOnline)
	}
}
