// Package server wires the identity provider together: storage, the
// identity service, the gRPC endpoint and background token housekeeping.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/satkeeper/internal/cryptox"
	"github.com/dmitrijs2005/satkeeper/internal/logging"
	"github.com/dmitrijs2005/satkeeper/internal/server/config"
	"github.com/dmitrijs2005/satkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/satkeeper/internal/server/services"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/satkeeper/internal/server/grpc"
)

// PurgeInterval is how often expired refresh tokens and revocations are dropped.
const PurgeInterval = time.Minute

const insecureDefaultSecret = "secretKey"

type App struct {
	config   *config.Config
	logger   logging.Logger
	repos    repomanager.RepositoryManager
	identity *services.IdentityService
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	logger = logger.With("module", "app")

	repos, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "no database DSN configured, accounts are kept in memory")
	}
	if c.SecretKey == insecureDefaultSecret {
		logger.Warn(ctx, "using the default JWT secret key")
	}

	is := services.NewIdentityService(repos, cryptox.NewDefaultPasswordHasher(), c, logger)

	return &App{config: c, logger: logger, repos: repos, identity: is}, nil
}

// Run serves gRPC and purges expired tokens until ctx is cancelled or the
// server fails.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting app...")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.identity).Run(ctx)
	})

	g.Go(func() error {
		app.purgeLoop(ctx, PurgeInterval)
		return nil
	})

	return g.Wait()
}

func (app *App) purgeLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := app.identity.PurgeExpired(ctx); err != nil {
				app.logger.Warn(ctx, "purge expired tokens", "error", err)
			}
		}
	}
}

func (app *App) Close() error {
	return app.repos.Close()
}
