// Package repomanager vends the identity provider repositories and owns the
// storage they run on: PostgreSQL when a DSN is configured, process memory
// otherwise.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/satkeeper/internal/dbx"
	"github.com/dmitrijs2005/satkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/satkeeper/internal/server/repositories/revocations"
	"github.com/dmitrijs2005/satkeeper/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	// Conn is the handle for work outside a transaction.
	Conn() dbx.DBTX
	// InTx runs fn atomically. Repositories built from tx inside fn take
	// part in the transaction.
	InTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Revocations(db dbx.DBTX) revocations.Repository
	Close() error
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// Open returns an in-memory manager for an empty dsn. Otherwise it connects
// to PostgreSQL through pgx and brings the schema up to date.
func Open(ctx context.Context, dsn string) (RepositoryManager, error) {
	if dsn == "" {
		return NewMemoryRepositoryManager(), nil
	}

	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	m := NewPostgresRepositoryManager(db)
	if err := m.RunMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return m, nil
}
