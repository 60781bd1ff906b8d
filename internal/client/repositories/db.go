// Package repositories opens the client-side SQLite database, applies the
// embedded migrations and vends the repositories built on it.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/satkeeper/internal/client/migrations"
	"github.com/dmitrijs2005/satkeeper/internal/client/repositories/audit"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// DBFileName is the database file inside the client data directory.
const DBFileName = "satkeeper.db"

type Repositories struct {
	DB    *sql.DB
	Audit audit.Repository
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens the SQLite database at dsn and brings its schema up to date.
func Open(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &Repositories{DB: db, Audit: audit.NewSQLiteRepository(db)}, nil
}
