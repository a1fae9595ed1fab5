package postgres

import (
	"context"
	"database/sql"

	"github.com/dkurniawan/bukukas/internal/client/remote/postgres/migrations"
	"github.com/pressly/goose/v3"
)

// RunMigrations brings the remote schema up to date. Safe to run from every
// client: goose serializes concurrent runs on its version table.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}
