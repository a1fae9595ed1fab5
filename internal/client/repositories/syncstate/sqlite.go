package syncstate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dkurniawan/bukukas/internal/client/models"
	"github.com/dkurniawan/bukukas/internal/dbx"
	"github.com/dkurniawan/bukukas/internal/timex"
)

// SQLiteRepository implements Repository over the sync_state table.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) GetLastPulledAt(ctx context.Context, c models.Collection) (time.Time, error) {
	return r.get(ctx, "last_pulled_at", c)
}

func (r *SQLiteRepository) SetLastPulledAt(ctx context.Context, c models.Collection, t time.Time) error {
	return r.set(ctx, "last_pulled_at", c, t)
}

func (r *SQLiteRepository) GetLastPushedAt(ctx context.Context, c models.Collection) (time.Time, error) {
	return r.get(ctx, "last_pushed_at", c)
}

func (r *SQLiteRepository) SetLastPushedAt(ctx context.Context, c models.Collection, t time.Time) error {
	return r.set(ctx, "last_pushed_at", c, t)
}

func (r *SQLiteRepository) get(ctx context.Context, column string, c models.Collection) (time.Time, error) {
	var ms int64
	query := `SELECT ` + column + ` FROM sync_state WHERE collection = ?`
	err := r.db.QueryRowContext(ctx, query, string(c)).Scan(&ms)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get %s[%s]: %w", column, c, err)
	}
	return timex.FromMillis(ms), nil
}

// set upserts the cursor; MAX keeps it monotonic even under retried writes.
func (r *SQLiteRepository) set(ctx context.Context, column string, c models.Collection, t time.Time) error {
	query := `
		INSERT INTO sync_state (collection, ` + column + `) VALUES (?, ?)
		ON CONFLICT(collection) DO UPDATE SET ` + column + ` = MAX(` + column + `, excluded.` + column + `)
	`
	if _, err := r.db.ExecContext(ctx, query, string(c), timex.ToMillis(t)); err != nil {
		return fmt.Errorf("failed to set %s[%s]: %w", column, c, err)
	}
	return nil
}
