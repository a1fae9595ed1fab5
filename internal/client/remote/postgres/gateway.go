// Package postgres implements the remote gateway against a self-hosted
// shared database. Every query is scoped by user_id, and writes are keyed by
// the engine-assigned record id so retried pushes collapse into the same row.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dkurniawan/bukukas/internal/client/remote"
	"github.com/dkurniawan/bukukas/internal/dbx"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type Gateway struct {
	db dbx.DBTX
}

func NewGateway(db dbx.DBTX) *Gateway {
	return &Gateway{db: db}
}

// Open connects with the pgx stdlib driver and runs the remote schema
// migrations before handing the pool to a Gateway.
func Open(ctx context.Context, dsn string) (*Gateway, *sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening remote database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("error reaching remote database: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return NewGateway(db), db, nil
}

const bookColumns = `id, user_id, name, created_at, updated_at, deleted`

func (g *Gateway) SelectBooks(ctx context.Context, userID string, updatedAfter time.Time) ([]remote.BookRecord, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE user_id = $1 AND updated_at > $2 ORDER BY updated_at`

	rows, err := g.db.QueryContext(ctx, query, userID, updatedAfter)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	var out []remote.BookRecord
	for rows.Next() {
		var rec remote.BookRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Name, &rec.CreatedAt, &rec.UpdatedAt, &rec.Deleted); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

const transactionColumns = `id, user_id, book_id, kind, amount, category, note, created_at, updated_at, deleted`

func (g *Gateway) SelectTransactions(ctx context.Context, userID string, updatedAfter time.Time) ([]remote.TransactionRecord, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1 AND updated_at > $2 ORDER BY updated_at`

	rows, err := g.db.QueryContext(ctx, query, userID, updatedAfter)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	var out []remote.TransactionRecord
	for rows.Next() {
		var rec remote.TransactionRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.BookID, &rec.Kind, &rec.Amount,
			&rec.Category, &rec.Note, &rec.CreatedAt, &rec.UpdatedAt, &rec.Deleted); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UpsertBook writes the record by id. The deleted flag only ever moves to
// true and updated_at never regresses, so concurrent devices cannot undo a
// tombstone or reorder history.
func (g *Gateway) UpsertBook(ctx context.Context, rec remote.BookRecord) error {
	query := `
		INSERT INTO books (id, user_id, name, created_at, updated_at, deleted)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			updated_at = GREATEST(books.updated_at, EXCLUDED.updated_at),
			deleted = books.deleted OR EXCLUDED.deleted
		WHERE books.user_id = EXCLUDED.user_id;`

	res, err := g.db.ExecContext(ctx, query, rec.ID, rec.UserID, rec.Name, rec.CreatedAt, rec.UpdatedAt, rec.Deleted)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return requireOneRow(res)
}

func (g *Gateway) UpsertTransaction(ctx context.Context, rec remote.TransactionRecord) error {
	query := `
		INSERT INTO transactions (id, user_id, book_id, kind, amount, category, note, created_at, updated_at, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			kind = EXCLUDED.kind,
			amount = EXCLUDED.amount,
			category = EXCLUDED.category,
			note = EXCLUDED.note,
			updated_at = GREATEST(transactions.updated_at, EXCLUDED.updated_at),
			deleted = transactions.deleted OR EXCLUDED.deleted
		WHERE transactions.user_id = EXCLUDED.user_id;`

	res, err := g.db.ExecContext(ctx, query, rec.ID, rec.UserID, rec.BookID, rec.Kind,
		rec.Amount, rec.Category, rec.Note, rec.CreatedAt, rec.UpdatedAt, rec.Deleted)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return requireOneRow(res)
}

func (g *Gateway) FindBookByName(ctx context.Context, userID, name string) (*remote.BookRecord, error) {
	query := `SELECT ` + bookColumns + ` FROM books
		WHERE user_id = $1 AND name = $2 AND NOT deleted LIMIT 1`

	var rec remote.BookRecord
	err := g.db.QueryRowContext(ctx, query, userID, name).
		Scan(&rec.ID, &rec.UserID, &rec.Name, &rec.CreatedAt, &rec.UpdatedAt, &rec.Deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return &rec, nil
}

func (g *Gateway) FindTransactionByKey(ctx context.Context, userID, bookID string, createdAt time.Time, amount float64) (*remote.TransactionRecord, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE user_id = $1 AND book_id = $2 AND created_at = $3 AND amount = $4 AND NOT deleted LIMIT 1`

	var rec remote.TransactionRecord
	err := g.db.QueryRowContext(ctx, query, userID, bookID, createdAt, amount).
		Scan(&rec.ID, &rec.UserID, &rec.BookID, &rec.Kind, &rec.Amount,
			&rec.Category, &rec.Note, &rec.CreatedAt, &rec.UpdatedAt, &rec.Deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return &rec, nil
}

func (g *Gateway) UpsertUserMeta(ctx context.Context, meta remote.UserMeta) error {
	query := `
		INSERT INTO user_meta (user_id, initialized, last_sync)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			initialized = EXCLUDED.initialized,
			last_sync = EXCLUDED.last_sync;`

	if _, err := g.db.ExecContext(ctx, query, meta.UserID, meta.Initialized, meta.LastSync); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("record belongs to a different user")
	}
	return nil
}
