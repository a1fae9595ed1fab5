package transactions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dkurniawan/bukukas/internal/client/models"
	"github.com/dkurniawan/bukukas/internal/common"
	"github.com/dkurniawan/bukukas/internal/dbx"
	"github.com/dkurniawan/bukukas/internal/timex"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const txColumns = `local_id, remote_id, book_local_id, kind, amount, category, note, created_at, updated_at, dirty, deleted`

func scanTransaction(row interface{ Scan(dest ...any) error }) (*models.Transaction, error) {
	var t models.Transaction
	var kind string
	var created, updated int64
	if err := row.Scan(&t.LocalID, &t.RemoteID, &t.BookLocalID, &kind, &t.Amount,
		&t.Category, &t.Note, &created, &updated, &t.Dirty, &t.Deleted); err != nil {
		return nil, err
	}
	t.Kind = models.TransactionKind(kind)
	t.CreatedAt = timex.FromMillis(created)
	t.UpdatedAt = timex.FromMillis(updated)
	return &t, nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, t *models.Transaction) (int64, error) {
	if !t.Kind.Valid() {
		return 0, common.ErrInvalidKind
	}
	if t.Amount < 0 {
		return 0, common.ErrNegativeAmount
	}
	query := `INSERT INTO transactions
		(remote_id, book_local_id, kind, amount, category, note, created_at, updated_at, dirty, deleted)
		VALUES ('', ?, ?, ?, ?, ?, ?, ?, 1, 0)`
	res, err := r.db.ExecContext(ctx, query, t.BookLocalID, string(t.Kind), t.Amount,
		t.Category, t.Note, timex.ToMillis(t.CreatedAt), timex.ToMillis(t.UpdatedAt))
	if err != nil {
		return 0, fmt.Errorf("failed to insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted transaction id: %w", err)
	}
	t.LocalID = id
	t.Dirty = true
	return id, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, t *models.Transaction) error {
	if !t.Kind.Valid() {
		return common.ErrInvalidKind
	}
	if t.Amount < 0 {
		return common.ErrNegativeAmount
	}
	query := `UPDATE transactions SET kind = ?, amount = ?, category = ?, note = ?,
		updated_at = ?, dirty = 1 WHERE local_id = ?`
	res, err := r.db.ExecContext(ctx, query, string(t.Kind), t.Amount, t.Category, t.Note,
		timex.ToMillis(t.UpdatedAt), t.LocalID)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return requireOneRow(res)
}

func (r *SQLiteRepository) SoftDelete(ctx context.Context, localID int64, at time.Time) error {
	query := `UPDATE transactions SET deleted = 1, dirty = 1, updated_at = ?
		WHERE local_id = ? AND deleted = 0`
	res, err := r.db.ExecContext(ctx, query, timex.ToMillis(at), localID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return requireOneRow(res)
}

func (r *SQLiteRepository) TombstoneByBook(ctx context.Context, bookLocalID int64, at time.Time) error {
	query := `UPDATE transactions SET deleted = 1, dirty = 1, updated_at = ?
		WHERE book_local_id = ? AND deleted = 0`
	if _, err := r.db.ExecContext(ctx, query, timex.ToMillis(at), bookLocalID); err != nil {
		return fmt.Errorf("failed to tombstone book transactions: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByLocalID(ctx context.Context, localID int64) (*models.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE local_id = ?`, localID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction by local id: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) GetByRemoteID(ctx context.Context, remoteID string) (*models.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE remote_id = ?`, remoteID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction by remote id: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) ListByBook(ctx context.Context, bookLocalID int64, includeDeleted bool) ([]models.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE book_local_id = ?`
	if !includeDeleted {
		query += ` AND deleted = 0`
	}
	query += ` ORDER BY created_at, local_id`
	return r.list(ctx, query, bookLocalID)
}

func (r *SQLiteRepository) ListDirty(ctx context.Context) ([]*models.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE dirty = 1 OR remote_id = '' ORDER BY local_id`
	items, err := r.list(ctx, query)
	if err != nil {
		return nil, err
	}
	return toPtrs(items), nil
}

func (r *SQLiteRepository) ListUnsynced(ctx context.Context) ([]*models.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE remote_id = '' ORDER BY local_id`
	items, err := r.list(ctx, query)
	if err != nil {
		return nil, err
	}
	return toPtrs(items), nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select transactions: %w", err)
	}
	defer rows.Close()

	var result []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) ApplyRemote(ctx context.Context, t *models.Transaction) (int64, error) {
	existing, err := r.GetByRemoteID(ctx, t.RemoteID)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return 0, err
	}

	if existing == nil {
		query := `INSERT INTO transactions
			(remote_id, book_local_id, kind, amount, category, note, created_at, updated_at, dirty, deleted)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`
		res, err := r.db.ExecContext(ctx, query, t.RemoteID, t.BookLocalID, string(t.Kind),
			t.Amount, t.Category, t.Note,
			timex.ToMillis(t.CreatedAt), timex.ToMillis(t.UpdatedAt), t.Deleted)
		if err != nil {
			return 0, fmt.Errorf("failed to insert pulled transaction: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to get inserted transaction id: %w", err)
		}
		t.LocalID = id
		return id, nil
	}

	// MAX keeps tombstones monotonic: a remote overwrite may set deleted but
	// never revert it.
	query := `UPDATE transactions SET book_local_id = ?, kind = ?, amount = ?, category = ?,
		note = ?, created_at = ?, updated_at = ?, dirty = 0,
		deleted = MAX(deleted, ?) WHERE remote_id = ?`
	if _, err := r.db.ExecContext(ctx, query, t.BookLocalID, string(t.Kind), t.Amount,
		t.Category, t.Note, timex.ToMillis(t.CreatedAt), timex.ToMillis(t.UpdatedAt),
		t.Deleted, t.RemoteID); err != nil {
		return 0, fmt.Errorf("failed to overwrite transaction from remote: %w", err)
	}
	t.LocalID = existing.LocalID
	return existing.LocalID, nil
}

func (r *SQLiteRepository) AdoptRemoteID(ctx context.Context, localID int64, remoteID string) error {
	query := `UPDATE transactions SET remote_id = ? WHERE local_id = ? AND remote_id = ''`
	if _, err := r.db.ExecContext(ctx, query, remoteID, localID); err != nil {
		return fmt.Errorf("failed to adopt remote id: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkClean(ctx context.Context, localID int64, remoteID string, syncedAt, pushStartedAt time.Time) error {
	// The updated_at guard keeps a user edit that landed mid-push dirty.
	query := `UPDATE transactions SET dirty = 0, remote_id = ?, updated_at = ?
		WHERE local_id = ? AND updated_at <= ?`
	if _, err := r.db.ExecContext(ctx, query, remoteID,
		timex.ToMillis(syncedAt), localID, timex.ToMillis(pushStartedAt)); err != nil {
		return fmt.Errorf("failed to mark transaction clean: %w", err)
	}
	return nil
}

func requireOneRow(res sql.Result) error {
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return fmt.Errorf("wrong rows affected count: %d", ra)
	}
	return nil
}

func toPtrs(items []models.Transaction) []*models.Transaction {
	out := make([]*models.Transaction, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out
}
