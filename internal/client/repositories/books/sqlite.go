package books

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

const bookColumns = `local_id, remote_id, name, created_at, updated_at, dirty, deleted`

func scanBook(row interface{ Scan(dest ...any) error }) (*models.Book, error) {
	var b models.Book
	var created, updated int64
	if err := row.Scan(&b.LocalID, &b.RemoteID, &b.Name, &created, &updated, &b.Dirty, &b.Deleted); err != nil {
		return nil, err
	}
	b.CreatedAt = timex.FromMillis(created)
	b.UpdatedAt = timex.FromMillis(updated)
	return &b, nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, b *models.Book) (int64, error) {
	query := `INSERT INTO books (remote_id, name, created_at, updated_at, dirty, deleted)
		VALUES ('', ?, ?, ?, 1, 0)`
	res, err := r.db.ExecContext(ctx, query, b.Name,
		timex.ToMillis(b.CreatedAt), timex.ToMillis(b.UpdatedAt))
	if err != nil {
		return 0, fmt.Errorf("failed to insert book: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted book id: %w", err)
	}
	b.LocalID = id
	b.Dirty = true
	return id, nil
}

func (r *SQLiteRepository) Rename(ctx context.Context, localID int64, name string, at time.Time) error {
	query := `UPDATE books SET name = ?, updated_at = ?, dirty = 1 WHERE local_id = ?`
	res, err := r.db.ExecContext(ctx, query, name, timex.ToMillis(at), localID)
	if err != nil {
		return fmt.Errorf("failed to rename book: %w", err)
	}
	return requireOneRow(res)
}

func (r *SQLiteRepository) SoftDelete(ctx context.Context, localID int64, at time.Time) error {
	query := `UPDATE books SET deleted = 1, dirty = 1, updated_at = ? WHERE local_id = ? AND deleted = 0`
	res, err := r.db.ExecContext(ctx, query, timex.ToMillis(at), localID)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	return requireOneRow(res)
}

func (r *SQLiteRepository) GetByLocalID(ctx context.Context, localID int64) (*models.Book, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE local_id = ?`, localID)
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get book by local id: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) GetByRemoteID(ctx context.Context, remoteID string) (*models.Book, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE remote_id = ?`, remoteID)
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get book by remote id: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context, includeDeleted bool) ([]models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books`
	if !includeDeleted {
		query += ` WHERE deleted = 0`
	}
	query += ` ORDER BY local_id`
	return r.list(ctx, query)
}

func (r *SQLiteRepository) ListDirty(ctx context.Context) ([]*models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE dirty = 1 OR remote_id = '' ORDER BY local_id`
	items, err := r.list(ctx, query)
	if err != nil {
		return nil, err
	}
	return toPtrs(items), nil
}

func (r *SQLiteRepository) ListUnsynced(ctx context.Context) ([]*models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE remote_id = '' ORDER BY local_id`
	items, err := r.list(ctx, query)
	if err != nil {
		return nil, err
	}
	return toPtrs(items), nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.Book, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select books: %w", err)
	}
	defer rows.Close()

	var result []models.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyRemote upserts by remote id with dirty cleared. Used when applying
// pulled records and resolving conflicts, so it must be a full-row overwrite.
func (r *SQLiteRepository) ApplyRemote(ctx context.Context, b *models.Book) (int64, error) {
	existing, err := r.GetByRemoteID(ctx, b.RemoteID)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return 0, err
	}

	if existing == nil {
		query := `INSERT INTO books (remote_id, name, created_at, updated_at, dirty, deleted)
			VALUES (?, ?, ?, ?, 0, ?)`
		res, err := r.db.ExecContext(ctx, query, b.RemoteID, b.Name,
			timex.ToMillis(b.CreatedAt), timex.ToMillis(b.UpdatedAt), b.Deleted)
		if err != nil {
			return 0, fmt.Errorf("failed to insert pulled book: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to get inserted book id: %w", err)
		}
		b.LocalID = id
		return id, nil
	}

	// MAX keeps tombstones monotonic: a remote overwrite may set deleted but
	// never revert it.
	query := `UPDATE books SET name = ?, created_at = ?, updated_at = ?, dirty = 0,
		deleted = MAX(deleted, ?) WHERE remote_id = ?`
	if _, err := r.db.ExecContext(ctx, query, b.Name,
		timex.ToMillis(b.CreatedAt), timex.ToMillis(b.UpdatedAt), b.Deleted, b.RemoteID); err != nil {
		return 0, fmt.Errorf("failed to overwrite book from remote: %w", err)
	}
	b.LocalID = existing.LocalID
	return existing.LocalID, nil
}

func (r *SQLiteRepository) AdoptRemoteID(ctx context.Context, localID int64, remoteID string) error {
	query := `UPDATE books SET remote_id = ? WHERE local_id = ? AND remote_id = ''`
	if _, err := r.db.ExecContext(ctx, query, remoteID, localID); err != nil {
		return fmt.Errorf("failed to adopt remote id: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkClean(ctx context.Context, localID int64, remoteID string, syncedAt, pushStartedAt time.Time) error {
	// The updated_at guard keeps a user edit that landed mid-push dirty.
	query := `UPDATE books SET dirty = 0, remote_id = ?, updated_at = ?
		WHERE local_id = ? AND updated_at <= ?`
	if _, err := r.db.ExecContext(ctx, query, remoteID,
		timex.ToMillis(syncedAt), localID, timex.ToMillis(pushStartedAt)); err != nil {
		return fmt.Errorf("failed to mark book clean: %w", err)
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

func toPtrs(items []models.Book) []*models.Book {
	out := make([]*models.Book, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out
}
