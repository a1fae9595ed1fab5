// Package store owns the local SQLite database: opening one handle per active
// user, running migrations, and exposing the repositories bound to it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/dkurniawan/bukukas/internal/client/migrations"
	"github.com/dkurniawan/bukukas/internal/client/repositories/books"
	"github.com/dkurniawan/bukukas/internal/client/repositories/syncstate"
	"github.com/dkurniawan/bukukas/internal/client/repositories/transactions"
	"github.com/dkurniawan/bukukas/internal/common"
	"github.com/dkurniawan/bukukas/internal/dbx"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// Store bundles one user's open database handle with the repositories bound
// to it.
type Store struct {
	db     *sql.DB
	userID string

	Books        books.Repository
	Transactions transactions.Repository
	State        syncstate.Repository
}

// UserID returns the user the store was opened for.
func (s *Store) UserID() string { return s.userID }

// DB exposes the raw handle for transactional helpers.
func (s *Store) DB() *sql.DB { return s.db }

// DeleteBookCascade tombstones a book and all of its transactions in one
// local transaction, marking everything dirty so the deletions propagate on
// the next push.
func (s *Store) DeleteBookCascade(ctx context.Context, bookLocalID int64, at time.Time) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := books.NewSQLiteRepository(tx).SoftDelete(ctx, bookLocalID, at); err != nil {
			return err
		}
		return transactions.NewSQLiteRepository(tx).TombstoneByBook(ctx, bookLocalID, at)
	})
}

// Manager serializes access to the single owned store handle. Switching users
// closes the previous handle before opening the next; concurrent Open calls
// queue on the mutex instead of racing.
type Manager struct {
	mu  sync.Mutex
	dir string
	cur *Store
}

// NewManager returns a Manager keeping one database file per user under dir.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

// Open returns the store for userID, opening (and migrating) it if needed.
// A store already open for another user is closed first.
func (m *Manager) Open(ctx context.Context, userID string) (*Store, error) {
	if userID == "" {
		return nil, common.ErrMissingUserID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cur != nil {
		if m.cur.userID == userID {
			return m.cur, nil
		}
		if err := m.cur.db.Close(); err != nil {
			return nil, fmt.Errorf("failed to close previous store: %w", err)
		}
		m.cur = nil
	}

	dsn := filepath.Join(m.dir, userID+".db")
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}
	// Serialize writers through a single connection; the engine's phases are
	// sequential and sqlite dislikes concurrent writers.
	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	m.cur = &Store{
		db:           db,
		userID:       userID,
		Books:        books.NewSQLiteRepository(db),
		Transactions: transactions.NewSQLiteRepository(db),
		State:        syncstate.NewSQLiteRepository(db),
	}
	return m.cur, nil
}

// Current returns the open store, or an error when none is open.
func (m *Manager) Current() (*Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur == nil {
		return nil, common.ErrStoreNotOpen
	}
	return m.cur, nil
}

// Close closes the open store, if any.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur == nil {
		return nil
	}
	err := m.cur.db.Close()
	m.cur = nil
	return err
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
