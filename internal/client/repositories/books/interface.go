package books

import (
	"context"
	"time"

	"github.com/dkurniawan/bukukas/internal/client/models"
)

// Repository describes CRUD and sync-classification queries for Book rows in
// the local store.
//
// Two write paths exist with different dirty semantics. User-path writes
// (Insert, Rename, SoftDelete) stamp UpdatedAt and set the dirty flag.
// Engine-path writes (ApplyRemote, AdoptRemoteID, MarkClean) carry remote
// state and clear or preserve the flag explicitly.
type Repository interface {
	// Insert stores a new locally-created book: dirty, no remote id.
	// Returns the store-assigned local id.
	Insert(ctx context.Context, b *models.Book) (int64, error)

	// Rename updates the display name, marks the row dirty and bumps
	// UpdatedAt.
	Rename(ctx context.Context, localID int64, name string, at time.Time) error

	// SoftDelete sets the tombstone, marks the row dirty and bumps UpdatedAt.
	// The row is never physically removed.
	SoftDelete(ctx context.Context, localID int64, at time.Time) error

	// GetByLocalID returns a book by local id, tombstoned or not.
	GetByLocalID(ctx context.Context, localID int64) (*models.Book, error)

	// GetByRemoteID returns the book holding the given remote id, or
	// common.ErrorNotFound.
	GetByRemoteID(ctx context.Context, remoteID string) (*models.Book, error)

	// GetAll lists books, optionally including tombstones.
	GetAll(ctx context.Context, includeDeleted bool) ([]models.Book, error)

	// ListDirty returns books that need a push: dirty, or never pushed
	// (no remote id).
	ListDirty(ctx context.Context) ([]*models.Book, error)

	// ListUnsynced returns books that have never been pushed.
	ListUnsynced(ctx context.Context) ([]*models.Book, error)

	// ApplyRemote overwrites the row matching b.RemoteID with b's field
	// values and clears dirty, inserting when no such row exists. Returns
	// the local id of the affected row.
	ApplyRemote(ctx context.Context, b *models.Book) (int64, error)

	// AdoptRemoteID stores a freshly assigned remote id, only when the row
	// does not already have one. Dirty state is left untouched so a
	// half-finished push stays eligible for retry.
	AdoptRemoteID(ctx context.Context, localID int64, remoteID string) error

	// MarkClean clears dirty and sets UpdatedAt to syncedAt, but only when
	// no local mutation landed after pushStartedAt. A concurrent user edit
	// keeps the row dirty so the next cycle pushes it again.
	MarkClean(ctx context.Context, localID int64, remoteID string, syncedAt, pushStartedAt time.Time) error
}
