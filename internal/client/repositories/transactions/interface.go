package transactions

import (
	"context"
	"time"

	"github.com/dkurniawan/bukukas/internal/client/models"
)

// Repository describes CRUD and sync-classification queries for Transaction
// rows in the local store. Dirty semantics follow the books repository:
// user-path writes mark rows dirty, engine-path writes manage the flag
// explicitly.
type Repository interface {
	// Insert stores a new locally-created transaction: dirty, no remote id.
	Insert(ctx context.Context, t *models.Transaction) (int64, error)

	// Update overwrites the mutable fields (kind, amount, category, note),
	// marks the row dirty and bumps UpdatedAt.
	Update(ctx context.Context, t *models.Transaction) error

	// SoftDelete sets the tombstone, marks the row dirty and bumps UpdatedAt.
	SoftDelete(ctx context.Context, localID int64, at time.Time) error

	// TombstoneByBook cascades a book deletion: every live transaction of
	// the book is tombstoned and marked dirty in one statement.
	TombstoneByBook(ctx context.Context, bookLocalID int64, at time.Time) error

	// GetByLocalID returns a transaction by local id, tombstoned or not.
	GetByLocalID(ctx context.Context, localID int64) (*models.Transaction, error)

	// GetByRemoteID returns the transaction holding the given remote id, or
	// common.ErrorNotFound.
	GetByRemoteID(ctx context.Context, remoteID string) (*models.Transaction, error)

	// ListByBook lists a book's transactions, optionally including
	// tombstones.
	ListByBook(ctx context.Context, bookLocalID int64, includeDeleted bool) ([]models.Transaction, error)

	// ListDirty returns transactions that need a push: dirty, or never
	// pushed.
	ListDirty(ctx context.Context) ([]*models.Transaction, error)

	// ListUnsynced returns transactions that have never been pushed.
	ListUnsynced(ctx context.Context) ([]*models.Transaction, error)

	// ApplyRemote overwrites the row matching t.RemoteID with t's field
	// values and clears dirty, inserting when no such row exists. The caller
	// must have resolved BookLocalID already.
	ApplyRemote(ctx context.Context, t *models.Transaction) (int64, error)

	// AdoptRemoteID stores a freshly assigned remote id, only when the row
	// does not already have one.
	AdoptRemoteID(ctx context.Context, localID int64, remoteID string) error

	// MarkClean clears dirty and sets UpdatedAt to syncedAt, guarded against
	// local mutations newer than pushStartedAt.
	MarkClean(ctx context.Context, localID int64, remoteID string, syncedAt, pushStartedAt time.Time) error
}
