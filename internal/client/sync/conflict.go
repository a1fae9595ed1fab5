package sync

import (
	"time"

	"github.com/dkurniawan/bukukas/internal/client/models"
	"github.com/dkurniawan/bukukas/internal/client/remote"
)

// Conflict is an ephemeral record produced during a pull when the local copy
// of a remote record is strictly newer than the remote one. It holds both
// snapshots so the resolver does not rely on store state observed later.
// Conflicts are resolved and discarded within one cycle; they are never
// persisted.
type Conflict struct {
	Kind            models.Collection
	LocalID         int64
	RemoteID        string
	LocalUpdatedAt  time.Time
	RemoteUpdatedAt time.Time

	// Local snapshots taken at detection time; exactly one pair is set
	// depending on Kind.
	LocalBook        *models.Book
	LocalTransaction *models.Transaction

	// Remote snapshots the resolution will apply.
	RemoteBook        *remote.BookRecord
	RemoteTransaction *remote.TransactionRecord
}

// PullResult summarizes one pull phase.
type PullResult struct {
	// HasNewData reports whether the remote returned any records at all.
	HasNewData bool

	// BooksCount and TransactionsCount are the numbers of remote records
	// received per collection.
	BooksCount        int
	TransactionsCount int

	// Conflicts lists records whose local copy was strictly newer and was
	// therefore left untouched, pending resolution.
	Conflicts []Conflict
}
