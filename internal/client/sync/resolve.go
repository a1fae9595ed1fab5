package sync

import (
	"context"
	"errors"

	"github.com/dkurniawan/bukukas/internal/client/models"
	"github.com/dkurniawan/bukukas/internal/common"
)

// resolve applies the remote-wins policy: every conflicted record is fully
// overwritten with its remote snapshot and the dirty flag cleared. The remote
// store is the durable source of truth once any push has landed; the stale
// local edit is the acceptable loss, and its post-resolution state stays
// visible to the user.
//
// A conflict whose local write fails is skipped whole (never half-applied)
// and logged; the record stays dirty and the divergence is settled by a later
// cycle.
func (e *Engine) resolve(ctx context.Context, conflicts []Conflict) error {
	if len(conflicts) == 0 {
		return nil
	}

	booksChanged := false
	txsChanged := false

	for _, c := range conflicts {
		switch c.Kind {
		case models.CollectionBooks:
			if c.RemoteBook == nil {
				continue
			}
			if _, err := e.books.ApplyRemote(ctx, bookFromRecord(*c.RemoteBook)); err != nil {
				e.log.Error(ctx, "failed to resolve book conflict",
					"remote_id", c.RemoteID, "error", err)
				continue
			}
			booksChanged = true

		case models.CollectionTransactions:
			if c.RemoteTransaction == nil {
				continue
			}
			book, err := e.books.GetByRemoteID(ctx, c.RemoteTransaction.BookID)
			if err != nil {
				if !errors.Is(err, common.ErrorNotFound) {
					e.log.Error(ctx, "failed to resolve owning book for conflict",
						"remote_id", c.RemoteID, "error", err)
				}
				continue
			}
			if _, err := e.txs.ApplyRemote(ctx, transactionFromRecord(*c.RemoteTransaction, book.LocalID)); err != nil {
				e.log.Error(ctx, "failed to resolve transaction conflict",
					"remote_id", c.RemoteID, "error", err)
				continue
			}
			txsChanged = true
		}
	}

	if booksChanged {
		e.notifyChange(models.CollectionBooks)
	}
	if txsChanged {
		e.notifyChange(models.CollectionTransactions)
	}
	return nil
}
