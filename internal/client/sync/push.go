package sync

import (
	"context"
	"time"

	"github.com/dkurniawan/bukukas/internal/client/models"
)

// push sends every dirty record to the remote store, books first so
// transactions can reference their book's remote id. One record failing is
// logged and skipped; its dirty state already says what to retry next cycle.
func (e *Engine) push(ctx context.Context, userID string) error {
	pushStart := e.now()

	if err := e.pushBooks(ctx, userID, pushStart); err != nil {
		return err
	}
	if err := e.pushTransactions(ctx, userID, pushStart); err != nil {
		return err
	}

	for _, c := range []models.Collection{models.CollectionBooks, models.CollectionTransactions} {
		if err := e.state.SetLastPushedAt(ctx, c, pushStart); err != nil {
			e.log.Warn(ctx, "failed to advance push cursor", "collection", c, "error", err)
		}
	}
	return nil
}

func (e *Engine) pushBooks(ctx context.Context, userID string, pushStart time.Time) error {
	dirty, err := e.books.ListDirty(ctx)
	if err != nil {
		return err
	}

	for _, b := range dirty {
		if err := e.pushBook(ctx, userID, b, pushStart); err != nil {
			e.log.Error(ctx, "book push failed, leaving dirty",
				"local_id", b.LocalID, "error", err)
		}
	}
	return nil
}

func (e *Engine) pushBook(ctx context.Context, userID string, b *models.Book, pushStart time.Time) error {
	remoteID := b.RemoteID
	if remoteID == "" {
		// A previous push may have landed remotely without being confirmed
		// locally. Match by natural key before minting a new identity so a
		// retry cannot create a duplicate.
		existing, err := e.gw.FindBookByName(ctx, userID, b.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			remoteID = existing.ID
		} else {
			remoteID = e.assignRemoteID(b.RemoteID)
		}
	}

	if err := e.gw.UpsertBook(ctx, bookToRecord(b, remoteID, userID)); err != nil {
		return err
	}

	if b.RemoteID == "" {
		if err := e.books.AdoptRemoteID(ctx, b.LocalID, remoteID); err != nil {
			return err
		}
	}
	return e.books.MarkClean(ctx, b.LocalID, remoteID, b.UpdatedAt, pushStart)
}

func (e *Engine) pushTransactions(ctx context.Context, userID string, pushStart time.Time) error {
	dirty, err := e.txs.ListDirty(ctx)
	if err != nil {
		return err
	}

	for _, t := range dirty {
		if err := e.pushTransaction(ctx, userID, t, pushStart); err != nil {
			e.log.Error(ctx, "transaction push failed, leaving dirty",
				"local_id", t.LocalID, "error", err)
		}
	}
	return nil
}

func (e *Engine) pushTransaction(ctx context.Context, userID string, t *models.Transaction, pushStart time.Time) error {
	book, err := e.books.GetByLocalID(ctx, t.BookLocalID)
	if err != nil {
		return err
	}
	if book.RemoteID == "" {
		// Ordering invariant: the owning book must be pushed first. The
		// transaction stays dirty and becomes eligible on a later cycle.
		e.log.Debug(ctx, "owning book not pushed yet, skipping transaction",
			"local_id", t.LocalID, "book_local_id", t.BookLocalID)
		return nil
	}

	remoteID := t.RemoteID
	if remoteID == "" {
		existing, err := e.gw.FindTransactionByKey(ctx, userID, book.RemoteID, t.CreatedAt, t.Amount)
		if err != nil {
			return err
		}
		if existing != nil {
			remoteID = existing.ID
		} else {
			remoteID = e.assignRemoteID(t.RemoteID)
		}
	}

	if err := e.gw.UpsertTransaction(ctx, transactionToRecord(t, remoteID, book.RemoteID, userID)); err != nil {
		return err
	}

	if t.RemoteID == "" {
		if err := e.txs.AdoptRemoteID(ctx, t.LocalID, remoteID); err != nil {
			return err
		}
	}
	return e.txs.MarkClean(ctx, t.LocalID, remoteID, t.UpdatedAt, pushStart)
}
