package sync

import (
	"context"
	"errors"
	"time"

	"github.com/dkurniawan/bukukas/internal/client/models"
	"github.com/dkurniawan/bukukas/internal/common"
	"github.com/dkurniawan/bukukas/internal/timex"
)

// pull fetches remote changes since each collection's cursor and applies
// them, books first so transactions can resolve their owning book. A failure
// of the filtered read itself fails the phase; a failure applying one record
// only blocks that collection's cursor, so the window is re-requested on the
// next cycle (re-applying is a same-value overwrite).
func (e *Engine) pull(ctx context.Context, userID string) (*PullResult, error) {
	res := &PullResult{}

	if err := e.pullBooks(ctx, userID, res); err != nil {
		return nil, err
	}
	if err := e.pullTransactions(ctx, userID, res); err != nil {
		return nil, err
	}

	res.HasNewData = res.BooksCount > 0 || res.TransactionsCount > 0
	return res, nil
}

func (e *Engine) pullBooks(ctx context.Context, userID string, res *PullResult) error {
	since, err := e.state.GetLastPulledAt(ctx, models.CollectionBooks)
	if err != nil {
		return err
	}
	pullStart := e.now()

	recs, err := e.gw.SelectBooks(ctx, userID, since)
	if err != nil {
		return err
	}
	res.BooksCount = len(recs)

	var maxSeen time.Time
	complete := true
	applied := 0

	for _, rec := range recs {
		if rec.UpdatedAt.After(maxSeen) {
			maxSeen = rec.UpdatedAt
		}

		local, err := e.books.GetByRemoteID(ctx, rec.ID)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			if _, err := e.books.ApplyRemote(ctx, bookFromRecord(rec)); err != nil {
				e.log.Error(ctx, "failed to apply pulled book", "remote_id", rec.ID, "error", err)
				complete = false
				continue
			}
			applied++

		case err != nil:
			e.log.Error(ctx, "failed to look up pulled book", "remote_id", rec.ID, "error", err)
			complete = false
			continue

		case local.UpdatedAt.After(rec.UpdatedAt):
			// Local copy is strictly newer: defer to the resolver instead of
			// overwriting here.
			res.Conflicts = append(res.Conflicts, Conflict{
				Kind:            models.CollectionBooks,
				LocalID:         local.LocalID,
				RemoteID:        rec.ID,
				LocalUpdatedAt:  local.UpdatedAt,
				RemoteUpdatedAt: rec.UpdatedAt,
				LocalBook:       local,
				RemoteBook:      &rec,
			})

		default:
			if _, err := e.books.ApplyRemote(ctx, bookFromRecord(rec)); err != nil {
				e.log.Error(ctx, "failed to overwrite book from remote", "remote_id", rec.ID, "error", err)
				complete = false
				continue
			}
			applied++
		}
	}

	if applied > 0 {
		e.notifyChange(models.CollectionBooks)
	}

	e.advanceCursor(ctx, models.CollectionBooks, pullStart, maxSeen, complete)
	return nil
}

func (e *Engine) pullTransactions(ctx context.Context, userID string, res *PullResult) error {
	since, err := e.state.GetLastPulledAt(ctx, models.CollectionTransactions)
	if err != nil {
		return err
	}
	pullStart := e.now()

	recs, err := e.gw.SelectTransactions(ctx, userID, since)
	if err != nil {
		return err
	}
	res.TransactionsCount = len(recs)

	var maxSeen time.Time
	complete := true
	applied := 0

	for _, rec := range recs {
		if rec.UpdatedAt.After(maxSeen) {
			maxSeen = rec.UpdatedAt
		}

		book, err := e.books.GetByRemoteID(ctx, rec.BookID)
		if errors.Is(err, common.ErrorNotFound) {
			// Owning book is not local yet. Skip just this record and keep
			// the cursor back so it is re-requested once the book arrives.
			e.log.Debug(ctx, "skipping transaction with unknown book", "remote_id", rec.ID, "book_remote_id", rec.BookID)
			complete = false
			continue
		}
		if err != nil {
			e.log.Error(ctx, "failed to resolve owning book", "remote_id", rec.ID, "error", err)
			complete = false
			continue
		}

		local, err := e.txs.GetByRemoteID(ctx, rec.ID)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			if _, err := e.txs.ApplyRemote(ctx, transactionFromRecord(rec, book.LocalID)); err != nil {
				e.log.Error(ctx, "failed to apply pulled transaction", "remote_id", rec.ID, "error", err)
				complete = false
				continue
			}
			applied++

		case err != nil:
			e.log.Error(ctx, "failed to look up pulled transaction", "remote_id", rec.ID, "error", err)
			complete = false
			continue

		case local.UpdatedAt.After(rec.UpdatedAt):
			res.Conflicts = append(res.Conflicts, Conflict{
				Kind:              models.CollectionTransactions,
				LocalID:           local.LocalID,
				RemoteID:          rec.ID,
				LocalUpdatedAt:    local.UpdatedAt,
				RemoteUpdatedAt:   rec.UpdatedAt,
				LocalTransaction:  local,
				RemoteTransaction: &rec,
			})

		default:
			if _, err := e.txs.ApplyRemote(ctx, transactionFromRecord(rec, book.LocalID)); err != nil {
				e.log.Error(ctx, "failed to overwrite transaction from remote", "remote_id", rec.ID, "error", err)
				complete = false
				continue
			}
			applied++
		}
	}

	if applied > 0 {
		e.notifyChange(models.CollectionTransactions)
	}

	e.advanceCursor(ctx, models.CollectionTransactions, pullStart, maxSeen, complete)
	return nil
}

// advanceCursor moves the pull cursor to the pull-phase start time once the
// whole batch has been applied. Advancing even on an empty batch is what
// keeps the next pull from echoing records this device pushes later in the
// same cycle (their timestamps predate the pull). When the remote clock runs
// ahead, the newest remote timestamp seen wins so those records are not
// re-fetched forever. A failed cursor write is only logged: the cursor must
// not appear advanced, so the same window is re-requested next cycle, which
// is safe because re-applying a record is a same-value overwrite.
func (e *Engine) advanceCursor(ctx context.Context, c models.Collection, pullStart, maxSeen time.Time, complete bool) {
	if !complete {
		return
	}
	cursor := pullStart
	if maxSeen.After(cursor) {
		cursor = maxSeen
	}
	if err := e.state.SetLastPulledAt(ctx, c, timex.Trunc(cursor)); err != nil {
		e.log.Warn(ctx, "failed to advance pull cursor", "collection", c, "error", err)
	}
}
