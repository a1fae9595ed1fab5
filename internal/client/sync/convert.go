package sync

import (
	"github.com/dkurniawan/bukukas/internal/client/models"
	"github.com/dkurniawan/bukukas/internal/client/remote"
)

func bookFromRecord(rec remote.BookRecord) *models.Book {
	return &models.Book{
		RemoteID:  rec.ID,
		Name:      rec.Name,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		Deleted:   rec.Deleted,
	}
}

func bookToRecord(b *models.Book, remoteID, userID string) remote.BookRecord {
	return remote.BookRecord{
		ID:        remoteID,
		UserID:    userID,
		Name:      b.Name,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
		Deleted:   b.Deleted,
	}
}

func transactionFromRecord(rec remote.TransactionRecord, bookLocalID int64) *models.Transaction {
	return &models.Transaction{
		RemoteID:    rec.ID,
		BookLocalID: bookLocalID,
		Kind:        models.TransactionKind(rec.Kind),
		Amount:      rec.Amount,
		Category:    rec.Category,
		Note:        rec.Note,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
		Deleted:     rec.Deleted,
	}
}

func transactionToRecord(t *models.Transaction, remoteID, bookRemoteID, userID string) remote.TransactionRecord {
	return remote.TransactionRecord{
		ID:        remoteID,
		UserID:    userID,
		BookID:    bookRemoteID,
		Kind:      string(t.Kind),
		Amount:    t.Amount,
		Category:  t.Category,
		Note:      t.Note,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
		Deleted:   t.Deleted,
	}
}
