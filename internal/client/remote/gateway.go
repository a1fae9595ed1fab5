// Package remote defines the gateway contract the sync engine depends on:
// user-scoped filtered reads and idempotent conditional writes over the
// books and transactions collections, plus per-user bookkeeping metadata.
//
// Adapters live in subpackages: httpapi talks to a hosted REST endpoint with
// a bearer credential, postgres talks directly to a shared database.
package remote

import (
	"context"
	"time"
)

// BookRecord is the remote representation of a book. ID is the engine-assigned
// UUID that stays stable across retries, which makes upserts idempotent.
type BookRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Deleted   bool      `json:"deleted"`
}

// TransactionRecord is the remote representation of a transaction. BookID
// references the owning book's remote id.
type TransactionRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BookID    string    `json:"book_id"`
	Kind      string    `json:"kind"`
	Amount    float64   `json:"amount"`
	Category  string    `json:"category,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Deleted   bool      `json:"deleted"`
}

// UserMeta is per-user bookkeeping the engine writes as a courtesy after a
// successful cycle. It is not required for correctness.
type UserMeta struct {
	UserID      string    `json:"user_id"`
	Initialized bool      `json:"initialized"`
	LastSync    time.Time `json:"last_sync"`
}

// Gateway is the filtered-read/conditional-write API consumed by the sync
// engine. All reads are scoped to a single user; the engine never reads
// across users. Writes must tolerate at-least-once delivery: upserts are
// keyed by the engine-generated record id.
type Gateway interface {
	// SelectBooks returns the user's books with UpdatedAt strictly after
	// updatedAfter. A zero updatedAfter selects everything.
	SelectBooks(ctx context.Context, userID string, updatedAfter time.Time) ([]BookRecord, error)

	// SelectTransactions is the transaction counterpart of SelectBooks.
	SelectTransactions(ctx context.Context, userID string, updatedAfter time.Time) ([]TransactionRecord, error)

	// UpsertBook inserts or updates a book by its remote id.
	UpsertBook(ctx context.Context, rec BookRecord) error

	// UpsertTransaction inserts or updates a transaction by its remote id.
	UpsertTransaction(ctx context.Context, rec TransactionRecord) error

	// FindBookByName looks up a live book by its natural key (owner + name).
	// Used to adopt a remote id after a push that succeeded remotely but was
	// never confirmed locally. Returns (nil, nil) when there is no match.
	FindBookByName(ctx context.Context, userID, name string) (*BookRecord, error)

	// FindTransactionByKey looks up a transaction by its natural key
	// (owner + book + creation time + amount). Returns (nil, nil) when there
	// is no match.
	FindTransactionByKey(ctx context.Context, userID, bookID string, createdAt time.Time, amount float64) (*TransactionRecord, error)

	// UpsertUserMeta records per-user initialized/last-sync bookkeeping.
	UpsertUserMeta(ctx context.Context, meta UserMeta) error
}
