package models

import "time"

// TransactionKind classifies an entry as income or expense.
type TransactionKind string

const (
	KindIncome  TransactionKind = "income"
	KindExpense TransactionKind = "expense"
)

// Valid reports whether k is one of the known kinds.
func (k TransactionKind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Transaction is a single income/expense entry belonging to exactly one Book.
// Identity, dirty and tombstone semantics match Book.
type Transaction struct {
	LocalID  int64
	RemoteID string

	// BookLocalID references the owning book in the local store. The
	// transaction may only be pushed once that book has a remote id.
	BookLocalID int64

	Kind TransactionKind

	// Amount is a non-negative magnitude in the caller's currency unit.
	Amount float64

	// Category and Note are optional free-form labels.
	Category string
	Note     string

	CreatedAt time.Time
	UpdatedAt time.Time
	Dirty     bool
	Deleted   bool
}

// NeedsPush reports whether the transaction must be sent to the remote store.
func (t *Transaction) NeedsPush() bool {
	return t.Dirty || t.RemoteID == ""
}
