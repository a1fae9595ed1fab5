package models

// Collection names a synchronized record set. Cursors and change
// notifications are tracked per collection.
type Collection string

const (
	CollectionBooks        Collection = "books"
	CollectionTransactions Collection = "transactions"
)
