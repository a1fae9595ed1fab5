// Package models defines client-side data models persisted in the local
// store and synchronized with the remote one.
package models

import "time"

// Book is a named ledger owned by one user. It lives in the local store under
// an integer identity and, once pushed, carries an immutable remote UUID.
type Book struct {
	// LocalID is the store-assigned primary identity, unique locally.
	LocalID int64

	// RemoteID is the globally unique identifier, empty until the book has
	// been pushed at least once. Once assigned it never changes.
	RemoteID string

	// Name is the user-editable display name.
	Name string

	// CreatedAt is the immutable creation time in UTC.
	CreatedAt time.Time

	// UpdatedAt is bumped on every local or remote-applied change.
	UpdatedAt time.Time

	// Dirty marks local state that diverged from the last-known-synced state
	// and must be pushed.
	Dirty bool

	// Deleted is a tombstone. The row is never physically removed by the
	// sync engine so the deletion itself can propagate.
	Deleted bool
}

// NeedsPush reports whether the book must be sent to the remote store.
func (b *Book) NeedsPush() bool {
	return b.Dirty || b.RemoteID == ""
}
