// Package common defines shared constants and sentinel errors used across
// the bukukas client layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Sync-level errors.
	ErrSyncInProgress  = errors.New("sync already in progress")
	ErrMissingUserID   = errors.New("missing user id")
	ErrMissingGateway  = errors.New("missing remote gateway")
	ErrBookNotPushed   = errors.New("owning book has no remote id")
	ErrCursorWrite     = errors.New("cursor write failed")
	ErrStoreNotOpen    = errors.New("local store is not open")
	ErrUserMismatch    = errors.New("store is open for a different user")

	// Auth errors.
	ErrNoCredential      = errors.New("no stored credential")
	ErrCredentialExpired = errors.New("credential expired")

	// Validation errors.
	ErrInvalidKind     = errors.New("kind must be income or expense")
	ErrNegativeAmount  = errors.New("amount must not be negative")
	ErrEmptyBookName   = errors.New("book name must not be empty")
)
