package syncstate

import (
	"context"
	"time"

	"github.com/dkurniawan/bukukas/internal/client/models"
)

// Repository persists per-collection sync watermarks: the pull cursor
// (high-water mark of the last successful pull) and the push cursor
// (time of the last completed push pass).
//
// Setters are monotonic: a value older than the stored one is ignored, so a
// cursor can never move backwards.
type Repository interface {
	// GetLastPulledAt returns the pull cursor, or the zero time when the
	// collection has never been pulled.
	GetLastPulledAt(ctx context.Context, c models.Collection) (time.Time, error)

	// SetLastPulledAt advances the pull cursor.
	SetLastPulledAt(ctx context.Context, c models.Collection, t time.Time) error

	// GetLastPushedAt returns the push cursor, or the zero time.
	GetLastPushedAt(ctx context.Context, c models.Collection) (time.Time, error)

	// SetLastPushedAt advances the push cursor.
	SetLastPushedAt(ctx context.Context, c models.Collection, t time.Time) error
}
