// Package sync implements the offline-first bidirectional synchronization
// engine: classification of local records into needs-push vs synced, the
// pull → resolve → push cycle against the remote gateway, and the
// remote-wins conflict policy.
//
// The engine is stateless between cycles. Everything it needs to retry is
// encoded in the records themselves (dirty flags, missing remote ids) and in
// the per-collection cursors, so a failed cycle is recovered by simply
// running another one.
package sync

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dkurniawan/bukukas/internal/client/remote"
	"github.com/dkurniawan/bukukas/internal/client/repositories/books"
	"github.com/dkurniawan/bukukas/internal/client/repositories/syncstate"
	"github.com/dkurniawan/bukukas/internal/client/repositories/transactions"
	"github.com/dkurniawan/bukukas/internal/common"
	"github.com/dkurniawan/bukukas/internal/logging"
	"github.com/google/uuid"
)

// Engine orchestrates sync cycles for one local store. Concurrent SyncAll
// calls are serialized: while a cycle is in flight, further calls return
// immediately as no-ops.
type Engine struct {
	books books.Repository
	txs   transactions.Repository
	state syncstate.Repository
	gw    remote.Gateway
	log   logging.Logger

	now   func() time.Time
	newID func() string

	running atomic.Bool

	obsMu      sync.Mutex
	changeSubs []func(Change)
	statusSubs []func(Status)
}

// Option adjusts engine construction, mainly for tests.
type Option func(*Engine)

// WithClock replaces the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator replaces the remote-id generator.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// NewEngine wires the engine to the local repositories and the remote
// gateway.
func NewEngine(b books.Repository, t transactions.Repository, s syncstate.Repository,
	gw remote.Gateway, log logging.Logger, opts ...Option) *Engine {

	e := &Engine{
		books: b,
		txs:   t,
		state: s,
		gw:    gw,
		log:   log,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SyncAll runs one full cycle: pull, resolve collected conflicts remote-wins,
// then push. It returns an error only when an entire phase cannot proceed;
// individual record failures are logged and retried implicitly on the next
// cycle because their dirty state is left in place.
//
// A call while another cycle is running is a no-op.
func (e *Engine) SyncAll(ctx context.Context, userID string) error {
	if userID == "" {
		return common.ErrMissingUserID
	}
	if e.gw == nil {
		return common.ErrMissingGateway
	}

	if !e.running.CompareAndSwap(false, true) {
		e.log.Info(ctx, "sync already in progress, skipping", "user", userID)
		return nil
	}
	defer e.running.Store(false)

	e.setStatus(StatusPulling)
	res, err := e.pull(ctx, userID)
	if err != nil {
		e.setStatus(StatusFailed)
		return err
	}

	if len(res.Conflicts) > 0 {
		e.setStatus(StatusResolving)
		if err := e.resolve(ctx, res.Conflicts); err != nil {
			e.setStatus(StatusFailed)
			return err
		}
	}

	e.setStatus(StatusPushing)
	if err := e.push(ctx, userID); err != nil {
		e.setStatus(StatusFailed)
		return err
	}

	// Courtesy bookkeeping; a failure here must not fail the cycle.
	meta := remote.UserMeta{UserID: userID, Initialized: true, LastSync: e.now()}
	if err := e.gw.UpsertUserMeta(ctx, meta); err != nil {
		e.log.Warn(ctx, "failed to update user metadata", "user", userID, "error", err)
	}

	e.setStatus(StatusCompleted)
	e.setStatus(StatusIdle)
	return nil
}

// PullFromServer runs just the pull phase and returns what it found,
// including unresolved conflicts. Callers wanting phase-level visibility use
// this together with ResolveConflicts and PushToServer; SyncAll remains the
// canonical full-cycle entry point.
func (e *Engine) PullFromServer(ctx context.Context, userID string) (*PullResult, error) {
	if userID == "" {
		return nil, common.ErrMissingUserID
	}
	if e.gw == nil {
		return nil, common.ErrMissingGateway
	}
	return e.pull(ctx, userID)
}

// ResolveConflicts applies the remote snapshot of every conflict to the local
// store (remote-wins) and clears the dirty flag. Resolving the same conflict
// twice is harmless: the overwrite is a same-value apply.
func (e *Engine) ResolveConflicts(ctx context.Context, conflicts []Conflict) error {
	return e.resolve(ctx, conflicts)
}

// PushToServer runs just the push phase.
func (e *Engine) PushToServer(ctx context.Context, userID string) error {
	if userID == "" {
		return common.ErrMissingUserID
	}
	if e.gw == nil {
		return common.ErrMissingGateway
	}
	return e.push(ctx, userID)
}
