package sync

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dkurniawan/bukukas/internal/client/models"
	"github.com/dkurniawan/bukukas/internal/client/remote"
	"github.com/dkurniawan/bukukas/internal/client/repositories/books"
	"github.com/dkurniawan/bukukas/internal/client/repositories/syncstate"
	"github.com/dkurniawan/bukukas/internal/client/repositories/transactions"
	"github.com/dkurniawan/bukukas/internal/common"
	"github.com/dkurniawan/bukukas/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

const testUser = "u1"

// fakeGateway is an in-memory Gateway with per-method error toggles and call
// counters, in the spirit of the repository-level fakes elsewhere in the
// project.
type fakeGateway struct {
	mu sync.Mutex

	books map[string]remote.BookRecord
	txs   map[string]remote.TransactionRecord
	metas map[string]remote.UserMeta

	selectBooksErr error
	selectTxsErr   error
	upsertBookErr  func(rec remote.BookRecord) error

	selectBooksCalls int
	selectTxsCalls   int
	upsertBookCalls  int
	upsertTxCalls    int

	lastBooksSince time.Time
	lastTxsSince   time.Time

	// selectGate, when set, is received from before SelectBooks returns so a
	// test can hold a cycle open.
	selectGate chan struct{}
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		books: make(map[string]remote.BookRecord),
		txs:   make(map[string]remote.TransactionRecord),
		metas: make(map[string]remote.UserMeta),
	}
}

func (g *fakeGateway) SelectBooks(ctx context.Context, userID string, updatedAfter time.Time) ([]remote.BookRecord, error) {
	if g.selectGate != nil {
		<-g.selectGate
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.selectBooksCalls++
	g.lastBooksSince = updatedAfter
	if g.selectBooksErr != nil {
		return nil, g.selectBooksErr
	}
	var out []remote.BookRecord
	for _, rec := range g.books {
		if rec.UserID == userID && rec.UpdatedAt.After(updatedAfter) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (g *fakeGateway) SelectTransactions(ctx context.Context, userID string, updatedAfter time.Time) ([]remote.TransactionRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.selectTxsCalls++
	g.lastTxsSince = updatedAfter
	if g.selectTxsErr != nil {
		return nil, g.selectTxsErr
	}
	var out []remote.TransactionRecord
	for _, rec := range g.txs {
		if rec.UserID == userID && rec.UpdatedAt.After(updatedAfter) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (g *fakeGateway) UpsertBook(ctx context.Context, rec remote.BookRecord) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.upsertBookCalls++
	if g.upsertBookErr != nil {
		if err := g.upsertBookErr(rec); err != nil {
			return err
		}
	}
	g.books[rec.ID] = rec
	return nil
}

func (g *fakeGateway) UpsertTransaction(ctx context.Context, rec remote.TransactionRecord) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.upsertTxCalls++
	g.txs[rec.ID] = rec
	return nil
}

func (g *fakeGateway) FindBookByName(ctx context.Context, userID, name string) (*remote.BookRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, rec := range g.books {
		if rec.UserID == userID && rec.Name == name && !rec.Deleted {
			return &rec, nil
		}
	}
	return nil, nil
}

func (g *fakeGateway) FindTransactionByKey(ctx context.Context, userID, bookID string, createdAt time.Time, amount float64) (*remote.TransactionRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, rec := range g.txs {
		if rec.UserID == userID && rec.BookID == bookID && rec.CreatedAt.Equal(createdAt) && rec.Amount == amount && !rec.Deleted {
			return &rec, nil
		}
	}
	return nil, nil
}

func (g *fakeGateway) UpsertUserMeta(ctx context.Context, meta remote.UserMeta) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.metas[meta.UserID] = meta
	return nil
}

func (g *fakeGateway) bookCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.books)
}

type harness struct {
	engine *Engine
	gw     *fakeGateway
	books  *books.SQLiteRepository
	txs    *transactions.SQLiteRepository
	state  *syncstate.SQLiteRepository
	clock  *fakeClock
}

type fakeClock struct {
	mu  sync.Mutex
	cur time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(d)
}

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE books (
  local_id   INTEGER PRIMARY KEY AUTOINCREMENT,
  remote_id  TEXT NOT NULL DEFAULT '',
  name       TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  dirty      INTEGER NOT NULL DEFAULT 1,
  deleted    INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE transactions (
  local_id      INTEGER PRIMARY KEY AUTOINCREMENT,
  remote_id     TEXT NOT NULL DEFAULT '',
  book_local_id INTEGER NOT NULL,
  kind          TEXT NOT NULL,
  amount        REAL NOT NULL,
  category      TEXT NOT NULL DEFAULT '',
  note          TEXT NOT NULL DEFAULT '',
  created_at    INTEGER NOT NULL,
  updated_at    INTEGER NOT NULL,
  dirty         INTEGER NOT NULL DEFAULT 1,
  deleted       INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE sync_state (
  collection     TEXT PRIMARY KEY,
  last_pulled_at INTEGER NOT NULL DEFAULT 0,
  last_pushed_at INTEGER NOT NULL DEFAULT 0
);
`)
	require.NoError(t, err)
	return db
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func setup(t *testing.T) *harness {
	t.Helper()
	db := setupDB(t)

	h := &harness{
		gw:    newFakeGateway(),
		books: books.NewSQLiteRepository(db),
		txs:   transactions.NewSQLiteRepository(db),
		state: syncstate.NewSQLiteRepository(db),
		clock: &fakeClock{cur: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
	}
	h.engine = NewEngine(h.books, h.txs, h.state, h.gw, testLogger(),
		WithClock(h.clock.Now))
	return h
}

func (h *harness) addLocalBook(t *testing.T, name string) int64 {
	t.Helper()
	now := h.clock.Now()
	id, err := h.books.Insert(context.Background(), &models.Book{Name: name, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	return id
}

func (h *harness) addLocalTransaction(t *testing.T, bookID int64, amount float64) int64 {
	t.Helper()
	now := h.clock.Now()
	id, err := h.txs.Insert(context.Background(), &models.Transaction{
		BookLocalID: bookID,
		Kind:        models.KindExpense,
		Amount:      amount,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	require.NoError(t, err)
	return id
}

func TestSyncAll_ValidatesSetup(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	err := h.engine.SyncAll(ctx, "")
	assert.ErrorIs(t, err, common.ErrMissingUserID)

	noGateway := NewEngine(h.books, h.txs, h.state, nil, testLogger())
	err = noGateway.SyncAll(ctx, testUser)
	assert.ErrorIs(t, err, common.ErrMissingGateway)
}

func TestSyncAll_FreshBookGetsRemoteID(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	id := h.addLocalBook(t, "Personal")

	require.NoError(t, h.engine.SyncAll(ctx, testUser))

	b, err := h.books.GetByLocalID(ctx, id)
	require.NoError(t, err)
	assert.Len(t, b.RemoteID, 36, "remote id must be UUID shaped")
	assert.False(t, b.Dirty)

	rec, ok := h.gw.books[b.RemoteID]
	require.True(t, ok, "book must exist remotely")
	assert.Equal(t, "Personal", rec.Name)
	assert.Equal(t, testUser, rec.UserID)
}

func TestSyncAll_TransactionReferencesBookRemoteID(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	bookID := h.addLocalBook(t, "Personal")
	require.NoError(t, h.engine.SyncAll(ctx, testUser))

	h.clock.Advance(time.Minute)
	txID := h.addLocalTransaction(t, bookID, 50000)
	require.NoError(t, h.engine.SyncAll(ctx, testUser))

	txRow, err := h.txs.GetByLocalID(ctx, txID)
	require.NoError(t, err)
	assert.Len(t, txRow.RemoteID, 36)
	assert.False(t, txRow.Dirty)

	book, err := h.books.GetByLocalID(ctx, bookID)
	require.NoError(t, err)

	rec, ok := h.gw.txs[txRow.RemoteID]
	require.True(t, ok)
	assert.Equal(t, book.RemoteID, rec.BookID, "pushed payload must reference the book's remote id")
	assert.Equal(t, "expense", rec.Kind)
	assert.Equal(t, 50000.0, rec.Amount)
}

func TestSyncAll_SecondCycleIsNoOp(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	bookID := h.addLocalBook(t, "Personal")
	h.addLocalTransaction(t, bookID, 100)
	require.NoError(t, h.engine.SyncAll(ctx, testUser))

	booksUpserts := h.gw.upsertBookCalls
	txUpserts := h.gw.upsertTxCalls

	h.clock.Advance(time.Minute)
	res, err := h.engine.PullFromServer(ctx, testUser)
	require.NoError(t, err)
	assert.False(t, res.HasNewData)
	assert.Empty(t, res.Conflicts)

	require.NoError(t, h.engine.SyncAll(ctx, testUser))
	assert.Equal(t, booksUpserts, h.gw.upsertBookCalls, "no writes expected on a quiet cycle")
	assert.Equal(t, txUpserts, h.gw.upsertTxCalls)
}

func TestSyncAll_TombstonePropagation(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	bookID := h.addLocalBook(t, "Trip")
	txID := h.addLocalTransaction(t, bookID, 75)
	require.NoError(t, h.engine.SyncAll(ctx, testUser))

	h.clock.Advance(time.Minute)
	at := h.clock.Now()
	require.NoError(t, h.books.SoftDelete(ctx, bookID, at))
	require.NoError(t, h.txs.TombstoneByBook(ctx, bookID, at))

	require.NoError(t, h.engine.SyncAll(ctx, testUser))

	b, err := h.books.GetByLocalID(ctx, bookID)
	require.NoError(t, err)
	txRow, err := h.txs.GetByLocalID(ctx, txID)
	require.NoError(t, err)

	assert.True(t, h.gw.books[b.RemoteID].Deleted, "book tombstone must reach the remote")
	assert.True(t, h.gw.txs[txRow.RemoteID].Deleted, "transaction tombstone must reach the remote")
	assert.False(t, b.Dirty)
	assert.False(t, txRow.Dirty)
}

func TestSyncAll_AppliesRemoteTombstone(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	bookID := h.addLocalBook(t, "Shared")
	require.NoError(t, h.engine.SyncAll(ctx, testUser))
	b, err := h.books.GetByLocalID(ctx, bookID)
	require.NoError(t, err)

	// another device deletes the book remotely
	rec := h.gw.books[b.RemoteID]
	rec.Deleted = true
	rec.UpdatedAt = h.clock.Now().Add(time.Hour)
	h.gw.books[rec.ID] = rec

	h.clock.Advance(2 * time.Hour)
	require.NoError(t, h.engine.SyncAll(ctx, testUser))

	b, err = h.books.GetByLocalID(ctx, bookID)
	require.NoError(t, err)
	assert.True(t, b.Deleted, "remote tombstone must apply locally")
	assert.False(t, b.Dirty)
}

func TestSyncAll_ReentrantCallIsNoOp(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	gate := make(chan struct{})
	h.gw.selectGate = gate

	done := make(chan error, 1)
	go func() { done <- h.engine.SyncAll(ctx, testUser) }()

	// wait until the first cycle is blocked inside the gateway
	require.Eventually(t, func() bool { return h.engine.running.Load() }, time.Second, time.Millisecond)

	require.NoError(t, h.engine.SyncAll(ctx, testUser), "re-entrant call must be a no-op")

	gate <- struct{}{}
	require.NoError(t, <-done)

	assert.Equal(t, 1, h.gw.selectBooksCalls, "second call must not have reached the gateway")
}

func TestSyncAll_PhaseFailureSurfacesError(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	h.gw.selectBooksErr = assert.AnError
	err := h.engine.SyncAll(ctx, testUser)
	assert.ErrorIs(t, err, assert.AnError)

	// cycle may be retried immediately
	h.gw.selectBooksErr = nil
	assert.NoError(t, h.engine.SyncAll(ctx, testUser))
}

func TestSyncAll_EmitsStatusTransitions(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	var seen []Status
	h.engine.SubscribeStatus(func(s Status) { seen = append(seen, s) })

	h.addLocalBook(t, "Personal")
	require.NoError(t, h.engine.SyncAll(ctx, testUser))

	assert.Equal(t, []Status{StatusPulling, StatusPushing, StatusCompleted, StatusIdle}, seen)
}

func TestSyncAll_WritesUserMeta(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	require.NoError(t, h.engine.SyncAll(ctx, testUser))

	meta, ok := h.gw.metas[testUser]
	require.True(t, ok)
	assert.True(t, meta.Initialized)
	assert.Equal(t, h.clock.Now(), meta.LastSync)
}
