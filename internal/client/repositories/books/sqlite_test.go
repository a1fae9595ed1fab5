package books

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dkurniawan/bukukas/internal/client/models"
	"github.com/dkurniawan/bukukas/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
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
`)
	require.NoError(t, err)

	return db
}

func ts(sec int) time.Time {
	return time.Date(2024, 5, 1, 10, 0, sec, 0, time.UTC)
}

func TestInsert_MarksDirtyWithoutRemoteID(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	id, err := r.Insert(ctx, &models.Book{Name: "Personal", CreatedAt: ts(0), UpdatedAt: ts(0)})
	require.NoError(t, err)

	b, err := r.GetByLocalID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Personal", b.Name)
	assert.Empty(t, b.RemoteID)
	assert.True(t, b.Dirty)
	assert.False(t, b.Deleted)
	assert.Equal(t, ts(0), b.CreatedAt)
}

func TestRename_BumpsUpdatedAtAndDirty(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	id, err := r.Insert(ctx, &models.Book{Name: "Old", CreatedAt: ts(0), UpdatedAt: ts(0)})
	require.NoError(t, err)
	require.NoError(t, r.MarkClean(ctx, id, "rid-1", ts(0), ts(0)))

	require.NoError(t, r.Rename(ctx, id, "New", ts(5)))

	b, err := r.GetByLocalID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "New", b.Name)
	assert.True(t, b.Dirty)
	assert.Equal(t, ts(5), b.UpdatedAt)
}

func TestSoftDelete_SetsTombstoneOnce(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	id, err := r.Insert(ctx, &models.Book{Name: "Trip", CreatedAt: ts(0), UpdatedAt: ts(0)})
	require.NoError(t, err)

	require.NoError(t, r.SoftDelete(ctx, id, ts(3)))

	b, err := r.GetByLocalID(ctx, id)
	require.NoError(t, err)
	assert.True(t, b.Deleted)
	assert.True(t, b.Dirty)

	// a second delete affects no rows
	require.Error(t, r.SoftDelete(ctx, id, ts(4)))
}

func TestGetByRemoteID_NotFound(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	_, err := r.GetByRemoteID(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestListDirtyAndUnsynced(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	id1, err := r.Insert(ctx, &models.Book{Name: "A", CreatedAt: ts(0), UpdatedAt: ts(0)})
	require.NoError(t, err)
	_, err = r.Insert(ctx, &models.Book{Name: "B", CreatedAt: ts(0), UpdatedAt: ts(0)})
	require.NoError(t, err)

	// A pushed and clean, B still local-only.
	require.NoError(t, r.MarkClean(ctx, id1, "rid-a", ts(1), ts(1)))

	dirty, err := r.ListDirty(ctx)
	require.NoError(t, err)
	require.Len(t, dirty, 1)
	assert.Equal(t, "B", dirty[0].Name)

	unsynced, err := r.ListUnsynced(ctx)
	require.NoError(t, err)
	require.Len(t, unsynced, 1)
	assert.Equal(t, "B", unsynced[0].Name)

	// editing A makes it dirty again but it stays synced (has remote id)
	require.NoError(t, r.Rename(ctx, id1, "A2", ts(2)))
	dirty, err = r.ListDirty(ctx)
	require.NoError(t, err)
	assert.Len(t, dirty, 2)
	unsynced, err = r.ListUnsynced(ctx)
	require.NoError(t, err)
	assert.Len(t, unsynced, 1)
}

func TestApplyRemote_InsertsThenOverwrites(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	remote := &models.Book{RemoteID: "rid-1", Name: "Shared", CreatedAt: ts(0), UpdatedAt: ts(1)}
	id, err := r.ApplyRemote(ctx, remote)
	require.NoError(t, err)

	b, err := r.GetByLocalID(ctx, id)
	require.NoError(t, err)
	assert.False(t, b.Dirty, "pulled record must start clean")
	assert.Equal(t, "Shared", b.Name)

	remote.Name = "Shared v2"
	remote.UpdatedAt = ts(2)
	id2, err := r.ApplyRemote(ctx, remote)
	require.NoError(t, err)
	assert.Equal(t, id, id2, "overwrite must keep the local identity")

	b, err = r.GetByLocalID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Shared v2", b.Name)
	assert.Equal(t, ts(2), b.UpdatedAt)
	assert.False(t, b.Dirty)
}

func TestApplyRemote_Tombstone(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	id, err := r.ApplyRemote(ctx, &models.Book{RemoteID: "rid-1", Name: "X", CreatedAt: ts(0), UpdatedAt: ts(1)})
	require.NoError(t, err)

	_, err = r.ApplyRemote(ctx, &models.Book{RemoteID: "rid-1", Name: "X", CreatedAt: ts(0), UpdatedAt: ts(2), Deleted: true})
	require.NoError(t, err)

	b, err := r.GetByLocalID(ctx, id)
	require.NoError(t, err)
	assert.True(t, b.Deleted)
	assert.False(t, b.Dirty)

	// a later overwrite cannot resurrect a tombstoned row
	_, err = r.ApplyRemote(ctx, &models.Book{RemoteID: "rid-1", Name: "X", CreatedAt: ts(0), UpdatedAt: ts(3)})
	require.NoError(t, err)

	b, err = r.GetByLocalID(ctx, id)
	require.NoError(t, err)
	assert.True(t, b.Deleted)
}

func TestAdoptRemoteID_OnlyWhenAbsent(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	id, err := r.Insert(ctx, &models.Book{Name: "A", CreatedAt: ts(0), UpdatedAt: ts(0)})
	require.NoError(t, err)

	require.NoError(t, r.AdoptRemoteID(ctx, id, "rid-1"))
	require.NoError(t, r.AdoptRemoteID(ctx, id, "rid-2")) // no-op, id already set

	b, err := r.GetByLocalID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "rid-1", b.RemoteID, "remote id must be immutable once assigned")
}

func TestMarkClean_GuardedByPushStart(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	id, err := r.Insert(ctx, &models.Book{Name: "A", CreatedAt: ts(0), UpdatedAt: ts(0)})
	require.NoError(t, err)

	// user edit lands after the push snapshot was taken
	require.NoError(t, r.Rename(ctx, id, "A edited", ts(10)))

	require.NoError(t, r.MarkClean(ctx, id, "rid-1", ts(0), ts(5)))

	b, err := r.GetByLocalID(ctx, id)
	require.NoError(t, err)
	assert.True(t, b.Dirty, "edit made mid-push must keep the row dirty")
	assert.Equal(t, ts(10), b.UpdatedAt)
}

func TestGetAll_FiltersTombstones(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	id1, err := r.Insert(ctx, &models.Book{Name: "Keep", CreatedAt: ts(0), UpdatedAt: ts(0)})
	require.NoError(t, err)
	id2, err := r.Insert(ctx, &models.Book{Name: "Drop", CreatedAt: ts(0), UpdatedAt: ts(0)})
	require.NoError(t, err)
	_ = id1
	require.NoError(t, r.SoftDelete(ctx, id2, ts(1)))

	live, err := r.GetAll(ctx, false)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, "Keep", live[0].Name)

	all, err := r.GetAll(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
