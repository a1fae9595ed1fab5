package store

import (
	"context"
	"testing"
	"time"

	"github.com/dkurniawan/bukukas/internal/client/models"
	"github.com/dkurniawan/bukukas/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_OpenRunsMigrations(t *testing.T) {
	m := NewManager(t.TempDir())
	t.Cleanup(func() { _ = m.Close() })
	ctx := context.Background()

	st, err := m.Open(ctx, "u1")
	require.NoError(t, err)

	// migrated schema accepts writes through the repositories
	_, err = st.Books.Insert(ctx, &models.Book{Name: "Personal", CreatedAt: time.Now(), UpdatedAt: time.Now()})
	require.NoError(t, err)
}

func TestManager_OpenSameUserReturnsSameStore(t *testing.T) {
	m := NewManager(t.TempDir())
	t.Cleanup(func() { _ = m.Close() })
	ctx := context.Background()

	st1, err := m.Open(ctx, "u1")
	require.NoError(t, err)
	st2, err := m.Open(ctx, "u1")
	require.NoError(t, err)
	assert.Same(t, st1, st2)
}

func TestManager_SwitchingUserClosesPrevious(t *testing.T) {
	m := NewManager(t.TempDir())
	t.Cleanup(func() { _ = m.Close() })
	ctx := context.Background()

	st1, err := m.Open(ctx, "u1")
	require.NoError(t, err)

	st2, err := m.Open(ctx, "u2")
	require.NoError(t, err)
	assert.NotSame(t, st1, st2)
	assert.Equal(t, "u2", st2.UserID())

	// the previous handle must be closed
	assert.Error(t, st1.DB().Ping())
}

func TestManager_OpenRequiresUserID(t *testing.T) {
	m := NewManager(t.TempDir())
	_, err := m.Open(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrMissingUserID)
}

func TestManager_CurrentWithoutOpen(t *testing.T) {
	m := NewManager(t.TempDir())
	_, err := m.Current()
	assert.ErrorIs(t, err, common.ErrStoreNotOpen)
}

func TestStore_DeleteBookCascade(t *testing.T) {
	m := NewManager(t.TempDir())
	t.Cleanup(func() { _ = m.Close() })
	ctx := context.Background()

	st, err := m.Open(ctx, "u1")
	require.NoError(t, err)

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	bookID, err := st.Books.Insert(ctx, &models.Book{Name: "Trip", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	txID, err := st.Transactions.Insert(ctx, &models.Transaction{
		BookLocalID: bookID, Kind: models.KindExpense, Amount: 120, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	require.NoError(t, st.DeleteBookCascade(ctx, bookID, now.Add(time.Second)))

	b, err := st.Books.GetByLocalID(ctx, bookID)
	require.NoError(t, err)
	assert.True(t, b.Deleted)
	assert.True(t, b.Dirty)

	tx, err := st.Transactions.GetByLocalID(ctx, txID)
	require.NoError(t, err)
	assert.True(t, tx.Deleted)
	assert.True(t, tx.Dirty)
}
