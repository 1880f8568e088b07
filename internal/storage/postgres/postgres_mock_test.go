package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ButyrinIA/spacetraveling/internal/models"
	"github.com/ButyrinIA/spacetraveling/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStorage, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS post_snapshots").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	store, err := NewWithDB(context.Background(), mock)
	require.NoError(t, err)
	return store, mock
}

func TestNewWithDB_MigrationError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS post_snapshots").WillReturnError(errors.New("permission denied"))

	_, err = NewWithDB(context.Background(), mock)
	assert.ErrorContains(t, err, "failed to create tables")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveSnapshot_Mock(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	builtAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectExec("INSERT INTO post_snapshots").
		WithArgs("hello", pgxmock.AnyArg(), builtAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := store.SaveSnapshot(context.Background(), &models.Snapshot{
		Slug:    "hello",
		Post:    &models.Post{ID: "hello", Title: "Oi"},
		BuiltAt: builtAt,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSnapshot_Mock(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		store, mock := newMockStore(t)
		defer mock.Close()

		builtAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		rows := pgxmock.NewRows([]string{"doc", "built_at"}).
			AddRow([]byte(`{"id":"hello","title":"Oi","content":[]}`), builtAt)
		mock.ExpectQuery("SELECT doc, built_at").WithArgs("hello").WillReturnRows(rows)

		snapshot, err := store.GetSnapshot(context.Background(), "hello")
		require.NoError(t, err)
		require.NotNil(t, snapshot.Post)
		assert.Equal(t, "Oi", snapshot.Post.Title)
		assert.Equal(t, "hello", snapshot.Slug)
		assert.Equal(t, builtAt, snapshot.BuiltAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		store, mock := newMockStore(t)
		defer mock.Close()

		mock.ExpectQuery("SELECT doc, built_at").WithArgs("nope").WillReturnError(pgx.ErrNoRows)

		_, err := store.GetSnapshot(context.Background(), "nope")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("corrupt doc", func(t *testing.T) {
		store, mock := newMockStore(t)
		defer mock.Close()

		rows := pgxmock.NewRows([]string{"doc", "built_at"}).AddRow([]byte(`{`), time.Now())
		mock.ExpectQuery("SELECT doc, built_at").WithArgs("bad").WillReturnRows(rows)

		_, err := store.GetSnapshot(context.Background(), "bad")
		assert.ErrorContains(t, err, "decode snapshot bad")
	})
}

func TestDeleteSnapshot_Mock(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM post_snapshots").WithArgs("hello").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	assert.NoError(t, store.DeleteSnapshot(context.Background(), "hello"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
