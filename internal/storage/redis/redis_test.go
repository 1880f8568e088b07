package redis

import (
	"context"
	"testing"
	"time"

	"github.com/ButyrinIA/spacetraveling/internal/config"
	"github.com/ButyrinIA/spacetraveling/internal/models"
	"github.com/ButyrinIA/spacetraveling/internal/storage"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	store, err := New(context.Background(), config.RedisConfig{Addr: mr.Addr(), KeyPrefix: "test:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("SaveSnapshot and GetSnapshot", func(t *testing.T) {
		store, mr := newStore(t)

		builtAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		err := store.SaveSnapshot(ctx, &models.Snapshot{
			Slug:    "hello",
			Post:    &models.Post{ID: "hello", Title: "Oi", Content: []models.ContentBlock{}},
			BuiltAt: builtAt,
		})
		require.NoError(t, err)
		assert.True(t, mr.Exists("test:hello"))

		got, err := store.GetSnapshot(ctx, "hello")
		require.NoError(t, err)
		require.NotNil(t, got.Post)
		assert.Equal(t, "Oi", got.Post.Title)
		assert.True(t, got.BuiltAt.Equal(builtAt))
	})

	t.Run("missing post snapshot", func(t *testing.T) {
		store, _ := newStore(t)

		require.NoError(t, store.SaveSnapshot(ctx, &models.Snapshot{Slug: "gone", BuiltAt: time.Now()}))
		got, err := store.GetSnapshot(ctx, "gone")
		require.NoError(t, err)
		assert.Nil(t, got.Post)
	})

	t.Run("not found", func(t *testing.T) {
		store, _ := newStore(t)

		_, err := store.GetSnapshot(ctx, "absent")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("DeleteSnapshot", func(t *testing.T) {
		store, mr := newStore(t)

		require.NoError(t, store.SaveSnapshot(ctx, &models.Snapshot{Slug: "p"}))
		require.NoError(t, store.DeleteSnapshot(ctx, "p"))
		assert.False(t, mr.Exists("test:p"))
	})

	t.Run("corrupt value", func(t *testing.T) {
		store, mr := newStore(t)

		require.NoError(t, mr.Set("test:bad", "{"))
		_, err := store.GetSnapshot(ctx, "bad")
		assert.ErrorContains(t, err, "decode snapshot bad")
	})
}

func TestNew_Unreachable(t *testing.T) {
	_, err := New(context.Background(), config.RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
