package memory

import (
	"context"
	"testing"
	"time"

	"github.com/ButyrinIA/spacetraveling/internal/models"
	"github.com/ButyrinIA/spacetraveling/internal/storage"
	"github.com/stretchr/testify/assert"
)

func TestMemoryStorage(t *testing.T) {
	t.Run("SaveSnapshot and GetSnapshot", func(t *testing.T) {
		store := New()
		ctx := context.Background()

		snapshot := &models.Snapshot{
			Slug:    "como-utilizar-hooks",
			Post:    &models.Post{ID: "como-utilizar-hooks", Title: "Como utilizar Hooks"},
			BuiltAt: time.Now(),
		}

		err := store.SaveSnapshot(ctx, snapshot)
		assert.NoError(t, err, "save failed")

		retrieved, err := store.GetSnapshot(ctx, snapshot.Slug)
		assert.NoError(t, err, "get failed")
		assert.Equal(t, snapshot, retrieved, "stored snapshot differs")
	})

	t.Run("GetSnapshot Not Found", func(t *testing.T) {
		store := New()

		_, err := store.GetSnapshot(context.Background(), "non-existent")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("missing post snapshot", func(t *testing.T) {
		store := New()
		ctx := context.Background()

		assert.NoError(t, store.SaveSnapshot(ctx, &models.Snapshot{Slug: "gone", BuiltAt: time.Now()}))

		retrieved, err := store.GetSnapshot(ctx, "gone")
		assert.NoError(t, err)
		assert.Nil(t, retrieved.Post)
	})

	t.Run("SaveSnapshot overwrites", func(t *testing.T) {
		store := New()
		ctx := context.Background()

		assert.NoError(t, store.SaveSnapshot(ctx, &models.Snapshot{Slug: "p", Post: &models.Post{Title: "old"}}))
		assert.NoError(t, store.SaveSnapshot(ctx, &models.Snapshot{Slug: "p", Post: &models.Post{Title: "new"}}))

		retrieved, err := store.GetSnapshot(ctx, "p")
		assert.NoError(t, err)
		assert.Equal(t, "new", retrieved.Post.Title)
	})

	t.Run("empty slug", func(t *testing.T) {
		store := New()
		assert.Error(t, store.SaveSnapshot(context.Background(), &models.Snapshot{}))
	})

	t.Run("DeleteSnapshot", func(t *testing.T) {
		store := New()
		ctx := context.Background()

		assert.NoError(t, store.SaveSnapshot(ctx, &models.Snapshot{Slug: "p"}))
		assert.NoError(t, store.DeleteSnapshot(ctx, "p"))
		assert.NoError(t, store.DeleteSnapshot(ctx, "p"), "delete of absent slug")

		_, err := store.GetSnapshot(ctx, "p")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Close", func(t *testing.T) {
		store := New()
		ctx := context.Background()

		assert.NoError(t, store.SaveSnapshot(ctx, &models.Snapshot{Slug: "p"}))
		assert.NoError(t, store.Close(), "close failed")

		_, err := store.GetSnapshot(ctx, "p")
		assert.Error(t, err, "store must be empty after close")
	})
}
