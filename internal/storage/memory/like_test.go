package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VitaminP8/tweed/internal/model"
)

func TestLikeMemoryStorage(t *testing.T) {
	storage := NewLikeMemoryStorage()
	ctx := context.Background()

	added, err := storage.AddLike(ctx, model.Like{PostID: "p1", UserID: "u1", CreatedAt: baseTime})
	require.NoError(t, err)
	assert.True(t, added)

	t.Run("Second like by the same user is ignored", func(t *testing.T) {
		added, err := storage.AddLike(ctx, model.Like{PostID: "p1", UserID: "u1", CreatedAt: baseTime})
		require.NoError(t, err)
		assert.False(t, added)
	})

	t.Run("Counts per post", func(t *testing.T) {
		_, err := storage.AddLike(ctx, model.Like{PostID: "p1", UserID: "u2", CreatedAt: baseTime})
		require.NoError(t, err)

		counts, err := storage.CountLikes(ctx, []string{"p1", "p2"})
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"p1": 2, "p2": 0}, counts)
	})

	t.Run("Remove like", func(t *testing.T) {
		removed, err := storage.RemoveLike(ctx, "p1", "u2")
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = storage.RemoveLike(ctx, "p1", "u2")
		require.NoError(t, err)
		assert.False(t, removed)

		counts, err := storage.CountLikes(ctx, []string{"p1"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), counts["p1"])
	})
}
