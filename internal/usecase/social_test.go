package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/VitaminP8/tweed/internal/apperr"
	"github.com/VitaminP8/tweed/internal/mocks"
	"github.com/VitaminP8/tweed/internal/storage/memory"
)

func TestFollowUseCase(t *testing.T) {
	ctx := context.Background()
	follows := mocks.NewMockFollowStorage()
	uc := NewFollowUseCase(follows, zap.NewNop())

	t.Run("Follow and unfollow", func(t *testing.T) {
		require.NoError(t, uc.Follow(ctx, "u1", "u2", now))
		require.NoError(t, uc.Follow(ctx, "u1", "u2", now))

		list, err := follows.GetFollows(ctx, "u1")
		require.NoError(t, err)
		assert.Len(t, list, 1)

		require.NoError(t, uc.Unfollow(ctx, "u1", "u2"))
		list, err = follows.GetFollows(ctx, "u1")
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("Cannot follow yourself", func(t *testing.T) {
		err := uc.Follow(ctx, "u1", "u1", now)
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("Anonymous follower", func(t *testing.T) {
		err := uc.Follow(ctx, "", "u2", now)
		assert.True(t, apperr.IsValidation(err))
	})
}

func TestLikeUseCase(t *testing.T) {
	ctx := context.Background()
	posts := mocks.NewMockPostStorage()
	posts.Put(postAt("p1", "u1", 0))
	uc := NewLikeUseCase(memory.NewLikeMemoryStorage(), posts)

	t.Run("Like is counted once", func(t *testing.T) {
		res, err := uc.Like(ctx, "u2", "p1", now)
		require.NoError(t, err)
		assert.Equal(t, &LikeResult{PostID: "p1", Changed: true, Likes: 1}, res)

		res, err = uc.Like(ctx, "u2", "p1", now)
		require.NoError(t, err)
		assert.False(t, res.Changed)
		assert.Equal(t, int64(1), res.Likes)
	})

	t.Run("Unlike", func(t *testing.T) {
		res, err := uc.Unlike(ctx, "u2", "p1")
		require.NoError(t, err)
		assert.True(t, res.Changed)
		assert.Equal(t, int64(0), res.Likes)
	})

	t.Run("Unknown post", func(t *testing.T) {
		_, err := uc.Like(ctx, "u2", "nope", now)
		assert.True(t, apperr.IsNotFound(err))
	})
}
