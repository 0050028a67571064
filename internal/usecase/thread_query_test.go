package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/VitaminP8/tweed/internal/apperr"
	"github.com/VitaminP8/tweed/internal/mocks"
	"github.com/VitaminP8/tweed/internal/model"
)

func ids(posts []*model.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestThreadQueryUseCase(t *testing.T) {
	ctx := context.Background()
	posts := mocks.NewMockPostStorage()
	threads := mocks.NewMockThreadStorage()
	replies := NewReplyUseCase(posts, threads, nil, zap.NewNop(), 3)
	uc := NewThreadQueryUseCase(posts, threads, zap.NewNop())

	root, err := replies.CreateRoot(ctx, "u1", "root", now)
	require.NoError(t, err)
	a, err := replies.CreateReply(ctx, "u2", "a", now.Add(time.Minute), root.ID)
	require.NoError(t, err)
	b, err := replies.CreateReply(ctx, "u3", "b", now.Add(2*time.Minute), a.ID)
	require.NoError(t, err)
	c, err := replies.CreateReply(ctx, "u2", "c", now.Add(3*time.Minute), root.ID)
	require.NoError(t, err)

	t.Run("Leading path of a nested reply", func(t *testing.T) {
		thread, err := uc.GetThreadPostsForPost(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{root.ID, a.ID, b.ID}, ids(thread))
		assert.Equal(t, "b", thread[2].Text)
	})

	t.Run("Siblings do not interfere", func(t *testing.T) {
		thread, err := uc.GetThreadPostsForPost(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{root.ID, c.ID}, ids(thread))
	})

	t.Run("Root alone", func(t *testing.T) {
		thread, err := uc.GetThreadPostsForPost(ctx, root.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{root.ID}, ids(thread))
	})

	t.Run("Unknown post", func(t *testing.T) {
		_, err := uc.GetThreadPostsForPost(ctx, "nope")
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("Post without thread", func(t *testing.T) {
		posts.Put(&model.Post{ID: "detached", AuthorID: "u1", Text: "x", CreatedAt: now})
		_, err := uc.GetThreadPostsForPost(ctx, "detached")
		assert.True(t, apperr.IsThreadNotFound(err))
	})

	t.Run("Post missing from its tree", func(t *testing.T) {
		posts.Put(&model.Post{ID: "stray", AuthorID: "u1", Text: "x", CreatedAt: now, ThreadID: root.ThreadID})
		_, err := uc.GetThreadPostsForPost(ctx, "stray")
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("Path member missing from batch load", func(t *testing.T) {
		posts.DropFromBatch = map[string]bool{a.ID: true}
		defer func() { posts.DropFromBatch = nil }()

		thread, err := uc.GetThreadPostsForPost(ctx, b.ID)
		assert.Nil(t, thread)
		var nf *apperr.ResourceNotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, a.ID, nf.ID)
	})

	t.Run("Direct replies in reply order", func(t *testing.T) {
		direct, err := uc.GetReplies(ctx, root.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{a.ID, c.ID}, ids(direct))

		leaf, err := uc.GetReplies(ctx, b.ID)
		require.NoError(t, err)
		assert.Empty(t, leaf)
	})
}
