package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VitaminP8/tweed/internal/apperr"
	"github.com/VitaminP8/tweed/internal/thread"
)

func TestThreadPostgresStorage(t *testing.T) {
	oldDB := setupTestDB(t)
	defer teardownTestDB(oldDB)

	storage := NewThreadPostgresStorage()
	ctx := context.Background()

	tree := thread.New()
	require.NoError(t, tree.AttachRoot("1"))
	require.NoError(t, storage.CreateThread(ctx, tree))
	assert.NotEmpty(t, tree.ID)
	assert.Equal(t, int64(1), tree.Version)

	t.Run("Round trip", func(t *testing.T) {
		loaded, err := storage.GetThreadById(ctx, tree.ID)
		require.NoError(t, err)
		assert.Equal(t, tree.ID, loaded.ID)
		assert.Equal(t, int64(1), loaded.Version)
		assert.Equal(t, []string{"1"}, loaded.FindPath("1"))
	})

	t.Run("Save bumps version and keeps replies", func(t *testing.T) {
		loaded, err := storage.GetThreadById(ctx, tree.ID)
		require.NoError(t, err)
		require.NoError(t, loaded.InsertReply("2", "1"))
		require.NoError(t, loaded.InsertReply("3", "2"))
		require.NoError(t, storage.SaveThread(ctx, loaded))
		assert.Equal(t, int64(2), loaded.Version)

		again, err := storage.GetThreadById(ctx, tree.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), again.Version)
		assert.Equal(t, []string{"1", "2", "3"}, again.FindPath("3"))
	})

	t.Run("Stale save is rejected", func(t *testing.T) {
		first, err := storage.GetThreadById(ctx, tree.ID)
		require.NoError(t, err)
		second, err := storage.GetThreadById(ctx, tree.ID)
		require.NoError(t, err)

		require.NoError(t, first.InsertReply("4", "1"))
		require.NoError(t, storage.SaveThread(ctx, first))

		require.NoError(t, second.InsertReply("5", "1"))
		assert.ErrorIs(t, storage.SaveThread(ctx, second), apperr.ErrVersionConflict)

		stored, err := storage.GetThreadById(ctx, tree.ID)
		require.NoError(t, err)
		assert.True(t, stored.Contains("4"))
		assert.False(t, stored.Contains("5"))
	})

	t.Run("Unknown thread", func(t *testing.T) {
		_, err := storage.GetThreadById(ctx, "missing")
		assert.True(t, apperr.IsNotFound(err))

		orphan := thread.New()
		orphan.ID = "missing"
		assert.True(t, apperr.IsNotFound(storage.SaveThread(ctx, orphan)))
	})
}
