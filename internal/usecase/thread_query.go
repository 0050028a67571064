package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/VitaminP8/tweed/internal/apperr"
	"github.com/VitaminP8/tweed/internal/metrics"
	"github.com/VitaminP8/tweed/internal/model"
	"github.com/VitaminP8/tweed/internal/post"
	"github.com/VitaminP8/tweed/internal/thread"
)

type ThreadQueryUseCase struct {
	posts   post.PostStorage
	threads thread.ThreadStorage
	log     *zap.Logger
}

func NewThreadQueryUseCase(posts post.PostStorage, threads thread.ThreadStorage, log *zap.Logger) *ThreadQueryUseCase {
	if log == nil {
		log = zap.NewNop()
	}
	return &ThreadQueryUseCase{posts: posts, threads: threads, log: log}
}

// GetThreadPostsForPost returns the posts from the thread root down to postID,
// inclusive. A post the tree does not know about, or a path member missing
// from the post storage, is reported as not found rather than as a shorter
// thread.
func (uc *ThreadQueryUseCase) GetThreadPostsForPost(ctx context.Context, postID string) ([]*model.Post, error) {
	p, tree, err := uc.load(ctx, postID)
	if err != nil {
		return nil, err
	}

	path := tree.FindPath(p.ID)
	if len(path) == 0 {
		uc.log.Warn("post missing from its thread tree",
			zap.String("post_id", p.ID), zap.String("thread_id", tree.ID))
		return nil, apperr.NotFound("post in thread", p.ID)
	}
	metrics.ThreadPathLength.Observe(float64(len(path)))

	return uc.ordered(ctx, path)
}

// GetReplies returns the direct replies of postID in reply order.
func (uc *ThreadQueryUseCase) GetReplies(ctx context.Context, postID string) ([]*model.Post, error) {
	p, tree, err := uc.load(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !tree.Contains(p.ID) {
		return nil, apperr.NotFound("post in thread", p.ID)
	}

	replies := tree.Replies(p.ID)
	if len(replies) == 0 {
		return []*model.Post{}, nil
	}
	return uc.ordered(ctx, replies)
}

func (uc *ThreadQueryUseCase) load(ctx context.Context, postID string) (*model.Post, *thread.Tree, error) {
	p, err := uc.posts.GetPostById(ctx, postID)
	if err != nil {
		return nil, nil, err
	}
	if p.ThreadID == nil || *p.ThreadID == "" {
		return nil, nil, &apperr.ThreadNotFoundError{PostID: p.ID}
	}

	tree, err := uc.threads.GetThreadById(ctx, *p.ThreadID)
	if err != nil {
		return nil, nil, fmt.Errorf("load thread %s: %w", *p.ThreadID, err)
	}
	return p, tree, nil
}

// ordered batch-loads ids and returns the posts in the order of ids.
func (uc *ThreadQueryUseCase) ordered(ctx context.Context, ids []string) ([]*model.Post, error) {
	byID, err := uc.posts.GetPostsByIds(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}

	result := make([]*model.Post, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, apperr.NotFound("post", id)
		}
		result = append(result, p)
	}
	return result, nil
}
