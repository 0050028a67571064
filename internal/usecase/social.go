package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/VitaminP8/tweed/internal/apperr"
	"github.com/VitaminP8/tweed/internal/follow"
	"github.com/VitaminP8/tweed/internal/like"
	"github.com/VitaminP8/tweed/internal/model"
	"github.com/VitaminP8/tweed/internal/post"
)

type FollowUseCase struct {
	follows follow.FollowStorage
	log     *zap.Logger
}

func NewFollowUseCase(follows follow.FollowStorage, log *zap.Logger) *FollowUseCase {
	if log == nil {
		log = zap.NewNop()
	}
	return &FollowUseCase{follows: follows, log: log}
}

func (uc *FollowUseCase) Follow(ctx context.Context, followerID, leaderID string, now time.Time) error {
	if err := validateFollow(followerID, leaderID); err != nil {
		return err
	}
	if err := uc.follows.Follow(ctx, followerID, leaderID, now); err != nil {
		return fmt.Errorf("follow %s: %w", leaderID, err)
	}
	uc.log.Debug("user followed", zap.String("follower_id", followerID), zap.String("leader_id", leaderID))
	return nil
}

func (uc *FollowUseCase) Unfollow(ctx context.Context, followerID, leaderID string) error {
	if err := validateFollow(followerID, leaderID); err != nil {
		return err
	}
	if err := uc.follows.Unfollow(ctx, followerID, leaderID); err != nil {
		return fmt.Errorf("unfollow %s: %w", leaderID, err)
	}
	return nil
}

func validateFollow(followerID, leaderID string) error {
	if followerID == "" {
		return apperr.Invalid("follower_id", "must not be empty")
	}
	if leaderID == "" {
		return apperr.Invalid("user_id", "must not be empty")
	}
	if followerID == leaderID {
		return apperr.Invalid("user_id", "cannot follow yourself")
	}
	return nil
}

type LikeUseCase struct {
	likes like.LikeStorage
	posts post.PostStorage
}

func NewLikeUseCase(likes like.LikeStorage, posts post.PostStorage) *LikeUseCase {
	return &LikeUseCase{likes: likes, posts: posts}
}

// LikeResult reports the state after a like or unlike.
type LikeResult struct {
	PostID  string `json:"post_id"`
	Changed bool   `json:"changed"`
	Likes   int64  `json:"likes"`
}

func (uc *LikeUseCase) Like(ctx context.Context, userID, postID string, now time.Time) (*LikeResult, error) {
	if err := uc.checkPost(ctx, userID, postID); err != nil {
		return nil, err
	}
	added, err := uc.likes.AddLike(ctx, model.Like{PostID: postID, UserID: userID, CreatedAt: now})
	if err != nil {
		return nil, fmt.Errorf("like post %s: %w", postID, err)
	}
	return uc.result(ctx, postID, added)
}

func (uc *LikeUseCase) Unlike(ctx context.Context, userID, postID string) (*LikeResult, error) {
	if err := uc.checkPost(ctx, userID, postID); err != nil {
		return nil, err
	}
	removed, err := uc.likes.RemoveLike(ctx, postID, userID)
	if err != nil {
		return nil, fmt.Errorf("unlike post %s: %w", postID, err)
	}
	return uc.result(ctx, postID, removed)
}

func (uc *LikeUseCase) checkPost(ctx context.Context, userID, postID string) error {
	if userID == "" {
		return apperr.Invalid("user_id", "must not be empty")
	}
	_, err := uc.posts.GetPostById(ctx, postID)
	return err
}

func (uc *LikeUseCase) result(ctx context.Context, postID string, changed bool) (*LikeResult, error) {
	counts, err := uc.likes.CountLikes(ctx, []string{postID})
	if err != nil {
		return nil, fmt.Errorf("count likes for post %s: %w", postID, err)
	}
	return &LikeResult{PostID: postID, Changed: changed, Likes: counts[postID]}, nil
}
