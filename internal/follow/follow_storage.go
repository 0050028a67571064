package follow

import (
	"context"
	"time"

	"github.com/VitaminP8/tweed/internal/model"
)

// FollowStorage keeps who follows whom. Follow and Unfollow are idempotent.
type FollowStorage interface {
	Follow(ctx context.Context, followerID, leaderID string, createdAt time.Time) error
	Unfollow(ctx context.Context, followerID, leaderID string) error
	GetFollows(ctx context.Context, followerID string) ([]model.Follow, error)
}
