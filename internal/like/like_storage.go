package like

import (
	"context"

	"github.com/VitaminP8/tweed/internal/model"
)

// LikeStorage keeps one like per user and post. AddLike reports whether a new
// like was recorded, RemoveLike whether one was removed.
type LikeStorage interface {
	AddLike(ctx context.Context, like model.Like) (bool, error)
	RemoveLike(ctx context.Context, postID, userID string) (bool, error)
	CountLikes(ctx context.Context, postIDs []string) (map[string]int64, error)
}
