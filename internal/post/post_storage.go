package post

import (
	"context"

	"github.com/VitaminP8/tweed/internal/model"
)

// PostStorage persists posts. CreatePost assigns p.ID. Lookups of unknown ids
// return *apperr.ResourceNotFoundError, except GetPostsByIds which simply
// leaves missing ids out of the result.
type PostStorage interface {
	CreatePost(ctx context.Context, p *model.Post) error
	GetPostById(ctx context.Context, id string) (*model.Post, error)
	GetPostsByIds(ctx context.Context, ids []string) (map[string]*model.Post, error)
	UpdatePost(ctx context.Context, p *model.Post) error
	// GetPostsByAuthors returns up to limit posts of the given authors, newest first.
	GetPostsByAuthors(ctx context.Context, authorIDs []string, limit int) ([]*model.Post, error)
	// GetRecentPosts returns up to limit posts of any author, newest first.
	GetRecentPosts(ctx context.Context, limit int) ([]*model.Post, error)
}
