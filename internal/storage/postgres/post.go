package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jinzhu/gorm"

	"github.com/VitaminP8/tweed/internal/apperr"
	"github.com/VitaminP8/tweed/internal/model"
	"github.com/VitaminP8/tweed/models"
)

type PostPostgresStorage struct{}

func NewPostPostgresStorage() *PostPostgresStorage {
	return &PostPostgresStorage{}
}

func (s *PostPostgresStorage) CreatePost(_ context.Context, p *model.Post) error {
	row := &models.Post{
		AuthorID:     p.AuthorID,
		Text:         p.Text,
		CreatedAt:    p.CreatedAt,
		ParentPostID: p.ParentPostID,
		ThreadID:     p.ThreadID,
	}

	err := DB.Create(row).Error
	if err != nil {
		return fmt.Errorf("could not create post: %w", err)
	}

	p.ID = fmt.Sprint(row.ID)
	return nil
}

func (s *PostPostgresStorage) GetPostById(_ context.Context, id string) (*model.Post, error) {
	numericID, ok := parsePostID(id)
	if !ok {
		return nil, apperr.NotFound("post", id)
	}

	var row models.Post
	err := DB.First(&row, numericID).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, apperr.NotFound("post", id)
	}
	if err != nil {
		return nil, fmt.Errorf("could not get post by id: %w", err)
	}

	return toPost(&row), nil
}

func (s *PostPostgresStorage) GetPostsByIds(_ context.Context, ids []string) (map[string]*model.Post, error) {
	numericIDs := make([]uint, 0, len(ids))
	for _, id := range ids {
		if n, ok := parsePostID(id); ok {
			numericIDs = append(numericIDs, n)
		}
	}

	result := make(map[string]*model.Post, len(numericIDs))
	if len(numericIDs) == 0 {
		return result, nil
	}

	var rows []models.Post
	err := DB.Where("id IN (?)", numericIDs).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("could not get posts by ids: %w", err)
	}

	for i := range rows {
		p := toPost(&rows[i])
		result[p.ID] = p
	}
	return result, nil
}

// UpdatePost меняет только привязку к треду и родителю, текст неизменяем
func (s *PostPostgresStorage) UpdatePost(_ context.Context, p *model.Post) error {
	numericID, ok := parsePostID(p.ID)
	if !ok {
		return apperr.NotFound("post", p.ID)
	}

	res := DB.Model(&models.Post{}).Where("id = ?", numericID).Updates(map[string]interface{}{
		"thread_id":      p.ThreadID,
		"parent_post_id": p.ParentPostID,
	})
	if res.Error != nil {
		return fmt.Errorf("could not update post: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("post", p.ID)
	}
	return nil
}

func (s *PostPostgresStorage) GetPostsByAuthors(_ context.Context, authorIDs []string, limit int) ([]*model.Post, error) {
	if len(authorIDs) == 0 || limit <= 0 {
		return []*model.Post{}, nil
	}

	var rows []models.Post
	err := DB.Where("author_id IN (?)", authorIDs).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("could not get posts by authors: %w", err)
	}
	return toPosts(rows), nil
}

func (s *PostPostgresStorage) GetRecentPosts(_ context.Context, limit int) ([]*model.Post, error) {
	if limit <= 0 {
		return []*model.Post{}, nil
	}

	var rows []models.Post
	err := DB.Order("created_at desc, id desc").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("could not get recent posts: %w", err)
	}
	return toPosts(rows), nil
}

func parsePostID(id string) (uint, bool) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func toPost(row *models.Post) *model.Post {
	return &model.Post{
		ID:           fmt.Sprint(row.ID),
		AuthorID:     row.AuthorID,
		Text:         row.Text,
		CreatedAt:    row.CreatedAt,
		ParentPostID: row.ParentPostID,
		ThreadID:     row.ThreadID,
	}
}

func toPosts(rows []models.Post) []*model.Post {
	results := make([]*model.Post, 0, len(rows))
	for i := range rows {
		results = append(results, toPost(&rows[i]))
	}
	return results
}
