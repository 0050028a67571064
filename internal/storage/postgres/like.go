package postgres

import (
	"context"
	"fmt"

	"github.com/jinzhu/gorm"

	"github.com/VitaminP8/tweed/internal/model"
	"github.com/VitaminP8/tweed/models"
)

type LikePostgresStorage struct{}

func NewLikePostgresStorage() *LikePostgresStorage {
	return &LikePostgresStorage{}
}

func (s *LikePostgresStorage) AddLike(_ context.Context, like model.Like) (bool, error) {
	var existing models.Like
	err := DB.Where("post_id = ? AND user_id = ?", like.PostID, like.UserID).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !gorm.IsRecordNotFoundError(err) {
		return false, fmt.Errorf("could not check like: %w", err)
	}

	row := &models.Like{PostID: like.PostID, UserID: like.UserID, CreatedAt: like.CreatedAt}
	if err := DB.Create(row).Error; err != nil {
		return false, fmt.Errorf("could not add like: %w", err)
	}
	return true, nil
}

func (s *LikePostgresStorage) RemoveLike(_ context.Context, postID, userID string) (bool, error) {
	res := DB.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Like{})
	if res.Error != nil {
		return false, fmt.Errorf("could not remove like: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *LikePostgresStorage) CountLikes(_ context.Context, postIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(postIDs))
	for _, id := range postIDs {
		counts[id] = 0
	}
	if len(postIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		PostID string
		Total  int64
	}
	err := DB.Model(&models.Like{}).
		Select("post_id, count(*) as total").
		Where("post_id IN (?)", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("could not count likes: %w", err)
	}

	for _, row := range rows {
		counts[row.PostID] = row.Total
	}
	return counts, nil
}
