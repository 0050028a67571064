package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/VitaminP8/tweed/internal/model"
	"github.com/VitaminP8/tweed/models"
)

type FollowPostgresStorage struct{}

func NewFollowPostgresStorage() *FollowPostgresStorage {
	return &FollowPostgresStorage{}
}

func (s *FollowPostgresStorage) Follow(_ context.Context, followerID, leaderID string, createdAt time.Time) error {
	var row models.Follow
	err := DB.Where(models.Follow{FollowerID: followerID, LeaderID: leaderID}).
		Attrs(models.Follow{CreatedAt: createdAt}).
		FirstOrCreate(&row).Error
	if err != nil {
		return fmt.Errorf("could not follow user: %w", err)
	}
	return nil
}

func (s *FollowPostgresStorage) Unfollow(_ context.Context, followerID, leaderID string) error {
	err := DB.Where("follower_id = ? AND leader_id = ?", followerID, leaderID).
		Delete(&models.Follow{}).Error
	if err != nil {
		return fmt.Errorf("could not unfollow user: %w", err)
	}
	return nil
}

func (s *FollowPostgresStorage) GetFollows(_ context.Context, followerID string) ([]model.Follow, error) {
	var rows []models.Follow
	err := DB.Where("follower_id = ?", followerID).Order("created_at asc").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("could not get follows: %w", err)
	}

	follows := make([]model.Follow, 0, len(rows))
	for _, row := range rows {
		follows = append(follows, model.Follow{
			FollowerID: row.FollowerID,
			LeaderID:   row.LeaderID,
			CreatedAt:  row.CreatedAt,
		})
	}
	return follows, nil
}
