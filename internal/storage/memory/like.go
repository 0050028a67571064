package memory

import (
	"context"
	"sync"
	"time"

	"github.com/VitaminP8/tweed/internal/model"
)

type LikeMemoryStorage struct {
	mu    sync.RWMutex
	likes map[string]map[string]time.Time // postID -> userID -> createdAt
}

func NewLikeMemoryStorage() *LikeMemoryStorage {
	return &LikeMemoryStorage{
		likes: make(map[string]map[string]time.Time),
	}
}

func (s *LikeMemoryStorage) AddLike(_ context.Context, like model.Like) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, ok := s.likes[like.PostID]
	if !ok {
		users = make(map[string]time.Time)
		s.likes[like.PostID] = users
	}
	if _, exists := users[like.UserID]; exists {
		return false, nil
	}
	users[like.UserID] = like.CreatedAt
	return true, nil
}

func (s *LikeMemoryStorage) RemoveLike(_ context.Context, postID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.likes[postID][userID]; !exists {
		return false, nil
	}
	delete(s.likes[postID], userID)
	return true, nil
}

func (s *LikeMemoryStorage) CountLikes(_ context.Context, postIDs []string) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64, len(postIDs))
	for _, id := range postIDs {
		counts[id] = int64(len(s.likes[id]))
	}
	return counts, nil
}
