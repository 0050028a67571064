package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/VitaminP8/tweed/internal/model"
)

type FollowMemoryStorage struct {
	mu      sync.RWMutex
	follows map[string]map[string]time.Time // followerID -> leaderID -> createdAt
}

func NewFollowMemoryStorage() *FollowMemoryStorage {
	return &FollowMemoryStorage{
		follows: make(map[string]map[string]time.Time),
	}
}

func (s *FollowMemoryStorage) Follow(_ context.Context, followerID, leaderID string, createdAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	leaders, ok := s.follows[followerID]
	if !ok {
		leaders = make(map[string]time.Time)
		s.follows[followerID] = leaders
	}
	if _, exists := leaders[leaderID]; !exists {
		leaders[leaderID] = createdAt
	}
	return nil
}

func (s *FollowMemoryStorage) Unfollow(_ context.Context, followerID, leaderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.follows[followerID], leaderID)
	return nil
}

func (s *FollowMemoryStorage) GetFollows(_ context.Context, followerID string) ([]model.Follow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Follow, 0, len(s.follows[followerID]))
	for leaderID, createdAt := range s.follows[followerID] {
		result = append(result, model.Follow{FollowerID: followerID, LeaderID: leaderID, CreatedAt: createdAt})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}
