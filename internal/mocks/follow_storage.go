package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/VitaminP8/tweed/internal/model"
)

type MockFollowStorage struct {
	mu      sync.Mutex
	follows map[string][]model.Follow // followerID -> подписки

	GetErr error
}

func NewMockFollowStorage() *MockFollowStorage {
	return &MockFollowStorage{
		follows: make(map[string][]model.Follow),
	}
}

func (m *MockFollowStorage) Follow(_ context.Context, followerID, leaderID string, createdAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, f := range m.follows[followerID] {
		if f.LeaderID == leaderID {
			return nil
		}
	}
	m.follows[followerID] = append(m.follows[followerID], model.Follow{
		FollowerID: followerID,
		LeaderID:   leaderID,
		CreatedAt:  createdAt,
	})
	return nil
}

func (m *MockFollowStorage) Unfollow(_ context.Context, followerID, leaderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	follows := m.follows[followerID]
	for i, f := range follows {
		if f.LeaderID == leaderID {
			m.follows[followerID] = append(follows[:i], follows[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MockFollowStorage) GetFollows(_ context.Context, followerID string) ([]model.Follow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return append([]model.Follow(nil), m.follows[followerID]...), nil
}
