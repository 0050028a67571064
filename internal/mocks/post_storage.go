package mocks

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/VitaminP8/tweed/internal/apperr"
	"github.com/VitaminP8/tweed/internal/model"
)

// MockPostStorage хранит посты в памяти и считает вызовы, чтобы тесты могли
// проверить отсутствие записей.
type MockPostStorage struct {
	mu     sync.Mutex
	posts  map[string]*model.Post
	nextID int

	Creates int
	Updates int

	// Ошибки, которые вернут соответствующие методы
	CreateErr error
	UpdateErr error
	GetErr    error
	// Ids, которые GetPostsByIds "потеряет"
	DropFromBatch map[string]bool
}

func NewMockPostStorage() *MockPostStorage {
	return &MockPostStorage{
		posts:  make(map[string]*model.Post),
		nextID: 1,
	}
}

func (m *MockPostStorage) CreatePost(_ context.Context, p *model.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.Creates++

	p.ID = "p" + strconv.Itoa(m.nextID)
	m.nextID++
	m.posts[p.ID] = p.Clone()
	return nil
}

func (m *MockPostStorage) GetPostById(_ context.Context, id string) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetErr != nil {
		return nil, m.GetErr
	}
	p, ok := m.posts[id]
	if !ok {
		return nil, apperr.NotFound("post", id)
	}
	return p.Clone(), nil
}

func (m *MockPostStorage) GetPostsByIds(_ context.Context, ids []string) (map[string]*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetErr != nil {
		return nil, m.GetErr
	}
	result := make(map[string]*model.Post, len(ids))
	for _, id := range ids {
		if m.DropFromBatch[id] {
			continue
		}
		if p, ok := m.posts[id]; ok {
			result[id] = p.Clone()
		}
	}
	return result, nil
}

func (m *MockPostStorage) UpdatePost(_ context.Context, p *model.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	if _, ok := m.posts[p.ID]; !ok {
		return apperr.NotFound("post", p.ID)
	}
	m.Updates++
	m.posts[p.ID] = p.Clone()
	return nil
}

func (m *MockPostStorage) GetPostsByAuthors(_ context.Context, authorIDs []string, limit int) ([]*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	authors := make(map[string]bool, len(authorIDs))
	for _, id := range authorIDs {
		authors[id] = true
	}
	var posts []*model.Post
	for _, p := range m.posts {
		if authors[p.AuthorID] {
			posts = append(posts, p.Clone())
		}
	}
	return limitNewest(posts, limit), nil
}

func (m *MockPostStorage) GetRecentPosts(_ context.Context, limit int) ([]*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	posts := make([]*model.Post, 0, len(m.posts))
	for _, p := range m.posts {
		posts = append(posts, p.Clone())
	}
	return limitNewest(posts, limit), nil
}

// Put кладет пост как есть, минуя счетчики
func (m *MockPostStorage) Put(p *model.Post) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts[p.ID] = p.Clone()
}

func (m *MockPostStorage) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Creates + m.Updates
}

func limitNewest(posts []*model.Post, limit int) []*model.Post {
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	if limit >= 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts
}
