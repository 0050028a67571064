package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/VitaminP8/tweed/internal/apperr"
	"github.com/VitaminP8/tweed/internal/model"
)

type PostMemoryStorage struct {
	mu     sync.RWMutex
	posts  map[string]*model.Post
	nextId int // Для хранения актуального ID
}

func NewPostMemoryStorage() *PostMemoryStorage {
	return &PostMemoryStorage{
		posts:  make(map[string]*model.Post),
		nextId: 1,
	}
}

func (s *PostMemoryStorage) CreatePost(_ context.Context, p *model.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = strconv.Itoa(s.nextId)
	s.nextId++

	// храним копию, чтобы вызывающий код не менял состояние хранилища
	s.posts[p.ID] = p.Clone()
	return nil
}

func (s *PostMemoryStorage) GetPostById(_ context.Context, id string) (*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.posts[id]
	if !exists {
		return nil, apperr.NotFound("post", id)
	}
	return p.Clone(), nil
}

func (s *PostMemoryStorage) GetPostsByIds(_ context.Context, ids []string) (map[string]*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*model.Post, len(ids))
	for _, id := range ids {
		if p, ok := s.posts[id]; ok {
			result[id] = p.Clone()
		}
	}
	return result, nil
}

func (s *PostMemoryStorage) UpdatePost(_ context.Context, p *model.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.posts[p.ID]; !exists {
		return apperr.NotFound("post", p.ID)
	}
	s.posts[p.ID] = p.Clone()
	return nil
}

func (s *PostMemoryStorage) GetPostsByAuthors(_ context.Context, authorIDs []string, limit int) ([]*model.Post, error) {
	if len(authorIDs) == 0 || limit <= 0 {
		return []*model.Post{}, nil
	}

	authors := make(map[string]struct{}, len(authorIDs))
	for _, id := range authorIDs {
		authors[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var posts []*model.Post
	for _, p := range s.posts {
		if _, ok := authors[p.AuthorID]; ok {
			posts = append(posts, p)
		}
	}
	return newestFirst(posts, limit), nil
}

func (s *PostMemoryStorage) GetRecentPosts(_ context.Context, limit int) ([]*model.Post, error) {
	if limit <= 0 {
		return []*model.Post{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]*model.Post, 0, len(s.posts))
	for _, p := range s.posts {
		posts = append(posts, p)
	}
	return newestFirst(posts, limit), nil
}

// newestFirst сортирует по CreatedAt (по убыванию), при равенстве по числовому
// ID, и возвращает копии первых limit постов.
func newestFirst(posts []*model.Post, limit int) []*model.Post {
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return idLess(posts[j].ID, posts[i].ID)
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	if len(posts) > limit {
		posts = posts[:limit]
	}

	out := make([]*model.Post, len(posts))
	for i, p := range posts {
		out[i] = p.Clone()
	}
	return out
}

// idLess сравнивает числовые ID как числа, "9" < "10"
func idLess(a, b string) bool {
	na, errA := strconv.ParseUint(a, 10, 64)
	nb, errB := strconv.ParseUint(b, 10, 64)
	if errA != nil || errB != nil {
		return a < b
	}
	return na < nb
}
