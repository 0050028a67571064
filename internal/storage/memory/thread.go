package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/VitaminP8/tweed/internal/apperr"
	"github.com/VitaminP8/tweed/internal/thread"
)

// ThreadMemoryStorage keeps cloned trees, so a caller's tree behaves like a
// loaded document and concurrent writers see version conflicts as they would
// against a real store.
type ThreadMemoryStorage struct {
	mu      sync.Mutex
	threads map[string]*thread.Tree
}

func NewThreadMemoryStorage() *ThreadMemoryStorage {
	return &ThreadMemoryStorage{
		threads: make(map[string]*thread.Tree),
	}
}

func (s *ThreadMemoryStorage) CreateThread(_ context.Context, t *thread.Tree) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = uuid.NewString()
	t.Version = 1
	s.threads[t.ID] = t.Clone()
	return nil
}

func (s *ThreadMemoryStorage) GetThreadById(_ context.Context, id string) (*thread.Tree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.threads[id]
	if !ok {
		return nil, apperr.NotFound("thread", id)
	}
	return t.Clone(), nil
}

func (s *ThreadMemoryStorage) SaveThread(_ context.Context, t *thread.Tree) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.threads[t.ID]
	if !ok {
		return apperr.NotFound("thread", t.ID)
	}
	if stored.Version != t.Version {
		return apperr.ErrVersionConflict
	}

	t.Version++
	s.threads[t.ID] = t.Clone()
	return nil
}
