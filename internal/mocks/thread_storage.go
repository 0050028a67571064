package mocks

import (
	"context"
	"strconv"
	"sync"

	"github.com/VitaminP8/tweed/internal/apperr"
	"github.com/VitaminP8/tweed/internal/thread"
)

// MockThreadStorage is a versioned in-memory thread store. ConflictsLeft makes
// the next N saves fail with apperr.ErrVersionConflict, as if another writer
// got there first.
type MockThreadStorage struct {
	mu      sync.Mutex
	threads map[string]*thread.Tree
	nextID  int

	ConflictsLeft int
	CreateErr     error
	SaveErr       error

	Creates int
	Saves   int
	Loads   int
}

func NewMockThreadStorage() *MockThreadStorage {
	return &MockThreadStorage{
		threads: make(map[string]*thread.Tree),
		nextID:  1,
	}
}

func (m *MockThreadStorage) CreateThread(_ context.Context, t *thread.Tree) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.Creates++

	t.ID = "t" + strconv.Itoa(m.nextID)
	m.nextID++
	t.Version = 1
	m.threads[t.ID] = t.Clone()
	return nil
}

func (m *MockThreadStorage) GetThreadById(_ context.Context, id string) (*thread.Tree, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Loads++
	t, ok := m.threads[id]
	if !ok {
		return nil, apperr.NotFound("thread", id)
	}
	return t.Clone(), nil
}

func (m *MockThreadStorage) SaveThread(_ context.Context, t *thread.Tree) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveErr != nil {
		return m.SaveErr
	}
	if m.ConflictsLeft > 0 {
		m.ConflictsLeft--
		return apperr.ErrVersionConflict
	}
	stored, ok := m.threads[t.ID]
	if !ok {
		return apperr.NotFound("thread", t.ID)
	}
	if stored.Version != t.Version {
		return apperr.ErrVersionConflict
	}

	m.Saves++
	t.Version++
	m.threads[t.ID] = t.Clone()
	return nil
}

// Put stores t under its own ID without touching the counters.
func (m *MockThreadStorage) Put(t *thread.Tree) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threads[t.ID] = t.Clone()
}

func (m *MockThreadStorage) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Creates + m.Saves
}
