package mocks

import (
	"context"
	"sync"

	"github.com/VitaminP8/tweed/internal/events"
)

// MockEventPublisher запоминает опубликованные события
type MockEventPublisher struct {
	mu       sync.Mutex
	bySubj   map[string][]events.PostEvent
	received []events.PostEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{
		bySubj: make(map[string][]events.PostEvent),
	}
}

func (m *MockEventPublisher) Publish(_ context.Context, ev events.PostEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.bySubj[ev.Subject] = append(m.bySubj[ev.Subject], ev)
	m.received = append(m.received, ev)
}

// EventsForSubject - вспомогательный метод для тестирования,
// возвращает все события по теме
func (m *MockEventPublisher) EventsForSubject(subject string) []events.PostEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]events.PostEvent(nil), m.bySubj[subject]...)
}

func (m *MockEventPublisher) All() []events.PostEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]events.PostEvent(nil), m.received...)
}
