package mocks

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/VitaminP8/tweed/internal/apperr"
	"github.com/VitaminP8/tweed/internal/model"
)

// MockUserStorage реализует интерфейс user.UserStorage для тестирования
type MockUserStorage struct {
	mu        sync.Mutex
	users     map[string]*model.User // username -> user
	emails    map[string]string      // email -> username
	passwords map[string]string      // username -> password
	nextID    int

	// Err возвращается из всех методов, если задана
	Err error
}

// NewMockUserStorage создает новый экземпляр мока для хранилища пользователей
func NewMockUserStorage() *MockUserStorage {
	return &MockUserStorage{
		users:     make(map[string]*model.User),
		emails:    make(map[string]string),
		passwords: make(map[string]string),
		nextID:    1,
	}
}

func (m *MockUserStorage) RegisterUser(_ context.Context, username, email, password string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if _, exists := m.users[username]; exists {
		return nil, fmt.Errorf("user %s: %w", username, apperr.ErrAlreadyExists)
	}
	if existingUsername, exists := m.emails[email]; exists {
		return nil, fmt.Errorf("email %s registered to user %s: %w", email, existingUsername, apperr.ErrAlreadyExists)
	}

	user := &model.User{
		ID:       "u" + strconv.Itoa(m.nextID),
		Username: username,
		Email:    email,
	}
	m.nextID++

	m.users[username] = user
	m.emails[email] = username
	m.passwords[username] = password

	u := *user
	return &u, nil
}

// LoginUser возвращает фиктивный токен вида "token-<userID>"
func (m *MockUserStorage) LoginUser(_ context.Context, username, password string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	user, exists := m.users[username]
	if !exists {
		return "", fmt.Errorf("user %s not found: %w", username, apperr.ErrUnauthorized)
	}
	if m.passwords[username] != password {
		return "", fmt.Errorf("invalid password or username: %w", apperr.ErrUnauthorized)
	}

	return "token-" + user.ID, nil
}

// GetUserByUsername вспомогательный метод для тестирования
func (m *MockUserStorage) GetUserByUsername(username string) (*model.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, exists := m.users[username]
	return user, exists
}
