package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/VitaminP8/tweed/internal/apperr"
	"github.com/VitaminP8/tweed/internal/auth"
	"github.com/VitaminP8/tweed/internal/model"
)

type UserMemoryStorage struct {
	mu        sync.Mutex
	users     map[string]*model.User
	passwords map[string]string
	nextId    int
	jwtSecret []byte
}

func NewUserMemoryStorage(jwtSecret []byte) *UserMemoryStorage {
	return &UserMemoryStorage{
		users:     make(map[string]*model.User),
		passwords: make(map[string]string),
		nextId:    1,
		jwtSecret: jwtSecret,
	}
}

func (s *UserMemoryStorage) RegisterUser(_ context.Context, username, email, password string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return nil, fmt.Errorf("user %s: %w", username, apperr.ErrAlreadyExists)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:       "u" + strconv.Itoa(s.nextId),
		Username: username,
		Email:    email,
	}
	s.nextId++

	s.users[username] = user
	s.passwords[username] = string(hashedPassword)

	u := *user
	return &u, nil
}

func (s *UserMemoryStorage) LoginUser(_ context.Context, username, password string) (string, error) {
	s.mu.Lock()
	user, exists := s.users[username]
	hashedPassword := s.passwords[username]
	s.mu.Unlock()

	if !exists {
		return "", fmt.Errorf("user %s not found: %w", username, apperr.ErrUnauthorized)
	}

	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if err != nil {
		return "", fmt.Errorf("password for user %s is incorrect: %w", username, apperr.ErrUnauthorized)
	}

	return auth.IssueToken(s.jwtSecret, user.ID, user.Username, time.Now())
}
