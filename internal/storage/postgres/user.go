package postgres

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/VitaminP8/tweed/internal/apperr"
	"github.com/VitaminP8/tweed/internal/auth"
	"github.com/VitaminP8/tweed/internal/model"
	"github.com/VitaminP8/tweed/models"
)

type UserPostgresStorage struct {
	jwtSecret []byte
}

func NewUserPostgresStorage(jwtSecret []byte) *UserPostgresStorage {
	return &UserPostgresStorage{jwtSecret: jwtSecret}
}

func (s *UserPostgresStorage) RegisterUser(_ context.Context, username, email, password string) (*model.User, error) {
	// проверка - существует ли такой пользователь
	var existUser models.User
	err := DB.Where("username = ?", username).First(&existUser).Error
	if err == nil {
		return nil, fmt.Errorf("user %s: %w", username, apperr.ErrAlreadyExists)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashedPassword),
	}

	err = DB.Create(user).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &model.User{
		ID:       fmt.Sprint(user.ID),
		Username: user.Username,
		Email:    user.Email,
	}, nil
}

func (s *UserPostgresStorage) LoginUser(_ context.Context, username, password string) (string, error) {
	var user models.User
	err := DB.Where("username = ?", username).First(&user).Error
	if err != nil {
		return "", fmt.Errorf("user %s not found: %w", username, apperr.ErrUnauthorized)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	if err != nil {
		return "", fmt.Errorf("invalid password or username: %w", apperr.ErrUnauthorized)
	}

	return auth.IssueToken(s.jwtSecret, fmt.Sprint(user.ID), user.Username, time.Now())
}
