package badgerdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/VitaminP8/tweed/internal/apperr"
	"github.com/VitaminP8/tweed/internal/auth"
	"github.com/VitaminP8/tweed/internal/model"
)

type userRecord struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

type UserBadgerStorage struct {
	db        *DB
	jwtSecret []byte
}

func NewUserBadgerStorage(db *DB, jwtSecret []byte) *UserBadgerStorage {
	return &UserBadgerStorage{db: db, jwtSecret: jwtSecret}
}

func userKey(username string) []byte {
	return []byte("user/" + username)
}

func emailKey(email string) []byte {
	return []byte("email/" + email)
}

func (s *UserBadgerStorage) RegisterUser(_ context.Context, username, email, password string) (*model.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	seq, err := nextID(s.db.userSeq)
	if err != nil {
		return nil, fmt.Errorf("could not allocate user id: %w", err)
	}
	rec := userRecord{
		ID:           strconv.FormatUint(seq, 10),
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("could not encode user: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(userKey(username)); err == nil {
			return fmt.Errorf("user %s: %w", username, apperr.ErrAlreadyExists)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if email != "" {
			if _, err := txn.Get(emailKey(email)); err == nil {
				return fmt.Errorf("email %s: %w", email, apperr.ErrAlreadyExists)
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := txn.Set(emailKey(email), []byte(username)); err != nil {
				return err
			}
		}
		return txn.Set(userKey(username), data)
	})
	if errors.Is(err, badger.ErrConflict) {
		return nil, fmt.Errorf("user %s: %w", username, apperr.ErrAlreadyExists)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &model.User{ID: rec.ID, Username: rec.Username, Email: rec.Email}, nil
}

func (s *UserBadgerStorage) LoginUser(_ context.Context, username, password string) (string, error) {
	var rec userRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(username))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", fmt.Errorf("user %s not found: %w", username, apperr.ErrUnauthorized)
	}
	if err != nil {
		return "", fmt.Errorf("could not load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid password or username: %w", apperr.ErrUnauthorized)
	}

	return auth.IssueToken(s.jwtSecret, rec.ID, rec.Username, time.Now())
}
