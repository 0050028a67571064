package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

type User struct {
	gorm.Model
	Username string `gorm:"unique;not null"`
	Email    string `gorm:"unique"`
	Password string
}

// Post хранит автора строкой: id пользователя приходит из JWT
type Post struct {
	ID           uint      `gorm:"primary_key"`
	AuthorID     string    `gorm:"index;not null"`
	Text         string    `gorm:"type:text;not null"`
	CreatedAt    time.Time `gorm:"index"`
	UpdatedAt    time.Time
	ParentPostID *string `gorm:"index"`
	ThreadID     *string `gorm:"index"`
}

// Thread хранит дерево ответов JSON-документом, Version используется для
// оптимистичной блокировки
type Thread struct {
	ID         string `gorm:"primary_key"`
	RootPostID string `gorm:"not null"`
	Version    int64  `gorm:"not null"`
	Tree       string `gorm:"type:text;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Follow struct {
	FollowerID string `gorm:"primary_key"`
	LeaderID   string `gorm:"primary_key;index"`
	CreatedAt  time.Time
}

type Like struct {
	PostID    string `gorm:"primary_key"`
	UserID    string `gorm:"primary_key"`
	CreatedAt time.Time
}

// All перечисляет модели для AutoMigrate
func All() []interface{} {
	return []interface{}{&User{}, &Post{}, &Thread{}, &Follow{}, &Like{}}
}
