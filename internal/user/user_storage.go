package user

import (
	"context"

	"github.com/VitaminP8/tweed/internal/model"
)

type UserStorage interface {
	RegisterUser(ctx context.Context, username, email, password string) (*model.User, error)
	LoginUser(ctx context.Context, username, password string) (string, error) // JWT
}
