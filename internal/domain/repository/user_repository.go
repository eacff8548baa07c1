package repository

import (
	"context"

	"github.com/prasetyo-adi/go-todo-api/internal/domain/entity"
)

// UserRepository defines user-related database operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
}
