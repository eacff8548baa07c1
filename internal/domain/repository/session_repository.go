package repository

import (
	"context"

	"github.com/prasetyo-adi/go-todo-api/internal/domain/entity"
)

// SessionRepository reads sessions recorded by the external auth service.
type SessionRepository interface {
	GetByToken(ctx context.Context, token string) (*entity.Session, error)
}
