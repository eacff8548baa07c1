package repository

import (
	"context"

	"github.com/prasetyo-adi/go-todo-api/internal/domain/entity"
)

// TodoFilter narrows a list query. Zero values mean no filtering.
type TodoFilter struct {
	Status   string
	Priority string
}

// TodoRepository defines todo-related database operations.
// ListByOwner filters by owner at the query; GetByID does not check
// ownership, that is the service's job.
type TodoRepository interface {
	Create(ctx context.Context, t *entity.Todo) error
	GetByID(ctx context.Context, id string) (*entity.Todo, error)
	ListByOwner(ctx context.Context, ownerID string, f TodoFilter) ([]*entity.Todo, error)
	Update(ctx context.Context, id string, patch entity.TodoPatch) (*entity.Todo, error)
	Delete(ctx context.Context, id string) error
}
