package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prasetyo-adi/go-todo-api/internal/domain/entity"
	"github.com/prasetyo-adi/go-todo-api/internal/domain/repository"
)

const todoColumns = `id, user_id, title, description, status, priority, due_date,
		tags, is_recurring, frequency, recur_interval, created_at, updated_at`

type TodoRepository struct {
	pool *pgxpool.Pool
}

func NewTodoRepository(pool *pgxpool.Pool) *TodoRepository {
	return &TodoRepository{pool: pool}
}

func scanTodo(row pgx.Row) (*entity.Todo, error) {
	t := &entity.Todo{}
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.DueDate, &t.Tags, &t.IsRecurring, &t.Frequency, &t.Interval,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *TodoRepository) Create(ctx context.Context, t *entity.Todo) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO todos (user_id, title, description, status, priority, due_date,
			tags, is_recurring, frequency, recur_interval)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`, t.UserID, t.Title, t.Description, t.Status, t.Priority,
		t.DueDate, t.Tags, t.IsRecurring, t.Frequency, t.Interval)

	return row.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *TodoRepository) GetByID(ctx context.Context, id string) (*entity.Todo, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = $1`, id)
	return scanTodo(row)
}

func (r *TodoRepository) ListByOwner(ctx context.Context, ownerID string, f repository.TodoFilter) ([]*entity.Todo, error) {
	q := `SELECT ` + todoColumns + ` FROM todos WHERE user_id = $1`
	args := []any{ownerID}
	if f.Status != "" {
		args = append(args, f.Status)
		q += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.Priority != "" {
		args = append(args, f.Priority)
		q += fmt.Sprintf(" AND priority = $%d", len(args))
	}
	q += ` ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	todos := make([]*entity.Todo, 0)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

// Update applies only the fields present in patch and always refreshes
// updated_at, even for an empty patch.
func (r *TodoRepository) Update(ctx context.Context, id string, patch entity.TodoPatch) (*entity.Todo, error) {
	sets := []string{}
	args := []any{}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.Priority != nil {
		add("priority", *patch.Priority)
	}
	if patch.DueDate != nil {
		add("due_date", *patch.DueDate)
	}
	if patch.Tags != nil {
		add("tags", *patch.Tags)
	}
	if patch.IsRecurring != nil {
		add("is_recurring", *patch.IsRecurring)
	}
	if patch.Frequency != nil {
		add("frequency", *patch.Frequency)
	}
	if patch.Interval != nil {
		add("recur_interval", *patch.Interval)
	}

	add("updated_at", time.Now())
	args = append(args, id)

	q := `UPDATE todos SET ` + strings.Join(sets, ", ") +
		fmt.Sprintf(` WHERE id = $%d RETURNING `, len(args)) + todoColumns
	row := r.pool.QueryRow(ctx, q, args...)
	return scanTodo(row)
}

func (r *TodoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.TodoRepository = (*TodoRepository)(nil)
