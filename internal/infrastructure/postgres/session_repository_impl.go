package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prasetyo-adi/go-todo-api/internal/domain/entity"
	"github.com/prasetyo-adi/go-todo-api/internal/domain/repository"
)

// SessionRepository reads the sessions table the external auth service
// writes to. This service never inserts or mutates sessions.
type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*entity.Session, error) {
	s := &entity.Session{}
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, token, expires_at, ip_address, user_agent, created_at, updated_at
		FROM sessions
		WHERE token = $1
	`, token)

	if err := row.Scan(&s.ID, &s.UserID, &s.Token, &s.ExpiresAt, &s.IPAddress,
		&s.UserAgent, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

var _ repository.SessionRepository = (*SessionRepository)(nil)
