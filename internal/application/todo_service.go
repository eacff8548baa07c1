package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/prasetyo-adi/go-todo-api/internal/domain/entity"
	repo "github.com/prasetyo-adi/go-todo-api/internal/domain/repository"
)

// TodoService owns todo CRUD and the ownership gate: no operation here
// reads or writes a todo whose owner differs from the caller.
type TodoService struct {
	Todos   repo.TodoRepository
	Logger  *logrus.Logger
	ES      *elasticsearch.Client
	ESIndex string
}

type CreateTodoInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     *time.Time
	Tags        []string
	IsRecurring bool
	Frequency   string
	Interval    int
}

// Create inserts a todo owned by ownerID, applying defaults for omitted
// status (pending) and priority (medium).
func (s *TodoService) Create(ctx context.Context, ownerID string, in CreateTodoInput) (*entity.Todo, error) {
	t := &entity.Todo{
		UserID:      ownerID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		Tags:        in.Tags,
		IsRecurring: in.IsRecurring,
		Frequency:   in.Frequency,
		Interval:    in.Interval,
	}
	if t.Status == "" {
		t.Status = entity.StatusPending
	}
	if t.Priority == "" {
		t.Priority = entity.PriorityMedium
	}
	if t.IsRecurring && t.Interval <= 0 {
		t.Interval = 1
	}
	if err := s.Todos.Create(ctx, t); err != nil {
		return nil, err
	}
	s.index(ctx, t)
	return t, nil
}

// List returns the caller's todos; ownership is enforced in the query
// itself, never by post-filtering.
func (s *TodoService) List(ctx context.Context, ownerID string, f repo.TodoFilter) ([]*entity.Todo, error) {
	return s.Todos.ListByOwner(ctx, ownerID, f)
}

// authorize loads the todo and enforces single-owner access. A todo that
// does not exist and a todo owned by someone else produce the same
// ErrNotFound, so existence of another user's resource is never confirmed.
func (s *TodoService) authorize(ctx context.Context, callerID, todoID string) (*entity.Todo, error) {
	t, err := s.Todos.GetByID(ctx, todoID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if t.UserID != callerID {
		if s.Logger != nil {
			s.Logger.WithFields(logrus.Fields{"todo_id": todoID, "caller_id": callerID}).
				Debug("cross-owner todo access denied")
		}
		return nil, ErrNotFound
	}
	return t, nil
}

func (s *TodoService) Get(ctx context.Context, callerID, todoID string) (*entity.Todo, error) {
	return s.authorize(ctx, callerID, todoID)
}

// Update applies a partial patch to an owned todo. Absent fields keep
// their stored values; updated_at is refreshed even for an empty patch.
func (s *TodoService) Update(ctx context.Context, callerID, todoID string, patch entity.TodoPatch) (*entity.Todo, error) {
	if _, err := s.authorize(ctx, callerID, todoID); err != nil {
		return nil, err
	}
	t, err := s.Todos.Update(ctx, todoID, patch)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.index(ctx, t)
	return t, nil
}

// Delete removes an owned todo. A second delete fails with ErrNotFound.
func (s *TodoService) Delete(ctx context.Context, callerID, todoID string) error {
	if _, err := s.authorize(ctx, callerID, todoID); err != nil {
		return err
	}
	if err := s.Todos.Delete(ctx, todoID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.deindex(ctx, todoID)
	return nil
}

// index mirrors the todo into Elasticsearch, best-effort: search lags
// rather than failing the write.
func (s *TodoService) index(ctx context.Context, t *entity.Todo) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	doc := map[string]any{
		"id":          t.ID,
		"user_id":     t.UserID,
		"title":       t.Title,
		"description": t.Description,
		"status":      t.Status,
		"priority":    t.Priority,
		"tags":        t.Tags,
		"created_at":  t.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":  t.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESIndex, DocumentID: t.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("todo_id", t.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("todo_id", t.ID).Warn("es index response error")
	}
}

func (s *TodoService) deindex(ctx context.Context, todoID string) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESIndex, DocumentID: todoID}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("todo_id", todoID).Warn("es delete failed")
		}
		return
	}
	_ = res.Body.Close()
}

// Search runs a multi_match over title/description/tags, hard-filtered to
// the caller's own todos.
func (s *TodoService) Search(ctx context.Context, ownerID, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []map[string]any{
					{"term": map[string]any{"user_id": ownerID}},
				},
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":  q,
						"fields": []string{"title^2", "description", "tags"},
					},
				},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
