package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/prasetyo-adi/go-todo-api/internal/application"
	"github.com/prasetyo-adi/go-todo-api/internal/domain/entity"
	repo "github.com/prasetyo-adi/go-todo-api/internal/domain/repository"
	"github.com/prasetyo-adi/go-todo-api/internal/interface/middleware"
	"github.com/prasetyo-adi/go-todo-api/pkg/response"
	"github.com/prasetyo-adi/go-todo-api/pkg/validation"
)

type TodoHandler struct {
	Svc    *application.TodoService
	Logger *logrus.Logger
}

func NewTodoHandler(svc *application.TodoService, logger *logrus.Logger) *TodoHandler {
	return &TodoHandler{Svc: svc, Logger: logger}
}

type createTodoRequest struct {
	Title       string     `json:"title" binding:"required,max=255"`
	Description string     `json:"description"`
	Status      string     `json:"status" binding:"omitempty,todostatus"`
	Priority    string     `json:"priority" binding:"omitempty,todopriority"`
	DueDate     *time.Time `json:"due_date"`
	Tags        []string   `json:"tags" binding:"omitempty,dive,max=100"`
	IsRecurring bool       `json:"is_recurring"`
	Frequency   string     `json:"frequency" binding:"omitempty,todofrequency"`
	Interval    int        `json:"interval" binding:"omitempty,gte=1"`
}

// updateTodoRequest distinguishes "absent" from "explicit zero" with
// pointer fields; only keys present in the body reach the patch.
type updateTodoRequest struct {
	Title       *string    `json:"title" binding:"omitempty,max=255"`
	Description *string    `json:"description"`
	Status      *string    `json:"status" binding:"omitempty,todostatus"`
	Priority    *string    `json:"priority" binding:"omitempty,todopriority"`
	DueDate     *time.Time `json:"due_date"`
	Tags        *[]string  `json:"tags" binding:"omitempty,dive,max=100"`
	IsRecurring *bool      `json:"is_recurring"`
	Frequency   *string    `json:"frequency" binding:"omitempty,todofrequency"`
	Interval    *int       `json:"interval" binding:"omitempty,gte=1"`
}

func todoPayload(t *entity.Todo) gin.H {
	return gin.H{
		"id":           t.ID,
		"user_id":      t.UserID,
		"title":        t.Title,
		"description":  t.Description,
		"status":       t.Status,
		"priority":     t.Priority,
		"due_date":     t.DueDate,
		"tags":         t.Tags,
		"is_recurring": t.IsRecurring,
		"frequency":    t.Frequency,
		"interval":     t.Interval,
		"created_at":   t.CreatedAt,
		"updated_at":   t.UpdatedAt,
	}
}

func (h *TodoHandler) Create(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	var req createTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	t, err := h.Svc.Create(c.Request.Context(), uid, application.CreateTodoInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Tags:        req.Tags,
		IsRecurring: req.IsRecurring,
		Frequency:   req.Frequency,
		Interval:    req.Interval,
	})
	if err != nil {
		h.fail(c, err, "create todo failed")
		return
	}
	response.Success(c, http.StatusCreated, todoPayload(t), "todo created", nil)
}

func (h *TodoHandler) List(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	f := repo.TodoFilter{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
	}
	todos, err := h.Svc.List(c.Request.Context(), uid, f)
	if err != nil {
		h.fail(c, err, "list todos failed")
		return
	}
	out := make([]gin.H, 0, len(todos))
	for _, t := range todos {
		out = append(out, todoPayload(t))
	}
	response.Success(c, http.StatusOK, out, "todos", gin.H{"count": len(out)})
}

func (h *TodoHandler) Get(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	t, err := h.Svc.Get(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		h.todoErr(c, err, "get todo failed")
		return
	}
	response.Success(c, http.StatusOK, todoPayload(t), "todo", nil)
}

func (h *TodoHandler) Update(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	var req updateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	t, err := h.Svc.Update(c.Request.Context(), uid, c.Param("id"), entity.TodoPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Tags:        req.Tags,
		IsRecurring: req.IsRecurring,
		Frequency:   req.Frequency,
		Interval:    req.Interval,
	})
	if err != nil {
		h.todoErr(c, err, "update todo failed")
		return
	}
	response.Success(c, http.StatusOK, todoPayload(t), "todo updated", nil)
}

func (h *TodoHandler) Delete(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	if err := h.Svc.Delete(c.Request.Context(), uid, c.Param("id")); err != nil {
		h.todoErr(c, err, "delete todo failed")
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "todo deleted", nil)
}

func (h *TodoHandler) Search(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "missing query", gin.H{"q": "is required"})
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	hits, err := h.Svc.Search(c.Request.Context(), uid, q, size)
	if err != nil {
		h.fail(c, err, "search todos failed")
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", gin.H{"count": len(hits)})
}

// todoErr maps a missing or foreign-owned todo to the same 404 body.
func (h *TodoHandler) todoErr(c *gin.Context, err error, msg string) {
	if errors.Is(err, application.ErrNotFound) {
		response.Error[any](c, http.StatusNotFound, "todo not found", nil)
		return
	}
	h.fail(c, err, msg)
}

func (h *TodoHandler) fail(c *gin.Context, err error, msg string) {
	if h.Logger != nil {
		h.Logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error(msg)
	}
	response.Error[any](c, http.StatusInternalServerError, "unexpected error", nil)
}
