package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prasetyo-adi/go-todo-api/internal/container"
	handlers "github.com/prasetyo-adi/go-todo-api/internal/interface/http"
	"github.com/prasetyo-adi/go-todo-api/internal/interface/middleware"
)

// TodoModule wires the todo CRUD and search routes. Everything here is
// behind the authenticator; there are no public todo endpoints.

type TodoModule struct {
	Handler *handlers.TodoHandler
	Authn   gin.HandlerFunc
}

func NewTodoModule(h *handlers.TodoHandler, authn gin.HandlerFunc) *TodoModule {
	return &TodoModule{Handler: h, Authn: authn}
}

func (m *TodoModule) Register(rg *gin.RouterGroup) {
	todos := rg.Group("/todos")
	todos.Use(m.Authn)
	todos.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP()),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		todos.POST("", m.Handler.Create)
		todos.GET("", m.Handler.List)
		todos.GET("/search", m.Handler.Search)
		todos.GET("/:id", m.Handler.Get)
		todos.PATCH("/:id", m.Handler.Update)
		todos.DELETE("/:id", m.Handler.Delete)
	}
}
