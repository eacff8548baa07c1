package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prasetyo-adi/go-todo-api/internal/container"
	handlers "github.com/prasetyo-adi/go-todo-api/internal/interface/http"
	"github.com/prasetyo-adi/go-todo-api/internal/interface/middleware"
)

// AuthModule wires account and session routes.
// Public: POST /api/v1/auth/register, /auth/login, /auth/refresh
// Protected: POST /auth/logout, GET /auth/me, PUT /profile, PUT /profile/avatar

type AuthModule struct {
	Handler *handlers.AuthHandler
	Authn   gin.HandlerFunc
}

func NewAuthModule(h *handlers.AuthHandler, authn gin.HandlerFunc) *AuthModule {
	return &AuthModule{Handler: h, Authn: authn}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Credential endpoints get tight per-IP limits; register tighter than
	// login since it writes.
	registerLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP(), nil)

	rg.POST("/auth/register", registerLimiter, m.Handler.Register)
	rg.POST("/auth/login", loginLimiter, m.Handler.Login)
	rg.POST("/auth/refresh", refreshLimiter, m.Handler.Refresh)

	auth := rg.Group("/")
	auth.Use(m.Authn)
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.POST("/auth/logout", m.Handler.Logout)
		auth.GET("/auth/me", m.Handler.Me)
		auth.PUT("/profile", m.Handler.UpdateProfile)
		auth.PUT("/profile/avatar", m.Handler.UploadAvatar)
	}
}
