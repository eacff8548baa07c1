package router

import (
	"github.com/gin-gonic/gin"

	"github.com/prasetyo-adi/go-todo-api/config"
	"github.com/prasetyo-adi/go-todo-api/internal/application"
	"github.com/prasetyo-adi/go-todo-api/internal/container"
	pginfra "github.com/prasetyo-adi/go-todo-api/internal/infrastructure/postgres"
	handlers "github.com/prasetyo-adi/go-todo-api/internal/interface/http"
	"github.com/prasetyo-adi/go-todo-api/internal/interface/middleware"
	"github.com/prasetyo-adi/go-todo-api/internal/router/modules"
)

func buildAuthService() *application.AuthService {
	cfg := container.GetConfig()
	pool := container.GetPGPool()

	svc := &application.AuthService{
		Users:       pginfra.NewUserRepository(pool),
		Sessions:    pginfra.NewSessionRepository(pool),
		JWT:         container.GetJWT(),
		Redis:       container.GetRedis(),
		GCS:         container.GetGCS(),
		GCSBucket:   cfg.GCSBucket,
		Pub:         container.GetRabbitPub(),
		Logger:      container.GetLogger(),
		AppName:     cfg.AppName,
		MailEnabled: cfg.MailSendEnabled,
		SessionTTL:  cfg.RefreshTTL,
	}
	if cfg.AuthStrategy == config.AuthStrategySession && cfg.SessionRemoteValidate {
		svc.Remote = container.GetSessionClient()
	}
	return svc
}

func buildTodoService() *application.TodoService {
	return &application.TodoService{
		Todos:   pginfra.NewTodoRepository(container.GetPGPool()),
		Logger:  container.GetLogger(),
		ES:      container.GetES(),
		ESIndex: container.GetConfig().ESTodosIndex,
	}
}

// authenticator picks the request authenticator for the configured
// strategy; every protected route goes through this single middleware.
func authenticator(svc *application.AuthService) gin.HandlerFunc {
	if container.GetConfig().AuthStrategy == config.AuthStrategySession {
		return middleware.SessionAuth(svc)
	}
	return middleware.BearerAuth(svc)
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	authSvc := buildAuthService()
	todoSvc := buildTodoService()

	authHandler := handlers.NewAuthHandler(authSvc, container.GetLogger(), cfg.CookieDomain, cfg.CookieSecure)
	todoHandler := handlers.NewTodoHandler(todoSvc, container.GetLogger())

	authn := authenticator(authSvc)

	r.Add(modules.NewAuthModule(authHandler, authn))
	r.Add(modules.NewTodoModule(todoHandler, authn))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
