package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasetyo-adi/go-todo-api/internal/application"
	"github.com/prasetyo-adi/go-todo-api/internal/domain/entity"
	repo "github.com/prasetyo-adi/go-todo-api/internal/domain/repository"
	"github.com/prasetyo-adi/go-todo-api/internal/interface/middleware"
	"github.com/prasetyo-adi/go-todo-api/pkg/helpers"
)

// memUserRepo is an in-memory UserRepository for handler tests.
type memUserRepo struct {
	byID    map[string]*entity.User
	byEmail map[string]*entity.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]*entity.User{}, byEmail: map[string]*entity.User{}}
}

func (m *memUserRepo) Create(ctx context.Context, u *entity.User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return repo.ErrDuplicate
	}
	u.ID = uuid.NewString()
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	m.byID[u.ID] = &cp
	m.byEmail[u.Email] = &cp
	return nil
}

func (m *memUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) Update(ctx context.Context, u *entity.User) error {
	stored, ok := m.byID[u.ID]
	if !ok {
		return repo.ErrNotFound
	}
	*stored = *u
	m.byEmail[u.Email] = stored
	return nil
}

var _ repo.UserRepository = (*memUserRepo)(nil)

func authedReq(method, path, body, access string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+access)
	return req
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func authRouter(t *testing.T) (*gin.Engine, *application.AuthService) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	svc := &application.AuthService{
		Users: newMemUserRepo(),
		JWT:   helpers.NewJWTManager("access-secret", "refresh-secret", 30*time.Minute, 7*24*time.Hour),
		Redis: rdb,
	}
	h := NewAuthHandler(svc, nil, "", false)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.POST("/auth/register", h.Register)
	v1.POST("/auth/login", h.Login)
	v1.POST("/auth/refresh", h.Refresh)

	authed := v1.Group("", middleware.BearerAuth(svc))
	authed.POST("/auth/logout", h.Logout)
	authed.GET("/auth/me", h.Me)
	authed.PUT("/profile", h.UpdateProfile)
	return r, svc
}

func register(t *testing.T, r *gin.Engine, email string) (user map[string]any, access, refresh string) {
	t.Helper()
	w, env := do(r, http.MethodPost, "/api/v1/auth/register",
		`{"email":"`+email+`","password":"s3cret-password","name":"Test User"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		User         map[string]any `json:"user"`
		AccessToken  string         `json:"access_token"`
		RefreshToken string         `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.User, data.AccessToken, data.RefreshToken
}

func TestAuthHandler_RegisterLoginMe(t *testing.T) {
	r, _ := authRouter(t)

	user, access, _ := register(t, r, "alice@example.com")
	assert.Equal(t, "alice@example.com", user["email"])
	assert.NotEmpty(t, access)

	// The issued token authenticates /me.
	req := authedReq(http.MethodGet, "/api/v1/auth/me", "", access)
	w := serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)

	// Login with the same credentials works too.
	w2, env := do(r, http.MethodPost, "/api/v1/auth/login",
		`{"email":"alice@example.com","password":"s3cret-password"}`)
	require.Equal(t, http.StatusOK, w2.Code)
	assert.True(t, env.Success)
}

func TestAuthHandler_RegisterDuplicateEmail(t *testing.T) {
	r, _ := authRouter(t)
	register(t, r, "alice@example.com")

	w, env := do(r, http.MethodPost, "/api/v1/auth/register",
		`{"email":"alice@example.com","password":"another-password","name":"Impostor"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "email already registered", env.Message)
}

func TestAuthHandler_RegisterValidation(t *testing.T) {
	r, _ := authRouter(t)

	cases := map[string]string{
		"bad email":        `{"email":"not-an-email","password":"s3cret-password","name":"x"}`,
		"short password":   `{"email":"a@b.com","password":"short","name":"x"}`,
		"missing password": `{"email":"a@b.com","name":"x"}`,
	}
	for name, body := range cases {
		w, env := do(r, http.MethodPost, "/api/v1/auth/register", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
		assert.NotNil(t, env.Error, name)
	}
}

func TestAuthHandler_LoginFailuresLookAlike(t *testing.T) {
	r, _ := authRouter(t)
	register(t, r, "alice@example.com")

	wWrong, envWrong := do(r, http.MethodPost, "/api/v1/auth/login",
		`{"email":"alice@example.com","password":"wrong-password"}`)
	wGhost, envGhost := do(r, http.MethodPost, "/api/v1/auth/login",
		`{"email":"nobody@example.com","password":"wrong-password"}`)

	assert.Equal(t, http.StatusUnauthorized, wWrong.Code)
	assert.Equal(t, http.StatusUnauthorized, wGhost.Code)
	assert.Equal(t, envWrong.Message, envGhost.Message)
}

func TestAuthHandler_RefreshRotatesAndLogoutRevokes(t *testing.T) {
	r, _ := authRouter(t)
	_, access, refresh := register(t, r, "alice@example.com")

	w, env := do(r, http.MethodPost, "/api/v1/auth/refresh",
		`{"refresh_token":"`+refresh+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rotated struct {
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rotated))
	require.NotEmpty(t, rotated.RefreshToken)

	// The pre-rotation refresh token is dead.
	w, _ = do(r, http.MethodPost, "/api/v1/auth/refresh",
		`{"refresh_token":"`+refresh+`"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Logout revokes the session; the rotated token stops working too.
	req := authedReq(http.MethodPost, "/api/v1/auth/logout", "", access)
	require.Equal(t, http.StatusOK, serve(r, req).Code)

	w, _ = do(r, http.MethodPost, "/api/v1/auth/refresh",
		`{"refresh_token":"`+rotated.RefreshToken+`"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_UpdateProfile(t *testing.T) {
	r, _ := authRouter(t)
	_, access, _ := register(t, r, "alice@example.com")

	req := authedReq(http.MethodPut, "/api/v1/profile", `{"name":"Alice Renamed"}`, access)
	w := serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = authedReq(http.MethodGet, "/api/v1/auth/me", "", access)
	w = serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var profile map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "Alice Renamed", profile["name"])
}
