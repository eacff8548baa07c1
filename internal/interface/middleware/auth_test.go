package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasetyo-adi/go-todo-api/internal/application"
	"github.com/prasetyo-adi/go-todo-api/internal/domain/entity"
	repo "github.com/prasetyo-adi/go-todo-api/internal/domain/repository"
	"github.com/prasetyo-adi/go-todo-api/internal/infrastructure/sessionauth"
	"github.com/prasetyo-adi/go-todo-api/pkg/helpers"
)

type stubUsers struct {
	user *entity.User
}

func (s *stubUsers) Create(ctx context.Context, u *entity.User) error { return nil }
func (s *stubUsers) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, repo.ErrNotFound
}
func (s *stubUsers) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return nil, repo.ErrNotFound
}
func (s *stubUsers) Update(ctx context.Context, u *entity.User) error { return nil }

type stubSessions struct {
	session *entity.Session
}

func (s *stubSessions) GetByToken(ctx context.Context, token string) (*entity.Session, error) {
	if s.session != nil && s.session.Token == token {
		return s.session, nil
	}
	return nil, repo.ErrNotFound
}

var _ repo.UserRepository = (*stubUsers)(nil)
var _ repo.SessionRepository = (*stubSessions)(nil)

func bearerRouter(svc *application.AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", BearerAuth(svc), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CtxUserIDKey))
	})
	return r
}

func TestBearerAuth_AllFailuresShareOneBody(t *testing.T) {
	jwt := helpers.NewJWTManager("secret-a", "secret-r", 30*time.Minute, time.Hour)
	expiredJWT := helpers.NewJWTManager("secret-a", "secret-r", -time.Minute, time.Hour)
	alice := &entity.User{ID: "user-1", Email: "alice@example.com"}
	svc := &application.AuthService{Users: &stubUsers{user: alice}, JWT: jwt}
	r := bearerRouter(svc)

	expired, _, err := expiredJWT.GenerateAccessToken("user-1", "sid")
	require.NoError(t, err)
	ghost, _, err := jwt.GenerateAccessToken("ghost", "sid")
	require.NoError(t, err)

	bodies := map[string]string{}
	for name, token := range map[string]string{
		"missing":      "",
		"garbage":      "not.a.jwt",
		"expired":      expired,
		"unknown user": ghost,
	} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, name)
		bodies[name] = unauthorizedEnvelope(w.Body.String())
	}
	// Every failure cause renders the identical message.
	for name, body := range bodies {
		assert.Equal(t, bodies["missing"], body, name)
	}
}

// unauthorizedEnvelope strips the per-request fields (timestamp,
// request id) so bodies can be compared across requests.
func unauthorizedEnvelope(body string) string {
	if i := strings.Index(body, `"success"`); i >= 0 {
		return body[i:]
	}
	return body
}

func TestBearerAuth_ValidTokenInCookieOrHeader(t *testing.T) {
	jwt := helpers.NewJWTManager("secret-a", "secret-r", 30*time.Minute, time.Hour)
	alice := &entity.User{ID: "user-1", Email: "alice@example.com"}
	svc := &application.AuthService{Users: &stubUsers{user: alice}, JWT: jwt}
	r := bearerRouter(svc)

	token, _, err := jwt.GenerateAccessToken("user-1", "sid")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", w.Body.String())
}

func sessionRouter(svc *application.AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", SessionAuth(svc), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CtxUserIDKey))
	})
	return r
}

func TestSessionAuth_CookiePriorityOrder(t *testing.T) {
	alice := &entity.User{ID: "user-1", Email: "alice@example.com"}
	sess := &entity.Session{UserID: "user-1", Token: "primary-cookie-token", ExpiresAt: time.Now().Add(time.Hour)}
	svc := &application.AuthService{Users: &stubUsers{user: alice}, Sessions: &stubSessions{session: sess}}
	r := sessionRouter(svc)

	// Both cookies present: the __Secure- one wins, so auth succeeds even
	// though the fallback cookie carries an unknown token.
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "better-auth.session-token", Value: "stale-unknown-token"})
	req.AddCookie(&http.Cookie{Name: "__Secure-authjs.session-token", Value: "primary-cookie-token"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", w.Body.String())

	// Fallback name alone also works.
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "better-auth.session-token", Value: "primary-cookie-token"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// No recognized cookie: 401.
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "unrelated", Value: "primary-cookie-token"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionAuth_RemoteDownIs503NotUnauthorized(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	down.Close()

	alice := &entity.User{ID: "user-1", Email: "alice@example.com"}
	svc := &application.AuthService{
		Users:  &stubUsers{user: alice},
		Remote: sessionauth.NewClient(down.URL, 200*time.Millisecond, nil),
	}
	r := sessionRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "authjs.session-token", Value: "some-session-token"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
