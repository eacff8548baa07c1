package application

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasetyo-adi/go-todo-api/internal/domain/entity"
	repo "github.com/prasetyo-adi/go-todo-api/internal/domain/repository"
	"github.com/prasetyo-adi/go-todo-api/internal/infrastructure/sessionauth"
	"github.com/prasetyo-adi/go-todo-api/pkg/helpers"
)

// --- mocks ---

type mockUserRepo struct {
	createFn     func(ctx context.Context, u *entity.User) error
	getByIDFn    func(ctx context.Context, id string) (*entity.User, error)
	getByEmailFn func(ctx context.Context, email string) (*entity.User, error)
	updateFn     func(ctx context.Context, u *entity.User) error
}

func (m *mockUserRepo) Create(ctx context.Context, u *entity.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	u.ID = "user-1"
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, repo.ErrNotFound
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, repo.ErrNotFound
}

func (m *mockUserRepo) Update(ctx context.Context, u *entity.User) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, u)
	}
	return nil
}

type mockSessionRepo struct {
	getByTokenFn func(ctx context.Context, token string) (*entity.Session, error)
}

func (m *mockSessionRepo) GetByToken(ctx context.Context, token string) (*entity.Session, error) {
	if m.getByTokenFn != nil {
		return m.getByTokenFn(ctx, token)
	}
	return nil, repo.ErrNotFound
}

var _ repo.UserRepository = (*mockUserRepo)(nil)
var _ repo.SessionRepository = (*mockSessionRepo)(nil)

func testJWT(accessTTL time.Duration) *helpers.JWTManager {
	return helpers.NewJWTManager("test-access-secret", "test-refresh-secret", accessTTL, time.Hour)
}

func storedUser(t *testing.T, id, email, password string) *entity.User {
	t.Helper()
	hash, err := helpers.HashPassword(password)
	require.NoError(t, err)
	return &entity.User{ID: id, Email: email, PasswordHash: hash}
}

// --- register / login ---

func TestRegister_IssuesUsableToken(t *testing.T) {
	var created *entity.User
	users := &mockUserRepo{
		createFn: func(ctx context.Context, u *entity.User) error {
			u.ID = "user-42"
			created = u
			return nil
		},
		getByIDFn: func(ctx context.Context, id string) (*entity.User, error) {
			if created != nil && id == created.ID {
				return created, nil
			}
			return nil, repo.ErrNotFound
		},
	}
	svc := &AuthService{Users: users, JWT: testJWT(30 * time.Minute)}

	u, pair, err := svc.Register(context.Background(), "alice@example.com", "correct-horse", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "user-42", u.ID)
	assert.True(t, strings.HasPrefix(u.PasswordHash, "$argon2id$"))
	assert.NotEmpty(t, pair.AccessToken)

	got, err := svc.AuthenticateToken(context.Background(), pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-42", got.ID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := &mockUserRepo{
		createFn: func(ctx context.Context, u *entity.User) error {
			return repo.ErrDuplicate
		},
	}
	svc := &AuthService{Users: users, JWT: testJWT(30 * time.Minute)}

	_, _, err := svc.Register(context.Background(), "alice@example.com", "correct-horse", "")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestLogin_WrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	alice := storedUser(t, "user-1", "alice@example.com", "correct-horse")
	users := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*entity.User, error) {
			if email == alice.Email {
				return alice, nil
			}
			return nil, repo.ErrNotFound
		},
	}
	svc := &AuthService{Users: users, JWT: testJWT(30 * time.Minute)}

	_, _, err := svc.Login(context.Background(), "alice@example.com", "wrong-horse")
	wrongPwd := err
	_, _, err = svc.Login(context.Background(), "nobody@example.com", "correct-horse")
	unknownEmail := err

	assert.ErrorIs(t, wrongPwd, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPwd, unknownEmail)

	u, _, err := svc.Login(context.Background(), "alice@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "user-1", u.ID)
}

// --- bearer tokens ---

func TestAuthenticateToken_Expired(t *testing.T) {
	alice := storedUser(t, "user-1", "alice@example.com", "correct-horse")
	users := &mockUserRepo{
		getByIDFn: func(ctx context.Context, id string) (*entity.User, error) {
			return alice, nil
		},
	}

	// Token minted one minute in the past.
	expired := &AuthService{Users: users, JWT: testJWT(-time.Minute)}
	pair, err := expired.IssueTokens(context.Background(), alice)
	require.NoError(t, err)
	_, err = expired.AuthenticateToken(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpired)

	// Token valid for 30 minutes resolves the original user.
	fresh := &AuthService{Users: users, JWT: testJWT(30 * time.Minute)}
	pair, err = fresh.IssueTokens(context.Background(), alice)
	require.NoError(t, err)
	got, err := fresh.AuthenticateToken(context.Background(), pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.ID)
}

func TestAuthenticateToken_TamperedOrGarbage(t *testing.T) {
	svc := &AuthService{Users: &mockUserRepo{}, JWT: testJWT(30 * time.Minute)}

	_, err := svc.AuthenticateToken(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	// Signed with a different secret.
	other := helpers.NewJWTManager("other-secret", "other-refresh", 30*time.Minute, time.Hour)
	forged, _, err := other.GenerateAccessToken("user-1", "sid")
	require.NoError(t, err)
	_, err = svc.AuthenticateToken(context.Background(), forged)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestAuthenticateToken_UnknownSubject(t *testing.T) {
	svc := &AuthService{Users: &mockUserRepo{}, JWT: testJWT(30 * time.Minute)}
	tok, _, err := svc.JWT.GenerateAccessToken("ghost", "sid")
	require.NoError(t, err)

	_, err = svc.AuthenticateToken(context.Background(), tok)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

// --- session cookies ---

func TestAuthenticateSession_SanityCheckMatchesNotFound(t *testing.T) {
	svc := &AuthService{Users: &mockUserRepo{}, Sessions: &mockSessionRepo{}, JWT: testJWT(30 * time.Minute)}
	ctx := context.Background()

	_, unknown := svc.AuthenticateSession(ctx, "valid-looking-but-unknown-token")
	_, tooShort := svc.AuthenticateSession(ctx, "short")
	_, tooLong := svc.AuthenticateSession(ctx, strings.Repeat("x", 2001))
	_, nulByte := svc.AuthenticateSession(ctx, "token-with-\x00-inside")

	// All four must be byte-for-byte the same failure.
	assert.ErrorIs(t, unknown, ErrNotAuthenticated)
	assert.Equal(t, unknown, tooShort)
	assert.Equal(t, unknown, tooLong)
	assert.Equal(t, unknown, nulByte)
}

func TestAuthenticateSession_ExpiryAndResolution(t *testing.T) {
	alice := storedUser(t, "user-1", "alice@example.com", "correct-horse")
	users := &mockUserRepo{
		getByIDFn: func(ctx context.Context, id string) (*entity.User, error) {
			if id == alice.ID {
				return alice, nil
			}
			return nil, repo.ErrNotFound
		},
	}
	sessions := &mockSessionRepo{
		getByTokenFn: func(ctx context.Context, token string) (*entity.Session, error) {
			switch token {
			case "live-session-token":
				return &entity.Session{ID: "s1", UserID: "user-1", Token: token, ExpiresAt: time.Now().Add(time.Hour)}, nil
			case "dead-session-token":
				return &entity.Session{ID: "s2", UserID: "user-1", Token: token, ExpiresAt: time.Now().Add(-time.Minute)}, nil
			}
			return nil, repo.ErrNotFound
		},
	}
	svc := &AuthService{Users: users, Sessions: sessions, JWT: testJWT(30 * time.Minute)}

	u, err := svc.AuthenticateSession(context.Background(), "live-session-token")
	require.NoError(t, err)
	assert.Equal(t, "user-1", u.ID)

	_, err = svc.AuthenticateSession(context.Background(), "dead-session-token")
	assert.ErrorIs(t, err, ErrExpired)
}

func TestAuthenticateSession_RemoteUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	svc := &AuthService{
		Users:  &mockUserRepo{},
		Remote: sessionauth.NewClient(srv.URL, 200*time.Millisecond, nil),
		JWT:    testJWT(30 * time.Minute),
	}
	_, err := svc.AuthenticateSession(context.Background(), "some-session-token")
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestAuthenticateSession_RemoteResolvesUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"session":{"id":"s1"},"user":{"id":"u7","email":"carol@example.com","name":"Carol"}}`))
	}))
	defer srv.Close()

	svc := &AuthService{
		Users:  &mockUserRepo{},
		Remote: sessionauth.NewClient(srv.URL, time.Second, nil),
		JWT:    testJWT(30 * time.Minute),
	}
	u, err := svc.AuthenticateSession(context.Background(), "remote-session-token")
	require.NoError(t, err)
	assert.Equal(t, "u7", u.ID)
	assert.Equal(t, "carol@example.com", u.Email)
}

// --- refresh / logout with a real (in-memory) Redis ---

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRefresh_RotatesAndLogoutRevokes(t *testing.T) {
	alice := storedUser(t, "user-1", "alice@example.com", "correct-horse")
	users := &mockUserRepo{
		getByIDFn: func(ctx context.Context, id string) (*entity.User, error) {
			if id == alice.ID {
				return alice, nil
			}
			return nil, repo.ErrNotFound
		},
		getByEmailFn: func(ctx context.Context, email string) (*entity.User, error) {
			return alice, nil
		},
	}
	svc := &AuthService{Users: users, JWT: testJWT(30 * time.Minute), Redis: testRedis(t)}
	ctx := context.Background()

	_, pair, err := svc.Login(ctx, "alice@example.com", "correct-horse")
	require.NoError(t, err)

	u, rotated, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", u.ID)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The old pair's session id no longer matches the rotated record.
	_, _, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	// Logout deletes the session record entirely.
	svc.Logout(ctx, "user-1")
	_, _, err = svc.Refresh(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}
