package application

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/prasetyo-adi/go-todo-api/internal/domain/entity"
	repo "github.com/prasetyo-adi/go-todo-api/internal/domain/repository"
	"github.com/prasetyo-adi/go-todo-api/internal/infrastructure/sessionauth"
	"github.com/prasetyo-adi/go-todo-api/pkg/helpers"
	"github.com/prasetyo-adi/go-todo-api/pkg/mailer"
)

// AuthService is the authenticator: it turns credentials (email+password,
// a bearer token, or a session cookie token) into a resolved user, and
// owns registration and the profile.
type AuthService struct {
	Users    repo.UserRepository
	Sessions repo.SessionRepository // cookie strategy, local validation
	Remote   *sessionauth.Client    // cookie strategy, remote validation; nil for local
	JWT      *helpers.JWTManager
	Redis    *redis.Client
	GCS      *storage.Client
	GCSBucket string
	Pub      *helpers.RabbitPublisher
	Logger   *logrus.Logger

	AppName     string
	MailEnabled bool
	SessionTTL  time.Duration // lifetime of the Redis session record
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func sessionKey(userID string) string {
	return "user:session:" + userID
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Register creates the account, hashes the password, and issues a first
// token pair. A duplicate email maps to ErrDuplicateEmail.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*entity.User, TokenPair, error) {
	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	u := &entity.User{Email: email, PasswordHash: hash, Name: name}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, TokenPair{}, ErrDuplicateEmail
		}
		return nil, TokenPair{}, err
	}

	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}

	s.enqueueWelcomeEmail(ctx, u)
	return u, pair, nil
}

func (s *AuthService) enqueueWelcomeEmail(ctx context.Context, u *entity.User) {
	if s.Pub == nil || !s.MailEnabled {
		return
	}
	job := mailer.EmailJob{
		To:       u.Email,
		Template: "welcome",
		Data:     map[string]any{"AppName": s.AppName, "Email": u.Email, "Name": u.Name},
	}
	if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("enqueue welcome email failed")
	}
}

// Authenticate validates email/password without issuing tokens. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	if !helpers.VerifyPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Login validates credentials and issues a token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*entity.User, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// IssueTokens generates an access/refresh pair and records the session in
// Redis so logout can actually revoke it.
func (s *AuthService) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, err
	}

	if s.Redis != nil {
		key := sessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"name":       u.Name,
			"sid":        sid,
			"created_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, s.sessionTTL())
		if _, rErr := pipe.Exec(ctx); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis session record failed")
		}
	}

	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *AuthService) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return 24 * time.Hour
}

// AuthenticateToken resolves a bearer token to its user. Expiry, bad
// signatures, and unknown users all render as the same 401 upstream; the
// specific cause is only logged.
func (s *AuthService) AuthenticateToken(ctx context.Context, token string) (*entity.User, error) {
	claims, err := s.JWT.ParseAccessToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		s.logAuthFailure("token rejected", err)
		return nil, ErrNotAuthenticated
	}
	u, err := s.Users.GetByID(ctx, claims.UserID)
	if err != nil || u == nil {
		s.logAuthFailure("token subject unknown", err)
		return nil, ErrNotAuthenticated
	}
	return u, nil
}

// Session tokens outside these bounds, or containing a NUL byte, are
// rejected before any lookup, with the same error as an unknown token so
// a caller cannot tell which check failed.
const (
	minSessionTokenLen = 10
	maxSessionTokenLen = 2000
)

func sessionTokenSane(token string) bool {
	if len(token) < minSessionTokenLen || len(token) > maxSessionTokenLen {
		return false
	}
	return !strings.ContainsRune(token, '\x00')
}

// AuthenticateSession resolves a session-cookie token to its user, either
// against the local sessions table or the external auth service.
func (s *AuthService) AuthenticateSession(ctx context.Context, token string) (*entity.User, error) {
	if !sessionTokenSane(token) {
		s.logAuthFailure("session token failed sanity check", nil)
		return nil, ErrNotAuthenticated
	}

	if s.Remote != nil {
		ru, err := s.Remote.ValidateSession(ctx, token)
		if err != nil {
			if errors.Is(err, sessionauth.ErrUnavailable) {
				return nil, ErrServiceUnavailable
			}
			s.logAuthFailure("remote session rejected", err)
			return nil, ErrNotAuthenticated
		}
		return &entity.User{ID: ru.ID, Email: ru.Email, Name: ru.Name}, nil
	}

	sess, err := s.Sessions.GetByToken(ctx, token)
	if err != nil || sess == nil {
		s.logAuthFailure("session not found", err)
		return nil, ErrNotAuthenticated
	}
	if sess.Expired(time.Now()) {
		return nil, ErrExpired
	}
	u, err := s.Users.GetByID(ctx, sess.UserID)
	if err != nil || u == nil {
		s.logAuthFailure("session user unknown", err)
		return nil, ErrNotAuthenticated
	}
	return u, nil
}

// Refresh rotates the token pair. The refresh token's session id must
// match the live Redis record, so a logged-out session cannot refresh.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*entity.User, TokenPair, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, TokenPair{}, ErrExpired
		}
		return nil, TokenPair{}, ErrNotAuthenticated
	}
	u, err := s.Users.GetByID(ctx, claims.UserID)
	if err != nil || u == nil {
		return nil, TokenPair{}, ErrNotAuthenticated
	}
	if s.Redis != nil {
		data, rErr := s.Redis.HGetAll(ctx, sessionKey(u.ID)).Result()
		if rErr != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			return nil, TokenPair{}, ErrNotAuthenticated
		}
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Logout deletes the Redis session record, revoking outstanding refresh
// tokens for the user.
func (s *AuthService) Logout(ctx context.Context, userID string) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, sessionKey(userID)).Err(); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Warn("redis session delete failed")
	}
}

func profileKey(userID string) string {
	return "user:profile:" + userID
}

const profileCacheTTL = 5 * time.Minute

// GetProfile reads through a short-lived Redis cache; profile mutations
// drop the cached copy.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	if s.Redis != nil {
		var cached entity.User
		if ok, err := helpers.RedisGetJSON(ctx, s.Redis, profileKey(userID), &cached); err == nil && ok {
			return &cached, nil
		}
	}
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrNotFound
	}
	s.cacheProfile(ctx, u)
	return u, nil
}

func (s *AuthService) cacheProfile(ctx context.Context, u *entity.User) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisSetJSON(ctx, s.Redis, profileKey(u.ID), u, profileCacheTTL); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Debug("profile cache write failed")
	}
}

func (s *AuthService) dropProfileCache(ctx context.Context, userID string) {
	if s.Redis == nil {
		return
	}
	_ = s.Redis.Del(ctx, profileKey(userID)).Err()
}

type UpdateProfileInput struct {
	Name string
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrNotFound
	}
	if in.Name != "" {
		u.Name = in.Name
	}
	if err := s.Users.Update(ctx, u); err != nil {
		return nil, err
	}
	if s.Redis != nil {
		s.Redis.HSet(ctx, sessionKey(u.ID), map[string]any{
			"name":       u.Name,
			"updated_at": nowRFC3339(),
		})
	}
	s.dropProfileCache(ctx, u.ID)
	return u, nil
}

// UploadAvatar stores the image in GCS and records its public URL.
func (s *AuthService) UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil || u == nil {
		return "", ErrNotFound
	}
	if s.GCS == nil || s.GCSBucket == "" {
		return "", errors.New("gcs not configured")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("avatars", userID, uuid.NewString()+ext))
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		return "", err
	}
	u.AvatarURL = url
	if err := s.Users.Update(ctx, u); err != nil {
		return "", err
	}
	s.dropProfileCache(ctx, userID)
	return url, nil
}

func (s *AuthService) logAuthFailure(msg string, err error) {
	if s.Logger == nil {
		return
	}
	entry := s.Logger.WithField("component", "authenticator")
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Debug(msg)
}
