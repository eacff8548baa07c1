package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/prasetyo-adi/go-todo-api/internal/application"
	"github.com/prasetyo-adi/go-todo-api/pkg/response"
)

// Context keys set by the authenticator middlewares.
const (
	CtxUserIDKey    = "userID"
	CtxUserEmailKey = "userEmail"
)

// unauthorizedMessage is the single body every authentication failure
// renders, whatever the internal cause.
const unauthorizedMessage = "unauthorized"

// BearerAuth resolves the access token (access_token cookie, or an
// Authorization: Bearer header) to a user and injects the identity into
// the Gin context.
func BearerAuth(svc *application.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abortUnauthorized(c)
			return
		}
		u, err := svc.AuthenticateToken(c.Request.Context(), token)
		if err != nil {
			abortAuthErr(c, err)
			return
		}
		c.Set(CtxUserIDKey, u.ID)
		c.Set(CtxUserEmailKey, u.Email)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if tok, err := c.Cookie("access_token"); err == nil && tok != "" {
		return tok
	}
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func abortUnauthorized(c *gin.Context) {
	response.Error[any](c, http.StatusUnauthorized, unauthorizedMessage, nil)
	c.Abort()
}

// abortAuthErr renders any authentication failure as the shared 401 body,
// except availability failures of the external auth dependency, which
// must not masquerade as "unauthenticated".
func abortAuthErr(c *gin.Context, err error) {
	if errors.Is(err, application.ErrServiceUnavailable) {
		response.Error[any](c, http.StatusServiceUnavailable, "auth service unavailable", nil)
		c.Abort()
		return
	}
	abortUnauthorized(c)
}
