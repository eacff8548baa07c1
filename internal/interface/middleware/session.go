package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/prasetyo-adi/go-todo-api/internal/application"
)

// sessionCookieNames is checked in priority order; different client
// library versions name the cookie differently.
var sessionCookieNames = []string{
	"__Secure-authjs.session-token",
	"authjs.session-token",
	"better-auth.session-token",
}

// SessionAuth resolves an externally-issued session cookie to a user and
// injects the identity into the Gin context.
func SessionAuth(svc *application.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			abortUnauthorized(c)
			return
		}
		u, err := svc.AuthenticateSession(c.Request.Context(), token)
		if err != nil {
			abortAuthErr(c, err)
			return
		}
		c.Set(CtxUserIDKey, u.ID)
		c.Set(CtxUserEmailKey, u.Email)
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	for _, name := range sessionCookieNames {
		if tok, err := c.Cookie(name); err == nil && tok != "" {
			return tok
		}
	}
	return ""
}
