package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestID injects a unique request_id into the Gin context for every request.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("request_id", uuid.New().String())
		c.Next()
	}
}
