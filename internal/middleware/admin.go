package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AdminMiddleware guards endpoints that mutate service state, such as cache
// invalidation.
type AdminMiddleware struct {
	apiKey string
}

// NewAdminMiddleware creates the middleware around a configured API key. An
// empty key locks the admin endpoints entirely.
func NewAdminMiddleware(apiKey string) *AdminMiddleware {
	return &AdminMiddleware{apiKey: apiKey}
}

// RequireAdminAuth validates the admin API key from the Authorization bearer
// token or the X-API-Key header.
func (am *AdminMiddleware) RequireAdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if am.apiKey != "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader != "" {
				tokenParts := strings.Split(authHeader, " ")
				if len(tokenParts) == 2 && tokenParts[0] == "Bearer" && tokenParts[1] == am.apiKey {
					c.Next()
					return
				}
			}

			if c.GetHeader("X-API-Key") == am.apiKey {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Unauthorized",
			"message": "Valid admin API key required for this endpoint",
		})
		c.Abort()
	}
}
