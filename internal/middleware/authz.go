package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireActor rejects mutating requests that carry no acting user. Reads always pass.
func RequireActor(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !required {
			c.Next()
			return
		}
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			// ok
		default:
			if ActorID(c) == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": false, "message": "authorization required"})
				return
			}
		}
		c.Next()
	}
}
