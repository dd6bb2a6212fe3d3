package middleware

import (
	"github.com/gin-gonic/gin"
)

// UIDKey is the context key carrying the acting user
const UIDKey = "uid"

// Identity resolves the acting user from the X-User-ID header, falling
// back to the configured default for single-user setups
func Identity(defaultUser string) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetHeader("X-User-ID")
		if uid == "" {
			uid = defaultUser
		}
		c.Set(UIDKey, uid)
		c.Next()
	}
}
