package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger middleware logs HTTP requests with the acting user
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		clientIP := c.ClientIP()
		method := c.Request.Method
		uid := c.GetString("uid")

		if raw != "" {
			path = path + "?" + raw
		}

		log.Printf("[%s] %s %s uid=%s %d %v %s",
			method,
			path,
			clientIP,
			uid,
			statusCode,
			latency,
			c.Errors.String(),
		)
	}
}
