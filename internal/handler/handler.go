package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/oriolus/dwell/internal/middleware"
)

// uid returns the acting user resolved by the identity middleware
func uid(c *gin.Context) string {
	return c.GetString(middleware.UIDKey)
}
