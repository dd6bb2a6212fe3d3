package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oriolus/dwell/internal/service"
	"github.com/oriolus/dwell/pkg/response"
)

// RoutineHandler handles routine detection endpoints
type RoutineHandler struct {
	routineService *service.RoutineService
}

// NewRoutineHandler creates a new routine handler
func NewRoutineHandler(routineService *service.RoutineService) *RoutineHandler {
	return &RoutineHandler{routineService: routineService}
}

// GetRoutines handles GET /api/places/routines
func (h *RoutineHandler) GetRoutines(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "0"))
	force := c.Query("force") == "true"

	result, err := h.routineService.Detect(uid(c), days, force)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to detect routines", err)
		return
	}

	response.Success(c, result)
}

// GetDeviation handles GET /api/places/routines/deviation
func (h *RoutineHandler) GetDeviation(c *gin.Context) {
	result, err := h.routineService.CheckDeviation(uid(c))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to check deviation", err)
		return
	}

	response.Success(c, result)
}
