package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oriolus/dwell/internal/models"
	"github.com/oriolus/dwell/internal/service"
	"github.com/oriolus/dwell/pkg/response"
)

// DiscoveryHandler handles place discovery endpoints
type DiscoveryHandler struct {
	discoveryService *service.PlaceDiscoveryService
}

// NewDiscoveryHandler creates a new discovery handler
func NewDiscoveryHandler(discoveryService *service.PlaceDiscoveryService) *DiscoveryHandler {
	return &DiscoveryHandler{discoveryService: discoveryService}
}

// Discover handles GET /api/places/discover
func (h *DiscoveryHandler) Discover(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "0"))
	minVisits, _ := strconv.Atoi(c.DefaultQuery("minVisits", "0"))
	force := c.Query("force") == "true"

	result, err := h.discoveryService.Discover(uid(c), days, minVisits, force)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to discover places", err)
		return
	}

	response.Success(c, result)
}

// Confirm handles POST /api/places/discover/confirm
func (h *DiscoveryHandler) Confirm(c *gin.Context) {
	var req models.ConfirmSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "name, latitude and longitude are required", err)
		return
	}

	place, err := h.discoveryService.Confirm(uid(c), &req)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to confirm suggestion", err)
		return
	}

	response.Created(c, place)
}
