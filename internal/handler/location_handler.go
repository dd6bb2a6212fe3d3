package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oriolus/dwell/internal/models"
	"github.com/oriolus/dwell/internal/service"
	"github.com/oriolus/dwell/pkg/response"
)

// LocationHandler handles the fix ingest and history endpoints
type LocationHandler struct {
	locationService *service.LocationService
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(locationService *service.LocationService) *LocationHandler {
	return &LocationHandler{locationService: locationService}
}

// IngestLocation handles POST /api/locations
func (h *LocationHandler) IngestLocation(c *gin.Context) {
	var fix models.LocationFix
	if err := c.ShouldBindJSON(&fix); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	fix.UID = uid(c)
	if fix.RecordedAt == 0 {
		fix.RecordedAt = time.Now().Unix()
	}
	if err := fix.Validate(); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	transition, err := h.locationService.Ingest(&fix)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to ingest location", err)
		return
	}

	response.Created(c, gin.H{
		"fix":        fix,
		"transition": transition,
	})
}

// IngestOverland handles POST /api/overland, the batch format the
// Overland mobile app posts
func (h *LocationHandler) IngestOverland(c *gin.Context) {
	var payload models.OverlandPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.locationService.IngestOverland(uid(c), &payload)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to ingest batch", err)
		return
	}

	// Overland expects a literal result field in the reply
	c.JSON(http.StatusOK, gin.H{
		"result": "ok",
		"batch":  result,
	})
}

// GetRecent handles GET /api/locations/recent
func (h *LocationHandler) GetRecent(c *gin.Context) {
	hours, _ := strconv.Atoi(c.DefaultQuery("hours", "24"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	fixes, err := h.locationService.GetRecent(uid(c), hours, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get recent locations", err)
		return
	}

	response.Success(c, gin.H{
		"hours": hours,
		"count": len(fixes),
		"fixes": fixes,
	})
}

// GetHistory handles GET /api/locations/history
func (h *LocationHandler) GetHistory(c *gin.Context) {
	var filter models.LocationFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	history, err := h.locationService.GetHistory(uid(c), filter)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get location history", err)
		return
	}

	response.Success(c, history)
}

// GetSummary handles GET /api/locations/summary
func (h *LocationHandler) GetSummary(c *gin.Context) {
	hours, _ := strconv.Atoi(c.DefaultQuery("hours", "24"))

	summary, err := h.locationService.GetSummary(uid(c), hours)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get motion summary", err)
		return
	}

	response.Success(c, summary)
}

// Cleanup handles POST /api/locations/cleanup
func (h *LocationHandler) Cleanup(c *gin.Context) {
	var req struct {
		Days int `json:"days"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Days < 1 {
		response.BadRequest(c, "days must be at least 1")
		return
	}

	deleted, err := h.locationService.Cleanup(uid(c), req.Days)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to clean up locations", err)
		return
	}

	response.Success(c, gin.H{
		"deleted": deleted,
		"days":    req.Days,
	})
}
