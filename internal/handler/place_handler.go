package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oriolus/dwell/internal/models"
	"github.com/oriolus/dwell/internal/service"
	"github.com/oriolus/dwell/pkg/response"
)

// PlaceHandler handles place management and query endpoints
type PlaceHandler struct {
	placeService *service.PlaceService
	tagService   *service.TagService
}

// NewPlaceHandler creates a new place handler
func NewPlaceHandler(placeService *service.PlaceService, tagService *service.TagService) *PlaceHandler {
	return &PlaceHandler{placeService: placeService, tagService: tagService}
}

// CreatePlace handles POST /api/places
func (h *PlaceHandler) CreatePlace(c *gin.Context) {
	var place models.Place
	if err := c.ShouldBindJSON(&place); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.placeService.Create(uid(c), &place); err != nil {
		if place.Validate() != nil {
			response.Error(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to create place", err)
		return
	}

	response.Created(c, place)
}

// GetPlaces handles GET /api/places
func (h *PlaceHandler) GetPlaces(c *gin.Context) {
	var filter models.PlaceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	places, err := h.placeService.List(uid(c), filter)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get places", err)
		return
	}

	response.Success(c, places)
}

// GetPlace handles GET /api/places/:id
func (h *PlaceHandler) GetPlace(c *gin.Context) {
	userID := uid(c)
	place, err := h.placeService.GetByID(userID, c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get place", err)
		return
	}
	if place == nil {
		response.NotFound(c, "Place not found")
		return
	}

	tags, err := h.tagService.GetForPlace(userID, place.ID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get place tags", err)
		return
	}

	routines, err := h.placeService.GetRoutinesForPlace(userID, place.ID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get place routines", err)
		return
	}

	response.Success(c, gin.H{
		"place":    place,
		"tags":     tags,
		"routines": routines,
	})
}

// UpdatePlace handles PUT /api/places/:id
func (h *PlaceHandler) UpdatePlace(c *gin.Context) {
	var req models.UpdatePlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	place, err := h.placeService.Update(uid(c), c.Param("id"), &req)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error(), err)
		return
	}
	if place == nil {
		response.NotFound(c, "Place not found")
		return
	}

	response.Success(c, place)
}

// DeletePlace handles DELETE /api/places/:id
func (h *PlaceHandler) DeletePlace(c *gin.Context) {
	deleted, err := h.placeService.Delete(uid(c), c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to delete place", err)
		return
	}
	if !deleted {
		response.NotFound(c, "Place not found")
		return
	}

	response.Success(c, gin.H{"deleted": true})
}

// GetCurrentPlace handles GET /api/places/current
func (h *PlaceHandler) GetCurrentPlace(c *gin.Context) {
	current, err := h.placeService.GetCurrent(uid(c))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get current place", err)
		return
	}
	if current == nil {
		response.Success(c, &models.CurrentPlace{})
		return
	}

	response.Success(c, current)
}

// GetNearbyPlaces handles GET /api/places/nearby
func (h *PlaceHandler) GetNearbyPlaces(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("latitude"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("longitude"), 64)
	if latErr != nil || lonErr != nil {
		response.BadRequest(c, "latitude and longitude are required")
		return
	}
	radius, _ := strconv.ParseFloat(c.DefaultQuery("radius", "500"), 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	nearby, err := h.placeService.GetNearby(uid(c), lat, lon, radius, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get nearby places", err)
		return
	}

	response.Success(c, gin.H{
		"radius": radius,
		"count":  len(nearby),
		"places": nearby,
	})
}

// GetMostVisited handles GET /api/places/most-visited
func (h *PlaceHandler) GetMostVisited(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	places, err := h.placeService.GetMostVisited(uid(c), limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get most visited places", err)
		return
	}

	response.Success(c, places)
}

// GetContext handles GET /api/places/context
func (h *PlaceHandler) GetContext(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("latitude"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("longitude"), 64)
	hasPoint := latErr == nil && lonErr == nil

	ctx, err := h.placeService.GetContext(uid(c), lat, lon, hasPoint)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to build place context", err)
		return
	}

	response.Success(c, ctx)
}

// GetPlaceStats handles GET /api/places/:id/stats
func (h *PlaceHandler) GetPlaceStats(c *gin.Context) {
	stats, err := h.placeService.GetStats(uid(c), c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get place stats", err)
		return
	}
	if stats == nil {
		response.NotFound(c, "Place not found")
		return
	}

	response.Success(c, stats)
}

// GetPlaceVisits handles GET /api/places/:id/visits
func (h *PlaceHandler) GetPlaceVisits(c *gin.Context) {
	var filter models.VisitFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}
	filter.PlaceID = c.Param("id")

	visits, err := h.placeService.GetVisits(uid(c), filter)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get visits", err)
		return
	}

	response.Success(c, visits)
}

// GetVisits handles GET /api/visits
func (h *PlaceHandler) GetVisits(c *gin.Context) {
	var filter models.VisitFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	visits, err := h.placeService.GetVisits(uid(c), filter)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get visits", err)
		return
	}

	response.Success(c, visits)
}

// LinkMemory handles POST /api/places/:id/memories
func (h *PlaceHandler) LinkMemory(c *gin.Context) {
	var req struct {
		MemoryID string `json:"memoryId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "memoryId is required", err)
		return
	}

	ok, err := h.placeService.LinkMemory(uid(c), c.Param("id"), req.MemoryID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to link memory", err)
		return
	}
	if !ok {
		response.NotFound(c, "Place not found")
		return
	}

	response.Created(c, gin.H{"linked": true})
}

// UnlinkMemory handles DELETE /api/places/:id/memories/:memoryId
func (h *PlaceHandler) UnlinkMemory(c *gin.Context) {
	ok, err := h.placeService.UnlinkMemory(uid(c), c.Param("id"), c.Param("memoryId"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to unlink memory", err)
		return
	}
	if !ok {
		response.NotFound(c, "Memory link not found")
		return
	}

	response.Success(c, gin.H{"unlinked": true})
}
