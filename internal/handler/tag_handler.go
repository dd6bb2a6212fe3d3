package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oriolus/dwell/internal/models"
	"github.com/oriolus/dwell/internal/service"
	"github.com/oriolus/dwell/pkg/response"
)

// TagHandler handles tag endpoints
type TagHandler struct {
	tagService *service.TagService
}

// NewTagHandler creates a new tag handler
func NewTagHandler(tagService *service.TagService) *TagHandler {
	return &TagHandler{tagService: tagService}
}

// CreateTag handles POST /api/tags
func (h *TagHandler) CreateTag(c *gin.Context) {
	var tag models.Tag
	if err := c.ShouldBindJSON(&tag); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := tag.Validate(); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	conflict, err := h.tagService.Create(uid(c), &tag)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to create tag", err)
		return
	}
	if conflict {
		response.Conflict(c, "Tag with this name already exists")
		return
	}

	response.Created(c, tag)
}

// GetTags handles GET /api/tags
func (h *TagHandler) GetTags(c *gin.Context) {
	tags, err := h.tagService.List(uid(c))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get tags", err)
		return
	}

	response.Success(c, tags)
}

// DeleteTag handles DELETE /api/tags/:id
func (h *TagHandler) DeleteTag(c *gin.Context) {
	deleted, err := h.tagService.Delete(uid(c), c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to delete tag", err)
		return
	}
	if !deleted {
		response.NotFound(c, "Tag not found")
		return
	}

	response.Success(c, gin.H{"deleted": true})
}

// GetPlacesByTag handles GET /api/tags/:id/places
func (h *TagHandler) GetPlacesByTag(c *gin.Context) {
	places, err := h.tagService.GetPlacesByTag(uid(c), c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get places by tag", err)
		return
	}

	response.Success(c, places)
}

// AssignTag handles POST /api/places/:id/tags
func (h *TagHandler) AssignTag(c *gin.Context) {
	var req struct {
		TagID string `json:"tagId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "tagId is required", err)
		return
	}

	ok, err := h.tagService.AssignToPlace(uid(c), c.Param("id"), req.TagID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to assign tag", err)
		return
	}
	if !ok {
		response.NotFound(c, "Place or tag not found")
		return
	}

	response.Created(c, gin.H{"assigned": true})
}

// RemoveTag handles DELETE /api/places/:id/tags/:tagId
func (h *TagHandler) RemoveTag(c *gin.Context) {
	ok, err := h.tagService.RemoveFromPlace(uid(c), c.Param("id"), c.Param("tagId"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to remove tag", err)
		return
	}
	if !ok {
		response.NotFound(c, "Tag assignment not found")
		return
	}

	response.Success(c, gin.H{"removed": true})
}

// GetPlaceTags handles GET /api/places/:id/tags
func (h *TagHandler) GetPlaceTags(c *gin.Context) {
	tags, err := h.tagService.GetForPlace(uid(c), c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get place tags", err)
		return
	}

	response.Success(c, tags)
}
