package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oriolus/dwell/internal/models"
	"github.com/oriolus/dwell/internal/service"
	"github.com/oriolus/dwell/pkg/response"
)

// ListHandler handles curated place list endpoints
type ListHandler struct {
	listService *service.ListService
}

// NewListHandler creates a new list handler
func NewListHandler(listService *service.ListService) *ListHandler {
	return &ListHandler{listService: listService}
}

// CreateList handles POST /api/lists
func (h *ListHandler) CreateList(c *gin.Context) {
	var list models.PlaceList
	if err := c.ShouldBindJSON(&list); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := list.Validate(); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if err := h.listService.Create(uid(c), &list); err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to create list", err)
		return
	}

	response.Created(c, list)
}

// GetLists handles GET /api/lists
func (h *ListHandler) GetLists(c *gin.Context) {
	lists, err := h.listService.List(uid(c))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get lists", err)
		return
	}

	response.Success(c, lists)
}

// GetList handles GET /api/lists/:id
func (h *ListHandler) GetList(c *gin.Context) {
	list, err := h.listService.GetByID(uid(c), c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get list", err)
		return
	}
	if list == nil {
		response.NotFound(c, "List not found")
		return
	}

	response.Success(c, list)
}

// UpdateList handles PUT /api/lists/:id
func (h *ListHandler) UpdateList(c *gin.Context) {
	var req models.PlaceList
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	list, err := h.listService.Update(uid(c), c.Param("id"), &req)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error(), err)
		return
	}
	if list == nil {
		response.NotFound(c, "List not found")
		return
	}

	response.Success(c, list)
}

// DeleteList handles DELETE /api/lists/:id
func (h *ListHandler) DeleteList(c *gin.Context) {
	deleted, err := h.listService.Delete(uid(c), c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to delete list", err)
		return
	}
	if !deleted {
		response.NotFound(c, "List not found")
		return
	}

	response.Success(c, gin.H{"deleted": true})
}

// AddListPlace handles POST /api/lists/:id/places
func (h *ListHandler) AddListPlace(c *gin.Context) {
	var req struct {
		PlaceID string `json:"placeId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "placeId is required", err)
		return
	}

	ok, err := h.listService.AddPlace(uid(c), c.Param("id"), req.PlaceID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to add place to list", err)
		return
	}
	if !ok {
		response.NotFound(c, "List or place not found")
		return
	}

	response.Created(c, gin.H{"added": true})
}

// RemoveListPlace handles DELETE /api/lists/:id/places/:placeId
func (h *ListHandler) RemoveListPlace(c *gin.Context) {
	ok, err := h.listService.RemovePlace(uid(c), c.Param("id"), c.Param("placeId"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to remove place from list", err)
		return
	}
	if !ok {
		response.NotFound(c, "List membership not found")
		return
	}

	response.Success(c, gin.H{"removed": true})
}

// ReorderList handles PUT /api/lists/:id/order
func (h *ListHandler) ReorderList(c *gin.Context) {
	var req struct {
		PlaceIDs []string `json:"placeIds" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "placeIds is required", err)
		return
	}

	ok, err := h.listService.Reorder(uid(c), c.Param("id"), req.PlaceIDs)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to reorder list", err)
		return
	}
	if !ok {
		response.NotFound(c, "List not found")
		return
	}

	response.Success(c, gin.H{"reordered": true})
}
