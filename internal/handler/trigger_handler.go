package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oriolus/dwell/internal/models"
	"github.com/oriolus/dwell/internal/service"
	"github.com/oriolus/dwell/pkg/response"
)

// TriggerHandler handles geofence trigger endpoints
type TriggerHandler struct {
	triggerService *service.TriggerService
}

// NewTriggerHandler creates a new trigger handler
func NewTriggerHandler(triggerService *service.TriggerService) *TriggerHandler {
	return &TriggerHandler{triggerService: triggerService}
}

// CreateTrigger handles POST /api/places/:id/triggers
func (h *TriggerHandler) CreateTrigger(c *gin.Context) {
	var req struct {
		TriggerType     string `json:"triggerType"`
		ActionType      string `json:"actionType"`
		Payload         string `json:"payload"`
		CooldownMinutes int    `json:"cooldownMinutes"`
		Enabled         *bool  `json:"enabled"` // omitted means enabled
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	trigger := models.PlaceTrigger{
		TriggerType:     req.TriggerType,
		ActionType:      req.ActionType,
		Payload:         req.Payload,
		CooldownMinutes: req.CooldownMinutes,
		Enabled:         req.Enabled == nil || *req.Enabled,
	}
	if err := trigger.Validate(); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ok, err := h.triggerService.Create(uid(c), c.Param("id"), &trigger)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to create trigger", err)
		return
	}
	if !ok {
		response.NotFound(c, "Place not found")
		return
	}

	response.Created(c, trigger)
}

// GetTriggers handles GET /api/places/:id/triggers
func (h *TriggerHandler) GetTriggers(c *gin.Context) {
	triggers, err := h.triggerService.GetForPlace(uid(c), c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get triggers", err)
		return
	}

	response.Success(c, triggers)
}

// UpdateTrigger handles PUT /api/triggers/:id
func (h *TriggerHandler) UpdateTrigger(c *gin.Context) {
	var req models.PlaceTrigger
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	trigger, err := h.triggerService.Update(uid(c), c.Param("id"), &req)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error(), err)
		return
	}
	if trigger == nil {
		response.NotFound(c, "Trigger not found")
		return
	}

	response.Success(c, trigger)
}

// DeleteTrigger handles DELETE /api/triggers/:id
func (h *TriggerHandler) DeleteTrigger(c *gin.Context) {
	deleted, err := h.triggerService.Delete(uid(c), c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to delete trigger", err)
		return
	}
	if !deleted {
		response.NotFound(c, "Trigger not found")
		return
	}

	response.Success(c, gin.H{"deleted": true})
}
