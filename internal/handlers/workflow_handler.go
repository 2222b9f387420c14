package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/hiretrack/internal/dtos"
	"github.com/justsurfingit/hiretrack/internal/services"
)

type WorkflowHandler struct {
	Workflows *services.WorkflowService
}

func NewWorkflowHandler(w *services.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{Workflows: w}
}

// NotifyTransition is POST /transitions, called by the external transition
// executor after it moves an application. Automation failures do not surface
// here; the transition itself already happened.
func (h *WorkflowHandler) NotifyTransition(c *gin.Context) {
	var event dtos.TransitionNotification
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}
	if err := h.Workflows.ProcessTransition(c.Request.Context(), &event); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "processed"})
}

// CreateAutomation is POST /workflows.
func (h *WorkflowHandler) CreateAutomation(c *gin.Context) {
	var req dtos.AutomationCreationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}
	automation, err := h.Workflows.CreateAutomation(&req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, automation)
}

// ListAutomations is GET /workflows?tenant_id=.
func (h *WorkflowHandler) ListAutomations(c *gin.Context) {
	tenantID, ok := uintQuery(c, "tenant_id")
	if !ok {
		return
	}
	automations, err := h.Workflows.ListAutomations(tenantID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, automations)
}

// SetActive is PUT /workflows/:id/active.
func (h *WorkflowHandler) SetActive(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}
	if err := h.Workflows.SetActive(id, *req.IsActive); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
