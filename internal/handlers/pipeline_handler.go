package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/hiretrack/internal/dtos"
	"github.com/justsurfingit/hiretrack/internal/services"
)

type PipelineHandler struct {
	Pipelines *services.PipelineService
}

func NewPipelineHandler(p *services.PipelineService) *PipelineHandler {
	return &PipelineHandler{Pipelines: p}
}

// ListPipelines is GET /pipelines?tenant_id=. Synthesizes the default
// pipeline when the tenant has none yet.
func (h *PipelineHandler) ListPipelines(c *gin.Context) {
	tenantID, ok := uintQuery(c, "tenant_id")
	if !ok {
		return
	}
	pipelines, err := h.Pipelines.ListPipelines(tenantID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pipelines)
}

// CreatePipeline is POST /pipelines.
func (h *PipelineHandler) CreatePipeline(c *gin.Context) {
	var req dtos.PipelineCreationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}
	pipeline, err := h.Pipelines.CreatePipeline(&req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, pipeline)
}

// GetPipeline is GET /pipelines/:id.
func (h *PipelineHandler) GetPipeline(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	pipeline, err := h.Pipelines.GetPipeline(id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pipeline)
}

// SetDefault is PUT /pipelines/:id/default.
func (h *PipelineHandler) SetDefault(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	pipeline, err := h.Pipelines.SetDefault(id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pipeline)
}

// ReorderStages is PUT /pipelines/:id/stages/reorder.
func (h *PipelineHandler) ReorderStages(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req dtos.StageReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}
	if err := h.Pipelines.ReorderStages(id, req.StageIDs); err != nil {
		fail(c, err)
		return
	}
	pipeline, err := h.Pipelines.GetPipeline(id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pipeline)
}

// RemoveStage is DELETE /stages/:id.
func (h *PipelineHandler) RemoveStage(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.Pipelines.RemoveStage(id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
