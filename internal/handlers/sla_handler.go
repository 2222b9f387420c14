package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/hiretrack/internal/services"
)

type SlaHandler struct {
	Sla         *services.SlaService
	Escalations *services.EscalationService
}

func NewSlaHandler(sla *services.SlaService, escalations *services.EscalationService) *SlaHandler {
	return &SlaHandler{Sla: sla, Escalations: escalations}
}

// EvaluateApplication is GET /applications/:id/sla. A 200 with null body data
// means the application's stage has no SLA configured.
func (h *SlaHandler) EvaluateApplication(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	result, err := h.Sla.EvaluateApplication(id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

// GetEscalations is GET /sla/escalations?tenant_id=.
func (h *SlaHandler) GetEscalations(c *gin.Context) {
	tenantID, ok := uintQuery(c, "tenant_id")
	if !ok {
		return
	}
	buckets, err := h.Sla.GetAtRiskAndOverdue(tenantID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, buckets)
}

// GetJobSlaStats is GET /jobs/:id/sla-stats.
func (h *SlaHandler) GetJobSlaStats(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	stats, err := h.Sla.GetJobSlaStats(id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetStageDwell is GET /jobs/:id/stages/:stageId/dwell.
func (h *SlaHandler) GetStageDwell(c *gin.Context) {
	jobID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	stageID, ok := uintParam(c, "stageId")
	if !ok {
		return
	}
	avg, count, err := h.Sla.AverageStageDwell(jobID, stageID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"average_days": avg, "completed_dwells": count})
}

// TriggerSweep is POST /sla/sweep?tenant_id=. On-demand run of the escalation
// sweep for one tenant, mainly for operators. Answers 409 when a sweep is
// already in flight.
func (h *SlaHandler) TriggerSweep(c *gin.Context) {
	tenantID, ok := uintQuery(c, "tenant_id")
	if !ok {
		return
	}
	if err := h.Escalations.RunForTenant(tenantID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "sweep completed"})
}
