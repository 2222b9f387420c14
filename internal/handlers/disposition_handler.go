package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/hiretrack/internal/dtos"
	"github.com/justsurfingit/hiretrack/internal/services"
)

type DispositionHandler struct {
	Dispositions *services.DispositionService
}

func NewDispositionHandler(d *services.DispositionService) *DispositionHandler {
	return &DispositionHandler{Dispositions: d}
}

// GetReasons is GET /dispositions/reasons?type=REJECTION|WITHDRAWAL.
func (h *DispositionHandler) GetReasons(c *gin.Context) {
	reasons, err := h.Dispositions.GetReasonsByType(c.Query("type"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reasons)
}

// RecordDisposition is POST /applications/:id/disposition. Catalog validation
// only happens when the request opts in.
func (h *DispositionHandler) RecordDisposition(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req dtos.DispositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}
	if req.Validate {
		if err := h.Dispositions.ValidateReason(req.Type, req.Reason); err != nil {
			fail(c, err)
			return
		}
	}
	app, err := h.Dispositions.RecordDisposition(id, req.Type, req.Reason, req.Notes, req.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// GetAnalytics is GET /dispositions/analytics?job_id=&start_date=&end_date=.
// Dates are RFC 3339.
func (h *DispositionHandler) GetAnalytics(c *gin.Context) {
	var jobID *uint
	if c.Query("job_id") != "" {
		id, ok := uintQuery(c, "job_id")
		if !ok {
			return
		}
		jobID = &id
	}

	var startDate, endDate *time.Time
	if raw := c.Query("start_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
			return
		}
		startDate = &t
	}
	if raw := c.Query("end_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date"})
			return
		}
		endDate = &t
	}

	analytics, err := h.Dispositions.GetDispositionAnalytics(jobID, startDate, endDate)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}
