package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/justsurfingit/hiretrack/internal/models"
	"gorm.io/gorm"
)

// SLA classification statuses.
const (
	SlaOnTrack = "ON_TRACK"
	SlaAtRisk  = "AT_RISK"
	SlaOverdue = "OVERDUE"
)

// SlaResult is one application's dwell-time classification.
type SlaResult struct {
	Status        string `json:"status"`
	DaysInStage   int    `json:"days_in_stage"`
	SLALimit      int    `json:"sla_limit"`
	DaysRemaining int    `json:"days_remaining"`
}

// JobSlaStats aggregates SLA health across a job's applications. Applications
// without a tracked SLA are excluded from every bucket but still counted in
// Total.
type JobSlaStats struct {
	Total      int     `json:"total"`
	OnTrack    int     `json:"on_track"`
	AtRisk     int     `json:"at_risk"`
	Overdue    int     `json:"overdue"`
	Percentage float64 `json:"percentage"` // share of tracked applications on track
}

// EscalationBuckets partitions a tenant's in-flight applications.
type EscalationBuckets struct {
	AtRisk  []EscalationItem `json:"at_risk"`
	Overdue []EscalationItem `json:"overdue"`
}

type EscalationItem struct {
	ApplicationID uint      `json:"application_id"`
	StageID       uint      `json:"stage_id"`
	Result        SlaResult `json:"result"`
}

// SlaService classifies stage dwell time against per-stage SLA targets.
type SlaService struct {
	DB       *gorm.DB
	Activity *ActivityService

	// Page size for tenant-wide scans.
	BatchSize int

	now func() time.Time
}

func NewSlaService(db *gorm.DB, activity *ActivityService, batchSize int) *SlaService {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &SlaService{DB: db, Activity: activity, BatchSize: batchSize, now: time.Now}
}

// ClassifyStage is the pure classification. Nil slaDays means the stage is not
// tracked and no result is produced. Days are truncated whole 24h periods, not
// calendar dates: 3 SLA days with 3 full days elapsed is AT_RISK, the fourth
// day tips it OVERDUE.
func ClassifyStage(slaDays *int, enteredAt, now time.Time) *SlaResult {
	if slaDays == nil {
		return nil
	}
	daysInStage := int(now.Sub(enteredAt).Hours() / 24)
	daysRemaining := *slaDays - daysInStage

	status := SlaOnTrack
	switch {
	case daysInStage > *slaDays:
		status = SlaOverdue
	case daysRemaining <= 1:
		status = SlaAtRisk
	}
	return &SlaResult{
		Status:        status,
		DaysInStage:   daysInStage,
		SLALimit:      *slaDays,
		DaysRemaining: daysRemaining,
	}
}

// EvaluateApplication classifies one application. Returns (nil, nil) when the
// application has no current stage or the stage has no SLA configured; that is
// "not tracked", not an error.
func (s *SlaService) EvaluateApplication(applicationID uint) (*SlaResult, error) {
	var app models.Application
	err := s.DB.First(&app, applicationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("application %d: %w", applicationID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return s.evaluate(&app)
}

func (s *SlaService) evaluate(app *models.Application) (*SlaResult, error) {
	if app.CurrentStageID == nil {
		return nil, nil
	}
	var stage models.PipelineStage
	err := s.DB.First(&stage, *app.CurrentStageID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("stage %d: %w", *app.CurrentStageID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if stage.SLADays == nil {
		return nil, nil
	}

	enteredAt, err := s.Activity.StageEntryTime(app)
	if err != nil {
		return nil, err
	}
	return ClassifyStage(stage.SLADays, enteredAt, s.now()), nil
}

// GetAtRiskAndOverdue scans a tenant's active applications in pages and
// partitions them by classification. A failed evaluation of one application
// is skipped, it never aborts the scan.
func (s *SlaService) GetAtRiskAndOverdue(tenantID uint) (*EscalationBuckets, error) {
	buckets := &EscalationBuckets{
		AtRisk:  []EscalationItem{},
		Overdue: []EscalationItem{},
	}

	var page []models.Application
	err := s.DB.
		Where("tenant_id = ? AND status = ?", tenantID, models.AppStatusActive).
		FindInBatches(&page, s.BatchSize, func(tx *gorm.DB, batch int) error {
			for i := range page {
				app := page[i]
				result, err := s.evaluate(&app)
				if err != nil {
					log.Printf("SLA scan: application %d: evaluation failed, skipping: %v", app.ID, err)
					continue
				}
				if result == nil {
					continue
				}
				item := EscalationItem{
					ApplicationID: app.ID,
					StageID:       *app.CurrentStageID,
					Result:        *result,
				}
				switch result.Status {
				case SlaAtRisk:
					buckets.AtRisk = append(buckets.AtRisk, item)
				case SlaOverdue:
					buckets.Overdue = append(buckets.Overdue, item)
				}
			}
			return nil
		}).Error
	if err != nil {
		return nil, err
	}
	return buckets, nil
}

// GetJobSlaStats returns SLA health counts for one job's active applications.
func (s *SlaService) GetJobSlaStats(jobID uint) (*JobSlaStats, error) {
	var job models.Job
	err := s.DB.First(&job, jobID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("job %d: %w", jobID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	var apps []models.Application
	if err := s.DB.Where("job_id = ? AND status = ?", jobID, models.AppStatusActive).Find(&apps).Error; err != nil {
		return nil, err
	}

	stats := &JobSlaStats{Total: len(apps)}
	tracked := 0
	for i := range apps {
		result, err := s.evaluate(&apps[i])
		if err != nil || result == nil {
			continue
		}
		tracked++
		switch result.Status {
		case SlaOnTrack:
			stats.OnTrack++
		case SlaAtRisk:
			stats.AtRisk++
		case SlaOverdue:
			stats.Overdue++
		}
	}
	if tracked > 0 {
		stats.Percentage = float64(stats.OnTrack) / float64(tracked) * 100
	}
	return stats, nil
}

// AverageStageDwell pairs each application's entry into and exit from a stage
// and averages the elapsed time, in days. Applications still sitting in the
// stage contribute nothing. Returns the average and how many completed dwells
// it covers.
func (s *SlaService) AverageStageDwell(jobID, stageID uint) (float64, int, error) {
	var apps []models.Application
	if err := s.DB.Where("job_id = ?", jobID).Find(&apps).Error; err != nil {
		return 0, 0, err
	}

	var total time.Duration
	count := 0
	for i := range apps {
		entries, err := s.Activity.ListForApplication(apps[i].ID, models.ActionStageChanged)
		if err != nil {
			return 0, 0, err
		}
		var enteredAt *time.Time
		for j := range entries {
			var meta StageChangeMetadata
			if err := json.Unmarshal(entries[j].Metadata, &meta); err != nil {
				continue
			}
			if enteredAt != nil && meta.FromStageID != nil && *meta.FromStageID == stageID {
				total += entries[j].CreatedAt.Sub(*enteredAt)
				count++
				enteredAt = nil
			}
			if meta.ToStageID == stageID {
				t := entries[j].CreatedAt
				enteredAt = &t
			}
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return total.Hours() / 24 / float64(count), count, nil
}
