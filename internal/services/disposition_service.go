package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/justsurfingit/hiretrack/internal/models"
	"gorm.io/gorm"
)

// Disposition types.
const (
	DispositionRejection  = "REJECTION"
	DispositionWithdrawal = "WITHDRAWAL"
)

// DispositionReason is one entry of the fixed catalog. Not persisted; the
// catalog is total and immutable per deployment, with synthetic
// "{type}-{index}" ids.
type DispositionReason struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Reason   string `json:"reason"`
	Category string `json:"category"`
	Order    int    `json:"order"`
}

var rejectionReasons = []struct{ reason, category string }{
	{"Not a skill fit", "QUALIFICATIONS"},
	{"Insufficient experience", "QUALIFICATIONS"},
	{"Failed interview", "ASSESSMENT"},
	{"Failed assessment", "ASSESSMENT"},
	{"Compensation expectations too high", "COMPENSATION"},
	{"Location constraints", "LOGISTICS"},
	{"Position filled", "PROCESS"},
	{"Position closed", "PROCESS"},
	{"Not a culture fit", "TEAM_FIT"},
	{"Other", "OTHER"},
}

var withdrawalReasons = []struct{ reason, category string }{
	{"Accepted another offer", "COMPETING_OFFER"},
	{"Compensation too low", "COMPENSATION"},
	{"Changed career direction", "PERSONAL"},
	{"Relocation issues", "LOGISTICS"},
	{"Process took too long", "PROCESS"},
	{"Personal reasons", "PERSONAL"},
	{"Other", "OTHER"},
}

// ReasonCount is one tallied reason in an analytics summary.
type ReasonCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// DispositionAnalytics summarizes terminal outcomes over a filtered set of
// applications.
type DispositionAnalytics struct {
	TotalRejected        int           `json:"total_rejected"`
	TotalWithdrawn       int           `json:"total_withdrawn"`
	TopRejectionReasons  []ReasonCount `json:"top_rejection_reasons"`
	TopWithdrawalReasons []ReasonCount `json:"top_withdrawal_reasons"`
}

// DispositionService records terminal outcomes against the fixed reason
// taxonomy and produces aggregate analytics.
type DispositionService struct {
	DB       *gorm.DB
	Activity *ActivityService

	now func() time.Time
}

func NewDispositionService(db *gorm.DB, activity *ActivityService) *DispositionService {
	return &DispositionService{DB: db, Activity: activity, now: time.Now}
}

// GetReasonsByType returns the ordered catalog for REJECTION or WITHDRAWAL.
func (s *DispositionService) GetReasonsByType(dispositionType string) ([]DispositionReason, error) {
	var source []struct{ reason, category string }
	switch dispositionType {
	case DispositionRejection:
		source = rejectionReasons
	case DispositionWithdrawal:
		source = withdrawalReasons
	default:
		return nil, fmt.Errorf("unknown disposition type %q: %w", dispositionType, ErrInvalidInput)
	}

	reasons := make([]DispositionReason, 0, len(source))
	for i, r := range source {
		reasons = append(reasons, DispositionReason{
			ID:       fmt.Sprintf("%s-%d", dispositionType, i),
			Type:     dispositionType,
			Reason:   r.reason,
			Category: r.category,
			Order:    i,
		})
	}
	return reasons, nil
}

// ValidateReason checks catalog membership by exact reason string. Recording
// does not call this; callers wanting validation do it first.
func (s *DispositionService) ValidateReason(dispositionType, reason string) error {
	reasons, err := s.GetReasonsByType(dispositionType)
	if err != nil {
		return err
	}
	for _, r := range reasons {
		if r.Reason == reason {
			return nil
		}
	}
	return fmt.Errorf("reason %q is not in the %s catalog: %w", reason, dispositionType, ErrInvalidInput)
}

// RecordDisposition sets the terminal status and reason on an application and
// appends the matching activity entry. The reason is stored as given; it is
// not checked against the catalog here.
func (s *DispositionService) RecordDisposition(applicationID uint, dispositionType, reason, notes string, userID *uint) (*models.Application, error) {
	var app models.Application
	err := s.DB.First(&app, applicationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("application %d: %w", applicationID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	var action string
	switch dispositionType {
	case DispositionRejection:
		app.Status = models.AppStatusRejected
		app.RejectionReason = reason
		updates["status"] = models.AppStatusRejected
		updates["rejection_reason"] = reason
		action = models.ActionApplicationRejected
	case DispositionWithdrawal:
		app.Status = models.AppStatusWithdrawn
		app.WithdrawalReason = reason
		updates["status"] = models.AppStatusWithdrawn
		updates["withdrawal_reason"] = reason
		action = models.ActionApplicationWithdrawn
	default:
		return nil, fmt.Errorf("unknown disposition type %q: %w", dispositionType, ErrInvalidInput)
	}
	if notes != "" {
		app.Notes = notes
		updates["notes"] = notes
	}
	disposedAt := s.now()
	app.DisposedAt = &disposedAt
	updates["disposed_at"] = disposedAt

	if err := s.DB.Model(&app).Updates(updates).Error; err != nil {
		return nil, err
	}

	meta, err := json.Marshal(map[string]any{
		"type":   dispositionType,
		"reason": reason,
		"notes":  notes,
	})
	if err != nil {
		return nil, err
	}
	appID := app.ID
	entry := &models.ActivityLog{
		TenantID:      app.TenantID,
		Action:        action,
		ApplicationID: &appID,
		UserID:        userID,
		Metadata:      meta,
	}
	if err := s.Activity.Append(entry); err != nil {
		return nil, err
	}
	return &app, nil
}

// GetDispositionAnalytics tallies reasons over terminal applications,
// optionally filtered by job and disposition date range, and returns the top
// five reasons per type.
func (s *DispositionService) GetDispositionAnalytics(jobID *uint, startDate, endDate *time.Time) (*DispositionAnalytics, error) {
	query := s.DB.Model(&models.Application{}).
		Where("status IN ?", []string{models.AppStatusRejected, models.AppStatusWithdrawn})
	if jobID != nil {
		query = query.Where("job_id = ?", *jobID)
	}
	if startDate != nil {
		query = query.Where("disposed_at >= ?", *startDate)
	}
	if endDate != nil {
		query = query.Where("disposed_at <= ?", *endDate)
	}

	var apps []models.Application
	if err := query.Find(&apps).Error; err != nil {
		return nil, err
	}

	rejections := map[string]int{}
	withdrawals := map[string]int{}
	analytics := &DispositionAnalytics{}
	for i := range apps {
		switch apps[i].Status {
		case models.AppStatusRejected:
			analytics.TotalRejected++
			if apps[i].RejectionReason != "" {
				rejections[apps[i].RejectionReason]++
			}
		case models.AppStatusWithdrawn:
			analytics.TotalWithdrawn++
			if apps[i].WithdrawalReason != "" {
				withdrawals[apps[i].WithdrawalReason]++
			}
		}
	}
	analytics.TopRejectionReasons = topReasons(rejections, 5)
	analytics.TopWithdrawalReasons = topReasons(withdrawals, 5)
	return analytics, nil
}

func topReasons(counts map[string]int, limit int) []ReasonCount {
	ranked := make([]ReasonCount, 0, len(counts))
	for reason, count := range counts {
		ranked = append(ranked, ReasonCount{Reason: reason, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Reason < ranked[j].Reason
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
