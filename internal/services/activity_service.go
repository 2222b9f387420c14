package services

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/justsurfingit/hiretrack/internal/models"
	"gorm.io/gorm"
)

// ActivityService appends to and reads from the append-only activity log.
// Entries are never updated or deleted.
type ActivityService struct {
	DB *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{DB: db}
}

// StageChangeMetadata is the exact persisted shape for STAGE_CHANGED entries.
type StageChangeMetadata struct {
	FromStageID *uint `json:"fromStageId"`
	ToStageID   uint  `json:"toStageId"`
}

// Append writes one entry. CreatedAt defaults to now when unset so callers
// (the transition endpoint) can backdate to the executor's occurredAt.
func (s *ActivityService) Append(entry *models.ActivityLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return s.DB.Create(entry).Error
}

// RecordStageChange appends the STAGE_CHANGED entry for a transition.
func (s *ActivityService) RecordStageChange(tenantID, applicationID uint, userID *uint, from *uint, to uint, occurredAt time.Time) (*models.ActivityLog, error) {
	meta, err := json.Marshal(StageChangeMetadata{FromStageID: from, ToStageID: to})
	if err != nil {
		return nil, err
	}
	appID := applicationID
	entry := &models.ActivityLog{
		TenantID:      tenantID,
		Action:        models.ActionStageChanged,
		ApplicationID: &appID,
		UserID:        userID,
		Metadata:      meta,
		CreatedAt:     occurredAt,
	}
	if err := s.Append(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// LatestByAction returns the most recent entry of the given action for an
// application, or nil if there is none. Backed by the composite
// (application_id, action, created_at) index.
func (s *ActivityService) LatestByAction(applicationID uint, action string) (*models.ActivityLog, error) {
	var entry models.ActivityLog
	err := s.DB.
		Where("application_id = ? AND action = ?", applicationID, action).
		Order("created_at DESC, id DESC").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// StageEntryTime resolves when an application entered its current stage: the
// createdAt of its latest STAGE_CHANGED entry, falling back to appliedAt for
// applications that were never moved.
func (s *ActivityService) StageEntryTime(app *models.Application) (time.Time, error) {
	entry, err := s.LatestByAction(app.ID, models.ActionStageChanged)
	if err != nil {
		return time.Time{}, err
	}
	if entry == nil {
		return app.AppliedAt, nil
	}
	return entry.CreatedAt, nil
}

// ListForApplication returns an application's entries oldest first. Used by
// the dwell-time calculation, which needs entry/exit pairs in order.
func (s *ActivityService) ListForApplication(applicationID uint, action string) ([]models.ActivityLog, error) {
	var entries []models.ActivityLog
	err := s.DB.
		Where("application_id = ? AND action = ?", applicationID, action).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}
