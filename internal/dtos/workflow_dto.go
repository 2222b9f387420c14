package dtos

import "time"

// TransitionNotification is what the external transition executor posts after
// it has moved an application. This service observes, it never authorizes.
type TransitionNotification struct {
	ApplicationID uint       `json:"application_id" binding:"required"`
	FromStageID   *uint      `json:"from_stage_id"`
	ToStageID     uint       `json:"to_stage_id" binding:"required"`
	UserID        *uint      `json:"user_id"`
	OccurredAt    *time.Time `json:"occurred_at"`
}

type ActionInput struct {
	Type   string         `json:"type" binding:"required,oneof=SEND_EMAIL ADD_TAG CREATE_TASK REQUEST_FEEDBACK"`
	Config map[string]any `json:"config"`
}

type AutomationCreationRequest struct {
	TenantID     uint           `json:"tenant_id" binding:"required"`
	Name         string         `json:"name" binding:"required"`
	Description  string         `json:"description"`
	StageID      uint           `json:"stage_id" binding:"required"`
	Trigger      string         `json:"trigger" binding:"required,oneof=STAGE_ENTER STAGE_EXIT TIME_IN_STAGE"`
	Conditions   map[string]any `json:"conditions"`
	Actions      []ActionInput  `json:"actions" binding:"required,min=1,dive"`
	DelayMinutes int            `json:"delay_minutes" binding:"min=0"`
	IsActive     *bool          `json:"is_active"`
}

type DispositionRequest struct {
	Type   string `json:"type" binding:"required,oneof=REJECTION WITHDRAWAL"`
	Reason string `json:"reason" binding:"required"`
	Notes  string `json:"notes"`
	UserID *uint  `json:"user_id"`
	// Validate the reason against the catalog before writing. Off by default;
	// recording itself never checks.
	Validate bool `json:"validate"`
}
