package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Application lifecycle status values.
const (
	AppStatusActive    = "ACTIVE"
	AppStatusHired     = "HIRED"
	AppStatusRejected  = "REJECTED"
	AppStatusWithdrawn = "WITHDRAWN"
)

// Activity log actions written by this service. STAGE_CHANGED entries come in
// via the transition endpoint; the rest are appended by the escalation and
// disposition services. The log is append-only; nothing updates or deletes rows.
const (
	ActionStageChanged         = "STAGE_CHANGED"
	ActionSlaAtRisk            = "SLA_AT_RISK"
	ActionSlaOverdue           = "SLA_OVERDUE"
	ActionApplicationRejected  = "APPLICATION_REJECTED"
	ActionApplicationWithdrawn = "APPLICATION_WITHDRAWN"
)

// Workflow trigger types.
const (
	TriggerStageEnter  = "STAGE_ENTER"
	TriggerStageExit   = "STAGE_EXIT"
	TriggerTimeInStage = "TIME_IN_STAGE"
)

// Workflow action types. Executors for these are registered externally.
const (
	ActionTypeSendEmail       = "SEND_EMAIL"
	ActionTypeAddTag          = "ADD_TAG"
	ActionTypeCreateTask      = "CREATE_TASK"
	ActionTypeRequestFeedback = "REQUEST_FEEDBACK"
)

// Scheduled task states for the delayed-action queue.
const (
	TaskStatusPending   = "pending"
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
)

type Tenant struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

type Job struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	TenantID uint   `gorm:"index;not null" json:"tenant_id"`
	Title    string `gorm:"not null" json:"title"`
	Status   string `gorm:"default:'OPEN'" json:"status"`
}

type Candidate struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	TenantID uint   `gorm:"index;not null" json:"tenant_id"`
	Name     string `gorm:"not null" json:"name"`
	Email    string `json:"email"`
	// Where the candidate came from (REFERRAL, JOB_BOARD, SOURCED, ...).
	// Used by workflow condition matching.
	Source string `json:"source"`
}

type Application struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	TenantID    uint `gorm:"index;not null" json:"tenant_id"`
	JobID       uint `gorm:"index;not null" json:"job_id"`
	CandidateID uint `gorm:"index;not null" json:"candidate_id"`

	// CurrentStageID mirrors the latest recorded stage transition. Nil means
	// the application has not been placed in a stage yet.
	CurrentStageID *uint     `gorm:"index" json:"current_stage_id"`
	Status         string    `gorm:"default:'ACTIVE'" json:"status"`
	AppliedAt      time.Time `json:"applied_at"`

	RejectionReason  string `json:"rejection_reason,omitempty"`
	WithdrawalReason string `json:"withdrawal_reason,omitempty"`
	Notes            string `gorm:"type:text" json:"notes,omitempty"`
	// Set once when the disposition is recorded. Analytics date ranges filter
	// on this, not updated_at, so later edits don't move records between
	// reporting windows.
	DisposedAt *time.Time `gorm:"index" json:"disposed_at,omitempty"`
}

type Pipeline struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	TenantID    uint   `gorm:"index;not null" json:"tenant_id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description,omitempty"`
	// At most one pipeline per tenant carries this flag. Maintained inside a
	// single transaction (clear others, then set).
	IsDefault bool `json:"is_default"`

	Stages []PipelineStage `json:"stages,omitempty"`
}

type PipelineStage struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	PipelineID uint   `gorm:"index;not null" json:"pipeline_id"`
	Name       string `gorm:"not null" json:"name"`
	// Position within the pipeline, 0-based. "order" is a reserved word so the
	// column is stage_order.
	StageOrder int    `gorm:"column:stage_order;not null" json:"order"`
	Color      string `json:"color"`
	// Nil means no SLA is tracked for this stage.
	SLADays    *int `gorm:"column:sla_days" json:"sla_days"`
	IsTerminal bool `json:"is_terminal"`
}

// ActivityLog is the append-only event stream. For stage transitions the
// metadata payload is {"fromStageId": n, "toStageId": n} and is the sole
// source of "when did this application enter its current stage".
type ActivityLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index:idx_activity_app_action,priority:3" json:"created_at"`

	TenantID      uint           `gorm:"index" json:"tenant_id"`
	Action        string         `gorm:"index:idx_activity_app_action,priority:2;not null" json:"action"`
	ApplicationID *uint          `gorm:"index:idx_activity_app_action,priority:1" json:"application_id,omitempty"`
	UserID        *uint          `json:"user_id,omitempty"`
	Metadata      datatypes.JSON `json:"metadata"`
}

type WorkflowAutomation struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	TenantID    uint   `gorm:"index;not null" json:"tenant_id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description,omitempty"`

	StageID uint `gorm:"index;not null" json:"stage_id"`
	// "trigger" is reserved in SQL, so the column is trigger_type.
	Trigger string `gorm:"column:trigger_type;not null" json:"trigger"`

	// Conditions is a flat key/value object matched by exact equality against
	// the transition context. Empty object matches unconditionally.
	Conditions datatypes.JSON `json:"conditions"`
	// Actions is an ordered array of {"type": ..., "config": {...}}.
	Actions datatypes.JSON `json:"actions"`

	DelayMinutes int  `json:"delay_minutes"`
	IsActive     bool `gorm:"default:true" json:"is_active"`
}

// AutomationAction is one entry of WorkflowAutomation.Actions.
type AutomationAction struct {
	Type   string         `json:"type"`
	Config map[string]any `json:"config"`
}

// ScheduledTask is a delayed workflow action persisted so it survives process
// restarts. The queue poller claims due pending rows and runs them.
type ScheduledTask struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	RunAt    time.Time `gorm:"index;not null" json:"run_at"`
	Status   string    `gorm:"index;default:'pending'" json:"status"`
	Attempts int       `gorm:"default:0" json:"attempts"`

	TenantID      uint           `json:"tenant_id"`
	AutomationID  uint           `json:"automation_id"`
	ApplicationID uint           `json:"application_id"`
	ActionType    string         `gorm:"not null" json:"action_type"`
	ActionConfig  datatypes.JSON `json:"action_config"`

	LastError string `gorm:"type:text" json:"last_error,omitempty"`
}
