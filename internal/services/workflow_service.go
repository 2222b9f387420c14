package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/justsurfingit/hiretrack/internal/dtos"
	"github.com/justsurfingit/hiretrack/internal/models"
	"github.com/justsurfingit/hiretrack/internal/workflows"
	"gorm.io/gorm"
)

// WorkflowService evaluates and executes stage-transition automations. It is
// driven by transition notifications from the external executor, it never
// polls for changes itself.
type WorkflowService struct {
	DB        *gorm.DB
	Activity  *ActivityService
	Queue     *TaskQueueService
	Executors *ExecutorRegistry
}

func NewWorkflowService(db *gorm.DB, activity *ActivityService, queue *TaskQueueService, executors *ExecutorRegistry) *WorkflowService {
	return &WorkflowService{DB: db, Activity: activity, Queue: queue, Executors: executors}
}

// CreateAutomation stores a trigger definition. Automations are owned by
// tenant administrators and read-only during execution.
func (s *WorkflowService) CreateAutomation(req *dtos.AutomationCreationRequest) (*models.WorkflowAutomation, error) {
	var stage models.PipelineStage
	err := s.DB.First(&stage, req.StageID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("stage %d: %w", req.StageID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var pipeline models.Pipeline
	if err := s.DB.First(&pipeline, stage.PipelineID).Error; err != nil {
		return nil, err
	}
	if pipeline.TenantID != req.TenantID {
		return nil, fmt.Errorf("stage %d belongs to another tenant: %w", req.StageID, ErrInvalidInput)
	}

	conditions := req.Conditions
	if conditions == nil {
		conditions = map[string]any{}
	}
	condJSON, err := json.Marshal(conditions)
	if err != nil {
		return nil, err
	}
	actions := make([]models.AutomationAction, 0, len(req.Actions))
	for _, a := range req.Actions {
		actions = append(actions, models.AutomationAction{Type: a.Type, Config: a.Config})
	}
	actJSON, err := json.Marshal(actions)
	if err != nil {
		return nil, err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	automation := &models.WorkflowAutomation{
		TenantID:     req.TenantID,
		Name:         req.Name,
		Description:  req.Description,
		StageID:      req.StageID,
		Trigger:      req.Trigger,
		Conditions:   condJSON,
		Actions:      actJSON,
		DelayMinutes: req.DelayMinutes,
		IsActive:     active,
	}
	if err := s.DB.Create(automation).Error; err != nil {
		return nil, err
	}
	return automation, nil
}

func (s *WorkflowService) ListAutomations(tenantID uint) ([]models.WorkflowAutomation, error) {
	var automations []models.WorkflowAutomation
	err := s.DB.Where("tenant_id = ?", tenantID).Order("id ASC").Find(&automations).Error
	return automations, err
}

// SetActive flips an automation on or off.
func (s *WorkflowService) SetActive(id uint, active bool) error {
	result := s.DB.Model(&models.WorkflowAutomation{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("automation %d: %w", id, ErrNotFound)
	}
	return nil
}

// ProcessTransition handles one executor notification: appends the
// STAGE_CHANGED entry, mirrors the stage on the application row, then fires
// matching automations. Action failures never propagate back to the
// transition.
func (s *WorkflowService) ProcessTransition(ctx context.Context, event *dtos.TransitionNotification) error {
	var app models.Application
	err := s.DB.First(&app, event.ApplicationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("application %d: %w", event.ApplicationID, ErrNotFound)
	}
	if err != nil {
		return err
	}
	var stage models.PipelineStage
	err = s.DB.First(&stage, event.ToStageID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("stage %d: %w", event.ToStageID, ErrNotFound)
	}
	if err != nil {
		return err
	}

	occurredAt := time.Now()
	if event.OccurredAt != nil {
		occurredAt = *event.OccurredAt
	}
	if _, err := s.Activity.RecordStageChange(app.TenantID, app.ID, event.UserID, event.FromStageID, event.ToStageID, occurredAt); err != nil {
		return err
	}

	// The executor already performed the move; keep the read model in step.
	toStage := event.ToStageID
	if err := s.DB.Model(&app).Update("current_stage_id", toStage).Error; err != nil {
		return err
	}
	app.CurrentStageID = &toStage

	s.fireTriggers(ctx, &app, event)
	return nil
}

// fireTriggers runs STAGE_ENTER automations for the destination stage and
// STAGE_EXIT automations for the source stage. TIME_IN_STAGE is declared but
// not transition-driven; its periodic evaluator is an extension point.
func (s *WorkflowService) fireTriggers(ctx context.Context, app *models.Application, event *dtos.TransitionNotification) {
	var candidates []models.WorkflowAutomation

	var entering []models.WorkflowAutomation
	if err := s.DB.
		Where("is_active = ? AND trigger_type = ? AND stage_id = ?", true, models.TriggerStageEnter, event.ToStageID).
		Find(&entering).Error; err != nil {
		log.Printf("Workflow: loading enter automations failed: %v", err)
	}
	candidates = append(candidates, entering...)

	if event.FromStageID != nil {
		var exiting []models.WorkflowAutomation
		if err := s.DB.
			Where("is_active = ? AND trigger_type = ? AND stage_id = ?", true, models.TriggerStageExit, *event.FromStageID).
			Find(&exiting).Error; err != nil {
			log.Printf("Workflow: loading exit automations failed: %v", err)
		}
		candidates = append(candidates, exiting...)
	}
	if len(candidates) == 0 {
		return
	}

	condCtx, err := s.buildContext(app)
	if err != nil {
		log.Printf("Workflow: building context for application %d failed: %v", app.ID, err)
		return
	}

	for i := range candidates {
		automation := &candidates[i]
		clauses, err := workflows.ParseConditions(automation.Conditions)
		if err != nil {
			log.Printf("Workflow %d: bad conditions, skipping: %v", automation.ID, err)
			continue
		}
		if !workflows.Matches(clauses, condCtx) {
			continue
		}
		s.dispatchActions(ctx, automation, app.ID)
	}
}

// buildContext assembles the flat key/value context conditions match against.
func (s *WorkflowService) buildContext(app *models.Application) (map[string]any, error) {
	var candidate models.Candidate
	if err := s.DB.First(&candidate, app.CandidateID).Error; err != nil {
		return nil, err
	}
	var job models.Job
	if err := s.DB.First(&job, app.JobID).Error; err != nil {
		return nil, err
	}
	return map[string]any{
		"source":       candidate.Source,
		"status":       app.Status,
		"job_id":       app.JobID,
		"job_title":    job.Title,
		"candidate_id": app.CandidateID,
	}, nil
}

// dispatchActions runs every action of a matched automation. One action
// failing is logged and never blocks its siblings. A delay defers through the
// durable queue since this process may not live through the delay window.
func (s *WorkflowService) dispatchActions(ctx context.Context, automation *models.WorkflowAutomation, applicationID uint) {
	var actions []models.AutomationAction
	if err := json.Unmarshal(automation.Actions, &actions); err != nil {
		log.Printf("Workflow %d: bad actions payload: %v", automation.ID, err)
		return
	}

	for _, action := range actions {
		if automation.DelayMinutes > 0 {
			runAt := time.Now().Add(time.Duration(automation.DelayMinutes) * time.Minute)
			if err := s.Queue.Enqueue(automation.TenantID, automation.ID, applicationID, action, runAt); err != nil {
				log.Printf("Workflow %d: enqueue %s failed: %v", automation.ID, action.Type, err)
			}
			continue
		}

		executor, ok := s.Executors.Get(action.Type)
		if !ok {
			log.Printf("Workflow %d: no executor for %s", automation.ID, action.Type)
			continue
		}
		if err := executor(ctx, applicationID, action.Config); err != nil {
			log.Printf("Workflow %d: action %s failed for application %d: %v", automation.ID, action.Type, applicationID, err)
		}
	}
}
