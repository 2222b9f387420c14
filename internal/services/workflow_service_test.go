package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/justsurfingit/hiretrack/internal/dtos"
	"github.com/justsurfingit/hiretrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordedCall struct {
	actionType    string
	applicationID uint
	config        map[string]any
}

// recordingRegistry registers executors that capture their calls, optionally
// failing for chosen action types.
func recordingRegistry(calls *[]recordedCall, failing map[string]bool) *ExecutorRegistry {
	registry := NewExecutorRegistry()
	for _, actionType := range []string{
		models.ActionTypeSendEmail,
		models.ActionTypeAddTag,
		models.ActionTypeCreateTask,
		models.ActionTypeRequestFeedback,
	} {
		at := actionType
		registry.Register(at, func(ctx context.Context, applicationID uint, config map[string]any) error {
			*calls = append(*calls, recordedCall{actionType: at, applicationID: applicationID, config: config})
			if failing[at] {
				return errors.New("boom")
			}
			return nil
		})
	}
	return registry
}

func workflowFixture(t *testing.T, db *gorm.DB, calls *[]recordedCall, failing map[string]bool) (*WorkflowService, models.Tenant, models.Application, models.PipelineStage, models.PipelineStage) {
	t.Helper()
	activity := NewActivityService(db)
	registry := recordingRegistry(calls, failing)
	queue := NewTaskQueueService(db, registry)
	svc := NewWorkflowService(db, activity, queue, registry)

	tenant, job, candidate := seedTenantJobCandidate(t, db, "REFERRAL")
	pipeline := seedPipeline(t, db, tenant.ID,
		dtos.StageInput{Name: "Applied"},
		dtos.StageInput{Name: "Interview"},
	)
	applied := pipeline.Stages[0]
	interview := pipeline.Stages[1]
	app := seedApplication(t, db, tenant, job, candidate, &applied.ID, daysAgo(1))
	return svc, tenant, app, applied, interview
}

func createAutomation(t *testing.T, svc *WorkflowService, tenantID, stageID uint, trigger string, conditions map[string]any, delay int, actions ...string) *models.WorkflowAutomation {
	t.Helper()
	req := &dtos.AutomationCreationRequest{
		TenantID:     tenantID,
		Name:         "auto-" + trigger,
		StageID:      stageID,
		Trigger:      trigger,
		Conditions:   conditions,
		DelayMinutes: delay,
	}
	for _, a := range actions {
		req.Actions = append(req.Actions, dtos.ActionInput{Type: a, Config: map[string]any{"template": "default"}})
	}
	automation, err := svc.CreateAutomation(req)
	require.NoError(t, err)
	return automation
}

func TestProcessTransitionFiresEnterAndExit(t *testing.T) {
	db := testDB(t)
	var calls []recordedCall
	svc, tenant, app, applied, interview := workflowFixture(t, db, &calls, nil)

	createAutomation(t, svc, tenant.ID, interview.ID, models.TriggerStageEnter, nil, 0, models.ActionTypeSendEmail)
	createAutomation(t, svc, tenant.ID, applied.ID, models.TriggerStageExit, nil, 0, models.ActionTypeAddTag)
	// Wrong stage: must not fire.
	createAutomation(t, svc, tenant.ID, applied.ID, models.TriggerStageEnter, nil, 0, models.ActionTypeCreateTask)

	err := svc.ProcessTransition(context.Background(), &dtos.TransitionNotification{
		ApplicationID: app.ID,
		FromStageID:   &applied.ID,
		ToStageID:     interview.ID,
	})
	require.NoError(t, err)

	require.Len(t, calls, 2)
	fired := map[string]bool{}
	for _, call := range calls {
		fired[call.actionType] = true
		assert.Equal(t, app.ID, call.applicationID)
	}
	assert.True(t, fired[models.ActionTypeSendEmail])
	assert.True(t, fired[models.ActionTypeAddTag])
}

func TestProcessTransitionAppendsLogAndMirrorsStage(t *testing.T) {
	db := testDB(t)
	var calls []recordedCall
	svc, _, app, applied, interview := workflowFixture(t, db, &calls, nil)

	occurred := time.Now().Add(-2 * time.Hour).Truncate(time.Second)
	err := svc.ProcessTransition(context.Background(), &dtos.TransitionNotification{
		ApplicationID: app.ID,
		FromStageID:   &applied.ID,
		ToStageID:     interview.ID,
		OccurredAt:    &occurred,
	})
	require.NoError(t, err)

	entry, err := svc.Activity.LatestByAction(app.ID, models.ActionStageChanged)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.WithinDuration(t, occurred, entry.CreatedAt, time.Second)

	var meta StageChangeMetadata
	require.NoError(t, json.Unmarshal(entry.Metadata, &meta))
	require.NotNil(t, meta.FromStageID)
	assert.Equal(t, applied.ID, *meta.FromStageID)
	assert.Equal(t, interview.ID, meta.ToStageID)

	var reloaded models.Application
	require.NoError(t, db.First(&reloaded, app.ID).Error)
	require.NotNil(t, reloaded.CurrentStageID)
	assert.Equal(t, interview.ID, *reloaded.CurrentStageID)
}

func TestProcessTransitionConditionFiltering(t *testing.T) {
	db := testDB(t)
	var calls []recordedCall
	svc, tenant, app, applied, interview := workflowFixture(t, db, &calls, nil)

	createAutomation(t, svc, tenant.ID, interview.ID, models.TriggerStageEnter,
		map[string]any{"source": "REFERRAL"}, 0, models.ActionTypeSendEmail)
	createAutomation(t, svc, tenant.ID, interview.ID, models.TriggerStageEnter,
		map[string]any{"source": "JOB_BOARD"}, 0, models.ActionTypeAddTag)

	err := svc.ProcessTransition(context.Background(), &dtos.TransitionNotification{
		ApplicationID: app.ID,
		FromStageID:   &applied.ID,
		ToStageID:     interview.ID,
	})
	require.NoError(t, err)

	// The candidate is a REFERRAL: only the first automation matches.
	require.Len(t, calls, 1)
	assert.Equal(t, models.ActionTypeSendEmail, calls[0].actionType)
}

func TestProcessTransitionActionFailureDoesNotBlockSiblings(t *testing.T) {
	db := testDB(t)
	var calls []recordedCall
	svc, tenant, app, applied, interview := workflowFixture(t, db, &calls,
		map[string]bool{models.ActionTypeSendEmail: true})

	createAutomation(t, svc, tenant.ID, interview.ID, models.TriggerStageEnter, nil, 0,
		models.ActionTypeSendEmail, models.ActionTypeAddTag)

	err := svc.ProcessTransition(context.Background(), &dtos.TransitionNotification{
		ApplicationID: app.ID,
		FromStageID:   &applied.ID,
		ToStageID:     interview.ID,
	})
	require.NoError(t, err) // the transition itself never fails on actions

	require.Len(t, calls, 2)
	assert.Equal(t, models.ActionTypeSendEmail, calls[0].actionType)
	assert.Equal(t, models.ActionTypeAddTag, calls[1].actionType)
}

func TestProcessTransitionDelayedActionsAreQueued(t *testing.T) {
	db := testDB(t)
	var calls []recordedCall
	svc, tenant, app, applied, interview := workflowFixture(t, db, &calls, nil)

	automation := createAutomation(t, svc, tenant.ID, interview.ID, models.TriggerStageEnter, nil, 30, models.ActionTypeRequestFeedback)

	err := svc.ProcessTransition(context.Background(), &dtos.TransitionNotification{
		ApplicationID: app.ID,
		FromStageID:   &applied.ID,
		ToStageID:     interview.ID,
	})
	require.NoError(t, err)

	// Nothing ran inline; a pending task exists instead.
	assert.Empty(t, calls)

	var tasks []models.ScheduledTask
	require.NoError(t, db.Find(&tasks).Error)
	require.Len(t, tasks, 1)
	assert.Equal(t, models.TaskStatusPending, tasks[0].Status)
	assert.Equal(t, automation.ID, tasks[0].AutomationID)
	assert.Equal(t, app.ID, tasks[0].ApplicationID)
	assert.Equal(t, models.ActionTypeRequestFeedback, tasks[0].ActionType)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), tasks[0].RunAt, time.Minute)
}

func TestProcessTransitionUnknownApplication(t *testing.T) {
	db := testDB(t)
	var calls []recordedCall
	svc, _, _, _, interview := workflowFixture(t, db, &calls, nil)

	err := svc.ProcessTransition(context.Background(), &dtos.TransitionNotification{
		ApplicationID: 9999,
		ToStageID:     interview.ID,
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateAutomationUnknownStage(t *testing.T) {
	db := testDB(t)
	var calls []recordedCall
	svc, tenant, _, _, _ := workflowFixture(t, db, &calls, nil)

	_, err := svc.CreateAutomation(&dtos.AutomationCreationRequest{
		TenantID: tenant.ID,
		Name:     "bad",
		StageID:  9999,
		Trigger:  models.TriggerStageEnter,
		Actions:  []dtos.ActionInput{{Type: models.ActionTypeAddTag}},
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateAutomationRejectsForeignTenantStage(t *testing.T) {
	db := testDB(t)
	var calls []recordedCall
	svc, _, _, _, interview := workflowFixture(t, db, &calls, nil)

	other := models.Tenant{Name: "globex"}
	require.NoError(t, db.Create(&other).Error)

	// The stage exists but belongs to the fixture tenant's pipeline.
	_, err := svc.CreateAutomation(&dtos.AutomationCreationRequest{
		TenantID: other.ID,
		Name:     "cross-tenant",
		StageID:  interview.ID,
		Trigger:  models.TriggerStageEnter,
		Actions:  []dtos.ActionInput{{Type: models.ActionTypeAddTag}},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAutomationPayloadRoundTrip(t *testing.T) {
	db := testDB(t)
	var calls []recordedCall
	svc, tenant, _, _, interview := workflowFixture(t, db, &calls, nil)

	created := createAutomation(t, svc, tenant.ID, interview.ID, models.TriggerStageEnter,
		map[string]any{"source": "REFERRAL"}, 0, models.ActionTypeSendEmail, models.ActionTypeCreateTask)

	var loaded models.WorkflowAutomation
	require.NoError(t, db.First(&loaded, created.ID).Error)

	var conditions map[string]any
	require.NoError(t, json.Unmarshal(loaded.Conditions, &conditions))
	assert.Equal(t, map[string]any{"source": "REFERRAL"}, conditions)

	var actions []models.AutomationAction
	require.NoError(t, json.Unmarshal(loaded.Actions, &actions))
	require.Len(t, actions, 2)
	assert.Equal(t, models.ActionTypeSendEmail, actions[0].Type)
	assert.Equal(t, models.ActionTypeCreateTask, actions[1].Type)
}

func TestSetActive(t *testing.T) {
	db := testDB(t)
	var calls []recordedCall
	svc, tenant, app, applied, interview := workflowFixture(t, db, &calls, nil)

	automation := createAutomation(t, svc, tenant.ID, interview.ID, models.TriggerStageEnter, nil, 0, models.ActionTypeSendEmail)
	require.NoError(t, svc.SetActive(automation.ID, false))

	err := svc.ProcessTransition(context.Background(), &dtos.TransitionNotification{
		ApplicationID: app.ID,
		FromStageID:   &applied.ID,
		ToStageID:     interview.ID,
	})
	require.NoError(t, err)
	assert.Empty(t, calls)

	assert.ErrorIs(t, svc.SetActive(404040, true), ErrNotFound)
}
