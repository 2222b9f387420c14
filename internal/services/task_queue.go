package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/justsurfingit/hiretrack/internal/models"
	"gorm.io/gorm"
)

const (
	maxTaskAttempts  = 3
	taskRequeueDelay = time.Minute
	taskClaimLimit   = 100
)

// TaskQueueService is the durable delay mechanism for deferred workflow
// actions. Tasks are rows, so a pending delay survives process restarts; the
// poller picks up whatever is due whenever it comes back.
type TaskQueueService struct {
	DB        *gorm.DB
	Executors *ExecutorRegistry

	stop chan struct{}
	now  func() time.Time
}

func NewTaskQueueService(db *gorm.DB, executors *ExecutorRegistry) *TaskQueueService {
	return &TaskQueueService{DB: db, Executors: executors, stop: make(chan struct{}), now: time.Now}
}

// Enqueue persists one deferred action to run at runAt.
func (s *TaskQueueService) Enqueue(tenantID, automationID, applicationID uint, action models.AutomationAction, runAt time.Time) error {
	config, err := json.Marshal(action.Config)
	if err != nil {
		return err
	}
	task := &models.ScheduledTask{
		ID:            uuid.NewString(),
		RunAt:         runAt,
		Status:        models.TaskStatusPending,
		TenantID:      tenantID,
		AutomationID:  automationID,
		ApplicationID: applicationID,
		ActionType:    action.Type,
		ActionConfig:  config,
	}
	return s.DB.Create(task).Error
}

// Start begins the polling loop: one pass immediately, then every interval.
func (s *TaskQueueService) Start(interval time.Duration) {
	ticker := time.NewTicker(interval)

	go s.ProcessDue()

	go func() {
		for {
			select {
			case <-ticker.C:
				s.ProcessDue()
			case <-s.stop:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop ends the polling loop. A pass already in flight finishes.
func (s *TaskQueueService) Stop() {
	close(s.stop)
}

// ProcessDue executes every pending task whose RunAt has passed. Each task is
// independent: a failure is recorded on its row and the pass continues.
func (s *TaskQueueService) ProcessDue() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var due []models.ScheduledTask
	err := s.DB.
		Where("status = ? AND run_at <= ?", models.TaskStatusPending, s.now()).
		Order("run_at ASC").
		Limit(taskClaimLimit).
		Find(&due).Error
	if err != nil {
		log.Printf("Task queue: loading due tasks failed: %v", err)
		return
	}
	if len(due) == 0 {
		return
	}

	log.Printf("Task queue: running %d due tasks", len(due))
	for i := range due {
		s.runTask(ctx, &due[i])
	}
}

func (s *TaskQueueService) runTask(ctx context.Context, task *models.ScheduledTask) {
	task.Attempts++

	executor, ok := s.Executors.Get(task.ActionType)
	if !ok {
		s.finishTask(task, models.TaskStatusFailed, "no executor registered for "+task.ActionType)
		return
	}

	var config map[string]any
	if len(task.ActionConfig) > 0 {
		if err := json.Unmarshal(task.ActionConfig, &config); err != nil {
			s.finishTask(task, models.TaskStatusFailed, "bad action config: "+err.Error())
			return
		}
	}

	if err := executor(ctx, task.ApplicationID, config); err != nil {
		log.Printf("Task queue: task %s (%s) attempt %d failed: %v", task.ID, task.ActionType, task.Attempts, err)
		if task.Attempts >= maxTaskAttempts {
			s.finishTask(task, models.TaskStatusFailed, err.Error())
			return
		}
		// Push it back and let the next pass retry.
		s.DB.Model(task).Updates(map[string]any{
			"attempts":   task.Attempts,
			"run_at":     s.now().Add(taskRequeueDelay),
			"last_error": err.Error(),
		})
		return
	}

	s.finishTask(task, models.TaskStatusCompleted, "")
}

func (s *TaskQueueService) finishTask(task *models.ScheduledTask, status, lastError string) {
	err := s.DB.Model(task).Updates(map[string]any{
		"attempts":   task.Attempts,
		"status":     status,
		"last_error": lastError,
	}).Error
	if err != nil {
		log.Printf("Task queue: updating task %s failed: %v", task.ID, err)
	}
}
