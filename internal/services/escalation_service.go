package services

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/justsurfingit/hiretrack/internal/models"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// escalationCooldown suppresses repeat notifications: at most one entry per
// status per application per 24h, however often the sweep runs.
const escalationCooldown = 24 * time.Hour

// EscalationService runs the daily SLA sweep and appends escalation entries
// for at-risk and overdue applications.
type EscalationService struct {
	DB       *gorm.DB
	Sla      *SlaService
	Activity *ActivityService

	// Guards against overlapping runs. If a sweep is still going when the
	// next trigger fires, the new run is skipped, not queued.
	running sync.Mutex

	cron *cron.Cron
	now  func() time.Time
}

func NewEscalationService(db *gorm.DB, sla *SlaService, activity *ActivityService) *EscalationService {
	return &EscalationService{DB: db, Sla: sla, Activity: activity, now: time.Now}
}

// Start schedules the sweep on the given cron spec (daily in production).
func (s *EscalationService) Start(cronSpec string) error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(cronSpec, s.RunAll); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("Escalation scheduler started (spec %q)", cronSpec)
	return nil
}

// Stop halts the cron schedule. A sweep already in flight finishes.
func (s *EscalationService) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// RunAll sweeps every tenant, one bounded scan per tenant. There is no
// tenant-less scan path: crossing tenants in a single query is exactly the
// mistake this iteration avoids.
func (s *EscalationService) RunAll() {
	if !s.running.TryLock() {
		log.Println("Escalation sweep still running, skipping this trigger")
		return
	}
	defer s.running.Unlock()

	started := s.now()
	log.Println("Escalation sweep: starting")

	var tenants []models.Tenant
	if err := s.DB.Find(&tenants).Error; err != nil {
		log.Printf("Escalation sweep: loading tenants failed: %v", err)
		return
	}

	for _, tenant := range tenants {
		// One tenant failing must not stop the others.
		if err := s.runTenant(tenant.ID); err != nil {
			log.Printf("Escalation sweep: tenant %d failed: %v", tenant.ID, err)
		}
	}
	log.Printf("Escalation sweep: done in %s", time.Since(started))
}

// RunForTenant sweeps a single tenant on demand. Returns ErrConflict when a
// sweep is already in flight so callers can tell a skip from a completed run.
func (s *EscalationService) RunForTenant(tenantID uint) error {
	if !s.running.TryLock() {
		log.Println("Escalation sweep still running, skipping on-demand run")
		return fmt.Errorf("escalation sweep already running: %w", ErrConflict)
	}
	defer s.running.Unlock()
	return s.runTenant(tenantID)
}

func (s *EscalationService) runTenant(tenantID uint) error {
	buckets, err := s.Sla.GetAtRiskAndOverdue(tenantID)
	if err != nil {
		return err
	}

	appended := 0
	for _, item := range buckets.AtRisk {
		if s.appendEscalation(tenantID, item, models.ActionSlaAtRisk) {
			appended++
		}
	}
	for _, item := range buckets.Overdue {
		if s.appendEscalation(tenantID, item, models.ActionSlaOverdue) {
			appended++
		}
	}
	log.Printf("Escalation sweep: tenant %d: %d at risk, %d overdue, %d new entries",
		tenantID, len(buckets.AtRisk), len(buckets.Overdue), appended)
	return nil
}

// appendEscalation writes one escalation entry unless the same status was
// already notified within the cooldown window. Reports whether it wrote.
func (s *EscalationService) appendEscalation(tenantID uint, item EscalationItem, action string) bool {
	latest, err := s.Activity.LatestByAction(item.ApplicationID, action)
	if err != nil {
		log.Printf("Escalation sweep: app %d: lookup failed: %v", item.ApplicationID, err)
		return false
	}
	if latest != nil && s.now().Sub(latest.CreatedAt) < escalationCooldown {
		return false
	}

	meta, err := json.Marshal(map[string]any{
		"stageId":       item.StageID,
		"daysInStage":   item.Result.DaysInStage,
		"slaLimit":      item.Result.SLALimit,
		"daysRemaining": item.Result.DaysRemaining,
	})
	if err != nil {
		return false
	}
	appID := item.ApplicationID
	entry := &models.ActivityLog{
		TenantID:      tenantID,
		Action:        action,
		ApplicationID: &appID,
		Metadata:      meta,
	}
	if err := s.Activity.Append(entry); err != nil {
		// Isolated per item: log and move on.
		log.Printf("Escalation sweep: app %d: append failed: %v", item.ApplicationID, err)
		return false
	}
	return true
}
