package services

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/justsurfingit/hiretrack/internal/database"
	"github.com/justsurfingit/hiretrack/internal/dtos"
	"github.com/justsurfingit/hiretrack/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB opens a fresh in-memory SQLite database with the full schema.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	database.Migrate(db)
	return db
}

// seedTenantJobCandidate inserts the minimal ownership chain most tests need.
func seedTenantJobCandidate(t *testing.T, db *gorm.DB, source string) (models.Tenant, models.Job, models.Candidate) {
	t.Helper()
	tenant := models.Tenant{Name: "acme-" + t.Name()}
	require.NoError(t, db.Create(&tenant).Error)
	job := models.Job{TenantID: tenant.ID, Title: "Backend Engineer"}
	require.NoError(t, db.Create(&job).Error)
	candidate := models.Candidate{TenantID: tenant.ID, Name: "Jordan Smith", Email: "jordan@example.com", Source: source}
	require.NoError(t, db.Create(&candidate).Error)
	return tenant, job, candidate
}

func seedApplication(t *testing.T, db *gorm.DB, tenant models.Tenant, job models.Job, candidate models.Candidate, stageID *uint, appliedAt time.Time) models.Application {
	t.Helper()
	app := models.Application{
		TenantID:       tenant.ID,
		JobID:          job.ID,
		CandidateID:    candidate.ID,
		CurrentStageID: stageID,
		Status:         models.AppStatusActive,
		AppliedAt:      appliedAt,
	}
	require.NoError(t, db.Create(&app).Error)
	return app
}

// seedPipeline creates a pipeline with the given stages via the catalog
// service so order assignment matches production behavior.
func seedPipeline(t *testing.T, db *gorm.DB, tenantID uint, stages ...dtos.StageInput) *models.Pipeline {
	t.Helper()
	svc := NewPipelineService(db)
	pipeline, err := svc.CreatePipeline(&dtos.PipelineCreationRequest{
		TenantID: tenantID,
		Name:     "Engineering Pipeline",
		Stages:   stages,
	})
	require.NoError(t, err)
	return pipeline
}

func daysAgo(n int) time.Time {
	return time.Now().Add(-time.Duration(n) * 24 * time.Hour)
}
