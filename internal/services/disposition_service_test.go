package services

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/justsurfingit/hiretrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReasonsByType(t *testing.T) {
	svc := NewDispositionService(testDB(t), nil)

	rejections, err := svc.GetReasonsByType(DispositionRejection)
	require.NoError(t, err)
	require.NotEmpty(t, rejections)
	for i, r := range rejections {
		assert.Equal(t, fmt.Sprintf("REJECTION-%d", i), r.ID)
		assert.Equal(t, i, r.Order)
		assert.Equal(t, DispositionRejection, r.Type)
		assert.NotEmpty(t, r.Category)
	}

	withdrawals, err := svc.GetReasonsByType(DispositionWithdrawal)
	require.NoError(t, err)
	require.NotEmpty(t, withdrawals)

	_, err = svc.GetReasonsByType("GHOSTED")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestValidateReason(t *testing.T) {
	svc := NewDispositionService(testDB(t), nil)

	assert.NoError(t, svc.ValidateReason(DispositionRejection, "Not a skill fit"))
	assert.NoError(t, svc.ValidateReason(DispositionWithdrawal, "Accepted another offer"))
	assert.ErrorIs(t, svc.ValidateReason(DispositionRejection, "Bad vibes"), ErrInvalidInput)
	// Exact string match: different case does not count.
	assert.ErrorIs(t, svc.ValidateReason(DispositionRejection, "not a skill fit"), ErrInvalidInput)
}

func TestRecordDispositionRejection(t *testing.T) {
	db := testDB(t)
	activity := NewActivityService(db)
	svc := NewDispositionService(db, activity)

	tenant, job, candidate := seedTenantJobCandidate(t, db, "REFERRAL")
	app := seedApplication(t, db, tenant, job, candidate, nil, daysAgo(10))

	userID := uint(42)
	updated, err := svc.RecordDisposition(app.ID, DispositionRejection, "Not a skill fit", "lacked Go depth", &userID)
	require.NoError(t, err)
	assert.Equal(t, models.AppStatusRejected, updated.Status)
	assert.Equal(t, "Not a skill fit", updated.RejectionReason)
	assert.Equal(t, "lacked Go depth", updated.Notes)
	require.NotNil(t, updated.DisposedAt)
	assert.WithinDuration(t, time.Now(), *updated.DisposedAt, time.Second)

	entry, err := activity.LatestByAction(app.ID, models.ActionApplicationRejected)
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, userID, *entry.UserID)

	var meta map[string]any
	require.NoError(t, json.Unmarshal(entry.Metadata, &meta))
	assert.Equal(t, "REJECTION", meta["type"])
	assert.Equal(t, "Not a skill fit", meta["reason"])
	assert.Equal(t, "lacked Go depth", meta["notes"])
}

func TestRecordDispositionWithdrawal(t *testing.T) {
	db := testDB(t)
	activity := NewActivityService(db)
	svc := NewDispositionService(db, activity)

	tenant, job, candidate := seedTenantJobCandidate(t, db, "REFERRAL")
	app := seedApplication(t, db, tenant, job, candidate, nil, daysAgo(10))

	updated, err := svc.RecordDisposition(app.ID, DispositionWithdrawal, "Accepted another offer", "", nil)
	require.NoError(t, err)
	assert.Equal(t, models.AppStatusWithdrawn, updated.Status)
	assert.Equal(t, "Accepted another offer", updated.WithdrawalReason)
	assert.Empty(t, updated.RejectionReason)

	entry, err := activity.LatestByAction(app.ID, models.ActionApplicationWithdrawn)
	require.NoError(t, err)
	require.NotNil(t, entry)
}

func TestRecordDispositionDoesNotValidateReason(t *testing.T) {
	db := testDB(t)
	svc := NewDispositionService(db, NewActivityService(db))

	tenant, job, candidate := seedTenantJobCandidate(t, db, "REFERRAL")
	app := seedApplication(t, db, tenant, job, candidate, nil, daysAgo(10))

	// An off-catalog reason records fine; validation is the caller's call.
	updated, err := svc.RecordDisposition(app.ID, DispositionRejection, "Completely custom reason", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "Completely custom reason", updated.RejectionReason)
}

func TestRecordDispositionErrors(t *testing.T) {
	db := testDB(t)
	svc := NewDispositionService(db, NewActivityService(db))

	_, err := svc.RecordDisposition(999, DispositionRejection, "Other", "", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	tenant, job, candidate := seedTenantJobCandidate(t, db, "REFERRAL")
	app := seedApplication(t, db, tenant, job, candidate, nil, daysAgo(10))
	_, err = svc.RecordDisposition(app.ID, "GHOSTED", "Other", "", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDispositionAnalyticsTopReasons(t *testing.T) {
	db := testDB(t)
	svc := NewDispositionService(db, NewActivityService(db))

	tenant, job, candidate := seedTenantJobCandidate(t, db, "REFERRAL")
	for _, reason := range []string{"Not a skill fit", "Not a skill fit", "Other"} {
		app := seedApplication(t, db, tenant, job, candidate, nil, daysAgo(10))
		_, err := svc.RecordDisposition(app.ID, DispositionRejection, reason, "", nil)
		require.NoError(t, err)
	}
	app := seedApplication(t, db, tenant, job, candidate, nil, daysAgo(10))
	_, err := svc.RecordDisposition(app.ID, DispositionWithdrawal, "Accepted another offer", "", nil)
	require.NoError(t, err)

	analytics, err := svc.GetDispositionAnalytics(nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, analytics.TotalRejected)
	assert.Equal(t, 1, analytics.TotalWithdrawn)
	require.Len(t, analytics.TopRejectionReasons, 2)
	assert.Equal(t, ReasonCount{Reason: "Not a skill fit", Count: 2}, analytics.TopRejectionReasons[0])
	assert.Equal(t, ReasonCount{Reason: "Other", Count: 1}, analytics.TopRejectionReasons[1])
	require.Len(t, analytics.TopWithdrawalReasons, 1)
}

func TestDispositionAnalyticsTopFiveCap(t *testing.T) {
	db := testDB(t)
	svc := NewDispositionService(db, NewActivityService(db))

	tenant, job, candidate := seedTenantJobCandidate(t, db, "REFERRAL")
	for i := 0; i < 7; i++ {
		app := seedApplication(t, db, tenant, job, candidate, nil, daysAgo(10))
		_, err := svc.RecordDisposition(app.ID, DispositionRejection, fmt.Sprintf("Reason %d", i), "", nil)
		require.NoError(t, err)
	}

	analytics, err := svc.GetDispositionAnalytics(nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, analytics.TotalRejected)
	assert.Len(t, analytics.TopRejectionReasons, 5)
}

func TestDispositionAnalyticsFilters(t *testing.T) {
	db := testDB(t)
	svc := NewDispositionService(db, NewActivityService(db))

	tenant, job, candidate := seedTenantJobCandidate(t, db, "REFERRAL")
	otherJob := models.Job{TenantID: tenant.ID, Title: "Data Engineer"}
	require.NoError(t, db.Create(&otherJob).Error)

	app1 := seedApplication(t, db, tenant, job, candidate, nil, daysAgo(10))
	_, err := svc.RecordDisposition(app1.ID, DispositionRejection, "Other", "", nil)
	require.NoError(t, err)

	app2 := seedApplication(t, db, tenant, otherJob, candidate, nil, daysAgo(10))
	_, err = svc.RecordDisposition(app2.ID, DispositionRejection, "Other", "", nil)
	require.NoError(t, err)

	analytics, err := svc.GetDispositionAnalytics(&job.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, analytics.TotalRejected)

	// A window in the past excludes today's dispositions.
	past := time.Now().Add(-48 * time.Hour)
	pastEnd := time.Now().Add(-24 * time.Hour)
	analytics, err = svc.GetDispositionAnalytics(nil, &past, &pastEnd)
	require.NoError(t, err)
	assert.Equal(t, 0, analytics.TotalRejected)
}

func TestDispositionAnalyticsWindowIsStableAcrossEdits(t *testing.T) {
	db := testDB(t)
	svc := NewDispositionService(db, NewActivityService(db))

	tenant, job, candidate := seedTenantJobCandidate(t, db, "REFERRAL")
	app := seedApplication(t, db, tenant, job, candidate, nil, daysAgo(10))

	disposedAt := time.Now().Add(-72 * time.Hour)
	svc.now = func() time.Time { return disposedAt }
	_, err := svc.RecordDisposition(app.ID, DispositionRejection, "Other", "", nil)
	require.NoError(t, err)

	// A later edit bumps updated_at; the reporting window must not move.
	require.NoError(t, db.Model(&models.Application{}).Where("id = ?", app.ID).Update("notes", "revisited").Error)

	start := disposedAt.Add(-time.Hour)
	end := disposedAt.Add(time.Hour)
	analytics, err := svc.GetDispositionAnalytics(nil, &start, &end)
	require.NoError(t, err)
	assert.Equal(t, 1, analytics.TotalRejected)

	recent := time.Now().Add(-time.Hour)
	analytics, err = svc.GetDispositionAnalytics(nil, &recent, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, analytics.TotalRejected)
}
