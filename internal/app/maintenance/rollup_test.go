package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ecowaste/admintrack/internal/database/testutil"
	"github.com/ecowaste/admintrack/internal/models"
)

func seedDay(t *testing.T, db *gorm.DB, adminID string, day time.Time) {
	t.Helper()

	logout := day.Add(2 * time.Hour)
	require.NoError(t, db.Create(&models.AdminSession{
		AdminID:         adminID,
		SessionToken:    "rollup-token-" + day.Format("20060102"),
		LoginTime:       day.Add(time.Hour),
		LogoutTime:      &logout,
		IsActive:        false,
		SessionDuration: 3600,
	}).Error)

	for _, status := range []int{200, 200, 200, 500} {
		require.NoError(t, db.Create(&models.ActivityRecord{
			AdminID:          adminID,
			ActivityType:     "VIEW",
			ActivityCategory: "GENERAL",
			Description:      "rollup seed",
			ResponseStatus:   status,
			ExecutionTimeMS:  100,
			CreatedAt:        day.Add(3 * time.Hour),
		}).Error)
	}

	require.NoError(t, db.Create(&models.PageVisit{
		AdminID:   adminID,
		PageName:  "Dashboard",
		PageURL:   "/dashboard",
		CreatedAt: day.Add(3 * time.Hour),
	}).Error)
}

func TestRollupDayProducesMetrics(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	var admin models.Admin
	require.NoError(t, db.Take(&admin, "username = ?", "admin").Error)

	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	seedDay(t, db, admin.ID, day)

	require.NoError(t, RollupDay(context.Background(), db, day))

	var metric models.PerformanceMetric
	require.NoError(t, db.Take(&metric, "admin_id = ?", admin.ID).Error)
	require.Equal(t, int64(4), metric.TotalActivities)
	require.Equal(t, int64(1), metric.TotalPageViews)
	require.Equal(t, int64(3600), metric.TotalLoginTime)
	require.Equal(t, int64(1), metric.ErrorCount)
	require.Equal(t, float64(75), metric.SuccessRate)

	var stat models.SystemUsageStat
	require.NoError(t, db.Take(&stat, "date = ?", day).Error)
	require.Equal(t, int64(1), stat.TotalAdminLogins)
	require.Equal(t, int64(4), stat.TotalActivities)
	require.Equal(t, float64(25), stat.ErrorRate)
	require.Equal(t, float64(100), stat.AvgResponseTimeMS)
}

func TestRollupDayIsRerunnable(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	var admin models.Admin
	require.NoError(t, db.Take(&admin, "username = ?", "admin").Error)

	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	seedDay(t, db, admin.ID, day)

	require.NoError(t, RollupDay(context.Background(), db, day))
	require.NoError(t, RollupDay(context.Background(), db, day))

	var count int64
	require.NoError(t, db.Model(&models.PerformanceMetric{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
	require.NoError(t, db.Model(&models.SystemUsageStat{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestCleanupOldRecords(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	var admin models.Admin
	require.NoError(t, db.Take(&admin, "username = ?", "admin").Error)

	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	seedDay(t, db, admin.ID, now.AddDate(0, 0, -120))
	seedDay(t, db, admin.ID, now.AddDate(0, 0, -1))

	stats, err := CleanupOldRecords(context.Background(), db, now.AddDate(0, 0, -90))
	require.NoError(t, err)
	require.Equal(t, int64(4), stats.Activities)
	require.Equal(t, int64(1), stats.PageVisits)

	var remaining int64
	require.NoError(t, db.Model(&models.ActivityRecord{}).Count(&remaining).Error)
	require.Equal(t, int64(4), remaining)
}

func TestRunOnceExecutesAllJobs(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	var admin models.Admin
	require.NoError(t, db.Take(&admin, "username = ?", "admin").Error)

	now := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	seedDay(t, db, admin.ID, now.AddDate(0, 0, -1))

	runner, err := NewRunner(db, nil, WithNow(func() time.Time { return now }))
	require.NoError(t, err)
	require.NoError(t, runner.RunOnce(context.Background()))

	var count int64
	require.NoError(t, db.Model(&models.PerformanceMetric{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}
