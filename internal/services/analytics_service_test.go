package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ecowaste/admintrack/internal/models"
)

func TestSummaryCountsOneDay(t *testing.T) {
	tracking, db, admin := newTestTracking(t)
	analytics, err := NewAnalyticsService(db)
	require.NoError(t, err)

	today := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	withClock(tracking, today)

	for i := 0; i < 3; i++ {
		_, err := tracking.RecordActivity(context.Background(), ActivityEntry{
			AdminID:          admin.ID,
			ActivityType:     "VIEW",
			ActivityCategory: "GENERAL",
			Description:      "viewed a page",
		})
		require.NoError(t, err)
	}
	_, err = tracking.RecordPageVisit(context.Background(), PageVisitEntry{
		AdminID:  admin.ID,
		PageName: "Dashboard",
		PageURL:  "/dashboard",
	})
	require.NoError(t, err)
	_, err = tracking.RecordSecurityEvent(context.Background(), SecurityEventEntry{
		EventType:     "FAILED_LOGIN",
		EventSeverity: models.SeverityLow,
		Description:   "bad password",
	})
	require.NoError(t, err)

	// Record on a different day; must not leak into today's summary.
	withClock(tracking, today.AddDate(0, 0, -2))
	_, err = tracking.RecordActivity(context.Background(), ActivityEntry{
		AdminID:          admin.ID,
		ActivityType:     "VIEW",
		ActivityCategory: "GENERAL",
		Description:      "older activity",
	})
	require.NoError(t, err)

	stats, err := analytics.Summary(context.Background(), today)
	require.NoError(t, err)
	require.Equal(t, "2026-03-10", stats.Date)
	require.Equal(t, int64(3), stats.TotalActivities)
	require.Equal(t, int64(1), stats.TotalPageViews)
	require.Equal(t, int64(1), stats.SecurityEvents)
	require.Equal(t, int64(1), stats.UniqueAdmins)
}

func TestDailyFillsEmptyDays(t *testing.T) {
	tracking, db, admin := newTestTracking(t)
	analytics, err := NewAnalyticsService(db)
	require.NoError(t, err)

	end := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	withClock(tracking, end)
	_, err = tracking.RecordActivity(context.Background(), ActivityEntry{
		AdminID:          admin.ID,
		ActivityType:     "VIEW",
		ActivityCategory: "GENERAL",
		Description:      "recent activity",
	})
	require.NoError(t, err)

	rows, err := analytics.Daily(context.Background(), end, 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "2026-03-08", rows[0].Date)
	require.Equal(t, int64(0), rows[0].TotalActivities)
	require.Equal(t, "2026-03-10", rows[2].Date)
	require.Equal(t, int64(1), rows[2].TotalActivities)
}

func TestDailyDefaultsToSevenDays(t *testing.T) {
	_, db, _ := newTestTracking(t)
	analytics, err := NewAnalyticsService(db)
	require.NoError(t, err)

	rows, err := analytics.Daily(context.Background(), time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), 0)
	require.NoError(t, err)
	require.Len(t, rows, DefaultDailyDays)
}

func TestAdminBreakdownRequiresAdminID(t *testing.T) {
	tracking, db, admin := newTestTracking(t)
	analytics, err := NewAnalyticsService(db)
	require.NoError(t, err)

	_, err = analytics.Admin(context.Background(), "", time.Now())
	require.Error(t, err)

	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	withClock(tracking, day)
	for _, category := range []string{"REPORTS", "REPORTS", "GENERAL"} {
		_, err := tracking.RecordActivity(context.Background(), ActivityEntry{
			AdminID:          admin.ID,
			ActivityType:     "VIEW",
			ActivityCategory: category,
			Description:      "category " + category,
			ExecutionTime:    100 * time.Millisecond,
		})
		require.NoError(t, err)
	}

	stats, err := analytics.Admin(context.Background(), admin.ID, day)
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.TotalActivities)
	require.InDelta(t, 100, stats.AvgExecutionMS, 0.01)
	require.Len(t, stats.ByCategory, 2)
	require.Equal(t, "REPORTS", stats.ByCategory[0].ActivityCategory)
	require.Equal(t, int64(2), stats.ByCategory[0].Count)
}

func TestSecurityBreakdown(t *testing.T) {
	tracking, db, admin := newTestTracking(t)
	analytics, err := NewAnalyticsService(db)
	require.NoError(t, err)

	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	withClock(tracking, day)

	event, err := tracking.RecordSecurityEvent(context.Background(), SecurityEventEntry{
		AdminID:       &admin.ID,
		EventType:     "FAILED_LOGIN",
		EventSeverity: models.SeverityHigh,
		Description:   "repeated failures",
	})
	require.NoError(t, err)
	_, err = tracking.RecordSecurityEvent(context.Background(), SecurityEventEntry{
		EventType:     "ERROR",
		EventSeverity: models.SeverityMedium,
		Description:   "client error",
	})
	require.NoError(t, err)
	_, err = tracking.ResolveSecurityEvent(context.Background(), event.ID)
	require.NoError(t, err)

	stats, err := analytics.Security(context.Background(), day)
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.TotalEvents)
	require.Equal(t, int64(1), stats.Unresolved)
	require.Len(t, stats.BySeverity, 2)
}

func TestPerformanceBreakdown(t *testing.T) {
	tracking, db, admin := newTestTracking(t)
	analytics, err := NewAnalyticsService(db)
	require.NoError(t, err)

	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	withClock(tracking, day)

	_, err = tracking.RecordActivity(context.Background(), ActivityEntry{
		AdminID:          admin.ID,
		ActivityType:     "VIEW",
		ActivityCategory: "GENERAL",
		Description:      "ok request",
		Client:           ClientInfo{RequestURL: "/reports"},
		ExecutionTime:    200 * time.Millisecond,
	})
	require.NoError(t, err)
	_, err = tracking.RecordActivity(context.Background(), ActivityEntry{
		AdminID:          admin.ID,
		ActivityType:     "VIEW",
		ActivityCategory: "GENERAL",
		Description:      "failed request",
		Client:           ClientInfo{RequestURL: "/reports"},
		ResponseStatus:   500,
		ExecutionTime:    400 * time.Millisecond,
	})
	require.NoError(t, err)

	stats, err := analytics.Performance(context.Background(), day)
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.TotalRequests)
	require.Equal(t, int64(1), stats.ErrorCount)
	require.InDelta(t, 300, stats.AvgExecutionMS, 0.01)
	require.Len(t, stats.SlowEndpoints, 1)
	require.Equal(t, "/reports", stats.SlowEndpoints[0].RequestURL)
	require.Equal(t, int64(400), stats.SlowEndpoints[0].MaxMS)
}

func withClock(svc *TrackingService, at time.Time) {
	svc.now = func() time.Time { return at }
}
