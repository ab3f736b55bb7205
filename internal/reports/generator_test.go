package reports

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ecowaste/admintrack/internal/database/testutil"
	"github.com/ecowaste/admintrack/internal/models"
	appErrors "github.com/ecowaste/admintrack/pkg/errors"
)

func newTestGenerator(t *testing.T) (*Generator, *gorm.DB, *models.Admin) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	var admin models.Admin
	require.NoError(t, db.Take(&admin, "username = ?", "admin").Error)

	gen, err := NewGenerator(db)
	require.NoError(t, err)
	return gen, db, &admin
}

func seedActivity(t *testing.T, db *gorm.DB, admin *models.Admin, at time.Time, status int) {
	t.Helper()
	require.NoError(t, db.Create(&models.ActivityRecord{
		AdminID:          admin.ID,
		ActivityType:     "VIEW",
		ActivityCategory: "GENERAL",
		Description:      "seeded activity",
		RequestURL:       "/dashboard",
		ResponseStatus:   status,
		ExecutionTimeMS:  50,
		CreatedAt:        at,
	}).Error)
}

func TestGenerateRejectsUnknownType(t *testing.T) {
	gen, _, _ := newTestGenerator(t)

	rng := ParseRange("7d", time.Now())

	_, err := gen.Generate(context.Background(), "everything", rng)
	require.ErrorIs(t, err, appErrors.ErrInvalidReportType)
}

func TestGenerateOverview(t *testing.T) {
	gen, db, admin := newTestGenerator(t)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	seedActivity(t, db, admin, now, 200)
	seedActivity(t, db, admin, now.Add(-time.Hour), 200)
	seedActivity(t, db, admin, now.AddDate(0, 0, -30), 200)

	rng := ParseRange("7d", now)

	report, err := gen.Generate(context.Background(), TypeOverview, rng)
	require.NoError(t, err)
	require.False(t, report.Tabular())

	metrics := make(map[string]any, len(report.Metrics))
	for _, m := range report.Metrics {
		metrics[m.Name] = m.Value
	}
	require.Equal(t, int64(2), metrics["total_activities"])
	require.Equal(t, int64(1), metrics["unique_admins"])
	require.Equal(t, "admin", metrics["most_active_admin"])
}

func TestGenerateAdminActivityListsEveryAdmin(t *testing.T) {
	gen, db, admin := newTestGenerator(t)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	seedActivity(t, db, admin, now, 200)

	rng := ParseRange("7d", now)

	report, err := gen.Generate(context.Background(), TypeAdminActivity, rng)
	require.NoError(t, err)
	require.True(t, report.Tabular())
	require.Len(t, report.Rows, 1)
	require.Equal(t, "admin", report.Rows[0]["username"])
	require.Equal(t, int64(1), report.Rows[0]["total_activities"])
}

func TestGenerateSecurityGroupsByTypeAndSeverity(t *testing.T) {
	gen, db, admin := newTestGenerator(t)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		require.NoError(t, db.Create(&models.SecurityEvent{
			AdminID:          &admin.ID,
			EventType:        "FAILED_LOGIN",
			EventSeverity:    models.SeverityHigh,
			EventDescription: "failed login",
			CreatedAt:        now,
		}).Error)
	}

	rng := ParseRange("7d", now)

	report, err := gen.Generate(context.Background(), TypeSecurity, rng)
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	require.Equal(t, int64(2), report.Rows[0]["total"])
	require.Equal(t, int64(2), report.Rows[0]["unresolved"])
}

func TestGenerateFeatureUsageSuccessRate(t *testing.T) {
	gen, db, admin := newTestGenerator(t)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&models.FeatureUsage{
		AdminID:      admin.ID,
		FeatureName:  "report_builder",
		UsageCount:   3,
		SuccessCount: 2,
		ErrorCount:   1,
		LastUsedAt:   now,
	}).Error)

	rng := ParseRange("7d", now)

	report, err := gen.Generate(context.Background(), TypeFeatureUsage, rng)
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	require.Equal(t, "admin", report.Rows[0]["username"])
	require.Equal(t, 66.67, report.Rows[0]["success_rate"])
}

func TestSuccessRateZeroGuard(t *testing.T) {
	require.Equal(t, float64(0), successRate(0, 0))
	require.Equal(t, float64(50), successRate(1, 2))
	require.Equal(t, 33.33, successRate(1, 3))
	require.Equal(t, float64(90), successRate(9, 10))
}

func TestGenerateSystemHealth(t *testing.T) {
	gen, db, admin := newTestGenerator(t)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	seedActivity(t, db, admin, now, 200)
	seedActivity(t, db, admin, now, 500)

	rng := ParseRange("1d", now)

	report, err := gen.Generate(context.Background(), TypeSystemHealth, rng)
	require.NoError(t, err)

	metrics := make(map[string]any, len(report.Metrics))
	for _, m := range report.Metrics {
		metrics[m.Name] = m.Value
	}
	require.Equal(t, int64(2), metrics["total_requests"])
	require.Equal(t, int64(1), metrics["error_count"])
	require.Equal(t, float64(50), metrics["error_rate"])
}

func TestRenderJSONEnvelope(t *testing.T) {
	gen, _, _ := newTestGenerator(t)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	rng := ParseRange("7d", now)

	report, err := gen.Generate(context.Background(), TypeOverview, rng)
	require.NoError(t, err)

	var buf strings.Builder
	require.NoError(t, RenderJSON(&buf, report))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(buf.String()), &decoded))
	require.Equal(t, "overview", decoded["report_type"])
	require.Equal(t, "7d", decoded["range"])
	require.Equal(t, "2026-03-03", decoded["start_date"])
	require.Equal(t, "2026-03-10", decoded["end_date"])
	require.Contains(t, decoded, "metrics")
}

func TestRenderHTMLTable(t *testing.T) {
	report := &Report{
		Type:        TypeSecurity,
		Range:       Range{Label: "7d", Start: time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), End: time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)},
		GeneratedAt: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		Columns:     []string{"event_type", "total"},
		Rows:        []map[string]any{{"event_type": "FAILED_LOGIN", "total": int64(2)}},
	}

	var buf strings.Builder
	require.NoError(t, RenderHTML(&buf, report))
	html := buf.String()
	require.Contains(t, html, "Security Report")
	require.Contains(t, html, "<th>Event Type</th>")
	require.Contains(t, html, "FAILED_LOGIN")
}
