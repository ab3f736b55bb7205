package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ecowaste/admintrack/internal/database/testutil"
	"github.com/ecowaste/admintrack/internal/models"
)

func newTestTracking(t *testing.T) (*TrackingService, *gorm.DB, *models.Admin) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	var admin models.Admin
	require.NoError(t, db.Take(&admin, "username = ?", "admin").Error)

	svc, err := NewTrackingService(db)
	require.NoError(t, err)
	return svc, db, &admin
}

func TestRecordActivityPersistsRecord(t *testing.T) {
	svc, db, admin := newTestTracking(t)

	record, err := svc.RecordActivity(context.Background(), ActivityEntry{
		AdminID:          admin.ID,
		ActivityType:     "UPDATE",
		ActivityCategory: "WASTE_MANAGEMENT",
		Description:      "Updated collection schedule",
		NewValues:        map[string]any{"day": "tuesday"},
		Client: ClientInfo{
			IPAddress:     "10.0.0.4",
			RequestMethod: "POST",
			RequestURL:    "/schedules/7",
		},
		ExecutionTime: 42 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NotEmpty(t, record.ID)
	require.Equal(t, 200, record.ResponseStatus)
	require.Equal(t, int64(42), record.ExecutionTimeMS)

	var stored models.ActivityRecord
	require.NoError(t, db.Take(&stored, "id = ?", record.ID).Error)
	require.Equal(t, "UPDATE", stored.ActivityType)
	require.JSONEq(t, `{"day":"tuesday"}`, string(stored.NewValues))
}

func TestRecordActivityRejectsMissingFields(t *testing.T) {
	svc, _, admin := newTestTracking(t)

	_, err := svc.RecordActivity(context.Background(), ActivityEntry{
		AdminID:      admin.ID,
		ActivityType: "UPDATE",
	})
	require.Error(t, err)

	_, err = svc.RecordActivity(context.Background(), ActivityEntry{
		ActivityType:     "UPDATE",
		ActivityCategory: "GENERAL",
		Description:      "no admin",
	})
	require.Error(t, err)
}

func TestFeatureUsageRollup(t *testing.T) {
	svc, db, admin := newTestTracking(t)

	feature := "report_builder"
	entry := ActivityEntry{
		AdminID:          admin.ID,
		ActivityType:     ActivityFeatureUsage,
		ActivityCategory: "REPORTS",
		Description:      "Opened report builder",
		TargetResource:   &feature,
		AdditionalData:   map[string]any{"success": true, "execution_time": float64(120)},
	}
	_, err := svc.RecordActivity(context.Background(), entry)
	require.NoError(t, err)

	entry.AdditionalData = map[string]any{"success": false, "execution_time": float64(80)}
	_, err = svc.RecordActivity(context.Background(), entry)
	require.NoError(t, err)

	var usage models.FeatureUsage
	require.NoError(t, db.Take(&usage, "admin_id = ? AND feature_name = ?", admin.ID, feature).Error)
	require.Equal(t, int64(2), usage.UsageCount)
	require.Equal(t, int64(1), usage.SuccessCount)
	require.Equal(t, int64(1), usage.ErrorCount)
	require.Equal(t, int64(200), usage.TotalTimeSpent)
}

func TestRecordPageVisit(t *testing.T) {
	svc, db, admin := newTestTracking(t)

	visit, err := svc.RecordPageVisit(context.Background(), PageVisitEntry{
		AdminID:       admin.ID,
		PageName:      "Dashboard",
		PageURL:       "/dashboard",
		VisitDuration: 35,
		BrowserName:   "Firefox",
		OSName:        "Linux",
		DeviceType:    "desktop",
	})
	require.NoError(t, err)

	var stored models.PageVisit
	require.NoError(t, db.Take(&stored, "id = ?", visit.ID).Error)
	require.Equal(t, "Dashboard", stored.PageName)
	require.Equal(t, int64(35), stored.VisitDuration)
}

func TestRecordSecurityEventValidatesSeverity(t *testing.T) {
	svc, _, admin := newTestTracking(t)

	event, err := svc.RecordSecurityEvent(context.Background(), SecurityEventEntry{
		AdminID:       &admin.ID,
		EventType:     "FAILED_LOGIN",
		EventSeverity: "high",
		Description:   "Three failed attempts",
	})
	require.NoError(t, err)
	require.Equal(t, models.SeverityHigh, event.EventSeverity)
	require.False(t, event.IsResolved)

	_, err = svc.RecordSecurityEvent(context.Background(), SecurityEventEntry{
		EventType:     "FAILED_LOGIN",
		EventSeverity: "EXTREME",
		Description:   "bad severity",
	})
	require.Error(t, err)
}

func TestResolveSecurityEventIsOneWay(t *testing.T) {
	svc, _, admin := newTestTracking(t)

	event, err := svc.RecordSecurityEvent(context.Background(), SecurityEventEntry{
		AdminID:       &admin.ID,
		EventType:     "SUSPICIOUS_ACTIVITY",
		EventSeverity: models.SeverityMedium,
		Description:   "Odd navigation pattern",
	})
	require.NoError(t, err)

	resolved, err := svc.ResolveSecurityEvent(context.Background(), event.ID)
	require.NoError(t, err)
	require.True(t, resolved.IsResolved)
	require.NotNil(t, resolved.ResolvedAt)

	_, err = svc.ResolveSecurityEvent(context.Background(), event.ID)
	require.ErrorIs(t, err, ErrEventAlreadyResolved)

	_, err = svc.ResolveSecurityEvent(context.Background(), "no-such-event")
	require.ErrorIs(t, err, ErrEventNotFound)
}

func TestListActivitiesFilters(t *testing.T) {
	svc, _, admin := newTestTracking(t)

	for _, typ := range []string{"CREATE", "UPDATE", "UPDATE", "DELETE"} {
		_, err := svc.RecordActivity(context.Background(), ActivityEntry{
			AdminID:          admin.ID,
			ActivityType:     typ,
			ActivityCategory: "GENERAL",
			Description:      "action " + typ,
		})
		require.NoError(t, err)
	}

	all, err := svc.ListActivities(context.Background(), ActivityFilters{AdminID: admin.ID})
	require.NoError(t, err)
	require.Len(t, all, 4)

	updates, err := svc.ListActivities(context.Background(), ActivityFilters{
		AdminID:      admin.ID,
		ActivityType: "UPDATE",
	})
	require.NoError(t, err)
	require.Len(t, updates, 2)

	limited, err := svc.ListActivities(context.Background(), ActivityFilters{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestListSecurityEventsUnresolvedOnly(t *testing.T) {
	svc, _, admin := newTestTracking(t)

	first, err := svc.RecordSecurityEvent(context.Background(), SecurityEventEntry{
		AdminID:       &admin.ID,
		EventType:     "FAILED_LOGIN",
		EventSeverity: models.SeverityLow,
		Description:   "one attempt",
	})
	require.NoError(t, err)

	_, err = svc.RecordSecurityEvent(context.Background(), SecurityEventEntry{
		AdminID:       &admin.ID,
		EventType:     "FAILED_LOGIN",
		EventSeverity: models.SeverityLow,
		Description:   "another attempt",
	})
	require.NoError(t, err)

	_, err = svc.ResolveSecurityEvent(context.Background(), first.ID)
	require.NoError(t, err)

	unresolved, err := svc.ListSecurityEvents(context.Background(), SecurityEventFilters{UnresolvedOnly: true})
	require.NoError(t, err)
	require.Len(t, unresolved, 1)
	require.Equal(t, "another attempt", unresolved[0].EventDescription)
}
