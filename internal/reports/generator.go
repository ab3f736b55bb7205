package reports

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/ecowaste/admintrack/internal/models"
	appErrors "github.com/ecowaste/admintrack/pkg/errors"
)

// Generator produces reports from the tracking tables.
type Generator struct {
	db  *gorm.DB
	now func() time.Time
}

// GeneratorOption customises the Generator.
type GeneratorOption func(*Generator)

// WithClock overrides the clock used for the generation timestamp.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGenerator constructs a report Generator.
func NewGenerator(db *gorm.DB, opts ...GeneratorOption) (*Generator, error) {
	if db == nil {
		return nil, errors.New("reports: db is required")
	}
	g := &Generator{db: db, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate builds the report of the given type over the given range.
func (g *Generator) Generate(ctx context.Context, reportType string, rng Range) (*Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	report := &Report{Type: reportType, Range: rng, GeneratedAt: g.now().UTC()}

	var err error
	switch reportType {
	case TypeOverview:
		err = g.overview(ctx, report)
	case TypeAdminActivity:
		err = g.adminActivity(ctx, report)
	case TypeSecurity:
		err = g.security(ctx, report)
	case TypePerformance:
		err = g.performance(ctx, report)
	case TypeFeatureUsage:
		err = g.featureUsage(ctx, report)
	case TypeSystemHealth:
		err = g.systemHealth(ctx, report)
	default:
		return nil, appErrors.ErrInvalidReportType
	}
	if err != nil {
		return nil, fmt.Errorf("reports: generate %s: %w", reportType, err)
	}
	return report, nil
}

func (g *Generator) overview(ctx context.Context, report *Report) error {
	rng := report.Range
	var (
		totalSessions, totalActivities, totalPageViews int64
		securityEvents, uniqueAdmins                   int64
		errs                                           error
	)

	errs = multierr.Append(errs, g.db.WithContext(ctx).
		Model(&models.AdminSession{}).
		Where("login_time >= ? AND login_time < ?", rng.Start, rng.End).
		Count(&totalSessions).Error)
	errs = multierr.Append(errs, g.db.WithContext(ctx).
		Model(&models.ActivityRecord{}).
		Where("created_at >= ? AND created_at < ?", rng.Start, rng.End).
		Count(&totalActivities).Error)
	errs = multierr.Append(errs, g.db.WithContext(ctx).
		Model(&models.PageVisit{}).
		Where("created_at >= ? AND created_at < ?", rng.Start, rng.End).
		Count(&totalPageViews).Error)
	errs = multierr.Append(errs, g.db.WithContext(ctx).
		Model(&models.SecurityEvent{}).
		Where("created_at >= ? AND created_at < ?", rng.Start, rng.End).
		Count(&securityEvents).Error)
	errs = multierr.Append(errs, g.db.WithContext(ctx).
		Model(&models.ActivityRecord{}).
		Where("created_at >= ? AND created_at < ?", rng.Start, rng.End).
		Distinct("admin_id").
		Count(&uniqueAdmins).Error)

	var avgDuration struct{ Avg float64 }
	errs = multierr.Append(errs, g.db.WithContext(ctx).
		Model(&models.AdminSession{}).
		Select("COALESCE(AVG(session_duration), 0) AS avg").
		Where("login_time >= ? AND login_time < ? AND is_active = ?", rng.Start, rng.End, false).
		Scan(&avgDuration).Error)

	var topAdmin struct {
		Username string
		Count    int64
	}
	errs = multierr.Append(errs, g.db.WithContext(ctx).
		Model(&models.ActivityRecord{}).
		Select("admins.username AS username, COUNT(*) AS count").
		Joins("JOIN admins ON admins.id = activity_records.admin_id").
		Where("activity_records.created_at >= ? AND activity_records.created_at < ?", rng.Start, rng.End).
		Group("admins.username").
		Order("count DESC").
		Limit(1).
		Scan(&topAdmin).Error)

	var topFeature struct{ FeatureName string }
	errs = multierr.Append(errs, g.db.WithContext(ctx).
		Model(&models.FeatureUsage{}).
		Select("feature_name").
		Where("last_used_at >= ? AND last_used_at < ?", rng.Start, rng.End).
		Order("usage_count DESC").
		Limit(1).
		Scan(&topFeature).Error)

	var daily []map[string]any
	var dailyRows []struct {
		Date  string
		Count int64
	}
	errs = multierr.Append(errs, g.db.WithContext(ctx).
		Model(&models.ActivityRecord{}).
		Select("date(created_at) AS date, COUNT(*) AS count").
		Where("created_at >= ? AND created_at < ?", rng.Start, rng.End).
		Group("date(created_at)").
		Order("date").
		Scan(&dailyRows).Error)
	for _, row := range dailyRows {
		daily = append(daily, map[string]any{"date": row.Date, "total_activities": row.Count})
	}

	if errs != nil {
		return errs
	}

	report.Metrics = []Metric{
		{Name: "total_sessions", Value: totalSessions},
		{Name: "total_activities", Value: totalActivities},
		{Name: "total_page_views", Value: totalPageViews},
		{Name: "security_events", Value: securityEvents},
		{Name: "unique_admins", Value: uniqueAdmins},
		{Name: "avg_session_duration", Value: round2(avgDuration.Avg)},
		{Name: "most_active_admin", Value: topAdmin.Username},
		{Name: "most_used_feature", Value: topFeature.FeatureName},
		{Name: "daily_activity", Value: daily},
	}
	return nil
}

func (g *Generator) adminActivity(ctx context.Context, report *Report) error {
	rng := report.Range

	var admins []models.Admin
	if err := g.db.WithContext(ctx).Order("username").Find(&admins).Error; err != nil {
		return err
	}

	type adminAgg struct {
		AdminID string
		Count   int64
		Last    string
	}

	activityByAdmin := make(map[string]adminAgg)
	var activityRows []adminAgg
	err := g.db.WithContext(ctx).
		Model(&models.ActivityRecord{}).
		Select("admin_id, COUNT(*) AS count, MAX(created_at) AS last").
		Where("created_at >= ? AND created_at < ?", rng.Start, rng.End).
		Group("admin_id").
		Scan(&activityRows).Error
	if err != nil {
		return err
	}
	for _, row := range activityRows {
		activityByAdmin[row.AdminID] = row
	}

	countByAdmin := func(model any, column string) (map[string]int64, error) {
		var rows []struct {
			AdminID string
			Count   int64
		}
		err := g.db.WithContext(ctx).
			Model(model).
			Select("admin_id, COUNT(*) AS count").
			Where(column+" >= ? AND "+column+" < ?", rng.Start, rng.End).
			Group("admin_id").
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		result := make(map[string]int64, len(rows))
		for _, row := range rows {
			result[row.AdminID] = row.Count
		}
		return result, nil
	}

	visitsByAdmin, err := countByAdmin(&models.PageVisit{}, "created_at")
	if err != nil {
		return err
	}
	sessionsByAdmin, err := countByAdmin(&models.AdminSession{}, "login_time")
	if err != nil {
		return err
	}

	report.Columns = []string{
		"username", "display_name", "total_activities",
		"total_page_views", "total_sessions", "last_activity",
	}
	for _, admin := range admins {
		agg := activityByAdmin[admin.ID]
		report.Rows = append(report.Rows, map[string]any{
			"username":         admin.Username,
			"display_name":     admin.DisplayName,
			"total_activities": agg.Count,
			"total_page_views": visitsByAdmin[admin.ID],
			"total_sessions":   sessionsByAdmin[admin.ID],
			"last_activity":    agg.Last,
		})
	}
	return nil
}

func (g *Generator) security(ctx context.Context, report *Report) error {
	rng := report.Range

	var rows []struct {
		EventType     string
		EventSeverity string
		Total         int64
		Unresolved    int64
		LastSeen      string
	}
	err := g.db.WithContext(ctx).
		Model(&models.SecurityEvent{}).
		Select("event_type, event_severity, COUNT(*) AS total, "+
			"SUM(CASE WHEN is_resolved THEN 0 ELSE 1 END) AS unresolved, "+
			"MAX(created_at) AS last_seen").
		Where("created_at >= ? AND created_at < ?", rng.Start, rng.End).
		Group("event_type, event_severity").
		Order("total DESC").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	report.Columns = []string{"event_type", "event_severity", "total", "unresolved", "last_seen"}
	for _, row := range rows {
		report.Rows = append(report.Rows, map[string]any{
			"event_type":     row.EventType,
			"event_severity": row.EventSeverity,
			"total":          row.Total,
			"unresolved":     row.Unresolved,
			"last_seen":      row.LastSeen,
		})
	}
	return nil
}

func (g *Generator) performance(ctx context.Context, report *Report) error {
	rng := report.Range

	var rows []models.PerformanceMetric
	err := g.db.WithContext(ctx).
		Preload("Admin").
		Where("date >= ? AND date < ?", rng.Start, rng.End).
		Order("date DESC").
		Find(&rows).Error
	if err != nil {
		return err
	}

	report.Columns = []string{
		"username", "date", "total_login_time", "total_activities",
		"total_page_views", "avg_session_duration", "success_rate", "error_count",
	}
	for _, row := range rows {
		username := row.AdminID
		if row.Admin != nil {
			username = row.Admin.Username
		}
		report.Rows = append(report.Rows, map[string]any{
			"username":             username,
			"date":                 row.Date.Format("2006-01-02"),
			"total_login_time":     row.TotalLoginTime,
			"total_activities":     row.TotalActivities,
			"total_page_views":     row.TotalPageViews,
			"avg_session_duration": round2(row.AvgSessionDuration),
			"success_rate":         round2(row.SuccessRate),
			"error_count":          row.ErrorCount,
		})
	}
	return nil
}

func (g *Generator) featureUsage(ctx context.Context, report *Report) error {
	rng := report.Range

	var rows []models.FeatureUsage
	err := g.db.WithContext(ctx).
		Where("last_used_at >= ? AND last_used_at < ?", rng.Start, rng.End).
		Order("usage_count DESC").
		Find(&rows).Error
	if err != nil {
		return err
	}

	usernames, err := g.usernames(ctx)
	if err != nil {
		return err
	}

	report.Columns = []string{
		"username", "feature_name", "feature_category", "usage_count",
		"success_count", "error_count", "success_rate", "total_time_spent", "last_used_at",
	}
	for _, row := range rows {
		username := row.AdminID
		if name, ok := usernames[row.AdminID]; ok {
			username = name
		}
		report.Rows = append(report.Rows, map[string]any{
			"username":         username,
			"feature_name":     row.FeatureName,
			"feature_category": row.FeatureCategory,
			"usage_count":      row.UsageCount,
			"success_count":    row.SuccessCount,
			"error_count":      row.ErrorCount,
			"success_rate":     successRate(row.SuccessCount, row.UsageCount),
			"total_time_spent": row.TotalTimeSpent,
			"last_used_at":     row.LastUsedAt.UTC().Format(time.RFC3339),
		})
	}
	return nil
}

func (g *Generator) systemHealth(ctx context.Context, report *Report) error {
	rng := report.Range

	var (
		totalRequests, errorCount        int64
		activeSessions, unresolvedEvents int64
		errs                             error
	)

	errs = multierr.Append(errs, g.db.WithContext(ctx).
		Model(&models.ActivityRecord{}).
		Where("created_at >= ? AND created_at < ?", rng.Start, rng.End).
		Count(&totalRequests).Error)
	errs = multierr.Append(errs, g.db.WithContext(ctx).
		Model(&models.ActivityRecord{}).
		Where("created_at >= ? AND created_at < ? AND response_status >= ?", rng.Start, rng.End, 400).
		Count(&errorCount).Error)
	errs = multierr.Append(errs, g.db.WithContext(ctx).
		Model(&models.AdminSession{}).
		Where("is_active = ?", true).
		Count(&activeSessions).Error)
	errs = multierr.Append(errs, g.db.WithContext(ctx).
		Model(&models.SecurityEvent{}).
		Where("is_resolved = ?", false).
		Count(&unresolvedEvents).Error)

	var avgExec struct{ Avg float64 }
	errs = multierr.Append(errs, g.db.WithContext(ctx).
		Model(&models.ActivityRecord{}).
		Select("COALESCE(AVG(execution_time_ms), 0) AS avg").
		Where("created_at >= ? AND created_at < ?", rng.Start, rng.End).
		Scan(&avgExec).Error)

	if errs != nil {
		return errs
	}

	report.Metrics = []Metric{
		{Name: "total_requests", Value: totalRequests},
		{Name: "error_count", Value: errorCount},
		{Name: "error_rate", Value: successRate(errorCount, totalRequests)},
		{Name: "avg_execution_ms", Value: round2(avgExec.Avg)},
		{Name: "active_sessions", Value: activeSessions},
		{Name: "unresolved_security_events", Value: unresolvedEvents},
	}
	return nil
}

func (g *Generator) usernames(ctx context.Context) (map[string]string, error) {
	var admins []models.Admin
	if err := g.db.WithContext(ctx).Select("id", "username").Find(&admins).Error; err != nil {
		return nil, err
	}
	result := make(map[string]string, len(admins))
	for _, admin := range admins {
		result[admin.ID] = admin.Username
	}
	return result, nil
}

// successRate is part over total as a percentage, rounded to two decimals.
// A zero total yields 0 rather than NaN.
func successRate(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(part) / float64(total) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
