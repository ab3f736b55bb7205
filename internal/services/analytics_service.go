package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/ecowaste/admintrack/internal/models"
)

// DefaultDailyDays is the window used when a daily trend request does not
// specify one.
const DefaultDailyDays = 7

// SummaryStats holds the single-day dashboard counters.
type SummaryStats struct {
	Date            string `json:"date"`
	TotalSessions   int64  `json:"total_sessions"`
	ActiveSessions  int64  `json:"active_sessions"`
	TotalActivities int64  `json:"total_activities"`
	TotalPageViews  int64  `json:"total_page_views"`
	SecurityEvents  int64  `json:"security_events"`
	UniqueAdmins    int64  `json:"unique_admins"`
}

// DailyActivity is one row of the daily trend.
type DailyActivity struct {
	Date            string `json:"date"`
	TotalActivities int64  `json:"total_activities"`
	UniqueAdmins    int64  `json:"unique_admins"`
	PageViews       int64  `json:"page_views"`
}

// CategoryCount is an activity count grouped by category.
type CategoryCount struct {
	ActivityCategory string `json:"activity_category"`
	Count            int64  `json:"count"`
}

// AdminStats holds the single-day per-admin breakdown.
type AdminStats struct {
	AdminID         string          `json:"admin_id"`
	Date            string          `json:"date"`
	TotalActivities int64           `json:"total_activities"`
	TotalPageViews  int64           `json:"total_page_views"`
	TotalSessions   int64           `json:"total_sessions"`
	AvgExecutionMS  float64         `json:"avg_execution_ms"`
	ByCategory      []CategoryCount `json:"by_category"`
}

// SeverityCount is a security event count grouped by severity.
type SeverityCount struct {
	EventSeverity string `json:"event_severity"`
	Count         int64  `json:"count"`
}

// SecurityStats holds the single-day security breakdown.
type SecurityStats struct {
	Date        string          `json:"date"`
	TotalEvents int64           `json:"total_events"`
	Unresolved  int64           `json:"unresolved"`
	BySeverity  []SeverityCount `json:"by_severity"`
}

// EndpointLatency is a per-endpoint latency aggregate.
type EndpointLatency struct {
	RequestURL string  `json:"request_url"`
	Requests   int64   `json:"requests"`
	AvgMS      float64 `json:"avg_ms"`
	MaxMS      int64   `json:"max_ms"`
}

// PerformanceStats holds the single-day request performance breakdown.
type PerformanceStats struct {
	Date           string            `json:"date"`
	TotalRequests  int64             `json:"total_requests"`
	AvgExecutionMS float64           `json:"avg_execution_ms"`
	ErrorCount     int64             `json:"error_count"`
	SlowEndpoints  []EndpointLatency `json:"slow_endpoints"`
}

// AnalyticsService computes dashboard aggregates from the raw tracking tables.
type AnalyticsService struct {
	db *gorm.DB
}

// NewAnalyticsService constructs an AnalyticsService.
func NewAnalyticsService(db *gorm.DB) (*AnalyticsService, error) {
	if db == nil {
		return nil, errors.New("analytics service: db is required")
	}
	return &AnalyticsService{db: db}, nil
}

// Summary returns the dashboard counters for one day.
func (s *AnalyticsService) Summary(ctx context.Context, day time.Time) (*SummaryStats, error) {
	ctx = ensureContext(ctx)
	start, end := dayWindow(day)

	stats := &SummaryStats{Date: start.Format("2006-01-02")}
	var errs error

	errs = multierr.Append(errs, s.db.WithContext(ctx).
		Model(&models.AdminSession{}).
		Where("login_time >= ? AND login_time < ?", start, end).
		Count(&stats.TotalSessions).Error)
	errs = multierr.Append(errs, s.db.WithContext(ctx).
		Model(&models.AdminSession{}).
		Where("is_active = ?", true).
		Count(&stats.ActiveSessions).Error)
	errs = multierr.Append(errs, s.db.WithContext(ctx).
		Model(&models.ActivityRecord{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&stats.TotalActivities).Error)
	errs = multierr.Append(errs, s.db.WithContext(ctx).
		Model(&models.PageVisit{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&stats.TotalPageViews).Error)
	errs = multierr.Append(errs, s.db.WithContext(ctx).
		Model(&models.SecurityEvent{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&stats.SecurityEvents).Error)
	errs = multierr.Append(errs, s.db.WithContext(ctx).
		Model(&models.ActivityRecord{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Distinct("admin_id").
		Count(&stats.UniqueAdmins).Error)

	if errs != nil {
		return nil, fmt.Errorf("analytics service: summary: %w", errs)
	}
	return stats, nil
}

// Daily returns per-day activity counts for the window ending on the given
// day, inclusive. A non-positive days falls back to the default window.
func (s *AnalyticsService) Daily(ctx context.Context, end time.Time, days int) ([]DailyActivity, error) {
	ctx = ensureContext(ctx)
	if days <= 0 {
		days = DefaultDailyDays
	}

	endStart, endNext := dayWindow(end)
	start := endStart.AddDate(0, 0, -(days - 1))

	var activityRows []struct {
		Date            string
		TotalActivities int64
		UniqueAdmins    int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.ActivityRecord{}).
		Select("date(created_at) AS date, COUNT(*) AS total_activities, COUNT(DISTINCT admin_id) AS unique_admins").
		Where("created_at >= ? AND created_at < ?", start, endNext).
		Group("date(created_at)").
		Scan(&activityRows).Error
	if err != nil {
		return nil, fmt.Errorf("analytics service: daily activities: %w", err)
	}

	var visitRows []struct {
		Date      string
		PageViews int64
	}
	err = s.db.WithContext(ctx).
		Model(&models.PageVisit{}).
		Select("date(created_at) AS date, COUNT(*) AS page_views").
		Where("created_at >= ? AND created_at < ?", start, endNext).
		Group("date(created_at)").
		Scan(&visitRows).Error
	if err != nil {
		return nil, fmt.Errorf("analytics service: daily page visits: %w", err)
	}

	byDate := make(map[string]*DailyActivity, days)
	for _, row := range activityRows {
		byDate[row.Date] = &DailyActivity{
			Date:            row.Date,
			TotalActivities: row.TotalActivities,
			UniqueAdmins:    row.UniqueAdmins,
		}
	}
	for _, row := range visitRows {
		if day, ok := byDate[row.Date]; ok {
			day.PageViews = row.PageViews
		} else {
			byDate[row.Date] = &DailyActivity{Date: row.Date, PageViews: row.PageViews}
		}
	}

	// Every day of the window appears in the result, zeros included.
	result := make([]DailyActivity, 0, days)
	for d := start; d.Before(endNext); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		if day, ok := byDate[key]; ok {
			result = append(result, *day)
		} else {
			result = append(result, DailyActivity{Date: key})
		}
	}
	return result, nil
}

// Admin returns the single-day breakdown for one admin.
func (s *AnalyticsService) Admin(ctx context.Context, adminID string, day time.Time) (*AdminStats, error) {
	ctx = ensureContext(ctx)

	adminID = strings.TrimSpace(adminID)
	if adminID == "" {
		return nil, errors.New("analytics service: admin id is required")
	}
	start, end := dayWindow(day)

	stats := &AdminStats{AdminID: adminID, Date: start.Format("2006-01-02")}
	var errs error

	errs = multierr.Append(errs, s.db.WithContext(ctx).
		Model(&models.ActivityRecord{}).
		Where("admin_id = ? AND created_at >= ? AND created_at < ?", adminID, start, end).
		Count(&stats.TotalActivities).Error)
	errs = multierr.Append(errs, s.db.WithContext(ctx).
		Model(&models.PageVisit{}).
		Where("admin_id = ? AND created_at >= ? AND created_at < ?", adminID, start, end).
		Count(&stats.TotalPageViews).Error)
	errs = multierr.Append(errs, s.db.WithContext(ctx).
		Model(&models.AdminSession{}).
		Where("admin_id = ? AND login_time >= ? AND login_time < ?", adminID, start, end).
		Count(&stats.TotalSessions).Error)

	var avg struct{ AvgMS float64 }
	errs = multierr.Append(errs, s.db.WithContext(ctx).
		Model(&models.ActivityRecord{}).
		Select("COALESCE(AVG(execution_time_ms), 0) AS avg_ms").
		Where("admin_id = ? AND created_at >= ? AND created_at < ?", adminID, start, end).
		Scan(&avg).Error)
	stats.AvgExecutionMS = avg.AvgMS

	errs = multierr.Append(errs, s.db.WithContext(ctx).
		Model(&models.ActivityRecord{}).
		Select("activity_category, COUNT(*) AS count").
		Where("admin_id = ? AND created_at >= ? AND created_at < ?", adminID, start, end).
		Group("activity_category").
		Order("count DESC").
		Scan(&stats.ByCategory).Error)

	if errs != nil {
		return nil, fmt.Errorf("analytics service: admin: %w", errs)
	}
	return stats, nil
}

// Security returns the single-day security event breakdown.
func (s *AnalyticsService) Security(ctx context.Context, day time.Time) (*SecurityStats, error) {
	ctx = ensureContext(ctx)
	start, end := dayWindow(day)

	stats := &SecurityStats{Date: start.Format("2006-01-02")}
	var errs error

	errs = multierr.Append(errs, s.db.WithContext(ctx).
		Model(&models.SecurityEvent{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&stats.TotalEvents).Error)
	errs = multierr.Append(errs, s.db.WithContext(ctx).
		Model(&models.SecurityEvent{}).
		Where("created_at >= ? AND created_at < ? AND is_resolved = ?", start, end, false).
		Count(&stats.Unresolved).Error)
	errs = multierr.Append(errs, s.db.WithContext(ctx).
		Model(&models.SecurityEvent{}).
		Select("event_severity, COUNT(*) AS count").
		Where("created_at >= ? AND created_at < ?", start, end).
		Group("event_severity").
		Order("count DESC").
		Scan(&stats.BySeverity).Error)

	if errs != nil {
		return nil, fmt.Errorf("analytics service: security: %w", errs)
	}
	return stats, nil
}

// Performance returns the single-day request performance breakdown derived
// from the raw activity records.
func (s *AnalyticsService) Performance(ctx context.Context, day time.Time) (*PerformanceStats, error) {
	ctx = ensureContext(ctx)
	start, end := dayWindow(day)

	stats := &PerformanceStats{Date: start.Format("2006-01-02")}
	var errs error

	errs = multierr.Append(errs, s.db.WithContext(ctx).
		Model(&models.ActivityRecord{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&stats.TotalRequests).Error)

	var avg struct{ AvgMS float64 }
	errs = multierr.Append(errs, s.db.WithContext(ctx).
		Model(&models.ActivityRecord{}).
		Select("COALESCE(AVG(execution_time_ms), 0) AS avg_ms").
		Where("created_at >= ? AND created_at < ?", start, end).
		Scan(&avg).Error)
	stats.AvgExecutionMS = avg.AvgMS

	errs = multierr.Append(errs, s.db.WithContext(ctx).
		Model(&models.ActivityRecord{}).
		Where("created_at >= ? AND created_at < ? AND response_status >= ?", start, end, 400).
		Count(&stats.ErrorCount).Error)

	errs = multierr.Append(errs, s.db.WithContext(ctx).
		Model(&models.ActivityRecord{}).
		Select("request_url, COUNT(*) AS requests, AVG(execution_time_ms) AS avg_ms, MAX(execution_time_ms) AS max_ms").
		Where("created_at >= ? AND created_at < ? AND request_url <> ''", start, end).
		Group("request_url").
		Order("avg_ms DESC").
		Limit(10).
		Scan(&stats.SlowEndpoints).Error)

	if errs != nil {
		return nil, fmt.Errorf("analytics service: performance: %w", errs)
	}
	return stats, nil
}

// dayWindow normalizes a timestamp to its UTC day and returns the half-open
// [start, next) window.
func dayWindow(day time.Time) (time.Time, time.Time) {
	if day.IsZero() {
		day = time.Now().UTC()
	}
	day = day.UTC()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
