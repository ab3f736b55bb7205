package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ecowaste/admintrack/internal/models"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// SessionFilters narrow the session listing.
type SessionFilters struct {
	AdminID    string
	ActiveOnly bool
	Since      *time.Time
	Until      *time.Time
	Limit      int
}

// ActivityFilters narrow the activity listing.
type ActivityFilters struct {
	AdminID          string
	SessionID        string
	ActivityType     string
	ActivityCategory string
	Since            *time.Time
	Until            *time.Time
	Limit            int
}

// SecurityEventFilters narrow the security event listing.
type SecurityEventFilters struct {
	AdminID        string
	EventType      string
	Severity       string
	UnresolvedOnly bool
	Since          *time.Time
	Until          *time.Time
	Limit          int
}

// PerformanceFilters narrow the performance metric listing.
type PerformanceFilters struct {
	AdminID string
	Since   *time.Time
	Until   *time.Time
	Limit   int
}

// ListSessions returns sessions matching the filters, newest first.
func (s *TrackingService) ListSessions(ctx context.Context, filters SessionFilters) ([]models.AdminSession, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).Model(&models.AdminSession{}).Preload("Admin")
	if id := strings.TrimSpace(filters.AdminID); id != "" {
		query = query.Where("admin_id = ?", id)
	}
	if filters.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	query = applyTimeWindow(query, "login_time", filters.Since, filters.Until)

	var sessions []models.AdminSession
	err := query.Order("login_time DESC").Limit(clampLimit(filters.Limit)).Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("tracking service: list sessions: %w", err)
	}
	return sessions, nil
}

// ListActivities returns activity records matching the filters, newest first.
func (s *TrackingService) ListActivities(ctx context.Context, filters ActivityFilters) ([]models.ActivityRecord, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).Model(&models.ActivityRecord{}).Preload("Admin")
	if id := strings.TrimSpace(filters.AdminID); id != "" {
		query = query.Where("admin_id = ?", id)
	}
	if id := strings.TrimSpace(filters.SessionID); id != "" {
		query = query.Where("session_id = ?", id)
	}
	if t := strings.TrimSpace(filters.ActivityType); t != "" {
		query = query.Where("activity_type = ?", t)
	}
	if c := strings.TrimSpace(filters.ActivityCategory); c != "" {
		query = query.Where("activity_category = ?", c)
	}
	query = applyTimeWindow(query, "created_at", filters.Since, filters.Until)

	var records []models.ActivityRecord
	err := query.Order("created_at DESC").Limit(clampLimit(filters.Limit)).Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("tracking service: list activities: %w", err)
	}
	return records, nil
}

// ListSecurityEvents returns security events matching the filters, newest first.
func (s *TrackingService) ListSecurityEvents(ctx context.Context, filters SecurityEventFilters) ([]models.SecurityEvent, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).Model(&models.SecurityEvent{})
	if id := strings.TrimSpace(filters.AdminID); id != "" {
		query = query.Where("admin_id = ?", id)
	}
	if t := strings.TrimSpace(filters.EventType); t != "" {
		query = query.Where("event_type = ?", t)
	}
	if sev := strings.ToUpper(strings.TrimSpace(filters.Severity)); sev != "" {
		if !models.ValidSeverity(sev) {
			return nil, fmt.Errorf("tracking service: unknown severity %q", filters.Severity)
		}
		query = query.Where("event_severity = ?", sev)
	}
	if filters.UnresolvedOnly {
		query = query.Where("is_resolved = ?", false)
	}
	query = applyTimeWindow(query, "created_at", filters.Since, filters.Until)

	var events []models.SecurityEvent
	err := query.Order("created_at DESC").Limit(clampLimit(filters.Limit)).Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("tracking service: list security events: %w", err)
	}
	return events, nil
}

// ListPerformance returns daily performance rollups matching the filters,
// most recent day first.
func (s *TrackingService) ListPerformance(ctx context.Context, filters PerformanceFilters) ([]models.PerformanceMetric, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).Model(&models.PerformanceMetric{}).Preload("Admin")
	if id := strings.TrimSpace(filters.AdminID); id != "" {
		query = query.Where("admin_id = ?", id)
	}
	query = applyTimeWindow(query, "date", filters.Since, filters.Until)

	var rows []models.PerformanceMetric
	err := query.Order("date DESC").Limit(clampLimit(filters.Limit)).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("tracking service: list performance: %w", err)
	}
	return rows, nil
}

func applyTimeWindow(query *gorm.DB, column string, since, until *time.Time) *gorm.DB {
	if since != nil {
		query = query.Where(column+" >= ?", *since)
	}
	if until != nil {
		query = query.Where(column+" <= ?", *until)
	}
	return query
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
