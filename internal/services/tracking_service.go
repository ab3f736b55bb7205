package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ecowaste/admintrack/internal/models"
	"github.com/ecowaste/admintrack/pkg/metrics"
)

// Activity types with dedicated server-side handling.
const (
	ActivityFeatureUsage = "FEATURE_USAGE"
	ActivityHeartbeat    = "HEARTBEAT"
)

// ClientInfo captures request metadata recorded alongside tracking writes.
type ClientInfo struct {
	IPAddress     string
	UserAgent     string
	RequestMethod string
	RequestURL    string
}

// ActivityEntry describes one admin action to persist.
type ActivityEntry struct {
	AdminID          string
	SessionID        string
	ActivityType     string
	ActivityCategory string
	Description      string
	TargetResource   *string
	TargetID         *string
	OldValues        map[string]any
	NewValues        map[string]any
	AdditionalData   map[string]any
	Client           ClientInfo
	ResponseStatus   int
	ExecutionTime    time.Duration
}

// PageVisitEntry describes one page view to persist.
type PageVisitEntry struct {
	AdminID          string
	SessionID        string
	PageName         string
	PageURL          string
	VisitDuration    int64
	ReferrerURL      string
	ScreenResolution string
	BrowserName      string
	BrowserVersion   string
	OSName           string
	DeviceType       string
	Client           ClientInfo
}

// SecurityEventEntry describes one security event to persist.
type SecurityEventEntry struct {
	AdminID        *string
	EventType      string
	EventSeverity  string
	Description    string
	AdditionalData map[string]any
	Client         ClientInfo
}

// ErrEventAlreadyResolved signals a second resolution attempt on a security event.
var ErrEventAlreadyResolved = errors.New("tracking service: security event already resolved")

// ErrEventNotFound indicates the referenced security event does not exist.
var ErrEventNotFound = errors.New("tracking service: security event not found")

// TrackingService persists tracking records and serves filtered listings.
type TrackingService struct {
	db  *gorm.DB
	now func() time.Time
}

// TrackingOption customises the TrackingService.
type TrackingOption func(*TrackingService)

// WithClock overrides the clock used for server-assigned timestamps.
func WithClock(now func() time.Time) TrackingOption {
	return func(s *TrackingService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewTrackingService constructs a TrackingService using the provided database handle.
func NewTrackingService(db *gorm.DB, opts ...TrackingOption) (*TrackingService, error) {
	if db == nil {
		return nil, errors.New("tracking service: db is required")
	}
	svc := &TrackingService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// RecordActivity appends one activity record. FEATURE_USAGE activities also
// roll into the per-admin feature usage counters.
func (s *TrackingService) RecordActivity(ctx context.Context, entry ActivityEntry) (*models.ActivityRecord, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(entry.AdminID) == "" {
		return nil, errors.New("tracking service: admin id is required")
	}
	if strings.TrimSpace(entry.ActivityType) == "" ||
		strings.TrimSpace(entry.ActivityCategory) == "" ||
		strings.TrimSpace(entry.Description) == "" {
		return nil, errors.New("tracking service: activity type, category, and description are required")
	}

	oldValues, err := marshalJSONField(entry.OldValues)
	if err != nil {
		return nil, fmt.Errorf("tracking service: marshal old values: %w", err)
	}
	newValues, err := marshalJSONField(entry.NewValues)
	if err != nil {
		return nil, fmt.Errorf("tracking service: marshal new values: %w", err)
	}
	additional, err := marshalJSONField(entry.AdditionalData)
	if err != nil {
		return nil, fmt.Errorf("tracking service: marshal additional data: %w", err)
	}

	status := entry.ResponseStatus
	if status == 0 {
		status = 200
	}

	record := &models.ActivityRecord{
		AdminID:          strings.TrimSpace(entry.AdminID),
		SessionID:        strings.TrimSpace(entry.SessionID),
		ActivityType:     strings.TrimSpace(entry.ActivityType),
		ActivityCategory: strings.TrimSpace(entry.ActivityCategory),
		Description:      strings.TrimSpace(entry.Description),
		TargetResource:   entry.TargetResource,
		TargetID:         entry.TargetID,
		OldValues:        oldValues,
		NewValues:        newValues,
		AdditionalData:   additional,
		IPAddress:        entry.Client.IPAddress,
		UserAgent:        entry.Client.UserAgent,
		RequestMethod:    entry.Client.RequestMethod,
		RequestURL:       entry.Client.RequestURL,
		ResponseStatus:   status,
		ExecutionTimeMS:  entry.ExecutionTime.Milliseconds(),
		CreatedAt:        s.now(),
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("tracking service: create activity: %w", err)
	}

	metrics.ActivitiesRecorded.WithLabelValues(record.ActivityCategory).Inc()

	if record.ActivityType == ActivityFeatureUsage {
		if err := s.rollFeatureUsage(ctx, record, entry.AdditionalData); err != nil {
			return nil, err
		}
	}

	return record, nil
}

// RecordPageVisit appends one page visit record.
func (s *TrackingService) RecordPageVisit(ctx context.Context, entry PageVisitEntry) (*models.PageVisit, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(entry.AdminID) == "" {
		return nil, errors.New("tracking service: admin id is required")
	}
	if strings.TrimSpace(entry.PageName) == "" || strings.TrimSpace(entry.PageURL) == "" {
		return nil, errors.New("tracking service: page name and url are required")
	}

	visit := &models.PageVisit{
		AdminID:          strings.TrimSpace(entry.AdminID),
		SessionID:        strings.TrimSpace(entry.SessionID),
		PageName:         strings.TrimSpace(entry.PageName),
		PageURL:          strings.TrimSpace(entry.PageURL),
		VisitDuration:    entry.VisitDuration,
		ReferrerURL:      entry.ReferrerURL,
		IPAddress:        entry.Client.IPAddress,
		UserAgent:        entry.Client.UserAgent,
		ScreenResolution: entry.ScreenResolution,
		BrowserName:      entry.BrowserName,
		BrowserVersion:   entry.BrowserVersion,
		OSName:           entry.OSName,
		DeviceType:       entry.DeviceType,
		CreatedAt:        s.now(),
	}

	if err := s.db.WithContext(ctx).Create(visit).Error; err != nil {
		return nil, fmt.Errorf("tracking service: create page visit: %w", err)
	}

	metrics.PageVisitsRecorded.Inc()

	return visit, nil
}

// RecordSecurityEvent appends one security event.
func (s *TrackingService) RecordSecurityEvent(ctx context.Context, entry SecurityEventEntry) (*models.SecurityEvent, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(entry.EventType) == "" ||
		strings.TrimSpace(entry.EventSeverity) == "" ||
		strings.TrimSpace(entry.Description) == "" {
		return nil, errors.New("tracking service: event type, severity, and description are required")
	}
	severity := strings.ToUpper(strings.TrimSpace(entry.EventSeverity))
	if !models.ValidSeverity(severity) {
		return nil, fmt.Errorf("tracking service: unknown severity %q", entry.EventSeverity)
	}

	additional, err := marshalJSONField(entry.AdditionalData)
	if err != nil {
		return nil, fmt.Errorf("tracking service: marshal additional data: %w", err)
	}

	event := &models.SecurityEvent{
		EventType:        strings.TrimSpace(entry.EventType),
		EventSeverity:    severity,
		EventDescription: strings.TrimSpace(entry.Description),
		IPAddress:        entry.Client.IPAddress,
		UserAgent:        entry.Client.UserAgent,
		AdditionalData:   additional,
		CreatedAt:        s.now(),
	}

	if entry.AdminID != nil && strings.TrimSpace(*entry.AdminID) != "" {
		id := strings.TrimSpace(*entry.AdminID)
		event.AdminID = &id
	}

	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return nil, fmt.Errorf("tracking service: create security event: %w", err)
	}

	metrics.SecurityEvents.WithLabelValues(severity).Inc()

	return event, nil
}

// ResolveSecurityEvent marks an event resolved. The transition is one-way:
// resolving an already-resolved event fails and never clears the flag.
func (s *TrackingService) ResolveSecurityEvent(ctx context.Context, eventID string) (*models.SecurityEvent, error) {
	ctx = ensureContext(ctx)

	var event models.SecurityEvent
	err := s.db.WithContext(ctx).Take(&event, "id = ?", strings.TrimSpace(eventID)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("tracking service: lookup security event: %w", err)
	}

	if event.IsResolved {
		return nil, ErrEventAlreadyResolved
	}

	now := s.now()
	result := s.db.WithContext(ctx).
		Model(&models.SecurityEvent{}).
		Where("id = ? AND is_resolved = ?", event.ID, false).
		Updates(map[string]any{"is_resolved": true, "resolved_at": now})
	if result.Error != nil {
		return nil, fmt.Errorf("tracking service: resolve security event: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrEventAlreadyResolved
	}

	event.IsResolved = true
	event.ResolvedAt = &now
	return &event, nil
}

func (s *TrackingService) rollFeatureUsage(ctx context.Context, record *models.ActivityRecord, additional map[string]any) error {
	featureName := ""
	if record.TargetResource != nil {
		featureName = strings.TrimSpace(*record.TargetResource)
	}
	if featureName == "" {
		return nil
	}

	success := true
	var timeSpent int64
	if additional != nil {
		if v, ok := additional["success"].(bool); ok {
			success = v
		}
		switch v := additional["execution_time"].(type) {
		case float64:
			timeSpent = int64(v)
		case int64:
			timeSpent = v
		}
	}

	successInc, errorInc := int64(1), int64(0)
	if !success {
		successInc, errorInc = 0, 1
	}

	usage := models.FeatureUsage{
		AdminID:         record.AdminID,
		FeatureName:     featureName,
		FeatureCategory: record.ActivityCategory,
		UsageCount:      1,
		TotalTimeSpent:  timeSpent,
		SuccessCount:    successInc,
		ErrorCount:      errorInc,
		LastUsedAt:      record.CreatedAt,
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "admin_id"}, {Name: "feature_name"}},
			DoUpdates: clause.Assignments(map[string]any{
				"usage_count":      gorm.Expr("usage_count + 1"),
				"total_time_spent": gorm.Expr("total_time_spent + ?", timeSpent),
				"success_count":    gorm.Expr("success_count + ?", successInc),
				"error_count":      gorm.Expr("error_count + ?", errorInc),
				"last_used_at":     record.CreatedAt,
			}),
		}).
		Create(&usage).Error
	if err != nil {
		return fmt.Errorf("tracking service: roll feature usage: %w", err)
	}
	return nil
}

func marshalJSONField(values map[string]any) (datatypes.JSON, error) {
	if values == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(encoded), nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
