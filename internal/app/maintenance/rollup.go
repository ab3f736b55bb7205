package maintenance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	iauth "github.com/ecowaste/admintrack/internal/auth"
	"github.com/ecowaste/admintrack/internal/models"
	"github.com/ecowaste/admintrack/pkg/logger"
)

const (
	defaultRetention      = 90 * 24 * time.Hour
	defaultRollupSpec     = "@daily"
	defaultCleanupSpec    = "@daily"
	defaultSessionSpec    = "@hourly"
	defaultCacheSweepSpec = "@hourly"
)

// Runner coordinates the background maintenance jobs: the daily
// performance and usage rollups, expired session closing, retention
// cleanup of raw records, and cache expiry sweeps.
type Runner struct {
	db       *gorm.DB
	sessions *iauth.SessionService
	cron     *cron.Cron
	now      func() time.Time
	log      *zap.Logger

	retention       time.Duration
	rollupSchedule  string
	cleanupSchedule string
	sessionSchedule string
}

// Option customises the Runner.
type Option func(*Runner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(r *Runner) {
		if c != nil {
			r.cron = c
		}
	}
}

// WithNow overrides the clock used for rollup day selection and retention.
func WithNow(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithRetention adjusts how long raw activity records and page visits are kept.
func WithRetention(retention time.Duration) Option {
	return func(r *Runner) {
		if retention > 0 {
			r.retention = retention
		}
	}
}

// WithRollupSchedule overrides the cron specification for the daily rollup.
func WithRollupSchedule(spec string) Option {
	return func(r *Runner) {
		if spec != "" {
			r.rollupSchedule = spec
		}
	}
}

// WithCleanupSchedule overrides the cron specification for retention cleanup.
func WithCleanupSchedule(spec string) Option {
	return func(r *Runner) {
		if spec != "" {
			r.cleanupSchedule = spec
		}
	}
}

// WithSessionSchedule overrides the cron specification for expired session closing.
func WithSessionSchedule(spec string) Option {
	return func(r *Runner) {
		if spec != "" {
			r.sessionSchedule = spec
		}
	}
}

// NewRunner constructs a Runner with sensible defaults. A nil session
// service skips the session job.
func NewRunner(db *gorm.DB, sessions *iauth.SessionService, opts ...Option) (*Runner, error) {
	if db == nil {
		return nil, errors.New("maintenance: db is required")
	}

	runner := &Runner{
		db:              db,
		sessions:        sessions,
		now:             time.Now,
		retention:       defaultRetention,
		rollupSchedule:  defaultRollupSpec,
		cleanupSchedule: defaultCleanupSpec,
		sessionSchedule: defaultSessionSpec,
		log:             logger.WithModule("maintenance"),
	}
	for _, opt := range opts {
		opt(runner)
	}
	if runner.cron == nil {
		runner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return runner, nil
}

// Start registers the maintenance jobs and launches the scheduler.
func (r *Runner) Start() error {
	_, err := r.cron.AddFunc(r.rollupSchedule, func() {
		// The daily rollup covers the previous day once it has fully elapsed.
		day := r.now().UTC().AddDate(0, 0, -1)
		if err := RollupDay(context.Background(), r.db, day); err != nil {
			r.log.Warn("daily rollup failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	_, err = r.cron.AddFunc(r.cleanupSchedule, func() {
		if _, err := CleanupOldRecords(context.Background(), r.db, r.now().Add(-r.retention)); err != nil {
			r.log.Warn("retention cleanup failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	if r.sessions != nil {
		_, err = r.cron.AddFunc(r.sessionSchedule, func() {
			if _, err := r.sessions.CloseExpired(context.Background()); err != nil {
				r.log.Warn("expired session cleanup failed", zap.Error(err))
			}
		})
		if err != nil {
			return err
		}
	}

	_, err = r.cron.AddFunc(defaultCacheSweepSpec, func() {
		if err := SweepExpiredCache(context.Background(), r.db, r.now()); err != nil {
			r.log.Warn("cache sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	r.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for running jobs to complete.
func (r *Runner) Stop() context.Context {
	return r.cron.Stop()
}

// RunOnce executes every maintenance job sequentially for the previous day.
// Primarily used in tests and during graceful shutdown.
func (r *Runner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	errs = multierr.Append(errs, RollupDay(ctx, r.db, r.now().UTC().AddDate(0, 0, -1)))
	if _, err := CleanupOldRecords(ctx, r.db, r.now().Add(-r.retention)); err != nil {
		errs = multierr.Append(errs, err)
	}
	if r.sessions != nil {
		if _, err := r.sessions.CloseExpired(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	errs = multierr.Append(errs, SweepExpiredCache(ctx, r.db, r.now()))
	return errs
}

// RollupDay aggregates the raw tracking tables for one day into the
// per-admin performance metrics and the system usage row. Re-running for
// the same day overwrites the previous rollup.
func RollupDay(ctx context.Context, db *gorm.DB, day time.Time) error {
	if db == nil {
		return errors.New("maintenance: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	day = day.UTC()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	if err := rollupAdminMetrics(ctx, db, start, end); err != nil {
		return fmt.Errorf("maintenance: rollup admin metrics: %w", err)
	}
	if err := rollupSystemUsage(ctx, db, start, end); err != nil {
		return fmt.Errorf("maintenance: rollup system usage: %w", err)
	}
	return nil
}

func rollupAdminMetrics(ctx context.Context, db *gorm.DB, start, end time.Time) error {
	type sessionAgg struct {
		AdminID     string
		TotalTime   int64
		AvgDuration float64
	}
	var sessionRows []sessionAgg
	err := db.WithContext(ctx).
		Model(&models.AdminSession{}).
		Select("admin_id, COALESCE(SUM(session_duration), 0) AS total_time, COALESCE(AVG(session_duration), 0) AS avg_duration").
		Where("login_time >= ? AND login_time < ? AND is_active = ?", start, end, false).
		Group("admin_id").
		Scan(&sessionRows).Error
	if err != nil {
		return err
	}
	sessions := make(map[string]sessionAgg, len(sessionRows))
	for _, row := range sessionRows {
		sessions[row.AdminID] = row
	}

	type activityAgg struct {
		AdminID string
		Total   int64
		Errors  int64
	}
	var activityRows []activityAgg
	err = db.WithContext(ctx).
		Model(&models.ActivityRecord{}).
		Select("admin_id, COUNT(*) AS total, SUM(CASE WHEN response_status >= 400 THEN 1 ELSE 0 END) AS errors").
		Where("created_at >= ? AND created_at < ?", start, end).
		Group("admin_id").
		Scan(&activityRows).Error
	if err != nil {
		return err
	}

	var visitRows []struct {
		AdminID string
		Total   int64
	}
	err = db.WithContext(ctx).
		Model(&models.PageVisit{}).
		Select("admin_id, COUNT(*) AS total").
		Where("created_at >= ? AND created_at < ?", start, end).
		Group("admin_id").
		Scan(&visitRows).Error
	if err != nil {
		return err
	}
	visits := make(map[string]int64, len(visitRows))
	for _, row := range visitRows {
		visits[row.AdminID] = row.Total
	}

	// Admins with sessions but no activities still get a row.
	adminIDs := make(map[string]struct{}, len(activityRows)+len(sessionRows))
	activities := make(map[string]activityAgg, len(activityRows))
	for _, row := range activityRows {
		activities[row.AdminID] = row
		adminIDs[row.AdminID] = struct{}{}
	}
	for adminID := range sessions {
		adminIDs[adminID] = struct{}{}
	}

	for adminID := range adminIDs {
		activity := activities[adminID]
		session := sessions[adminID]

		successRate := float64(0)
		if activity.Total > 0 {
			successRate = math.Round(float64(activity.Total-activity.Errors)/float64(activity.Total)*100*100) / 100
		}

		metric := models.PerformanceMetric{
			AdminID:            adminID,
			Date:               start,
			TotalLoginTime:     session.TotalTime,
			TotalActivities:    activity.Total,
			TotalPageViews:     visits[adminID],
			AvgSessionDuration: session.AvgDuration,
			SuccessRate:        successRate,
			ErrorCount:         activity.Errors,
		}
		err := db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "admin_id"}, {Name: "date"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"total_login_time", "total_activities", "total_page_views",
					"avg_session_duration", "success_rate", "error_count", "updated_at",
				}),
			}).
			Create(&metric).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func rollupSystemUsage(ctx context.Context, db *gorm.DB, start, end time.Time) error {
	var (
		logins, activities, pageViews, errorCount int64
		errs                                      error
	)

	errs = multierr.Append(errs, db.WithContext(ctx).
		Model(&models.AdminSession{}).
		Where("login_time >= ? AND login_time < ?", start, end).
		Count(&logins).Error)
	errs = multierr.Append(errs, db.WithContext(ctx).
		Model(&models.ActivityRecord{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&activities).Error)
	errs = multierr.Append(errs, db.WithContext(ctx).
		Model(&models.PageVisit{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&pageViews).Error)
	errs = multierr.Append(errs, db.WithContext(ctx).
		Model(&models.ActivityRecord{}).
		Where("created_at >= ? AND created_at < ? AND response_status >= ?", start, end, 400).
		Count(&errorCount).Error)

	var avgResponse struct{ Avg float64 }
	errs = multierr.Append(errs, db.WithContext(ctx).
		Model(&models.ActivityRecord{}).
		Select("COALESCE(AVG(execution_time_ms), 0) AS avg").
		Where("created_at >= ? AND created_at < ?", start, end).
		Scan(&avgResponse).Error)

	if errs != nil {
		return errs
	}

	errorRate := float64(0)
	if activities > 0 {
		errorRate = math.Round(float64(errorCount)/float64(activities)*100*100) / 100
	}

	stat := models.SystemUsageStat{
		Date:              start,
		TotalAdminLogins:  logins,
		TotalActivities:   activities,
		TotalPageViews:    pageViews,
		AvgResponseTimeMS: math.Round(avgResponse.Avg*100) / 100,
		ErrorRate:         errorRate,
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_admin_logins", "total_activities", "total_page_views",
				"avg_response_time_ms", "error_rate", "updated_at",
			}),
		}).
		Create(&stat).Error
}

// CleanupStats captures the number of raw records removed.
type CleanupStats struct {
	Activities int64
	PageVisits int64
}

// CleanupOldRecords deletes activity records and page visits created before
// the cutoff. Rollup tables are kept so reports stay available after raw
// data ages out.
func CleanupOldRecords(ctx context.Context, db *gorm.DB, cutoff time.Time) (CleanupStats, error) {
	if db == nil {
		return CleanupStats{}, errors.New("maintenance: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	stats := CleanupStats{}

	result := db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.ActivityRecord{})
	if result.Error != nil {
		return stats, fmt.Errorf("maintenance: cleanup activities: %w", result.Error)
	}
	stats.Activities = result.RowsAffected

	result = db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.PageVisit{})
	if result.Error != nil {
		return stats, fmt.Errorf("maintenance: cleanup page visits: %w", result.Error)
	}
	stats.PageVisits = result.RowsAffected

	return stats, nil
}

// SweepExpiredCache removes expired rows from the database cache table.
func SweepExpiredCache(ctx context.Context, db *gorm.DB, now time.Time) error {
	if db == nil {
		return errors.New("maintenance: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.CacheEntry{}).Error
	if err != nil {
		return fmt.Errorf("maintenance: sweep cache: %w", err)
	}
	return nil
}
