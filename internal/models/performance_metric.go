package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PerformanceMetric is an admin-per-day rollup produced by the maintenance
// aggregator. The tracking API only ever reads these rows.
type PerformanceMetric struct {
	ID                 string    `gorm:"primaryKey;type:uuid" json:"id"`
	AdminID            string    `gorm:"type:uuid;not null;uniqueIndex:idx_perf_admin_date" json:"admin_id"`
	Admin              *Admin    `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
	Date               time.Time `gorm:"type:date;not null;uniqueIndex:idx_perf_admin_date" json:"date"`
	TotalLoginTime     int64     `json:"total_login_time"`
	TotalActivities    int64     `json:"total_activities"`
	TotalPageViews     int64     `json:"total_page_views"`
	AvgSessionDuration float64   `json:"avg_session_duration"`
	SuccessRate        float64   `json:"success_rate"`
	ErrorCount         int64     `json:"error_count"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (p *PerformanceMetric) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
