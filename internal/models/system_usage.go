package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SystemUsageStat is a one-row-per-day rollup of overall system usage,
// produced by the maintenance aggregator and read by the performance report.
type SystemUsageStat struct {
	ID                string    `gorm:"primaryKey;type:uuid" json:"id"`
	Date              time.Time `gorm:"type:date;uniqueIndex;not null" json:"date"`
	TotalAdminLogins  int64     `json:"total_admin_logins"`
	TotalActivities   int64     `json:"total_activities"`
	TotalPageViews    int64     `json:"total_page_views"`
	AvgResponseTimeMS float64   `json:"avg_response_time_ms"`
	ErrorRate         float64   `json:"error_rate"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (s *SystemUsageStat) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
