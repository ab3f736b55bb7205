package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FeatureUsage accumulates per-admin feature usage counters. Rows are
// upserted by the tracking service whenever a FEATURE_USAGE activity
// arrives.
type FeatureUsage struct {
	ID              string    `gorm:"primaryKey;type:uuid" json:"id"`
	AdminID         string    `gorm:"type:uuid;not null;uniqueIndex:idx_feature_admin" json:"admin_id"`
	FeatureName     string    `gorm:"not null;uniqueIndex:idx_feature_admin;index" json:"feature_name"`
	FeatureCategory string    `gorm:"index" json:"feature_category"`
	UsageCount      int64     `gorm:"default:0" json:"usage_count"`
	TotalTimeSpent  int64     `gorm:"default:0" json:"total_time_spent"`
	SuccessCount    int64     `gorm:"default:0" json:"success_count"`
	ErrorCount      int64     `gorm:"default:0" json:"error_count"`
	LastUsedAt      time.Time `gorm:"index" json:"last_used_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (f *FeatureUsage) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
