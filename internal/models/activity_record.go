package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityRecord is one tracked admin action. Records are append-only and
// never mutated after creation; timestamps are server-assigned.
type ActivityRecord struct {
	ID               string         `gorm:"primaryKey;type:uuid" json:"id"`
	AdminID          string         `gorm:"type:uuid;not null;index" json:"admin_id"`
	Admin            *Admin         `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
	SessionID        string         `gorm:"type:uuid;index" json:"session_id"`
	ActivityType     string         `gorm:"not null;index" json:"activity_type"`
	ActivityCategory string         `gorm:"not null;index" json:"activity_category"`
	Description      string         `gorm:"not null" json:"description"`
	TargetResource   *string        `json:"target_resource"`
	TargetID         *string        `json:"target_id"`
	OldValues        datatypes.JSON `json:"old_values,omitempty"`
	NewValues        datatypes.JSON `json:"new_values,omitempty"`
	IPAddress        string         `json:"ip_address"`
	UserAgent        string         `json:"user_agent"`
	RequestMethod    string         `json:"request_method"`
	RequestURL       string         `json:"request_url"`
	ResponseStatus   int            `gorm:"default:200" json:"response_status"`
	ExecutionTimeMS  int64          `json:"execution_time_ms"`
	AdditionalData   datatypes.JSON `json:"additional_data,omitempty"`
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`
}

func (a *ActivityRecord) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
