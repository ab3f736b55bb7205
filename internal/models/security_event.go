package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Severity levels accepted for security events.
const (
	SeverityLow      = "LOW"
	SeverityMedium   = "MEDIUM"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)

// SecurityEvent is a flagged condition of interest. It is append-only
// except for the one-way resolved transition, which sets ResolvedAt.
type SecurityEvent struct {
	ID               string         `gorm:"primaryKey;type:uuid" json:"id"`
	AdminID          *string        `gorm:"type:uuid;index" json:"admin_id"`
	Admin            *Admin         `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
	EventType        string         `gorm:"not null;index" json:"event_type"`
	EventSeverity    string         `gorm:"not null;index" json:"event_severity"`
	EventDescription string         `gorm:"not null" json:"event_description"`
	IPAddress        string         `json:"ip_address"`
	UserAgent        string         `json:"user_agent"`
	AdditionalData   datatypes.JSON `json:"additional_data,omitempty"`
	IsResolved       bool           `gorm:"default:false;index" json:"is_resolved"`
	ResolvedAt       *time.Time     `json:"resolved_at"`
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`
}

func (e *SecurityEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// ValidSeverity reports whether the supplied level is one of the known severities.
func ValidSeverity(level string) bool {
	switch level {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}
