package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdminSession records one admin login period bounded by login and logout.
// SessionDuration is computed in seconds when the session closes.
type AdminSession struct {
	ID              string     `gorm:"primaryKey;type:uuid" json:"id"`
	AdminID         string     `gorm:"type:uuid;not null;index" json:"admin_id"`
	Admin           *Admin     `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
	SessionToken    string     `gorm:"uniqueIndex;not null" json:"-"`
	IPAddress       string     `json:"ip_address"`
	UserAgent       string     `json:"user_agent"`
	LoginTime       time.Time  `gorm:"index" json:"login_time"`
	LogoutTime      *time.Time `json:"logout_time"`
	IsActive        bool       `gorm:"default:true;index" json:"is_active"`
	SessionDuration int64      `json:"session_duration"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (s *AdminSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
