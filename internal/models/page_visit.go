package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PageVisit records one admin page view, including device and browser
// fields reported by the client collector. Append-only.
type PageVisit struct {
	ID               string    `gorm:"primaryKey;type:uuid" json:"id"`
	AdminID          string    `gorm:"type:uuid;not null;index" json:"admin_id"`
	SessionID        string    `gorm:"type:uuid;index" json:"session_id"`
	PageName         string    `gorm:"not null" json:"page_name"`
	PageURL          string    `gorm:"not null" json:"page_url"`
	VisitDuration    int64     `json:"visit_duration"`
	ReferrerURL      string    `json:"referrer_url"`
	IPAddress        string    `json:"ip_address"`
	UserAgent        string    `json:"user_agent"`
	ScreenResolution string    `json:"screen_resolution"`
	BrowserName      string    `json:"browser_name"`
	BrowserVersion   string    `json:"browser_version"`
	OSName           string    `json:"os_name"`
	DeviceType       string    `json:"device_type"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
}

func (p *PageVisit) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
