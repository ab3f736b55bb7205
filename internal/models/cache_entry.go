package models

import "time"

// CacheEntry backs the database session cache used when Redis is disabled.
// Expired rows are swept by the maintenance runner.
type CacheEntry struct {
	Key       string    `gorm:"primaryKey;size:256"`
	Value     []byte    `gorm:"type:blob"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
