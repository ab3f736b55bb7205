package database

import (
	"gorm.io/gorm"

	"github.com/ecowaste/admintrack/internal/models"
	"github.com/ecowaste/admintrack/pkg/crypto"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Admin{},
		&models.AdminSession{},
		&models.ActivityRecord{},
		&models.PageVisit{},
		&models.SecurityEvent{},
		&models.PerformanceMetric{},
		&models.FeatureUsage{},
		&models.SystemUsageStat{},
		&models.CacheEntry{},
	)
}

// SeedData inserts the bootstrap admin account used to reach the reports UI
// before real admin accounts are synced in. The password must be rotated on
// first login in any real deployment.
func SeedData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Admin{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := crypto.HashPassword("changeme")
	if err != nil {
		return err
	}

	admin := models.Admin{
		Username:    "admin",
		DisplayName: "Administrator",
		Password:    hashed,
		IsActive:    true,
	}
	return db.Create(&admin).Error
}
