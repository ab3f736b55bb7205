package models

// Admin represents an administrator identity. Accounts are provisioned by
// the main application; this service only references and reports on them,
// plus authenticates dashboard access against the stored hash.
type Admin struct {
	BaseModel
	Username    string `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `gorm:"index" json:"email"`
	Password    string `gorm:"not null" json:"-"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
}
