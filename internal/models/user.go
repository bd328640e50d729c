package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a user in the system. ReferredByID is fixed at registration
// and never mutated afterwards, so the referral graph stays a forest.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Email        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Username     string         `gorm:"type:varchar(50);uniqueIndex" json:"username"`
	FirstName    string         `gorm:"type:varchar(100)" json:"first_name"`
	LastName     string         `gorm:"type:varchar(100)" json:"last_name"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	ReferralCode string         `gorm:"type:varchar(20);uniqueIndex;not null" json:"referral_code"`
	ReferredByID *uuid.UUID     `gorm:"type:uuid;index" json:"referred_by_id"`
	ReferredBy   *User          `gorm:"foreignKey:ReferredByID" json:"-"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	IsAdmin      bool           `gorm:"default:false" json:"is_admin"`
	PhoneNumber  *string        `gorm:"type:varchar(20)" json:"phone_number"`
	LastLoginAt  *time.Time     `json:"last_login_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
