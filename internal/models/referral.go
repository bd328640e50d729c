package models

import (
	"time"

	"github.com/google/uuid"
)

// Referral levels
const (
	ReferralLevel1 = 1
	ReferralLevel2 = 2
)

// Referral represents a rewarded referral edge for one purchasing event.
// Rows are immutable once created; at most one row exists per purchase per level.
type Referral struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	ReferrerID uuid.UUID       `gorm:"type:uuid;index;not null" json:"referrer_id"`
	Referrer   User            `gorm:"foreignKey:ReferrerID" json:"-"`
	RefereeID  uuid.UUID       `gorm:"type:uuid;index;not null" json:"referee_id"`
	Referee    User            `gorm:"foreignKey:RefereeID" json:"-"`
	Level      int             `gorm:"not null;uniqueIndex:idx_referrals_purchase_level" json:"level"`
	PurchaseID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_referrals_purchase_level" json:"purchase_id"`
	Purchase   PackagePurchase `gorm:"foreignKey:PurchaseID" json:"-"`
	CreatedAt  time.Time       `json:"created_at"`
}

// CommissionType identifies which referral level earned a commission.
type CommissionType string

const (
	CommissionTypeLevel1 CommissionType = "level1"
	CommissionTypeLevel2 CommissionType = "level2"
)

// CommissionStatus values
type CommissionStatus string

const (
	CommissionStatusPending    CommissionStatus = "pending"
	CommissionStatusProcessing CommissionStatus = "processing"
	CommissionStatusPaid       CommissionStatus = "paid"
	CommissionStatusCancelled  CommissionStatus = "cancelled"
)

// Commission is an amount earned by a referrer from a downstream purchase.
// Amount is fixed at creation and never recomputed.
type Commission struct {
	ID         uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	UserID     uuid.UUID        `gorm:"type:uuid;index;not null" json:"user_id"`
	User       User             `gorm:"foreignKey:UserID" json:"-"`
	ReferralID uuid.UUID        `gorm:"type:uuid;index;not null" json:"referral_id"`
	Referral   Referral         `gorm:"foreignKey:ReferralID" json:"-"`
	Amount     float64          `gorm:"type:decimal(12,2);not null" json:"amount"`
	Type       CommissionType   `gorm:"type:varchar(10);not null" json:"type"`
	Status     CommissionStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PayoutID   *uuid.UUID       `gorm:"type:uuid;index" json:"payout_id"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	PaidAt     *time.Time       `json:"paid_at"`
}
