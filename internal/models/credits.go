package models

import (
	"time"

	"github.com/google/uuid"
)

// Credit transaction reasons
const (
	CreditReasonPurchaseReward = "purchase_reward"
	CreditReasonReferralBonus  = "referral_bonus"
	CreditReasonRedemption     = "redemption"
	CreditReasonAdminGrant     = "admin_grant"
)

// CreditTransaction is a row in the non-monetary credit ledger. Rows are
// append-only; the current balance is the clamped sum of deltas. A non-nil
// IdempotencyKey makes the write retry-safe: a second call with the same key
// returns this row instead of creating another.
type CreditTransaction struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID         uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	User           User       `gorm:"foreignKey:UserID" json:"-"`
	Delta          int        `gorm:"not null" json:"delta"`
	Reason         string     `gorm:"type:varchar(50);not null" json:"reason"`
	RefID          *uuid.UUID `gorm:"type:uuid;index" json:"ref_id"`
	IdempotencyKey *string    `gorm:"type:varchar(100);uniqueIndex" json:"idempotency_key"`
	CreatedAt      time.Time  `json:"created_at"`
}
