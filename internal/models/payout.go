package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PayoutStatus values. Pending and processing are open states; completed and
// failed are terminal.
type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "pending"
	PayoutStatusProcessing PayoutStatus = "processing"
	PayoutStatusCompleted  PayoutStatus = "completed"
	PayoutStatusFailed     PayoutStatus = "failed"
)

// Open reports whether the payout still holds its commissions.
func (s PayoutStatus) Open() bool {
	return s == PayoutStatusPending || s == PayoutStatusProcessing
}

// Payout aggregates a user's pending commissions into one payable unit.
// Amount at creation equals the sum of the linked commission amounts.
type Payout struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;index;not null" json:"user_id"`
	User          User           `gorm:"foreignKey:UserID" json:"-"`
	Amount        float64        `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status        PayoutStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	TransactionID string         `gorm:"type:varchar(100)" json:"transaction_id"`
	Method        string         `gorm:"type:varchar(50)" json:"method"`
	PayoutDate    *time.Time     `json:"payout_date"`
	Notes         string         `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	CompletedAt   *time.Time     `json:"completed_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
