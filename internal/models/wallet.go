package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionType is the direction of a wallet transaction.
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

// TransactionSource identifies what caused a wallet transaction.
type TransactionSource string

const (
	TransactionSourceCommission TransactionSource = "commission"
	TransactionSourcePayout     TransactionSource = "payout"
	TransactionSourcePurchase   TransactionSource = "purchase"
	TransactionSourceRefund     TransactionSource = "refund"
	TransactionSourceAdmin      TransactionSource = "admin"
)

// Wallet represents a user's wallet. Balance must never go negative and must
// always equal the replay of its WalletTransactions in order.
type Wallet struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User           User           `gorm:"foreignKey:UserID" json:"-"`
	Balance        float64        `gorm:"type:decimal(12,2);default:0" json:"balance"`
	TotalEarned    float64        `gorm:"type:decimal(12,2);default:0" json:"total_earned"`
	TotalWithdrawn float64        `gorm:"type:decimal(12,2);default:0" json:"total_withdrawn"`
	TotalSpent     float64        `gorm:"type:decimal(12,2);default:0" json:"total_spent"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// WalletTransaction is an immutable audit row paired with a balance mutation.
// BalanceAfter = BalanceBefore + Amount for credits, - Amount for debits.
type WalletTransaction struct {
	ID            uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	WalletID      uuid.UUID         `gorm:"type:uuid;index;not null" json:"wallet_id"`
	Wallet        Wallet            `gorm:"foreignKey:WalletID" json:"-"`
	Type          TransactionType   `gorm:"type:varchar(10);not null" json:"type"`
	Source        TransactionSource `gorm:"type:varchar(20);not null" json:"source"`
	Amount        float64           `gorm:"type:decimal(12,2);not null" json:"amount"`
	BalanceBefore float64           `gorm:"type:decimal(12,2)" json:"balance_before"`
	BalanceAfter  float64           `gorm:"type:decimal(12,2)" json:"balance_after"`
	Description   string            `gorm:"type:text" json:"description"`
	ReferenceID   *uuid.UUID        `gorm:"type:uuid;index" json:"reference_id"`
	MetaData      JSON              `gorm:"type:jsonb" json:"metadata"`
	CreatedAt     time.Time         `json:"created_at"`
}
