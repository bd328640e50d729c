package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PackageTier represents the ordered package levels. The ordering feeds both
// content access and the commission matrix key.
type PackageTier int

const (
	TierSilver PackageTier = iota + 1
	TierGold
	TierPlatinum
)

// Valid reports whether t is a known tier.
func (t PackageTier) Valid() bool {
	return t >= TierSilver && t <= TierPlatinum
}

func (t PackageTier) String() string {
	switch t {
	case TierSilver:
		return "silver"
	case TierGold:
		return "gold"
	case TierPlatinum:
		return "platinum"
	default:
		return "unknown"
	}
}

// Package represents a purchasable package in the catalog
type Package struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name        string         `gorm:"type:varchar(100);not null" json:"name"`
	Slug        string         `gorm:"type:varchar(120);uniqueIndex;not null" json:"slug"`
	Tier        PackageTier    `gorm:"not null" json:"tier"`
	Price       float64        `gorm:"type:decimal(12,2);not null" json:"price"`
	Description string         `gorm:"type:text" json:"description"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// Purchase statuses
const (
	PurchaseStatusPending   = "pending"
	PurchaseStatusCompleted = "completed"
	PurchaseStatusRefunded  = "refunded"
)

// PackagePurchase records a user buying a package. A completed purchase is what
// makes the package "active" for tier derivation and referrer qualification.
type PackagePurchase struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;index;not null" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"-"`
	PackageID uuid.UUID      `gorm:"type:uuid;index;not null" json:"package_id"`
	Package   Package        `gorm:"foreignKey:PackageID" json:"-"`
	Amount    float64        `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status    string         `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Reference string         `gorm:"type:varchar(100)" json:"reference"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
