package commission

import (
	"errors"
	"fmt"

	"github.com/earnkart/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PackageSource reports the tier of a user's current active package. A user
// with no completed purchase has no tier and cannot earn commissions.
type PackageSource interface {
	CurrentTier(userID uuid.UUID) (models.PackageTier, bool, error)
}

// Candidate is a referrer entitled to earn from a purchase.
type Candidate struct {
	ReferrerID uuid.UUID
	Tier       models.PackageTier
	Level      int
}

// Resolver walks a buyer's single-parent referral chain up to two hops.
// Each hop is gated independently on the referrer holding an active package.
// Resolution runs once against current state and is never recomputed if
// upstream tiers change later.
type Resolver struct {
	db       *gorm.DB
	packages PackageSource
}

// NewResolver creates a resolver backed by the given package source.
func NewResolver(db *gorm.DB, packages PackageSource) *Resolver {
	return &Resolver{db: db, packages: packages}
}

// Resolve returns zero, one or two (referrer, level) candidates for a purchase
// by the given buyer.
func (r *Resolver) Resolve(buyerID uuid.UUID) ([]Candidate, error) {
	var buyer models.User
	if err := r.db.First(&buyer, "id = ?", buyerID).Error; err != nil {
		return nil, fmt.Errorf("error finding buyer: %w", err)
	}

	if buyer.ReferredByID == nil {
		return nil, nil
	}

	var candidates []Candidate

	level1, err := r.qualify(*buyer.ReferredByID, models.ReferralLevel1)
	if err != nil {
		return nil, err
	}
	if level1 != nil {
		candidates = append(candidates, *level1)
	}

	// Level 2 follows the level-1 referrer's own parent pointer whether or not
	// level 1 qualified.
	var referrer models.User
	if err := r.db.First(&referrer, "id = ?", *buyer.ReferredByID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return candidates, nil
		}
		return nil, fmt.Errorf("error finding level-1 referrer: %w", err)
	}
	if referrer.ReferredByID == nil {
		return candidates, nil
	}

	level2, err := r.qualify(*referrer.ReferredByID, models.ReferralLevel2)
	if err != nil {
		return nil, err
	}
	if level2 != nil {
		candidates = append(candidates, *level2)
	}

	return candidates, nil
}

// qualify applies the self-qualification gate: referrers must themselves be
// active customers to earn.
func (r *Resolver) qualify(referrerID uuid.UUID, level int) (*Candidate, error) {
	tier, ok, err := r.packages.CurrentTier(referrerID)
	if err != nil {
		return nil, fmt.Errorf("error checking referrer package: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &Candidate{ReferrerID: referrerID, Tier: tier, Level: level}, nil
}

// gormPackageSource derives a user's current tier from their latest completed
// package purchase.
type gormPackageSource struct {
	db *gorm.DB
}

// NewPackageSource creates the database-backed package source.
func NewPackageSource(db *gorm.DB) PackageSource {
	return &gormPackageSource{db: db}
}

func (s *gormPackageSource) CurrentTier(userID uuid.UUID) (models.PackageTier, bool, error) {
	var purchase models.PackagePurchase
	err := s.db.Preload("Package").
		Where("user_id = ? AND status = ?", userID, models.PurchaseStatusCompleted).
		Order("created_at DESC, id DESC").
		First(&purchase).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("error finding current package: %w", err)
	}
	return purchase.Package.Tier, true, nil
}
