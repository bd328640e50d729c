package commission

import (
	"errors"
	"fmt"
	"time"

	"github.com/earnkart/backend/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Engine creates referral and commission records for qualifying purchases.
// It runs as a best-effort side effect outside the payment's own transaction:
// per-referrer failures are logged and skipped, never surfaced to the buyer.
type Engine struct {
	db       *gorm.DB
	matrix   *Matrix
	resolver *Resolver
}

// NewEngine creates a commission engine with the database-backed resolver.
func NewEngine(db *gorm.DB, matrix *Matrix) *Engine {
	return &Engine{
		db:       db,
		matrix:   matrix,
		resolver: NewResolver(db, NewPackageSource(db)),
	}
}

// NewEngineWithResolver creates an engine with a custom resolver.
func NewEngineWithResolver(db *gorm.DB, matrix *Matrix, resolver *Resolver) *Engine {
	return &Engine{db: db, matrix: matrix, resolver: resolver}
}

// ProcessReferralCommissions resolves the buyer's referral chain and creates a
// Referral plus a pending Commission per qualified referrer. It returns an
// error only when the purchase itself cannot be loaded; the payment caller
// must still swallow and log that without failing the payment response.
func (e *Engine) ProcessReferralCommissions(buyerID, purchaseID uuid.UUID) error {
	var purchase models.PackagePurchase
	if err := e.db.Preload("Package").First(&purchase, "id = ?", purchaseID).Error; err != nil {
		return fmt.Errorf("error finding purchase: %w", err)
	}
	if purchase.Status != models.PurchaseStatusCompleted {
		return fmt.Errorf("purchase %s is not completed", purchaseID)
	}

	candidates, err := e.resolver.Resolve(buyerID)
	if err != nil {
		log.Error().Err(err).Str("buyer_id", buyerID.String()).Msg("failed to resolve referral chain")
		return nil
	}

	for _, candidate := range candidates {
		if err := e.createCommission(candidate, &purchase); err != nil {
			log.Error().Err(err).
				Str("referrer_id", candidate.ReferrerID.String()).
				Int("level", candidate.Level).
				Str("purchase_id", purchaseID.String()).
				Msg("failed to create referral commission")
		}
	}

	return nil
}

// createCommission writes the Referral row and its pending Commission in one
// transaction. The duplicate check runs inside the transaction and the unique
// index on referrals(purchase_id, level) backs it across sessions, so retried
// or concurrently delivered jobs keep the at-most-once-per-purchase-per-level
// guarantee.
func (e *Engine) createCommission(candidate Candidate, purchase *models.PackagePurchase) error {
	amount, err := e.matrix.Amount(candidate.Tier, purchase.Package.Tier, candidate.Level)
	if err != nil {
		return fmt.Errorf("error looking up commission amount: %w", err)
	}

	commissionType := models.CommissionTypeLevel1
	if candidate.Level == models.ReferralLevel2 {
		commissionType = models.CommissionTypeLevel2
	}

	return e.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Referral
		err := tx.Where("purchase_id = ? AND level = ?", purchase.ID, candidate.Level).First(&existing).Error
		if err == nil {
			log.Info().
				Str("purchase_id", purchase.ID.String()).
				Int("level", candidate.Level).
				Msg("referral already recorded for purchase, skipping")
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("error checking existing referral: %w", err)
		}

		referral := models.Referral{
			ID:         uuid.New(),
			ReferrerID: candidate.ReferrerID,
			RefereeID:  purchase.UserID,
			Level:      candidate.Level,
			PurchaseID: purchase.ID,
			CreatedAt:  time.Now(),
		}
		if err := tx.Create(&referral).Error; err != nil {
			return fmt.Errorf("error creating referral: %w", err)
		}

		commission := models.Commission{
			ID:         uuid.New(),
			UserID:     candidate.ReferrerID,
			ReferralID: referral.ID,
			Amount:     amount,
			Type:       commissionType,
			Status:     models.CommissionStatusPending,
		}
		if err := tx.Create(&commission).Error; err != nil {
			return fmt.Errorf("error creating commission: %w", err)
		}

		log.Info().
			Str("referrer_id", candidate.ReferrerID.String()).
			Int("level", candidate.Level).
			Float64("amount", amount).
			Msg("commission created")
		return nil
	})
}
