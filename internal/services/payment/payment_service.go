package payment

import (
	"errors"
	"fmt"

	"github.com/earnkart/backend/internal/config"
	"github.com/earnkart/backend/internal/jobs"
	"github.com/earnkart/backend/internal/models"
	"github.com/earnkart/backend/internal/services/commission"
	"github.com/earnkart/backend/internal/services/credits"
	"github.com/earnkart/backend/internal/services/wallet"
	"github.com/earnkart/backend/internal/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ErrPurchaseNotFound is returned when the purchase does not exist
var ErrPurchaseNotFound = errors.New("purchase not found")

// PaymentService records package purchases and triggers their side effects.
// Commission computation runs after the purchase commits and is best-effort:
// its failures are logged, never surfaced to the buyer.
type PaymentService struct {
	db            *gorm.DB
	wallets       *wallet.WalletService
	credits       *credits.CreditService
	engine        *commission.Engine
	commissionJob *jobs.CommissionJob
	cfg           config.ReferralConfig
}

// NewPaymentService creates a new payment service. commissionJob may be nil,
// in which case commissions are computed synchronously after the purchase.
func NewPaymentService(db *gorm.DB, wallets *wallet.WalletService, creditSvc *credits.CreditService, engine *commission.Engine, commissionJob *jobs.CommissionJob, cfg config.ReferralConfig) *PaymentService {
	return &PaymentService{
		db:            db,
		wallets:       wallets,
		credits:       creditSvc,
		engine:        engine,
		commissionJob: commissionJob,
		cfg:           cfg,
	}
}

// CreatePurchase records a pending purchase of a package. When payWithWallet
// is set the wallet is debited and the purchase completes immediately.
func (s *PaymentService) CreatePurchase(userID, packageID uuid.UUID, payWithWallet bool) (*models.PackagePurchase, error) {
	var pkg models.Package
	if err := s.db.First(&pkg, "id = ? AND is_active = ?", packageID, true).Error; err != nil {
		return nil, fmt.Errorf("error finding package: %w", err)
	}

	purchase := models.PackagePurchase{
		ID:        uuid.New(),
		UserID:    userID,
		PackageID: packageID,
		Amount:    pkg.Price,
		Status:    models.PurchaseStatusPending,
		Reference: utils.GenerateReference("PUR"),
	}
	if err := s.db.Create(&purchase).Error; err != nil {
		return nil, fmt.Errorf("error creating purchase: %w", err)
	}

	if payWithWallet {
		userWallet, err := s.wallets.GetOrCreateWallet(userID)
		if err != nil {
			return nil, err
		}
		description := fmt.Sprintf("Purchase of %s package", pkg.Name)
		if _, err := s.wallets.Debit(userWallet.ID, pkg.Price, models.TransactionSourcePurchase, description, &purchase.ID); err != nil {
			return nil, err
		}
		return s.CompletePurchase(purchase.ID)
	}

	return &purchase, nil
}

// CompletePurchase marks a purchase completed after payment success, then
// kicks off commission processing and the buyer's purchase reward credits.
// Both side effects run outside the purchase transaction; their failures are
// swallowed and logged so the payment response never fails because of them.
func (s *PaymentService) CompletePurchase(purchaseID uuid.UUID) (*models.PackagePurchase, error) {
	var purchase models.PackagePurchase
	if err := s.db.First(&purchase, "id = ?", purchaseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("error finding purchase: %w", err)
	}

	if purchase.Status != models.PurchaseStatusCompleted {
		purchase.Status = models.PurchaseStatusCompleted
		if err := s.db.Save(&purchase).Error; err != nil {
			return nil, fmt.Errorf("error completing purchase: %w", err)
		}
	}

	s.processCommissions(&purchase)
	s.awardPurchaseCredits(&purchase)

	return &purchase, nil
}

// RefundPurchase marks a purchase refunded and returns the amount to the
// buyer's wallet.
func (s *PaymentService) RefundPurchase(purchaseID uuid.UUID, reason string) (*models.PackagePurchase, error) {
	var purchase models.PackagePurchase
	if err := s.db.First(&purchase, "id = ?", purchaseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("error finding purchase: %w", err)
	}
	if purchase.Status != models.PurchaseStatusCompleted {
		return nil, fmt.Errorf("purchase %s is not completed", purchaseID)
	}

	userWallet, err := s.wallets.GetOrCreateWallet(purchase.UserID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		purchase.Status = models.PurchaseStatusRefunded
		if err := tx.Save(&purchase).Error; err != nil {
			return fmt.Errorf("error updating purchase: %w", err)
		}
		description := fmt.Sprintf("Refund: %s", reason)
		_, err := s.wallets.CreditTx(tx, userWallet.ID, purchase.Amount, models.TransactionSourceRefund, description, &purchase.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &purchase, nil
}

// GetUserCurrentPackage returns the package from the user's latest completed
// purchase, or nil when the user holds none.
func (s *PaymentService) GetUserCurrentPackage(userID uuid.UUID) (*models.Package, error) {
	var purchase models.PackagePurchase
	err := s.db.Preload("Package").
		Where("user_id = ? AND status = ?", userID, models.PurchaseStatusCompleted).
		Order("created_at DESC, id DESC").
		First(&purchase).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error finding current package: %w", err)
	}
	return &purchase.Package, nil
}

func (s *PaymentService) processCommissions(purchase *models.PackagePurchase) {
	if s.commissionJob != nil {
		err := s.commissionJob.Enqueue(purchase.UserID, purchase.ID)
		if err == nil {
			return
		}
		log.Error().Err(err).Str("purchase_id", purchase.ID.String()).Msg("failed to enqueue commission job, falling back to synchronous processing")
	}

	if err := s.engine.ProcessReferralCommissions(purchase.UserID, purchase.ID); err != nil {
		log.Error().Err(err).Str("purchase_id", purchase.ID.String()).Msg("commission processing failed")
	}
}

// awardPurchaseCredits grants the buyer reward credits for a completed
// purchase. The purchase ID keys the idempotency, so re-completing a purchase
// cannot double-award.
func (s *PaymentService) awardPurchaseCredits(purchase *models.PackagePurchase) {
	reward := int(purchase.Amount/100) * s.cfg.RewardCreditsPer100
	if reward <= 0 {
		return
	}

	key := fmt.Sprintf("%s:%s", models.CreditReasonPurchaseReward, purchase.ID)
	if _, err := s.credits.Credit(purchase.UserID, reward, models.CreditReasonPurchaseReward, &purchase.ID, key); err != nil {
		log.Error().Err(err).Str("purchase_id", purchase.ID.String()).Msg("failed to award purchase credits")
	}
}
