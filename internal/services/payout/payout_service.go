package payout

import (
	"errors"
	"fmt"
	"time"

	"github.com/earnkart/backend/internal/config"
	"github.com/earnkart/backend/internal/models"
	"github.com/earnkart/backend/internal/services/wallet"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PayoutService groups pending commissions into payout batches and drives them
// through pending → completed/failed. Batch creation is one transaction per
// user: a failure midway leaves no commission pointing at an uncommitted payout.
type PayoutService struct {
	db      *gorm.DB
	wallets *wallet.WalletService
	cfg     config.ReferralConfig
}

// NewPayoutService creates a new payout service
func NewPayoutService(db *gorm.DB, wallets *wallet.WalletService, cfg config.ReferralConfig) *PayoutService {
	return &PayoutService{db: db, wallets: wallets, cfg: cfg}
}

// PendingPayout is one user's payable pending-commission group.
type PendingPayout struct {
	UserID uuid.UUID `json:"user_id"`
	Amount float64   `json:"amount"`
	Count  int       `json:"count"`
}

// PendingSummary is the user-facing view of their commission pipeline.
type PendingSummary struct {
	Pending       float64 `json:"pending"`
	Processing    float64 `json:"processing"`
	TotalPending  float64 `json:"total_pending"`
	MinimumPayout float64 `json:"minimum_payout"`
	Eligible      bool    `json:"eligible"`
}

// CalculatePendingPayouts groups pending commissions per user and returns the
// users whose sum has reached the minimum payout amount.
func (s *PayoutService) CalculatePendingPayouts() ([]PendingPayout, error) {
	var groups []PendingPayout
	err := s.db.Model(&models.Commission{}).
		Select("user_id, SUM(amount) AS amount, COUNT(*) AS count").
		Where("status = ?", models.CommissionStatusPending).
		Group("user_id").
		Having("SUM(amount) >= ?", s.cfg.MinimumPayout).
		Scan(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("error grouping pending commissions: %w", err)
	}
	return groups, nil
}

// CreatePayoutBatch creates a payout for every eligible user. Each user is a
// separate transaction; one user failing does not block the rest.
func (s *PayoutService) CreatePayoutBatch() ([]models.Payout, error) {
	groups, err := s.CalculatePendingPayouts()
	if err != nil {
		return nil, err
	}

	var payouts []models.Payout
	for _, group := range groups {
		payout, err := s.createForUser(group.UserID)
		if err != nil {
			log.Error().Err(err).Str("user_id", group.UserID.String()).Msg("failed to create payout for user")
			continue
		}
		payouts = append(payouts, *payout)
	}

	return payouts, nil
}

// RequestPayout creates a payout for one user with the same transactional
// semantics as batch creation.
func (s *PayoutService) RequestPayout(userID uuid.UUID) (*models.Payout, error) {
	return s.createForUser(userID)
}

// createForUser atomically creates a Payout over the user's then-pending
// commissions and marks them processing. The open-payout check keeps a
// commission in at most one open payout at a time.
func (s *PayoutService) createForUser(userID uuid.UUID) (*models.Payout, error) {
	var payout models.Payout
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var open int64
		err := tx.Model(&models.Payout{}).
			Where("user_id = ? AND status IN ?", userID, []models.PayoutStatus{models.PayoutStatusPending, models.PayoutStatusProcessing}).
			Count(&open).Error
		if err != nil {
			return fmt.Errorf("error checking open payouts: %w", err)
		}
		if open > 0 {
			return ErrOpenPayoutExists
		}

		var commissions []models.Commission
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND status = ?", userID, models.CommissionStatusPending).
			Find(&commissions).Error
		if err != nil {
			return fmt.Errorf("error loading pending commissions: %w", err)
		}

		var total float64
		ids := make([]uuid.UUID, 0, len(commissions))
		for _, c := range commissions {
			total += c.Amount
			ids = append(ids, c.ID)
		}
		if total < s.cfg.MinimumPayout {
			return ErrBelowMinimumPayout
		}

		payout = models.Payout{
			ID:     uuid.New(),
			UserID: userID,
			Amount: total,
			Status: models.PayoutStatusPending,
		}
		if err := tx.Create(&payout).Error; err != nil {
			return fmt.Errorf("error creating payout: %w", err)
		}

		err = tx.Model(&models.Commission{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"payout_id": payout.ID,
				"status":    models.CommissionStatusProcessing,
			}).Error
		if err != nil {
			return fmt.Errorf("error attaching commissions to payout: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("payout_id", payout.ID.String()).Float64("amount", payout.Amount).Msg("payout created")
	return &payout, nil
}

// ProcessPayout completes a payout: the payout goes terminal, all linked
// commissions become paid, and the net amount (after TDS) is credited to the
// user's wallet in the same transaction.
func (s *PayoutService) ProcessPayout(payoutID uuid.UUID, transactionID, method string) (*models.Payout, error) {
	var payout models.Payout
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockOpenPayout(tx, payoutID, &payout); err != nil {
			return err
		}

		now := time.Now()
		tds := payout.Amount * s.cfg.TDSRate
		net := payout.Amount - tds

		payout.Status = models.PayoutStatusCompleted
		payout.TransactionID = transactionID
		payout.Method = method
		payout.PayoutDate = &now
		payout.CompletedAt = &now
		payout.Notes = fmt.Sprintf("TDS %.2f withheld at %.1f%%", tds, s.cfg.TDSRate*100)
		if err := tx.Save(&payout).Error; err != nil {
			return fmt.Errorf("error updating payout: %w", err)
		}

		err := tx.Model(&models.Commission{}).
			Where("payout_id = ?", payout.ID).
			Updates(map[string]interface{}{
				"status":  models.CommissionStatusPaid,
				"paid_at": now,
			}).Error
		if err != nil {
			return fmt.Errorf("error marking commissions paid: %w", err)
		}

		userWallet, err := s.wallets.GetOrCreateWalletTx(tx, payout.UserID)
		if err != nil {
			return err
		}
		description := fmt.Sprintf("Referral commission payout %s", transactionID)
		if _, err := s.wallets.CreditTx(tx, userWallet.ID, net, models.TransactionSourceCommission, description, &payout.ID); err != nil {
			return fmt.Errorf("error crediting wallet for payout: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("payout_id", payout.ID.String()).Msg("payout completed")
	return &payout, nil
}

// CancelPayout fails a payout and returns its commissions to the pending pool
// with their payout reference cleared.
func (s *PayoutService) CancelPayout(payoutID uuid.UUID, reason string) (*models.Payout, error) {
	var payout models.Payout
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockOpenPayout(tx, payoutID, &payout); err != nil {
			return err
		}

		payout.Status = models.PayoutStatusFailed
		payout.Notes = reason
		if err := tx.Save(&payout).Error; err != nil {
			return fmt.Errorf("error updating payout: %w", err)
		}

		err := tx.Model(&models.Commission{}).
			Where("payout_id = ?", payout.ID).
			Updates(map[string]interface{}{
				"status":    models.CommissionStatusPending,
				"payout_id": nil,
			}).Error
		if err != nil {
			return fmt.Errorf("error releasing commissions: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("payout_id", payout.ID.String()).Str("reason", reason).Msg("payout cancelled")
	return &payout, nil
}

// GetPendingSummary returns the pending-amount block for a user.
func (s *PayoutService) GetPendingSummary(userID uuid.UUID) (*PendingSummary, error) {
	pending, err := s.sumByStatus(userID, models.CommissionStatusPending)
	if err != nil {
		return nil, err
	}
	processing, err := s.sumByStatus(userID, models.CommissionStatusProcessing)
	if err != nil {
		return nil, err
	}

	return &PendingSummary{
		Pending:       pending,
		Processing:    processing,
		TotalPending:  pending + processing,
		MinimumPayout: s.cfg.MinimumPayout,
		Eligible:      pending >= s.cfg.MinimumPayout,
	}, nil
}

// GetPayout returns one payout by ID.
func (s *PayoutService) GetPayout(payoutID uuid.UUID) (*models.Payout, error) {
	var payout models.Payout
	if err := s.db.First(&payout, "id = ?", payoutID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPayoutNotFound
		}
		return nil, fmt.Errorf("error finding payout: %w", err)
	}
	return &payout, nil
}

// ListPayouts returns payouts, optionally filtered to one user, newest first.
func (s *PayoutService) ListPayouts(userID *uuid.UUID, page, pageSize int) ([]models.Payout, int64, error) {
	query := s.db.Model(&models.Payout{})
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting payouts: %w", err)
	}

	var payouts []models.Payout
	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&payouts).Error; err != nil {
		return nil, 0, fmt.Errorf("error finding payouts: %w", err)
	}

	return payouts, total, nil
}

// ListCommissions returns a user's commissions, optionally filtered by status.
func (s *PayoutService) ListCommissions(userID uuid.UUID, status models.CommissionStatus) ([]models.Commission, error) {
	query := s.db.Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var commissions []models.Commission
	if err := query.Order("created_at DESC, id DESC").Find(&commissions).Error; err != nil {
		return nil, fmt.Errorf("error finding commissions: %w", err)
	}
	return commissions, nil
}

func (s *PayoutService) sumByStatus(userID uuid.UUID, status models.CommissionStatus) (float64, error) {
	var sum float64
	err := s.db.Model(&models.Commission{}).
		Where("user_id = ? AND status = ?", userID, status).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	if err != nil {
		return 0, fmt.Errorf("error summing commissions: %w", err)
	}
	return sum, nil
}

// lockOpenPayout loads the payout under FOR UPDATE and rejects terminal ones,
// so process and cancel cannot race each other.
func lockOpenPayout(tx *gorm.DB, payoutID uuid.UUID, payout *models.Payout) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(payout, "id = ?", payoutID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPayoutNotFound
		}
		return fmt.Errorf("error finding payout: %w", err)
	}
	if !payout.Status.Open() {
		return ErrPayoutNotOpen
	}
	return nil
}
