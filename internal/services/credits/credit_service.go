package credits

import (
	"errors"
	"fmt"

	"github.com/earnkart/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreditService is the non-monetary credit ledger. Rows are append-only and
// the balance is derived as max(0, sum of deltas) rather than stored. Writes
// carrying an idempotency key are exactly-once: a retried call returns the
// original row with no new side effects.
type CreditService struct {
	db *gorm.DB
}

// NewCreditService creates a new credit service
func NewCreditService(db *gorm.DB) *CreditService {
	return &CreditService{db: db}
}

// Credit appends a positive delta for the user.
func (s *CreditService) Credit(userID uuid.UUID, amount int, reason string, refID *uuid.UUID, idempotencyKey string) (*models.CreditTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.append(userID, amount, reason, refID, idempotencyKey)
}

// Debit appends a negative delta for the user. It fails with
// InsufficientCreditsError when the current balance is below the amount; the
// check and the write happen atomically under a per-user lock.
func (s *CreditService) Debit(userID uuid.UUID, amount int, reason string, refID *uuid.UUID, idempotencyKey string) (*models.CreditTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.append(userID, -amount, reason, refID, idempotencyKey)
}

// Balance returns the user's current credit balance, clamped at zero.
func (s *CreditService) Balance(userID uuid.UUID) (int, error) {
	return s.balance(s.db, userID)
}

// History returns the user's ledger rows, newest first.
func (s *CreditService) History(userID uuid.UUID, page, pageSize int) ([]models.CreditTransaction, int64, error) {
	var rows []models.CreditTransaction
	var total int64

	if err := s.db.Model(&models.CreditTransaction{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting credit transactions: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("error finding credit transactions: %w", err)
	}

	return rows, total, nil
}

func (s *CreditService) append(userID uuid.UUID, delta int, reason string, refID *uuid.UUID, idempotencyKey string) (*models.CreditTransaction, error) {
	// Fast path for retries: an existing row with this key is the prior result.
	if idempotencyKey != "" {
		existing, err := s.findByKey(s.db, idempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	var row *models.CreditTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Lock the user row to serialize check-then-write per user. This also
		// closes the retry race: the second writer re-checks the key under the
		// lock before inserting.
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, "id = ?", userID).Error; err != nil {
			return fmt.Errorf("error finding user: %w", err)
		}

		if idempotencyKey != "" {
			existing, err := s.findByKey(tx, idempotencyKey)
			if err != nil {
				return err
			}
			if existing != nil {
				row = existing
				return nil
			}
		}

		if delta < 0 {
			balance, err := s.balance(tx, userID)
			if err != nil {
				return err
			}
			if balance < -delta {
				return &InsufficientCreditsError{Balance: balance, Requested: -delta}
			}
		}

		record := models.CreditTransaction{
			ID:     uuid.New(),
			UserID: userID,
			Delta:  delta,
			Reason: reason,
			RefID:  refID,
		}
		if idempotencyKey != "" {
			record.IdempotencyKey = &idempotencyKey
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("error creating credit transaction: %w", err)
		}

		row = &record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *CreditService) findByKey(db *gorm.DB, key string) (*models.CreditTransaction, error) {
	var existing models.CreditTransaction
	err := db.Where("idempotency_key = ?", key).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, fmt.Errorf("error checking idempotency key: %w", err)
}

func (s *CreditService) balance(db *gorm.DB, userID uuid.UUID) (int, error) {
	var sum int64
	err := db.Model(&models.CreditTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(delta), 0)").
		Scan(&sum).Error
	if err != nil {
		return 0, fmt.Errorf("error summing credit deltas: %w", err)
	}
	if sum < 0 {
		return 0, nil
	}
	return int(sum), nil
}
