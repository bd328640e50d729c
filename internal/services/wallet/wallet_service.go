package wallet

import (
	"errors"
	"fmt"

	"github.com/earnkart/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WalletService is the append-only monetary ledger. Every balance mutation
// happens in the same database transaction as its audit row, on a row-locked
// wallet, so concurrent operations on one wallet serialize and the balance can
// always be reproduced by replaying the transaction log.
type WalletService struct {
	db *gorm.DB
}

// NewWalletService creates a new wallet service
func NewWalletService(db *gorm.DB) *WalletService {
	return &WalletService{db: db}
}

// GetOrCreateWallet gets a user's wallet or creates one if it doesn't exist
func (s *WalletService) GetOrCreateWallet(userID uuid.UUID) (*models.Wallet, error) {
	return s.GetOrCreateWalletTx(s.db, userID)
}

// GetOrCreateWalletTx is the transaction-scoped variant, for callers that must
// create the wallet atomically with their own writes.
func (s *WalletService) GetOrCreateWalletTx(tx *gorm.DB, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet

	err := tx.Where("user_id = ?", userID).First(&wallet).Error
	if err == nil {
		return &wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("error finding wallet: %w", err)
	}

	wallet = models.Wallet{
		ID:     uuid.New(),
		UserID: userID,
	}
	if err := tx.Create(&wallet).Error; err != nil {
		return nil, fmt.Errorf("error creating wallet: %w", err)
	}

	return &wallet, nil
}

// GetWallet gets a specific wallet by ID
func (s *WalletService) GetWallet(walletID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := s.db.First(&wallet, "id = ?", walletID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("error finding wallet: %w", err)
	}
	return &wallet, nil
}

// Credit adds funds to a wallet and writes the paired audit row.
func (s *WalletService) Credit(walletID uuid.UUID, amount float64, source models.TransactionSource, description string, referenceID *uuid.UUID) (*models.WalletTransaction, error) {
	var transaction *models.WalletTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		transaction, err = s.CreditTx(tx, walletID, amount, source, description, referenceID)
		return err
	})
	return transaction, err
}

// CreditTx adds funds to a wallet inside an existing transaction, for callers
// that must commit the credit atomically with their own writes.
func (s *WalletService) CreditTx(tx *gorm.DB, walletID uuid.UUID, amount float64, source models.TransactionSource, description string, referenceID *uuid.UUID) (*models.WalletTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	wallet, err := lockWallet(tx, walletID)
	if err != nil {
		return nil, err
	}

	balanceBefore := wallet.Balance
	wallet.Balance += amount
	if source == models.TransactionSourceCommission {
		wallet.TotalEarned += amount
	}

	if err := tx.Save(wallet).Error; err != nil {
		return nil, fmt.Errorf("error updating wallet balance: %w", err)
	}

	transaction := models.WalletTransaction{
		ID:            uuid.New(),
		WalletID:      walletID,
		Type:          models.TransactionTypeCredit,
		Source:        source,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  wallet.Balance,
		Description:   description,
		ReferenceID:   referenceID,
	}
	if err := tx.Create(&transaction).Error; err != nil {
		return nil, fmt.Errorf("error creating transaction record: %w", err)
	}

	return &transaction, nil
}

// Debit removes funds from a wallet. It fails with InsufficientBalanceError
// when the amount exceeds the balance; the balance never goes negative.
func (s *WalletService) Debit(walletID uuid.UUID, amount float64, source models.TransactionSource, description string, referenceID *uuid.UUID) (*models.WalletTransaction, error) {
	var transaction *models.WalletTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		transaction, err = s.DebitTx(tx, walletID, amount, source, description, referenceID)
		return err
	})
	return transaction, err
}

// DebitTx removes funds from a wallet inside an existing transaction.
func (s *WalletService) DebitTx(tx *gorm.DB, walletID uuid.UUID, amount float64, source models.TransactionSource, description string, referenceID *uuid.UUID) (*models.WalletTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	wallet, err := lockWallet(tx, walletID)
	if err != nil {
		return nil, err
	}

	if wallet.Balance < amount {
		return nil, &InsufficientBalanceError{Balance: wallet.Balance, Requested: amount}
	}

	balanceBefore := wallet.Balance
	wallet.Balance -= amount
	switch source {
	case models.TransactionSourcePayout:
		wallet.TotalWithdrawn += amount
	case models.TransactionSourcePurchase:
		wallet.TotalSpent += amount
	}

	if err := tx.Save(wallet).Error; err != nil {
		return nil, fmt.Errorf("error updating wallet balance: %w", err)
	}

	transaction := models.WalletTransaction{
		ID:            uuid.New(),
		WalletID:      walletID,
		Type:          models.TransactionTypeDebit,
		Source:        source,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  wallet.Balance,
		Description:   description,
		ReferenceID:   referenceID,
	}
	if err := tx.Create(&transaction).Error; err != nil {
		return nil, fmt.Errorf("error creating transaction record: %w", err)
	}

	return &transaction, nil
}

// GetTransactionHistory gets transaction history for a wallet, newest first.
func (s *WalletService) GetTransactionHistory(walletID uuid.UUID, page, pageSize int) ([]models.WalletTransaction, int64, error) {
	var transactions []models.WalletTransaction
	var total int64

	if err := s.db.Model(&models.WalletTransaction{}).Where("wallet_id = ?", walletID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting transactions: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := s.db.Where("wallet_id = ?", walletID).Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("error finding transactions: %w", err)
	}

	return transactions, total, nil
}

// lockWallet reads the wallet row under FOR UPDATE so concurrent credits and
// debits on the same wallet serialize.
func lockWallet(tx *gorm.DB, walletID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&wallet, "id = ?", walletID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("error finding wallet: %w", err)
	}
	return &wallet, nil
}
