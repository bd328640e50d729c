package payout

import (
	"errors"
	"testing"

	"github.com/earnkart/backend/internal/config"
	"github.com/earnkart/backend/internal/models"
	"github.com/earnkart/backend/internal/services/wallet"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Referral{},
		&models.Commission{},
		&models.Wallet{},
		&models.WalletTransaction{},
		&models.Payout{},
	))
	return db
}

func newTestService(t *testing.T, db *gorm.DB) *PayoutService {
	cfg := config.ReferralConfig{MinimumPayout: 500, TDSRate: 0.05}
	return NewPayoutService(db, wallet.NewWalletService(db), cfg)
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	user := &models.User{
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: "hash",
		ReferralCode: "REF" + username,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedCommission(t *testing.T, db *gorm.DB, userID uuid.UUID, amount float64) *models.Commission {
	commission := &models.Commission{
		UserID:     userID,
		ReferralID: uuid.New(),
		Amount:     amount,
		Type:       models.CommissionTypeLevel1,
		Status:     models.CommissionStatusPending,
	}
	require.NoError(t, db.Create(commission).Error)
	return commission
}

func TestCreatePayoutBatch(t *testing.T) {
	db := setupTestDB(t)
	service := newTestService(t, db)

	eligible := createTestUser(t, db, "eligible")
	seedCommission(t, db, eligible.ID, 2375)
	seedCommission(t, db, eligible.ID, 400)

	// Below the 500 minimum, must be left alone.
	small := createTestUser(t, db, "small")
	seedCommission(t, db, small.ID, 150)

	payouts, err := service.CreatePayoutBatch()
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	assert.Equal(t, eligible.ID, payouts[0].UserID)
	assert.Equal(t, 2775.0, payouts[0].Amount)
	assert.Equal(t, models.PayoutStatusPending, payouts[0].Status)

	var attached []models.Commission
	require.NoError(t, db.Where("user_id = ?", eligible.ID).Find(&attached).Error)
	for _, c := range attached {
		assert.Equal(t, models.CommissionStatusProcessing, c.Status)
		require.NotNil(t, c.PayoutID)
		assert.Equal(t, payouts[0].ID, *c.PayoutID)
	}

	var untouched models.Commission
	require.NoError(t, db.First(&untouched, "user_id = ?", small.ID).Error)
	assert.Equal(t, models.CommissionStatusPending, untouched.Status)
	assert.Nil(t, untouched.PayoutID)
}

func TestRequestPayoutBelowMinimum(t *testing.T) {
	db := setupTestDB(t)
	service := newTestService(t, db)

	user := createTestUser(t, db, "small")
	seedCommission(t, db, user.ID, 150)

	_, err := service.RequestPayout(user.ID)
	assert.True(t, errors.Is(err, ErrBelowMinimumPayout))
}

func TestAtMostOneOpenPayout(t *testing.T) {
	db := setupTestDB(t)
	service := newTestService(t, db)

	user := createTestUser(t, db, "repeat")
	seedCommission(t, db, user.ID, 1875)

	first, err := service.RequestPayout(user.ID)
	require.NoError(t, err)

	seedCommission(t, db, user.ID, 2875)
	_, err = service.RequestPayout(user.ID)
	assert.True(t, errors.Is(err, ErrOpenPayoutExists))

	// Once the first payout goes terminal, the new pending commission is payable.
	_, err = service.ProcessPayout(first.ID, "TXN-1", "bank_transfer")
	require.NoError(t, err)

	second, err := service.RequestPayout(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2875.0, second.Amount)
}

func TestProcessPayout(t *testing.T) {
	db := setupTestDB(t)
	service := newTestService(t, db)

	user := createTestUser(t, db, "earner")
	seedCommission(t, db, user.ID, 2375)
	seedCommission(t, db, user.ID, 400)

	created, err := service.RequestPayout(user.ID)
	require.NoError(t, err)

	processed, err := service.ProcessPayout(created.ID, "TXN-42", "bank_transfer")
	require.NoError(t, err)
	assert.Equal(t, models.PayoutStatusCompleted, processed.Status)
	assert.Equal(t, "TXN-42", processed.TransactionID)
	require.NotNil(t, processed.CompletedAt)

	var commissions []models.Commission
	require.NoError(t, db.Where("payout_id = ?", created.ID).Find(&commissions).Error)
	require.Len(t, commissions, 2)
	for _, c := range commissions {
		assert.Equal(t, models.CommissionStatusPaid, c.Status)
		require.NotNil(t, c.PaidAt)
	}

	// 5% TDS withheld from the 2775 gross.
	wallets := wallet.NewWalletService(db)
	userWallet, err := wallets.GetOrCreateWallet(user.ID)
	require.NoError(t, err)
	assert.InDelta(t, 2636.25, userWallet.Balance, 0.001)
	assert.InDelta(t, 2636.25, userWallet.TotalEarned, 0.001)
}

func TestCancelPayoutReleasesCommissions(t *testing.T) {
	db := setupTestDB(t)
	service := newTestService(t, db)

	user := createTestUser(t, db, "bounced")
	seedCommission(t, db, user.ID, 1875)

	created, err := service.RequestPayout(user.ID)
	require.NoError(t, err)

	cancelled, err := service.CancelPayout(created.ID, "bank account closed")
	require.NoError(t, err)
	assert.Equal(t, models.PayoutStatusFailed, cancelled.Status)
	assert.Equal(t, "bank account closed", cancelled.Notes)

	var commission models.Commission
	require.NoError(t, db.First(&commission, "user_id = ?", user.ID).Error)
	assert.Equal(t, models.CommissionStatusPending, commission.Status)
	assert.Nil(t, commission.PayoutID)

	// Nothing was credited.
	wallets := wallet.NewWalletService(db)
	userWallet, err := wallets.GetOrCreateWallet(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, userWallet.Balance)

	// The released commission can be picked up again.
	again, err := service.RequestPayout(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1875.0, again.Amount)
}

func TestTerminalPayoutCannotTransition(t *testing.T) {
	db := setupTestDB(t)
	service := newTestService(t, db)

	user := createTestUser(t, db, "done")
	seedCommission(t, db, user.ID, 1875)

	created, err := service.RequestPayout(user.ID)
	require.NoError(t, err)
	_, err = service.ProcessPayout(created.ID, "TXN-1", "bank_transfer")
	require.NoError(t, err)

	_, err = service.ProcessPayout(created.ID, "TXN-2", "bank_transfer")
	assert.True(t, errors.Is(err, ErrPayoutNotOpen))
	_, err = service.CancelPayout(created.ID, "too late")
	assert.True(t, errors.Is(err, ErrPayoutNotOpen))
}

func TestProcessUnknownPayout(t *testing.T) {
	db := setupTestDB(t)
	service := newTestService(t, db)

	_, err := service.ProcessPayout(uuid.New(), "TXN-1", "bank_transfer")
	assert.True(t, errors.Is(err, ErrPayoutNotFound))
}

func TestGetPendingSummary(t *testing.T) {
	db := setupTestDB(t)
	service := newTestService(t, db)

	user := createTestUser(t, db, "summary")
	seedCommission(t, db, user.ID, 150)

	summary, err := service.GetPendingSummary(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 150.0, summary.Pending)
	assert.Equal(t, 0.0, summary.Processing)
	assert.False(t, summary.Eligible)

	seedCommission(t, db, user.ID, 400)
	summary, err = service.GetPendingSummary(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 550.0, summary.Pending)
	assert.True(t, summary.Eligible)

	_, err = service.RequestPayout(user.ID)
	require.NoError(t, err)

	summary, err = service.GetPendingSummary(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, summary.Pending)
	assert.Equal(t, 550.0, summary.Processing)
	assert.Equal(t, 550.0, summary.TotalPending)
	assert.False(t, summary.Eligible)
}

func TestListCommissionsByStatus(t *testing.T) {
	db := setupTestDB(t)
	service := newTestService(t, db)

	user := createTestUser(t, db, "lister")
	seedCommission(t, db, user.ID, 1875)
	paid := seedCommission(t, db, user.ID, 400)
	require.NoError(t, db.Model(paid).Update("status", models.CommissionStatusPaid).Error)

	pending, err := service.ListCommissions(user.ID, models.CommissionStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1875.0, pending[0].Amount)

	all, err := service.ListCommissions(user.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
