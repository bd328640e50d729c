package credits

import (
	"errors"
	"testing"

	"github.com/earnkart/backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) (*gorm.DB, *models.User) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.CreditTransaction{},
	))

	user := &models.User{
		Email:        "credits@example.com",
		Username:     "credits",
		PasswordHash: "hash",
		ReferralCode: "CREDITS",
	}
	require.NoError(t, db.Create(user).Error)
	return db, user
}

func TestCreditAndBalance(t *testing.T) {
	db, user := setupTestDB(t)
	service := NewCreditService(db)

	_, err := service.Credit(user.ID, 29, models.CreditReasonPurchaseReward, nil, "")
	require.NoError(t, err)
	_, err = service.Credit(user.ID, 10, models.CreditReasonAdminGrant, nil, "")
	require.NoError(t, err)

	balance, err := service.Balance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 39, balance)
}

func TestDebitInsufficientCredits(t *testing.T) {
	db, user := setupTestDB(t)
	service := NewCreditService(db)

	_, err := service.Credit(user.ID, 20, models.CreditReasonPurchaseReward, nil, "")
	require.NoError(t, err)

	_, err = service.Debit(user.ID, 50, models.CreditReasonRedemption, nil, "")
	var insufficientErr *InsufficientCreditsError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, 20, insufficientErr.Balance)
	assert.Equal(t, 50, insufficientErr.Requested)

	// The rejected debit must not append a row.
	balance, err := service.Balance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, balance)

	var count int64
	require.NoError(t, db.Model(&models.CreditTransaction{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestIdempotentRetryReturnsOriginalRow(t *testing.T) {
	db, user := setupTestDB(t)
	service := NewCreditService(db)

	key := "purchase_reward:" + uuid.New().String()
	first, err := service.Credit(user.ID, 29, models.CreditReasonPurchaseReward, nil, key)
	require.NoError(t, err)

	second, err := service.Credit(user.ID, 29, models.CreditReasonPurchaseReward, nil, key)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	balance, err := service.Balance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 29, balance)

	var count int64
	require.NoError(t, db.Model(&models.CreditTransaction{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDistinctKeysAppendSeparately(t *testing.T) {
	db, user := setupTestDB(t)
	service := NewCreditService(db)

	_, err := service.Credit(user.ID, 10, models.CreditReasonReferralBonus, nil, "bonus:a")
	require.NoError(t, err)
	_, err = service.Credit(user.ID, 15, models.CreditReasonReferralBonus, nil, "bonus:b")
	require.NoError(t, err)

	balance, err := service.Balance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, balance)
}

func TestInvalidAmounts(t *testing.T) {
	db, user := setupTestDB(t)
	service := NewCreditService(db)

	_, err := service.Credit(user.ID, 0, models.CreditReasonAdminGrant, nil, "")
	assert.True(t, errors.Is(err, ErrInvalidAmount))

	_, err = service.Debit(user.ID, -5, models.CreditReasonRedemption, nil, "")
	assert.True(t, errors.Is(err, ErrInvalidAmount))
}

func TestBalanceClampedAtZero(t *testing.T) {
	db, user := setupTestDB(t)
	service := NewCreditService(db)

	// A manually inserted correction can push the raw sum negative; the exposed
	// balance still reads zero.
	row := models.CreditTransaction{
		ID:     uuid.New(),
		UserID: user.ID,
		Delta:  -40,
		Reason: models.CreditReasonAdminGrant,
	}
	require.NoError(t, db.Create(&row).Error)

	balance, err := service.Balance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestHistoryNewestFirst(t *testing.T) {
	db, user := setupTestDB(t)
	service := NewCreditService(db)

	for i := 1; i <= 3; i++ {
		_, err := service.Credit(user.ID, i, models.CreditReasonAdminGrant, nil, "")
		require.NoError(t, err)
	}

	rows, total, err := service.History(user.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, rows, 3)
	assert.Equal(t, 3, rows[0].Delta)
	assert.Equal(t, 1, rows[2].Delta)
}
