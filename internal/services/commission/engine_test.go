package commission

import (
	"fmt"
	"testing"

	"github.com/earnkart/backend/internal/models"
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
		&models.Package{},
		&models.PackagePurchase{},
		&models.Referral{},
		&models.Commission{},
	))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string, referredBy *uuid.UUID) *models.User {
	user := &models.User{
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: "hash",
		ReferralCode: "REF" + username,
		ReferredByID: referredBy,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestPackage(t *testing.T, db *gorm.DB, tier models.PackageTier, price float64) *models.Package {
	pkg := &models.Package{
		Name:     fmt.Sprintf("%s-%s", tier, uuid.New().String()[:8]),
		Tier:     tier,
		Price:    price,
		IsActive: true,
	}
	require.NoError(t, db.Create(pkg).Error)
	return pkg
}

func completePurchase(t *testing.T, db *gorm.DB, userID uuid.UUID, pkg *models.Package) *models.PackagePurchase {
	purchase := &models.PackagePurchase{
		UserID:    userID,
		PackageID: pkg.ID,
		Amount:    pkg.Price,
		Status:    models.PurchaseStatusCompleted,
	}
	require.NoError(t, db.Create(purchase).Error)
	return purchase
}

func newTestEngine(t *testing.T, db *gorm.DB) *Engine {
	matrix, err := DefaultMatrix()
	require.NoError(t, err)
	return NewEngine(db, matrix)
}

func TestResolveNoReferrer(t *testing.T) {
	db := setupTestDB(t)

	buyer := createTestUser(t, db, "solo", nil)

	resolver := NewResolver(db, NewPackageSource(db))
	candidates, err := resolver.Resolve(buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestResolveUnqualifiedReferrer(t *testing.T) {
	db := setupTestDB(t)

	// Referrer never bought a package, so neither level pays out.
	referrer := createTestUser(t, db, "idle", nil)
	buyer := createTestUser(t, db, "buyer", &referrer.ID)

	resolver := NewResolver(db, NewPackageSource(db))
	candidates, err := resolver.Resolve(buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestResolveLevel2SkipsUnqualifiedLevel1(t *testing.T) {
	db := setupTestDB(t)

	silver := createTestPackage(t, db, models.TierSilver, 2950)

	grandparent := createTestUser(t, db, "grand", nil)
	completePurchase(t, db, grandparent.ID, silver)
	// The middle referrer holds no package but still links the chain.
	parent := createTestUser(t, db, "middle", &grandparent.ID)
	buyer := createTestUser(t, db, "buyer", &parent.ID)

	resolver := NewResolver(db, NewPackageSource(db))
	candidates, err := resolver.Resolve(buyer.ID)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, grandparent.ID, candidates[0].ReferrerID)
	assert.Equal(t, models.ReferralLevel2, candidates[0].Level)
	assert.Equal(t, models.TierSilver, candidates[0].Tier)
}

func TestProcessCommissionsNoRowsForUnqualifiedReferrer(t *testing.T) {
	db := setupTestDB(t)
	engine := newTestEngine(t, db)

	gold := createTestPackage(t, db, models.TierGold, 5950)

	referrer := createTestUser(t, db, "idle", nil)
	buyer := createTestUser(t, db, "buyer", &referrer.ID)
	purchase := completePurchase(t, db, buyer.ID, gold)

	require.NoError(t, engine.ProcessReferralCommissions(buyer.ID, purchase.ID))

	var referralCount, commissionCount int64
	require.NoError(t, db.Model(&models.Referral{}).Count(&referralCount).Error)
	require.NoError(t, db.Model(&models.Commission{}).Count(&commissionCount).Error)
	assert.Zero(t, referralCount)
	assert.Zero(t, commissionCount)
}

func TestProcessCommissionsLevel1(t *testing.T) {
	db := setupTestDB(t)
	engine := newTestEngine(t, db)

	silver := createTestPackage(t, db, models.TierSilver, 2950)
	gold := createTestPackage(t, db, models.TierGold, 5950)

	referrer := createTestUser(t, db, "alice", nil)
	completePurchase(t, db, referrer.ID, silver)
	buyer := createTestUser(t, db, "bob", &referrer.ID)
	purchase := completePurchase(t, db, buyer.ID, gold)

	require.NoError(t, engine.ProcessReferralCommissions(buyer.ID, purchase.ID))

	var commissions []models.Commission
	require.NoError(t, db.Find(&commissions).Error)
	require.Len(t, commissions, 1)
	assert.Equal(t, referrer.ID, commissions[0].UserID)
	assert.Equal(t, 2375.0, commissions[0].Amount)
	assert.Equal(t, models.CommissionTypeLevel1, commissions[0].Type)
	assert.Equal(t, models.CommissionStatusPending, commissions[0].Status)
	assert.Nil(t, commissions[0].PayoutID)

	var referral models.Referral
	require.NoError(t, db.First(&referral, "referrer_id = ?", referrer.ID).Error)
	assert.Equal(t, buyer.ID, referral.RefereeID)
	assert.Equal(t, models.ReferralLevel1, referral.Level)
	assert.Equal(t, purchase.ID, referral.PurchaseID)
}

func TestProcessCommissionsTwoLevels(t *testing.T) {
	db := setupTestDB(t)
	engine := newTestEngine(t, db)

	silver := createTestPackage(t, db, models.TierSilver, 2950)
	platinum := createTestPackage(t, db, models.TierPlatinum, 9950)

	grandparent := createTestUser(t, db, "alice", nil)
	completePurchase(t, db, grandparent.ID, silver)
	parent := createTestUser(t, db, "bob", &grandparent.ID)
	completePurchase(t, db, parent.ID, silver)
	buyer := createTestUser(t, db, "carol", &parent.ID)
	purchase := completePurchase(t, db, buyer.ID, platinum)

	require.NoError(t, engine.ProcessReferralCommissions(buyer.ID, purchase.ID))

	var level1 models.Commission
	require.NoError(t, db.First(&level1, "user_id = ?", parent.ID).Error)
	assert.Equal(t, 2875.0, level1.Amount)
	assert.Equal(t, models.CommissionTypeLevel1, level1.Type)

	var level2 models.Commission
	require.NoError(t, db.First(&level2, "user_id = ?", grandparent.ID).Error)
	assert.Equal(t, 400.0, level2.Amount)
	assert.Equal(t, models.CommissionTypeLevel2, level2.Type)
}

func TestProcessCommissionsIdempotentPerPurchase(t *testing.T) {
	db := setupTestDB(t)
	engine := newTestEngine(t, db)

	silver := createTestPackage(t, db, models.TierSilver, 2950)
	gold := createTestPackage(t, db, models.TierGold, 5950)

	referrer := createTestUser(t, db, "alice", nil)
	completePurchase(t, db, referrer.ID, silver)
	buyer := createTestUser(t, db, "bob", &referrer.ID)
	purchase := completePurchase(t, db, buyer.ID, gold)

	require.NoError(t, engine.ProcessReferralCommissions(buyer.ID, purchase.ID))
	require.NoError(t, engine.ProcessReferralCommissions(buyer.ID, purchase.ID))

	var commissionCount int64
	require.NoError(t, db.Model(&models.Commission{}).Count(&commissionCount).Error)
	assert.Equal(t, int64(1), commissionCount)
}

func TestReferralUniquePerPurchaseLevel(t *testing.T) {
	db := setupTestDB(t)

	gold := createTestPackage(t, db, models.TierGold, 5950)
	referrer := createTestUser(t, db, "alice", nil)
	buyer := createTestUser(t, db, "bob", &referrer.ID)
	purchase := completePurchase(t, db, buyer.ID, gold)

	first := models.Referral{
		ReferrerID: referrer.ID,
		RefereeID:  buyer.ID,
		Level:      models.ReferralLevel1,
		PurchaseID: purchase.ID,
	}
	require.NoError(t, db.Create(&first).Error)

	// The unique index rejects a second row for the same purchase and level
	// even when it slips past the engine's in-transaction check.
	second := models.Referral{
		ReferrerID: buyer.ID,
		RefereeID:  referrer.ID,
		Level:      models.ReferralLevel1,
		PurchaseID: purchase.ID,
	}
	assert.Error(t, db.Create(&second).Error)

	otherLevel := models.Referral{
		ReferrerID: referrer.ID,
		RefereeID:  buyer.ID,
		Level:      models.ReferralLevel2,
		PurchaseID: purchase.ID,
	}
	assert.NoError(t, db.Create(&otherLevel).Error)
}

func TestProcessCommissionsRejectsPendingPurchase(t *testing.T) {
	db := setupTestDB(t)
	engine := newTestEngine(t, db)

	gold := createTestPackage(t, db, models.TierGold, 5950)
	buyer := createTestUser(t, db, "bob", nil)

	purchase := &models.PackagePurchase{
		UserID:    buyer.ID,
		PackageID: gold.ID,
		Amount:    gold.Price,
		Status:    models.PurchaseStatusPending,
	}
	require.NoError(t, db.Create(purchase).Error)

	err := engine.ProcessReferralCommissions(buyer.ID, purchase.ID)
	assert.Error(t, err)
}

func TestCurrentTierUsesLatestCompletedPurchase(t *testing.T) {
	db := setupTestDB(t)

	silver := createTestPackage(t, db, models.TierSilver, 2950)
	platinum := createTestPackage(t, db, models.TierPlatinum, 9950)

	user := createTestUser(t, db, "upgrader", nil)
	first := completePurchase(t, db, user.ID, silver)
	require.NoError(t, db.Model(first).Update("created_at", first.CreatedAt.AddDate(0, 0, -7)).Error)
	completePurchase(t, db, user.ID, platinum)

	source := NewPackageSource(db)
	tier, ok, err := source.CurrentTier(user.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.TierPlatinum, tier)
}
