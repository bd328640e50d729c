package database

import (
	"fmt"
	"time"

	"github.com/earnkart/backend/internal/config"
	"github.com/earnkart/backend/internal/models"
	"github.com/earnkart/backend/internal/queue"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB initializes the database connection with configuration
func InitDB(dbConfig config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dbConfig.URL), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	sqlDB.SetMaxIdleConns(dbConfig.MaxIdle)
	sqlDB.SetMaxOpenConns(dbConfig.MaxConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run versioned migrations: %w", err)
	}

	return db, nil
}

// Migrate runs schema auto-migration for all models
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Users and catalog
		&models.User{},
		&models.Package{},
		&models.PackagePurchase{},

		// Referrals and commissions
		&models.Referral{},
		&models.Commission{},

		// Ledgers
		&models.Wallet{},
		&models.WalletTransaction{},
		&models.CreditTransaction{},

		// Payouts
		&models.Payout{},

		// Background jobs
		&queue.Job{},
	)
}

// SeedPackages inserts the package catalog if it is empty.
func SeedPackages(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Package{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count packages: %w", err)
	}
	if count > 0 {
		return nil
	}

	packages := []models.Package{
		{Name: "Silver Pack", Tier: models.TierSilver, Price: 2950, Description: "Entry-level affiliate and course bundle"},
		{Name: "Gold Pack", Tier: models.TierGold, Price: 5950, Description: "Intermediate bundle with level-2 earnings"},
		{Name: "Platinum Pack", Tier: models.TierPlatinum, Price: 9950, Description: "Full bundle with the highest commission slabs"},
	}
	if err := db.Create(&packages).Error; err != nil {
		return fmt.Errorf("failed to seed packages: %w", err)
	}
	return nil
}
