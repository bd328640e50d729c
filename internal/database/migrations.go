package database

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// migrationsList holds the versioned migrations that AutoMigrate cannot
// express. Partial unique indexes back two invariants: at most one open payout
// per user, and exactly-once credit writes per idempotency key.
var migrationsList = []*gormigrate.Migration{
	{
		ID: "20250301_open_payout_guard",
		Migrate: func(tx *gorm.DB) error {
			return tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_payouts_one_open_per_user
				ON payouts (user_id)
				WHERE status IN ('pending', 'processing') AND deleted_at IS NULL`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`DROP INDEX IF EXISTS idx_payouts_one_open_per_user`).Error
		},
	},
	{
		ID: "20250301_credit_idempotency_key",
		Migrate: func(tx *gorm.DB) error {
			return tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_credit_tx_idempotency_key
				ON credit_transactions (idempotency_key)
				WHERE idempotency_key IS NOT NULL`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`DROP INDEX IF EXISTS idx_credit_tx_idempotency_key`).Error
		},
	},
}

// RunMigrations runs the versioned migrations
func RunMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, migrationsList)

	if err := m.Migrate(); err != nil {
		log.Error().Err(err).Msg("could not run versioned migrations")
		return err
	}
	log.Info().Msg("versioned migrations ran successfully")
	return nil
}
