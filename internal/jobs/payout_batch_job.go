package jobs

import (
	"github.com/earnkart/backend/internal/services/payout"
	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
)

// SchedulePayoutBatchJob schedules the nightly payout batch run. Every user
// whose pending commissions reached the minimum gets one payout created.
func SchedulePayoutBatchJob(scheduler *gocron.Scheduler, payoutSvc *payout.PayoutService) error {
	_, err := scheduler.Every(1).Day().At("02:00").Do(func() {
		payouts, err := payoutSvc.CreatePayoutBatch()
		if err != nil {
			log.Error().Err(err).Msg("payout batch run failed")
			return
		}
		log.Info().Int("payouts", len(payouts)).Msg("payout batch run completed")
	})
	return err
}
