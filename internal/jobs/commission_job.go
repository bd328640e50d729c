package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/earnkart/backend/internal/queue"
	"github.com/earnkart/backend/internal/services/commission"
	"github.com/google/uuid"
)

// CommissionJobPayload identifies the purchase whose referral chain should be
// rewarded.
type CommissionJobPayload struct {
	BuyerID    uuid.UUID `json:"buyer_id"`
	PurchaseID uuid.UUID `json:"purchase_id"`
}

// CommissionJob processes referral commissions off the payment path.
type CommissionJob struct {
	queue  queue.QueueInterface
	engine *commission.Engine
}

// NewCommissionJob creates a new commission job handler
func NewCommissionJob(q queue.QueueInterface, engine *commission.Engine) *CommissionJob {
	return &CommissionJob{queue: q, engine: engine}
}

// RegisterCommissionJobHandlers registers the commission job handler
func RegisterCommissionJobHandlers(q queue.QueueInterface, engine *commission.Engine) *CommissionJob {
	job := NewCommissionJob(q, engine)
	q.RegisterHandler(queue.JobTypeProcessReferralCommissions, job.Process)
	return job
}

// Enqueue queues commission processing for a completed purchase.
func (j *CommissionJob) Enqueue(buyerID, purchaseID uuid.UUID) error {
	payload := CommissionJobPayload{BuyerID: buyerID, PurchaseID: purchaseID}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal commission job payload: %w", err)
	}

	return j.queue.Enqueue(&queue.Job{
		Type:       queue.JobTypeProcessReferralCommissions,
		Payload:    payloadBytes,
		MaxRetries: 3,
	})
}

// Process handles a queued commission job. The engine swallows per-referrer
// failures itself; an error here means the purchase could not be loaded and
// the job is worth retrying.
func (j *CommissionJob) Process(ctx context.Context, job queue.Job) error {
	var payload CommissionJobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal commission job payload: %w", err)
	}

	return j.engine.ProcessReferralCommissions(payload.BuyerID, payload.PurchaseID)
}
