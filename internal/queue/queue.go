package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// DatabaseQueue is a polling queue backed by the jobs table. It is the
// fallback when Redis is unavailable and the implementation used in tests.
type DatabaseQueue struct {
	db       *gorm.DB
	handlers map[JobType]JobHandler
	mu       sync.RWMutex
}

// NewDatabaseQueue creates a database-backed queue
func NewDatabaseQueue(db *gorm.DB) *DatabaseQueue {
	return &DatabaseQueue{
		db:       db,
		handlers: make(map[JobType]JobHandler),
	}
}

// Enqueue persists a job in pending state.
func (q *DatabaseQueue) Enqueue(job *Job) error {
	job.Status = JobStatusPending
	if job.MaxRetries == 0 {
		job.MaxRetries = 3
	}
	if err := q.db.Create(job).Error; err != nil {
		return fmt.Errorf("error enqueueing job: %w", err)
	}
	return nil
}

// RegisterHandler registers the handler for a job type
func (q *DatabaseQueue) RegisterHandler(jobType JobType, handler JobHandler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobType] = handler
}

// ProcessPending runs up to limit due jobs. Jobs whose handler fails are
// retried with exponential backoff until MaxRetries, then marked failed.
func (q *DatabaseQueue) ProcessPending(ctx context.Context, limit int) error {
	var jobs []Job
	now := time.Now()
	err := q.db.Where("status = ? AND (next_retry IS NULL OR next_retry <= ?)", JobStatusPending, now).
		Order("created_at, id").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return fmt.Errorf("error loading pending jobs: %w", err)
	}

	for i := range jobs {
		q.run(ctx, &jobs[i])
	}
	return nil
}

func (q *DatabaseQueue) run(ctx context.Context, job *Job) {
	q.mu.RLock()
	handler, ok := q.handlers[job.Type]
	q.mu.RUnlock()
	if !ok {
		q.db.Model(job).Updates(map[string]interface{}{
			"status": JobStatusFailed,
			"error":  fmt.Sprintf("no handler registered for job type %s", job.Type),
		})
		return
	}

	q.db.Model(job).Update("status", JobStatusProcessing)

	if err := handler(ctx, *job); err != nil {
		log.Error().Err(err).Str("job_id", job.ID.String()).Str("type", string(job.Type)).Msg("job failed")
		q.retryOrFail(job, err)
		return
	}

	q.db.Model(job).Update("status", JobStatusCompleted)
}

func (q *DatabaseQueue) retryOrFail(job *Job, jobErr error) {
	if job.RetryCount+1 >= job.MaxRetries {
		q.db.Model(job).Updates(map[string]interface{}{
			"status": JobStatusFailed,
			"error":  jobErr.Error(),
		})
		return
	}

	next := time.Now().Add(calculateBackoff(job.RetryCount))
	q.db.Model(job).Updates(map[string]interface{}{
		"status":      JobStatusPending,
		"retry_count": job.RetryCount + 1,
		"next_retry":  next,
		"error":       jobErr.Error(),
	})
}
