package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const pendingListKey = "earnkart:jobs:pending"

// RedisQueue is a Redis-backed queue with durable job rows in the database.
// The Redis list only carries job IDs; the job row is the source of truth, so
// a flushed Redis can be rebuilt from pending rows.
type RedisQueue struct {
	client   *redis.Client
	db       *gorm.DB
	handlers map[JobType]JobHandler
	mu       sync.RWMutex
}

// NewRedisQueue creates a Redis-backed queue
func NewRedisQueue(client *redis.Client, db *gorm.DB) *RedisQueue {
	return &RedisQueue{
		client:   client,
		db:       db,
		handlers: make(map[JobType]JobHandler),
	}
}

// Enqueue persists the job and pushes its ID onto the pending list.
func (q *RedisQueue) Enqueue(job *Job) error {
	job.Status = JobStatusPending
	if job.MaxRetries == 0 {
		job.MaxRetries = 3
	}
	if err := q.db.Create(job).Error; err != nil {
		return fmt.Errorf("error persisting job: %w", err)
	}

	if err := q.client.LPush(context.Background(), pendingListKey, job.ID.String()).Err(); err != nil {
		return fmt.Errorf("error pushing job to redis: %w", err)
	}
	return nil
}

// RegisterHandler registers the handler for a job type
func (q *RedisQueue) RegisterHandler(jobType JobType, handler JobHandler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobType] = handler
}

// Dequeue blocks until a job is available or the context is done.
func (q *RedisQueue) Dequeue(ctx context.Context) (*Job, error) {
	result, err := q.client.BRPop(ctx, 5*time.Second, pendingListKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("error popping job from redis: %w", err)
	}

	jobID, err := uuid.Parse(result[1])
	if err != nil {
		return nil, fmt.Errorf("invalid job id on queue: %w", err)
	}

	var job Job
	if err := q.db.First(&job, "id = ?", jobID).Error; err != nil {
		return nil, fmt.Errorf("error loading job %s: %w", jobID, err)
	}

	q.db.Model(&job).Update("status", JobStatusProcessing)
	return &job, nil
}

// Process runs the handler for a dequeued job and settles its status,
// re-enqueueing with backoff on retryable failure.
func (q *RedisQueue) Process(ctx context.Context, job *Job) {
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

	if err := handler(ctx, *job); err != nil {
		log.Error().Err(err).Str("job_id", job.ID.String()).Str("type", string(job.Type)).Msg("job failed")
		q.retryOrFail(job, err)
		return
	}

	q.db.Model(job).Update("status", JobStatusCompleted)
}

func (q *RedisQueue) retryOrFail(job *Job, jobErr error) {
	if job.RetryCount+1 >= job.MaxRetries {
		q.db.Model(job).Updates(map[string]interface{}{
			"status": JobStatusFailed,
			"error":  jobErr.Error(),
		})
		return
	}

	backoff := calculateBackoff(job.RetryCount)
	next := time.Now().Add(backoff)
	q.db.Model(job).Updates(map[string]interface{}{
		"status":      JobStatusPending,
		"retry_count": job.RetryCount + 1,
		"next_retry":  next,
		"error":       jobErr.Error(),
	})

	jobID := job.ID.String()
	time.AfterFunc(backoff, func() {
		if err := q.client.LPush(context.Background(), pendingListKey, jobID).Err(); err != nil {
			log.Error().Err(err).Str("job_id", jobID).Msg("failed to re-enqueue job for retry")
		}
	})
}

// Recover pushes pending job rows back onto the Redis list, for startup after
// a crash or a flushed Redis.
func (q *RedisQueue) Recover(ctx context.Context) error {
	var jobs []Job
	if err := q.db.Where("status = ?", JobStatusPending).Find(&jobs).Error; err != nil {
		return fmt.Errorf("error loading pending jobs: %w", err)
	}

	for _, job := range jobs {
		if err := q.client.LPush(ctx, pendingListKey, job.ID.String()).Err(); err != nil {
			return fmt.Errorf("error re-enqueueing job %s: %w", job.ID, err)
		}
	}

	if len(jobs) > 0 {
		log.Info().Int("count", len(jobs)).Msg("recovered pending jobs onto queue")
	}
	return nil
}
