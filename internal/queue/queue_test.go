package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

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

	require.NoError(t, db.AutoMigrate(&Job{}))
	return db
}

func TestEnqueueAndProcess(t *testing.T) {
	db := setupTestDB(t)
	q := NewDatabaseQueue(db)

	var received Job
	q.RegisterHandler(JobTypeProcessReferralCommissions, func(ctx context.Context, job Job) error {
		received = job
		return nil
	})

	payload, err := json.Marshal(map[string]string{"purchase_id": "abc"})
	require.NoError(t, err)

	job := &Job{Type: JobTypeProcessReferralCommissions, Payload: payload}
	require.NoError(t, q.Enqueue(job))
	assert.Equal(t, JobStatusPending, job.Status)

	require.NoError(t, q.ProcessPending(context.Background(), 10))
	assert.Equal(t, job.ID, received.ID)

	var stored Job
	require.NoError(t, db.First(&stored, "id = ?", job.ID).Error)
	assert.Equal(t, JobStatusCompleted, stored.Status)
}

func TestFailedJobRetriesWithBackoff(t *testing.T) {
	db := setupTestDB(t)
	q := NewDatabaseQueue(db)

	q.RegisterHandler(JobTypeCreatePayoutBatch, func(ctx context.Context, job Job) error {
		return errors.New("transient failure")
	})

	job := &Job{Type: JobTypeCreatePayoutBatch, MaxRetries: 3}
	require.NoError(t, q.Enqueue(job))

	require.NoError(t, q.ProcessPending(context.Background(), 10))

	var stored Job
	require.NoError(t, db.First(&stored, "id = ?", job.ID).Error)
	assert.Equal(t, JobStatusPending, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	require.NotNil(t, stored.NextRetry)
	assert.True(t, stored.NextRetry.After(time.Now()))
	assert.Equal(t, "transient failure", stored.Error)

	// Not due yet, so another pass must leave it untouched.
	require.NoError(t, q.ProcessPending(context.Background(), 10))
	var again Job
	require.NoError(t, db.First(&again, "id = ?", job.ID).Error)
	assert.Equal(t, 1, again.RetryCount)
}

func TestJobFailsAfterMaxRetries(t *testing.T) {
	db := setupTestDB(t)
	q := NewDatabaseQueue(db)

	q.RegisterHandler(JobTypeCreatePayoutBatch, func(ctx context.Context, job Job) error {
		return errors.New("permanent failure")
	})

	job := &Job{Type: JobTypeCreatePayoutBatch, MaxRetries: 2}
	require.NoError(t, q.Enqueue(job))

	past := time.Now().Add(-time.Minute)
	for i := 0; i < 2; i++ {
		require.NoError(t, q.ProcessPending(context.Background(), 10))
		// Pull the retry forward so the next pass picks the job up.
		require.NoError(t, db.Model(&Job{}).Where("id = ?", job.ID).Update("next_retry", past).Error)
	}

	var stored Job
	require.NoError(t, db.First(&stored, "id = ?", job.ID).Error)
	assert.Equal(t, JobStatusFailed, stored.Status)
	assert.Equal(t, "permanent failure", stored.Error)
}

func TestUnhandledJobTypeFails(t *testing.T) {
	db := setupTestDB(t)
	q := NewDatabaseQueue(db)

	job := &Job{Type: "unknown_type"}
	require.NoError(t, q.Enqueue(job))
	require.NoError(t, q.ProcessPending(context.Background(), 10))

	var stored Job
	require.NoError(t, db.First(&stored, "id = ?", job.ID).Error)
	assert.Equal(t, JobStatusFailed, stored.Status)
	assert.Contains(t, stored.Error, "no handler registered")
}

func TestCalculateBackoffGrowsAndCaps(t *testing.T) {
	first := calculateBackoff(0)
	assert.GreaterOrEqual(t, first, 3*time.Second)
	assert.LessOrEqual(t, first, 7*time.Second)

	huge := calculateBackoff(20)
	assert.LessOrEqual(t, huge, time.Duration(3600*1.2)*time.Second)
}
