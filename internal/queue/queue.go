package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobType defines the type of notification job
type JobType string

const (
	JobTypeOrderAccepted    JobType = "notify_order_accepted"
	JobTypePaymentConfirmed JobType = "notify_payment_confirmed"
	JobTypeEarningAccrued   JobType = "notify_earning_accrued"
	JobTypePayoutRequested  JobType = "notify_payout_requested"
	JobTypePayoutApproved   JobType = "notify_payout_approved"
	JobTypePayoutRejected   JobType = "notify_payout_rejected"
	JobTypePayoutCompleted  JobType = "notify_payout_completed"
)

const (
	notificationQueue = "notifications"
	delayedQueue      = "notifications:delayed"
	deadLetterQueue   = "notifications:dead"

	// DefaultMaxRetries is how often a job is retried before dead-lettering
	DefaultMaxRetries = 3

	// jobTTL bounds how long dead-lettered job bodies are kept
	jobTTL = 7 * 24 * time.Hour
)

// Job represents a queued notification
type Job struct {
	ID         string          `json:"id"`
	Type       JobType         `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	RetryCount int             `json:"retry_count"`
	MaxRetries int             `json:"max_retries"`
	CreatedAt  time.Time       `json:"created_at"`
	LastError  string          `json:"last_error,omitempty"`
}

// Queue is a Redis-backed job queue for post-commit notifications.
// Jobs are enqueued only after the originating database transaction has
// committed, so a Redis outage can delay notifications but never ledger
// writes.
type Queue struct {
	client *redis.Client
	log    *zap.Logger
}

// NewQueue creates a new notification queue
func NewQueue(client *redis.Client, log *zap.Logger) *Queue {
	return &Queue{client: client, log: log}
}

// Enqueue serializes the payload and pushes a job onto the queue
func (q *Queue) Enqueue(ctx context.Context, jobType JobType, payload interface{}) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job payload: %w", err)
	}

	job := &Job{
		ID:         uuid.New().String(),
		Type:       jobType,
		Payload:    payloadBytes,
		MaxRetries: DefaultMaxRetries,
		CreatedAt:  time.Now(),
	}

	if err := q.push(ctx, job); err != nil {
		return "", err
	}

	q.log.Debug("job enqueued", zap.String("job_id", job.ID), zap.String("type", string(jobType)))
	return job.ID, nil
}

// push serializes and LPUSHes a job
func (q *Queue) push(ctx context.Context, job *Job) error {
	jobBytes, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := q.client.LPush(ctx, notificationQueue, jobBytes).Err(); err != nil {
		return fmt.Errorf("failed to push job to queue: %w", err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next job. Returns (nil, nil) when
// no job became available. Delayed retries whose time has come are moved
// back onto the main queue first.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	q.moveReadyDelayedJobs(ctx)

	result := q.client.BRPop(ctx, timeout, notificationQueue)
	if err := result.Err(); err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pop job from queue: %w", err)
	}

	values := result.Val()
	if len(values) < 2 {
		return nil, fmt.Errorf("unexpected result format from BRPOP")
	}

	var job Job
	if err := json.Unmarshal([]byte(values[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

// Retry schedules the job to run again after delay
func (q *Queue) Retry(ctx context.Context, job *Job, delay time.Duration) error {
	job.RetryCount++

	jobBytes, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	runAt := time.Now().Add(delay)
	if err := q.client.ZAdd(ctx, delayedQueue, &redis.Z{
		Score:  float64(runAt.Unix()),
		Member: jobBytes,
	}).Err(); err != nil {
		return fmt.Errorf("failed to schedule retry: %w", err)
	}

	q.log.Info("job scheduled for retry",
		zap.String("job_id", job.ID),
		zap.Int("retry_count", job.RetryCount),
		zap.Duration("delay", delay))
	return nil
}

// Fail dead-letters a job that exhausted its retries
func (q *Queue) Fail(ctx context.Context, job *Job, jobErr error) error {
	if jobErr != nil {
		job.LastError = jobErr.Error()
	}

	jobBytes, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.client.LPush(ctx, deadLetterQueue, jobBytes).Err(); err != nil {
		return fmt.Errorf("failed to dead-letter job: %w", err)
	}
	q.client.Expire(ctx, deadLetterQueue, jobTTL)

	q.log.Error("job dead-lettered",
		zap.String("job_id", job.ID),
		zap.String("type", string(job.Type)),
		zap.String("last_error", job.LastError))
	return nil
}

// moveReadyDelayedJobs moves due retries from the delayed set to the queue
func (q *Queue) moveReadyDelayedJobs(ctx context.Context) {
	now := fmt.Sprintf("%d", time.Now().Unix())

	jobs, err := q.client.ZRangeByScore(ctx, delayedQueue, &redis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil || len(jobs) == 0 {
		return
	}

	for _, jobBytes := range jobs {
		if err := q.client.LPush(ctx, notificationQueue, jobBytes).Err(); err != nil {
			q.log.Error("failed to move delayed job", zap.Error(err))
			continue
		}
		q.client.ZRem(ctx, delayedQueue, jobBytes)
	}
}
