package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffGrowsAndCaps(t *testing.T) {
	assert.Equal(t, 30*time.Second, backoff(0))
	assert.Equal(t, time.Minute, backoff(1))
	assert.Equal(t, 2*time.Minute, backoff(2))

	// Large retry counts stay capped
	assert.Equal(t, 10*time.Minute, backoff(8))
	assert.Equal(t, 10*time.Minute, backoff(20))
}

func TestJobRoundTripsThroughJSON(t *testing.T) {
	payload, err := json.Marshal(map[string]interface{}{"payout_id": "abc", "amount": 5000.0})
	require.NoError(t, err)

	job := Job{
		ID:         "job-1",
		Type:       JobTypePayoutCompleted,
		Payload:    payload,
		MaxRetries: DefaultMaxRetries,
		CreatedAt:  time.Now().UTC(),
	}

	raw, err := json.Marshal(job)
	require.NoError(t, err)

	var decoded Job
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, job.ID, decoded.ID)
	assert.Equal(t, job.Type, decoded.Type)
	assert.JSONEq(t, string(job.Payload), string(decoded.Payload))
	assert.Equal(t, DefaultMaxRetries, decoded.MaxRetries)
}

func TestWorkerRegisterAndLookup(t *testing.T) {
	w := NewWorker(nil, nil, nil, 0)
	assert.Equal(t, 2, w.numWorkers)

	called := false
	w.Register(JobTypeEarningAccrued, func(_ context.Context, _ *Job) error {
		called = true
		return nil
	})

	w.mu.RLock()
	handler, ok := w.handlers[JobTypeEarningAccrued]
	w.mu.RUnlock()
	require.True(t, ok)
	require.NoError(t, handler(nil, &Job{}))
	assert.True(t, called)
}
