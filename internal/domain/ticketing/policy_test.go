//go:build unit

package ticketing_test

import (
	"fmt"
	"testing"
	"time"

	"booking-engine/internal/domain/ticketing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedDelay(attempt int, base, _ time.Duration) time.Duration {
	return base * time.Duration(1<<attempt)
}

func TestRetryPolicy_Decide(t *testing.T) {
	paidAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	policy := ticketing.RetryPolicy{MaxAttempts: 3, Base: time.Minute, Max: time.Hour, Delay: fixedDelay}

	t.Run("retries with growing delay", func(t *testing.T) {
		task := ticketing.NewTask(uuid.New(), paidAt, 3*time.Hour)

		require.NoError(t, task.BeginAttempt(paidAt))
		d := policy.Decide(task, paidAt)
		assert.Equal(t, ticketing.ActionRetry, d.Action)
		assert.Equal(t, paidAt.Add(time.Minute), d.NextAt)

		require.NoError(t, task.BeginAttempt(paidAt))
		d = policy.Decide(task, paidAt)
		assert.Equal(t, paidAt.Add(2*time.Minute), d.NextAt)
	})

	t.Run("gives up at max attempts", func(t *testing.T) {
		task := ticketing.NewTask(uuid.New(), paidAt, 3*time.Hour)
		for range 3 {
			require.NoError(t, task.BeginAttempt(paidAt))
		}
		d := policy.Decide(task, paidAt)
		assert.Equal(t, ticketing.ActionGiveUp, d.Action)
		assert.Equal(t, ticketing.ExhaustedAttempts, d.Exhausted)
	})

	t.Run("gives up when next attempt would pass the deadline", func(t *testing.T) {
		task := ticketing.NewTask(uuid.New(), paidAt, 90*time.Second)
		require.NoError(t, task.BeginAttempt(paidAt))
		require.NoError(t, task.BeginAttempt(paidAt))

		d := policy.Decide(task, paidAt)
		assert.Equal(t, ticketing.ActionGiveUp, d.Action)
		assert.Equal(t, ticketing.ExhaustedDeadline, d.Exhausted)
	})

	t.Run("default delay stays within cap", func(t *testing.T) {
		p := ticketing.RetryPolicy{MaxAttempts: 50, Base: time.Second, Max: 10 * time.Second}
		task := ticketing.NewTask(uuid.New(), paidAt, 24*time.Hour)
		for i := range 10 {
			require.NoError(t, task.BeginAttempt(paidAt))
			d := p.Decide(task, paidAt)
			require.Equal(t, ticketing.ActionRetry, d.Action, fmt.Sprintf("attempt %d", i))
			assert.LessOrEqual(t, d.NextAt.Sub(paidAt), 12*time.Second)
		}
	})
}

func TestRetryPolicy_CanAttempt(t *testing.T) {
	paidAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	policy := ticketing.RetryPolicy{MaxAttempts: 1, Base: time.Minute, Max: time.Hour}

	task := ticketing.NewTask(uuid.New(), paidAt, time.Hour)
	ok, _ := policy.CanAttempt(task, paidAt)
	assert.True(t, ok)

	ok, reason := policy.CanAttempt(task, paidAt.Add(time.Hour))
	assert.False(t, ok)
	assert.Equal(t, ticketing.ExhaustedDeadline, reason)

	require.NoError(t, task.BeginAttempt(paidAt))
	ok, reason = policy.CanAttempt(task, paidAt)
	assert.False(t, ok)
	assert.Equal(t, ticketing.ExhaustedAttempts, reason)
}

func TestTask(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	task := ticketing.NewTask(uuid.New(), now, time.Hour)

	assert.True(t, task.IsDue(now))
	task.ScheduleRetry(now.Add(time.Minute), "timeout", now)
	assert.False(t, task.IsDue(now))
	assert.True(t, task.IsDue(now.Add(time.Minute)))
	assert.Equal(t, "timeout", task.LastError())

	task.Complete(now)
	assert.Equal(t, ticketing.TaskDone, task.Status())
	assert.False(t, task.IsDue(now.Add(time.Hour)))
	require.ErrorIs(t, task.BeginAttempt(now), ticketing.ErrTaskClosed)
}

func TestSupplierErrors(t *testing.T) {
	retry := ticketing.Retryable("status 503")
	assert.True(t, ticketing.IsRetryable(retry))
	assert.False(t, ticketing.IsRejected(retry))

	rej := fmt.Errorf("issue: %w", &ticketing.RejectedError{Code: "FARE_GONE", Reason: "fare no longer available"})
	assert.True(t, ticketing.IsRejected(rej))
	assert.False(t, ticketing.IsRetryable(rej))
	assert.Contains(t, rej.Error(), "FARE_GONE")
}

func TestReconstructTask(t *testing.T) {
	_, err := ticketing.ReconstructTask(uuid.New(), "bogus", 0, time.Now(), time.Now(), "", time.Now(), time.Now())
	require.ErrorIs(t, err, ticketing.ErrInvalidTaskStatus)
}
