package ticketing

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskDone      TaskStatus = "done"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskPending, TaskDone, TaskFailed, TaskCancelled:
		return true
	default:
		return false
	}
}

var (
	ErrInvalidTaskStatus = errors.New("invalid ticketing task status")
	ErrTaskClosed        = errors.New("ticketing task is closed")
)

// Task is the durable schedule for issuing one paid quote.
type Task struct {
	quoteID       uuid.UUID
	status        TaskStatus
	attempts      int
	nextAttemptAt time.Time
	deadline      time.Time
	lastError     string
	createdAt     time.Time
	updatedAt     time.Time
}

// NewTask schedules an immediate first attempt. The deadline bounds every retry.
func NewTask(quoteID uuid.UUID, paidAt time.Time, horizon time.Duration) *Task {
	return &Task{
		quoteID:       quoteID,
		status:        TaskPending,
		nextAttemptAt: paidAt,
		deadline:      paidAt.Add(horizon),
		createdAt:     paidAt,
		updatedAt:     paidAt,
	}
}

func ReconstructTask(quoteID uuid.UUID, status TaskStatus, attempts int, nextAttemptAt, deadline time.Time, lastError string, createdAt, updatedAt time.Time) (*Task, error) {
	if !status.IsValid() {
		return nil, ErrInvalidTaskStatus
	}
	return &Task{
		quoteID:       quoteID,
		status:        status,
		attempts:      attempts,
		nextAttemptAt: nextAttemptAt,
		deadline:      deadline,
		lastError:     lastError,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}, nil
}

func (t *Task) IsDue(now time.Time) bool {
	return t.status == TaskPending && !now.Before(t.nextAttemptAt)
}

// BeginAttempt counts an attempt before the supplier is called so a crash
// mid-call still consumes budget.
func (t *Task) BeginAttempt(now time.Time) error {
	if t.status != TaskPending {
		return ErrTaskClosed
	}
	t.attempts++
	t.updatedAt = now
	return nil
}

func (t *Task) ScheduleRetry(at time.Time, reason string, now time.Time) {
	t.nextAttemptAt = at
	t.lastError = reason
	t.updatedAt = now
}

// MakeDue pulls the next attempt forward to now.
func (t *Task) MakeDue(now time.Time) {
	t.nextAttemptAt = now
	t.updatedAt = now
}

func (t *Task) Complete(now time.Time) {
	t.status = TaskDone
	t.lastError = ""
	t.updatedAt = now
}

func (t *Task) Fail(reason string, now time.Time) {
	t.status = TaskFailed
	t.lastError = reason
	t.updatedAt = now
}

func (t *Task) Cancel(now time.Time) {
	t.status = TaskCancelled
	t.updatedAt = now
}

func (t *Task) QuoteID() uuid.UUID       { return t.quoteID }
func (t *Task) Status() TaskStatus       { return t.status }
func (t *Task) Attempts() int            { return t.attempts }
func (t *Task) NextAttemptAt() time.Time { return t.nextAttemptAt }
func (t *Task) Deadline() time.Time      { return t.deadline }
func (t *Task) LastError() string        { return t.lastError }
func (t *Task) CreatedAt() time.Time     { return t.createdAt }
func (t *Task) UpdatedAt() time.Time     { return t.updatedAt }
