package ticketing

import (
	"time"

	"booking-engine/internal/pkg/backoff"
)

type Action int

const (
	ActionRetry Action = iota + 1
	ActionGiveUp
)

func (a Action) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionGiveUp:
		return "give_up"
	default:
		return "unknown"
	}
}

type Decision struct {
	Action    Action
	NextAt    time.Time
	Exhausted string
}

const (
	ExhaustedAttempts = "max attempts reached"
	ExhaustedDeadline = "ticketing deadline passed"
)

// RetryPolicy bounds ticketing retries by attempt count and a wall-clock deadline.
type RetryPolicy struct {
	MaxAttempts int
	Base        time.Duration
	Max         time.Duration

	// Delay is swappable in tests; defaults to backoff.Exponential.
	Delay func(attempt int, base, max time.Duration) time.Duration
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	if p.Delay != nil {
		return p.Delay(attempt, p.Base, p.Max)
	}
	return backoff.Exponential(attempt, p.Base, p.Max)
}

// Decide is called after a retryable failure of the given task. attempts is
// the count already consumed, including the one that just failed.
func (p RetryPolicy) Decide(t *Task, now time.Time) Decision {
	if t.Attempts() >= p.MaxAttempts {
		return Decision{Action: ActionGiveUp, Exhausted: ExhaustedAttempts}
	}
	next := now.Add(p.delay(t.Attempts() - 1))
	if !next.Before(t.Deadline()) {
		return Decision{Action: ActionGiveUp, Exhausted: ExhaustedDeadline}
	}
	return Decision{Action: ActionRetry, NextAt: next}
}

// CanAttempt reports whether another attempt is allowed at now.
func (p RetryPolicy) CanAttempt(t *Task, now time.Time) (bool, string) {
	if t.Attempts() >= p.MaxAttempts {
		return false, ExhaustedAttempts
	}
	if !now.Before(t.Deadline()) {
		return false, ExhaustedDeadline
	}
	return true, ""
}
