package shared

import (
	"encoding/json"
	"time"

	"booking-engine/internal/pkg/errs"
)

// ErrStaleWrite is returned when a conditional update finds the row already moved on.
var ErrStaleWrite = errs.New("row changed concurrently")

// Idempotency ledger operation classes.
const (
	OperationBook           = "book"
	OperationPaymentWebhook = "payment_webhook"
)

const (
	IdempotencyProcessing = "processing"
	IdempotencyCompleted  = "completed"
)

type IdempotencyEntry struct {
	Operation   string
	Key         string
	RequestHash string
	Status      string
	Response    json.RawMessage
	ExpiresAt   time.Time
	CreatedAt   time.Time
	CompletedAt *time.Time
}

func (e *IdempotencyEntry) IsCompleted() bool {
	return e.Status == IdempotencyCompleted
}
