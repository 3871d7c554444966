package shared

import (
	"context"
	"time"

	"booking-engine/internal/domain/payment"
	"booking-engine/internal/domain/quote"
	"booking-engine/internal/domain/ticketing"
	"booking-engine/internal/domain/trip"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithDB: Single statements using implicit transactions
	WithDB(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx exposes repositories bound to one transaction (or to the pool for WithDB).
type Tx interface {
	Quotes() QuoteRepository
	Payments() PaymentRepository
	PaymentEvents() PaymentEventRepository
	Trips() TripRepository
	Idempotency() IdempotencyRepository
	TicketingTasks() TicketingTaskRepository
}

type QuoteRepository interface {
	Create(ctx context.Context, q *quote.Quote) error
	FindByID(ctx context.Context, id uuid.UUID) (*quote.Quote, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*quote.Quote, error)
	FindByReferenceForUpdate(ctx context.Context, reference string) (*quote.Quote, error)
	// UpdateStatus writes q's status only if the stored row is still in from.
	// Returns ErrStaleWrite otherwise.
	UpdateStatus(ctx context.Context, q *quote.Quote, from quote.Status) error
	ListExpirable(ctx context.Context, createdBefore time.Time, limit int) ([]*quote.Quote, error)
	ListStuckPaid(ctx context.Context, changedBefore time.Time, limit int) ([]*quote.Quote, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p *payment.Payment) error
	FindByReference(ctx context.Context, reference string) (*payment.Payment, error)
	Update(ctx context.Context, p *payment.Payment) error
}

type PaymentEventRepository interface {
	// Insert is a no-op returning false when the dedup key already exists.
	Insert(ctx context.Context, rec *payment.EventRecord) (bool, error)
}

type TripRepository interface {
	// Insert is a no-op returning false when the quote already has a trip.
	Insert(ctx context.Context, t *trip.Trip) (bool, error)
	FindByQuoteID(ctx context.Context, quoteID uuid.UUID) (*trip.Trip, error)
}

type IdempotencyRepository interface {
	// Reserve claims (operation, key) for the caller. When the key is already
	// held the existing entry is returned with reserved=false. Expired entries
	// are reclaimed.
	Reserve(ctx context.Context, operation, key, requestHash string, now, expiresAt time.Time) (entry *IdempotencyEntry, reserved bool, err error)
	Complete(ctx context.Context, operation, key string, response []byte, now time.Time) error
	// Release drops a processing entry so the key can be retried.
	Release(ctx context.Context, operation, key string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type TicketingTaskRepository interface {
	// Enqueue is a no-op returning false when the quote already has a task.
	Enqueue(ctx context.Context, t *ticketing.Task) (bool, error)
	FindByQuoteID(ctx context.Context, quoteID uuid.UUID) (*ticketing.Task, error)
	FindByQuoteIDForUpdate(ctx context.Context, quoteID uuid.UUID) (*ticketing.Task, error)
	Update(ctx context.Context, t *ticketing.Task) error
	// ClaimDue hides up to limit due tasks from other pollers until claimUntil.
	ClaimDue(ctx context.Context, now, claimUntil time.Time, limit int) ([]uuid.UUID, error)
}
