package shared

import (
	"context"
	"encoding/json"
	"time"

	"booking-engine/internal/domain/money"
	"booking-engine/internal/domain/quote"
	"booking-engine/internal/pkg/errs"

	"github.com/google/uuid"
)

// Collaborator failures shared by adapters and use cases.
var (
	ErrContentUnavailable = errs.New("content provider unavailable")
	ErrOfferNotFound      = errs.New("offer not found")
	ErrPaymentUnavailable = errs.New("payment gateway unavailable")
	ErrLockNotAcquired    = errs.New("lease held by another worker")
)

type PricedOffer struct {
	ID         string
	Total      money.Money
	ValidUntil *time.Time
	Raw        json.RawMessage
}

type ContentClient interface {
	Reprice(ctx context.Context, offerID string) (*PricedOffer, error)
}

type InitializeRequest struct {
	Amount    money.Money
	Reference string
	Email     string
	Channels  []string
	Metadata  map[string]string
}

type InitializeResult struct {
	AuthorizationURL string
	Reference        string
}

type PaymentGateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error)
}

type IssueRequest struct {
	QuoteID          uuid.UUID
	Reference        string
	IdempotencyToken string
	Amount           money.Money
	OfferSnapshot    json.RawMessage
	Passengers       []quote.Passenger
}

type SupplierOrder struct {
	OrderID  string
	PNR      string
	ETickets []string
	Raw      json.RawMessage
}

// SupplierIssuer returns ticketing.ErrSupplierRetryable or a
// *ticketing.RejectedError on failure.
type SupplierIssuer interface {
	Issue(ctx context.Context, req IssueRequest) (*SupplierOrder, error)
}

type TripNotification struct {
	QuoteID  uuid.UUID `json:"quote_id"`
	TripID   uuid.UUID `json:"trip_id"`
	Email    string    `json:"email,omitempty"`
	Phone    string    `json:"phone,omitempty"`
	Channel  string    `json:"channel"`
	PNR      string    `json:"pnr"`
	ETickets []string  `json:"eticket_numbers"`
}

type Notifier interface {
	Notify(ctx context.Context, n TripNotification) error
}

// Escalation kinds.
const (
	EscalationAmountMismatch     = "amount_mismatch"
	EscalationUnknownReference   = "unknown_reference"
	EscalationExpiredQuote       = "expired_quote"
	EscalationPaymentAfterExpiry = "payment_after_expiry"
	EscalationInvalidState       = "invalid_state"
	EscalationTicketingExhausted = "ticketing_exhausted"
	EscalationTicketingRejected  = "ticketing_rejected"
	EscalationTicketingStuck     = "ticketing_stuck"
)

type Escalation struct {
	Kind       string     `json:"kind"`
	QuoteID    *uuid.UUID `json:"quote_id,omitempty"`
	Reference  string     `json:"reference,omitempty"`
	Reason     string     `json:"reason"`
	OccurredAt time.Time  `json:"occurred_at"`
}

type Escalator interface {
	Escalate(ctx context.Context, e Escalation) error
}

type PaidSignal struct {
	QuoteID uuid.UUID `json:"quote_id"`
	PaidAt  time.Time `json:"paid_at"`
}

type SignalPublisher interface {
	PublishQuotePaid(ctx context.Context, s PaidSignal) error
}

type Lease interface {
	Release(ctx context.Context) error
}

type Locker interface {
	// Acquire returns ErrLockNotAcquired when the key is held.
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}
