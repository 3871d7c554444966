package quote

import (
	"errors"
	"time"

	"booking-engine/internal/domain/money"

	"github.com/google/uuid"
)

var (
	ErrInvalidStatus     = errors.New("invalid quote status")
	ErrInvalidChannel    = errors.New("invalid booking channel")
	ErrMissingContact    = errors.New("email or phone is required")
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrMissingOffer      = errors.New("offer id is required")
	ErrInvalidSnapshot   = errors.New("offer snapshot must be valid JSON")
	ErrNoPassengers      = errors.New("at least one passenger is required")
	ErrInvalidPassenger  = errors.New("passenger requires type, first and last name")
	ErrMissingReference  = errors.New("gateway reference is required")
	ErrZeroPrice         = errors.New("quote price must be positive")
	ErrInvalidTransition = errors.New("invalid quote status transition")
	ErrExpiredQuote      = errors.New("quote has expired")
	ErrAmountMismatch    = errors.New("paid amount does not match quote price")
)

type Quote struct {
	id               uuid.UUID
	offer            Offer
	price            money.Money
	contact          Contact
	passengers       []Passenger
	channel          Channel
	status           Status
	gatewayReference string
	createdAt        time.Time
	statusChangedAt  time.Time
}

func NewQuote(
	offer Offer,
	price money.Money,
	contact Contact,
	passengers []Passenger,
	channel Channel,
	gatewayReference string,
	now time.Time,
) (*Quote, error) {
	if price.AmountMinor() <= 0 {
		return nil, ErrZeroPrice
	}
	if !channel.IsValid() {
		return nil, ErrInvalidChannel
	}
	if gatewayReference == "" {
		return nil, ErrMissingReference
	}
	if err := validatePassengers(passengers); err != nil {
		return nil, err
	}

	now = now.UTC()
	return &Quote{
		id:               uuid.New(),
		offer:            offer,
		price:            price,
		contact:          contact,
		passengers:       append([]Passenger(nil), passengers...),
		channel:          channel,
		status:           StatusAwaitingPayment,
		gatewayReference: gatewayReference,
		createdAt:        now,
		statusChangedAt:  now,
	}, nil
}

func ReconstructQuote(
	id uuid.UUID,
	offer Offer,
	price money.Money,
	contact Contact,
	passengers []Passenger,
	channel Channel,
	status Status,
	gatewayReference string,
	createdAt, statusChangedAt time.Time,
) *Quote {
	return &Quote{
		id:               id,
		offer:            offer,
		price:            price,
		contact:          contact,
		passengers:       passengers,
		channel:          channel,
		status:           status,
		gatewayReference: gatewayReference,
		createdAt:        createdAt,
		statusChangedAt:  statusChangedAt,
	}
}

// IsPastExpiry reports whether an unpaid quote has outlived its payment horizon.
func (q *Quote) IsPastExpiry(now time.Time, horizon time.Duration) bool {
	return q.status == StatusAwaitingPayment && !now.Before(q.createdAt.Add(horizon))
}

// MarkPaid accepts a verified charge when currency matches and the amount is within
// tolerancePercent of the quoted price.
func (q *Quote) MarkPaid(paid money.Money, tolerancePercent float64, now time.Time) error {
	if q.status == StatusExpired {
		return ErrExpiredQuote
	}
	if !q.status.CanTransitionTo(StatusPaid) {
		return ErrInvalidTransition
	}
	if !q.price.WithinPercent(paid, tolerancePercent) {
		return ErrAmountMismatch
	}
	return q.transition(StatusPaid, now)
}

func (q *Quote) MarkTicketed(now time.Time) error {
	return q.transition(StatusTicketed, now)
}

func (q *Quote) MarkFailed(now time.Time) error {
	return q.transition(StatusFailed, now)
}

func (q *Quote) Expire(now time.Time) error {
	return q.transition(StatusExpired, now)
}

func (q *Quote) Cancel(now time.Time) error {
	if q.status == StatusExpired {
		return ErrExpiredQuote
	}
	return q.transition(StatusCancelled, now)
}

func (q *Quote) transition(next Status, now time.Time) error {
	if !q.status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	q.status = next
	q.statusChangedAt = now.UTC()
	return nil
}

func (q *Quote) ID() uuid.UUID              { return q.id }
func (q *Quote) Offer() Offer               { return q.offer }
func (q *Quote) Price() money.Money         { return q.price }
func (q *Quote) Contact() Contact           { return q.contact }
func (q *Quote) Passengers() []Passenger    { return q.passengers }
func (q *Quote) Channel() Channel           { return q.channel }
func (q *Quote) Status() Status             { return q.status }
func (q *Quote) GatewayReference() string   { return q.gatewayReference }
func (q *Quote) CreatedAt() time.Time       { return q.createdAt }
func (q *Quote) StatusChangedAt() time.Time { return q.statusChangedAt }

// IdempotencyToken is the stable token sent to the supplier for this quote's order.
func (q *Quote) IdempotencyToken() string {
	return "tkt-" + q.id.String()
}
