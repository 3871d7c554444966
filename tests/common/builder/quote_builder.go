//go:build unit || e2e

package builder

import (
	"encoding/json"
	"time"

	"booking-engine/internal/domain/money"
	"booking-engine/internal/domain/payment"
	"booking-engine/internal/domain/quote"

	"github.com/google/uuid"
)

type QuoteBuilder struct {
	ID         uuid.UUID
	OfferID    string
	Snapshot   json.RawMessage
	Amount     int64
	Currency   string
	Email      string
	Phone      string
	Passengers []quote.Passenger
	Channel    string
	Status     quote.Status
	Reference  string
	CreatedAt  time.Time
	ChangedAt  time.Time
}

func NewQuoteBuilder() *QuoteBuilder {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &QuoteBuilder{
		ID:       uuid.New(),
		OfferID:  "off_0000AgXw9J0Z",
		Snapshot: json.RawMessage(`{"id":"off_0000AgXw9J0Z","total_amount":"150.00","total_currency":"NGN"}`),
		Amount:   15000000,
		Currency: "NGN",
		Email:    "traveller@example.com",
		Phone:    "+2348012345678",
		Passengers: []quote.Passenger{
			{Type: quote.PassengerAdult, Title: "ms", FirstName: "Ada", LastName: "Obi", DateOfBirth: "1990-04-02"},
		},
		Channel:   "web",
		Status:    quote.StatusAwaitingPayment,
		Reference: payment.NewReference(),
		CreatedAt: now,
		ChangedAt: now,
	}
}

func (b *QuoteBuilder) With(mutate func(*QuoteBuilder)) *QuoteBuilder {
	mutate(b)
	return b
}

func (b *QuoteBuilder) WithStatus(s quote.Status) *QuoteBuilder {
	b.Status = s
	return b
}

func (b *QuoteBuilder) WithCreatedAt(t time.Time) *QuoteBuilder {
	b.CreatedAt = t
	b.ChangedAt = t
	return b
}

func (b *QuoteBuilder) Price() money.Money {
	m, err := money.New(b.Amount, b.Currency)
	if err != nil {
		panic(err)
	}
	return m
}

// BuildNew goes through the constructor and its validation.
func (b *QuoteBuilder) BuildNew() (*quote.Quote, error) {
	offer, err := quote.NewOffer(b.OfferID, b.Snapshot)
	if err != nil {
		return nil, err
	}
	contact, err := quote.NewContact(b.Email, b.Phone)
	if err != nil {
		return nil, err
	}
	price, err := money.New(b.Amount, b.Currency)
	if err != nil {
		return nil, err
	}
	ch, err := quote.NewChannel(b.Channel)
	if err != nil {
		return nil, err
	}
	return quote.NewQuote(offer, price, contact, b.Passengers, ch, b.Reference, b.CreatedAt)
}

// Build reconstructs a quote in any status without validation.
func (b *QuoteBuilder) Build() *quote.Quote {
	offer, _ := quote.NewOffer(b.OfferID, b.Snapshot)
	contact, _ := quote.NewContact(b.Email, b.Phone)
	return quote.ReconstructQuote(
		b.ID, offer, b.Price(), contact, b.Passengers, quote.Channel(b.Channel),
		b.Status, b.Reference, b.CreatedAt, b.ChangedAt,
	)
}
