package queries

import (
	"time"

	"github.com/google/uuid"
)

// Read models (DTO for read side)
type TripView struct {
	TripID          *uuid.UUID `json:"trip_id"`
	QuoteID         uuid.UUID  `json:"quote_id"`
	Status          string     `json:"status"`
	Reference       string     `json:"reference"`
	AmountMinor     int64      `json:"amount_minor"`
	Currency        string     `json:"currency"`
	SupplierOrderID string     `json:"supplier_order_id,omitempty"`
	PNR             string     `json:"pnr,omitempty"`
	ETicketNumbers  []string   `json:"eticket_numbers"`
	QuoteCreatedAt  time.Time  `json:"quote_created_at"`
	TicketedAt      *time.Time `json:"ticketed_at,omitempty"`
	LastError       string     `json:"last_error,omitempty"`
}

type PaymentView struct {
	Reference        string    `json:"reference"`
	QuoteID          uuid.UUID `json:"quote_id"`
	Provider         string    `json:"provider"`
	Method           string    `json:"method"`
	Status           string    `json:"status"`
	QuoteStatus      string    `json:"quote_status"`
	AmountMinor      int64     `json:"amount_minor"`
	PaidAmountMinor  *int64    `json:"paid_amount_minor,omitempty"`
	Currency         string    `json:"currency"`
	AuthorizationURL string    `json:"authorization_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
