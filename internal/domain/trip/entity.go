package trip

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMissingQuote         = errors.New("trip requires a quote")
	ErrMissingPNR           = errors.New("trip requires a pnr")
	ErrMissingTickets       = errors.New("trip requires at least one e-ticket")
	ErrMissingSupplierOrder = errors.New("trip requires a supplier order id")
)

type Trip struct {
	id              uuid.UUID
	quoteID         uuid.UUID
	supplierOrderID string
	pnr             string
	etickets        []string
	raw             json.RawMessage
	createdAt       time.Time
}

func NewTrip(quoteID uuid.UUID, supplierOrderID, pnr string, etickets []string, raw json.RawMessage, now time.Time) (*Trip, error) {
	if quoteID == uuid.Nil {
		return nil, ErrMissingQuote
	}
	if strings.TrimSpace(supplierOrderID) == "" {
		return nil, ErrMissingSupplierOrder
	}
	if strings.TrimSpace(pnr) == "" {
		return nil, ErrMissingPNR
	}
	tickets := make([]string, 0, len(etickets))
	for _, t := range etickets {
		if t = strings.TrimSpace(t); t != "" {
			tickets = append(tickets, t)
		}
	}
	if len(tickets) == 0 {
		return nil, ErrMissingTickets
	}
	if len(raw) == 0 || !json.Valid(raw) {
		raw = json.RawMessage(`{}`)
	}
	return &Trip{
		id:              uuid.New(),
		quoteID:         quoteID,
		supplierOrderID: supplierOrderID,
		pnr:             strings.ToUpper(pnr),
		etickets:        tickets,
		raw:             raw,
		createdAt:       now,
	}, nil
}

func ReconstructTrip(id, quoteID uuid.UUID, supplierOrderID, pnr string, etickets []string, raw json.RawMessage, createdAt time.Time) *Trip {
	return &Trip{
		id:              id,
		quoteID:         quoteID,
		supplierOrderID: supplierOrderID,
		pnr:             pnr,
		etickets:        etickets,
		raw:             raw,
		createdAt:       createdAt,
	}
}

func (t *Trip) ID() uuid.UUID           { return t.id }
func (t *Trip) QuoteID() uuid.UUID      { return t.quoteID }
func (t *Trip) SupplierOrderID() string { return t.supplierOrderID }
func (t *Trip) PNR() string             { return t.pnr }
func (t *Trip) ETickets() []string      { return append([]string(nil), t.etickets...) }
func (t *Trip) Raw() json.RawMessage    { return t.raw }
func (t *Trip) CreatedAt() time.Time    { return t.createdAt }
