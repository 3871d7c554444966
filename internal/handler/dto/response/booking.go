package response

import (
	"time"

	"booking-engine/internal/domain/money"
	"booking-engine/internal/usecase/commands"
	"booking-engine/internal/usecase/queries"

	"github.com/google/uuid"
)

type BookResponse struct {
	QuoteID     uuid.UUID `json:"quote_id"`
	Reference   string    `json:"reference"`
	PaymentURL  string    `json:"payment_url"`
	AmountMinor int64     `json:"amount_minor"`
	Currency    string    `json:"currency"`
}

func FromBookResult(r *commands.BookResult) *BookResponse {
	return &BookResponse{
		QuoteID:     r.QuoteID,
		Reference:   r.Reference,
		PaymentURL:  r.PaymentURL,
		AmountMinor: r.AmountMinor,
		Currency:    r.Currency,
	}
}

type MoneyResponse struct {
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
	Display     string `json:"display"`
}

func FromMoney(m money.Money) MoneyResponse {
	return MoneyResponse{AmountMinor: m.AmountMinor(), Currency: m.Currency(), Display: m.String()}
}

// PriceChangedDetail is the 409 detail the client shows before re-submitting
// with accepted_price.
type PriceChangedDetail struct {
	NewPrice MoneyResponse `json:"new_price"`
	OldPrice MoneyResponse `json:"old_price"`
}

func FromPriceChanged(e *commands.PriceChangedError) PriceChangedDetail {
	return PriceChangedDetail{NewPrice: FromMoney(e.NewPrice), OldPrice: FromMoney(e.OldPrice)}
}

type TripResponse struct {
	TripID          *uuid.UUID `json:"trip_id"`
	QuoteID         uuid.UUID  `json:"quote_id"`
	Status          string     `json:"status"`
	Reference       string     `json:"reference"`
	AmountMinor     int64      `json:"amount_minor"`
	Currency        string     `json:"currency"`
	SupplierOrderID string     `json:"supplier_order_id,omitempty"`
	PNR             string     `json:"pnr,omitempty"`
	ETicketNumbers  []string   `json:"eticket_numbers"`
	CreatedAt       time.Time  `json:"created_at"`
	TicketedAt      *time.Time `json:"ticketed_at,omitempty"`
	LastError       string     `json:"last_error,omitempty"`
}

func FromTripView(v *queries.TripView) *TripResponse {
	tickets := v.ETicketNumbers
	if tickets == nil {
		tickets = []string{}
	}
	return &TripResponse{
		TripID:          v.TripID,
		QuoteID:         v.QuoteID,
		Status:          v.Status,
		Reference:       v.Reference,
		AmountMinor:     v.AmountMinor,
		Currency:        v.Currency,
		SupplierOrderID: v.SupplierOrderID,
		PNR:             v.PNR,
		ETicketNumbers:  tickets,
		CreatedAt:       v.QuoteCreatedAt,
		TicketedAt:      v.TicketedAt,
		LastError:       v.LastError,
	}
}

type PaymentResponse struct {
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
	UpdatedAt        time.Time `json:"updated_at"`
}

func FromPaymentView(v *queries.PaymentView) *PaymentResponse {
	return &PaymentResponse{
		Reference:        v.Reference,
		QuoteID:          v.QuoteID,
		Provider:         v.Provider,
		Method:           v.Method,
		Status:           v.Status,
		QuoteStatus:      v.QuoteStatus,
		AmountMinor:      v.AmountMinor,
		PaidAmountMinor:  v.PaidAmountMinor,
		Currency:         v.Currency,
		AuthorizationURL: v.AuthorizationURL,
		UpdatedAt:        v.UpdatedAt,
	}
}

type IssueResponse struct {
	QuoteID        uuid.UUID  `json:"quote_id"`
	Outcome        string     `json:"outcome"`
	QuoteStatus    string     `json:"quote_status"`
	TripID         *uuid.UUID `json:"trip_id,omitempty"`
	PNR            string     `json:"pnr,omitempty"`
	ETicketNumbers []string   `json:"eticket_numbers,omitempty"`
	Attempts       int        `json:"attempts"`
	NextAttemptAt  *time.Time `json:"next_attempt_at,omitempty"`
	LastError      string     `json:"last_error,omitempty"`
}

func FromIssueResult(r *commands.IssueResult) *IssueResponse {
	res := &IssueResponse{
		QuoteID:       r.QuoteID,
		Outcome:       string(r.Outcome),
		QuoteStatus:   r.QuoteStatus.String(),
		Attempts:      r.Attempts,
		NextAttemptAt: r.NextAttemptAt,
		LastError:     r.LastError,
	}
	if r.Trip != nil {
		id := r.Trip.ID()
		res.TripID = &id
		res.PNR = r.Trip.PNR()
		res.ETicketNumbers = r.Trip.ETickets()
	}
	return res
}

type CancelResponse struct {
	QuoteID uuid.UUID `json:"quote_id"`
	Status  string    `json:"status"`
}

func FromCancelResult(r *commands.CancelResult) *CancelResponse {
	return &CancelResponse{QuoteID: r.QuoteID, Status: r.Status.String()}
}

type SweepResponse struct {
	Expired  int `json:"expired"`
	Requeued int `json:"requeued"`
	Failed   int `json:"failed"`
	Enqueued int `json:"enqueued"`
	Purged   int `json:"purged"`
}

func FromSweepReport(r *commands.SweepReport) *SweepResponse {
	return &SweepResponse{
		Expired:  r.Expired,
		Requeued: r.Requeued,
		Failed:   r.Failed,
		Enqueued: r.Enqueued,
		Purged:   r.Purged,
	}
}
