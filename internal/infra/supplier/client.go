package supplier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"booking-engine/internal/domain/ticketing"
	"booking-engine/internal/infra/httpx"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/shared"
)

type orderPayload struct {
	Type          string          `json:"type"`
	Reference     string          `json:"reference"`
	Offer         json.RawMessage `json:"offer"`
	Passengers    any             `json:"passengers"`
	Payments      []orderPayment  `json:"payments"`
	IdempotencyID string          `json:"idempotency_key"`
}

type orderPayment struct {
	Type        string `json:"type"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
}

type orderEnvelope struct {
	Data struct {
		ID              string   `json:"id"`
		BookingRef      string   `json:"booking_reference"`
		ETicketNumbers  []string `json:"eticket_numbers"`
		DocumentNumbers []struct {
			UniqueIdentifier string `json:"unique_identifier"`
		} `json:"documents"`
	} `json:"data"`
}

type errorEnvelope struct {
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Client issues orders with the airline supplier. Without a base URL it
// issues mock orders whose PNR is derived from the payment reference.
type Client struct {
	http    *httpx.Client
	baseURL string
	logger  *slog.Logger
}

func NewClient(cfg config.SupplierConfig, logger *slog.Logger) *Client {
	headers := map[string]string{
		"Authorization":  "Bearer " + cfg.APIKey,
		"Duffel-Version": "v2",
	}
	return &Client{
		http:    httpx.NewClient("supplier", cfg.Timeout, headers),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		logger:  logger,
	}
}

func (c *Client) Issue(ctx context.Context, req shared.IssueRequest) (*shared.SupplierOrder, error) {
	if c.baseURL == "" {
		return MockOrder(req.Reference)
	}

	payload := orderPayload{
		Type:          "instant",
		Reference:     req.Reference,
		Offer:         req.OfferSnapshot,
		Passengers:    req.Passengers,
		Payments: []orderPayment{{
			Type:        "balance",
			AmountMinor: req.Amount.AmountMinor(),
			Currency:    req.Amount.Currency(),
		}},
		IdempotencyID: req.IdempotencyToken,
	}
	resp, err := c.http.Do(ctx, http.MethodPost, c.baseURL+"/air/orders", payload)
	if err != nil {
		return nil, ticketing.Retryable(err.Error())
	}
	if resp.IsTransient() {
		return nil, ticketing.Retryable(fmt.Sprintf("supplier status %d", resp.StatusCode))
	}
	if !resp.IsSuccess() {
		return nil, rejection(resp)
	}

	var env orderEnvelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return nil, ticketing.Retryable("undecodable supplier order: " + err.Error())
	}
	tickets := env.Data.ETicketNumbers
	if len(tickets) == 0 {
		for _, d := range env.Data.DocumentNumbers {
			tickets = append(tickets, d.UniqueIdentifier)
		}
	}
	return &shared.SupplierOrder{
		OrderID:  env.Data.ID,
		PNR:      env.Data.BookingRef,
		ETickets: tickets,
		Raw:      json.RawMessage(resp.Body),
	}, nil
}

func rejection(resp *httpx.Response) error {
	var env errorEnvelope
	code := strconv.Itoa(resp.StatusCode)
	reason := httpx.Preview(resp.Body)
	if err := json.Unmarshal(resp.Body, &env); err == nil && len(env.Errors) > 0 {
		if env.Errors[0].Code != "" {
			code = env.Errors[0].Code
		}
		reason = env.Errors[0].Message
	}
	return &ticketing.RejectedError{Code: code, Reason: reason}
}

// MockOrder issues PNR<last 5 of reference> with two e-tickets.
func MockOrder(reference string) (*shared.SupplierOrder, error) {
	if reference == "" {
		return nil, errs.New("mock supplier needs a payment reference")
	}
	tail := func(n int) string {
		if len(reference) <= n {
			return reference
		}
		return reference[len(reference)-n:]
	}
	tickets := []string{"ET" + tail(10) + "1", "ET" + tail(10) + "2"}
	raw, err := json.Marshal(map[string]any{"mock": true, "reference": reference, "eticket_numbers": tickets})
	if err != nil {
		return nil, err
	}
	return &shared.SupplierOrder{
		OrderID:  "ord_mock_" + tail(12),
		PNR:      "PNR" + tail(5),
		ETickets: tickets,
		Raw:      raw,
	}, nil
}
