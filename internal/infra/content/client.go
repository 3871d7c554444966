package content

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"booking-engine/internal/domain/money"
	"booking-engine/internal/infra/httpx"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/shared"
)

// Mock offers are priced at 150.00 USD and stay valid for half an hour.
const (
	MockTotalMinor int64 = 15000
	MockCurrency         = "USD"
	mockValidity         = 30 * time.Minute
)

type offerEnvelope struct {
	Data struct {
		ID            string     `json:"id"`
		TotalAmount   string     `json:"total_amount"`
		TotalCurrency string     `json:"total_currency"`
		ExpiresAt     *time.Time `json:"expires_at"`
	} `json:"data"`
}

// Client reprices offers against the flight content provider. With no base
// URL configured it serves deterministic mock offers.
type Client struct {
	http    *httpx.Client
	baseURL string
	clock   clock.Clock
	logger  *slog.Logger
}

func NewClient(cfg config.ContentConfig, clk clock.Clock, logger *slog.Logger) *Client {
	headers := map[string]string{
		"Authorization":  "Bearer " + cfg.APIKey,
		"Duffel-Version": "v2",
	}
	return &Client{
		http:    httpx.NewClient("content", cfg.Timeout, headers),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		clock:   clk,
		logger:  logger,
	}
}

func (c *Client) Reprice(ctx context.Context, offerID string) (*shared.PricedOffer, error) {
	if c.baseURL == "" {
		return c.mockOffer(offerID)
	}

	resp, err := c.http.Do(ctx, http.MethodGet, c.baseURL+"/air/offers/"+url.PathEscape(offerID), nil)
	if err != nil {
		return nil, errs.Mark(err, shared.ErrContentUnavailable)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, shared.ErrOfferNotFound
	case !resp.IsSuccess():
		c.logger.Warn("Content provider returned an error",
			slog.Int("status", resp.StatusCode),
			slog.String("body", httpx.Preview(resp.Body)))
		return nil, errs.Mark(errs.Newf("content provider status %d", resp.StatusCode), shared.ErrContentUnavailable)
	}

	var env offerEnvelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return nil, errs.Mark(errs.Wrap(err, "failed to decode offer"), shared.ErrContentUnavailable)
	}
	total, err := money.ParseMajor(env.Data.TotalAmount, env.Data.TotalCurrency)
	if err != nil {
		return nil, errs.Mark(errs.Wrapf(err, "offer %s has an unusable total", offerID), shared.ErrContentUnavailable)
	}

	id := env.Data.ID
	if id == "" {
		id = offerID
	}
	return &shared.PricedOffer{
		ID:         id,
		Total:      total,
		ValidUntil: env.Data.ExpiresAt,
		Raw:        json.RawMessage(resp.Body),
	}, nil
}

func (c *Client) mockOffer(offerID string) (*shared.PricedOffer, error) {
	total, err := money.New(MockTotalMinor, MockCurrency)
	if err != nil {
		return nil, err
	}
	validUntil := c.clock.Now().Add(mockValidity)
	raw, err := json.Marshal(map[string]any{
		"id":             offerID,
		"total_amount":   "150.00",
		"total_currency": MockCurrency,
		"slices":         []any{},
	})
	if err != nil {
		return nil, err
	}
	return &shared.PricedOffer{ID: offerID, Total: total, ValidUntil: &validUntil, Raw: raw}, nil
}
