package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"booking-engine/internal/infra/httpx"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/shared"
)

type initializePayload struct {
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Email       string            `json:"email"`
	Reference   string            `json:"reference"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Channels    []string          `json:"channels,omitempty"`
	Metadata    map[string]string `json:"metadata"`
}

type initializeEnvelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

// Paystack initializes transactions. Without a base URL it hands back a
// local mock payment page.
type Paystack struct {
	http        *httpx.Client
	baseURL     string
	callbackURL string
	logger      *slog.Logger
}

func NewPaystack(cfg config.PaymentConfig, logger *slog.Logger) *Paystack {
	return &Paystack{
		http:        httpx.NewClient("paystack", cfg.Timeout, map[string]string{"Authorization": "Bearer " + cfg.Secret}),
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		callbackURL: cfg.CallbackURL,
		logger:      logger,
	}
}

func (p *Paystack) Initialize(ctx context.Context, req shared.InitializeRequest) (*shared.InitializeResult, error) {
	if p.baseURL == "" {
		return &shared.InitializeResult{
			AuthorizationURL: "/mock-payment.html?reference=" + url.QueryEscape(req.Reference),
			Reference:        req.Reference,
		}, nil
	}

	payload := initializePayload{
		Amount:      req.Amount.AmountMinor(),
		Currency:    req.Amount.Currency(),
		Email:       req.Email,
		Reference:   req.Reference,
		CallbackURL: p.callbackURL,
		Channels:    req.Channels,
		Metadata:    req.Metadata,
	}
	resp, err := p.http.Do(ctx, http.MethodPost, p.baseURL+"/transaction/initialize", payload)
	if err != nil {
		return nil, errs.Mark(err, shared.ErrPaymentUnavailable)
	}

	var env initializeEnvelope
	decodeErr := json.Unmarshal(resp.Body, &env)
	if !resp.IsSuccess() || decodeErr != nil || !env.Status || env.Data.AuthorizationURL == "" {
		p.logger.Error("Paystack initialize failed",
			slog.String("reference", req.Reference),
			slog.Int("status", resp.StatusCode),
			slog.String("body", httpx.Preview(resp.Body)))
		return nil, errs.Mark(errs.Newf("paystack initialize failed with status %d", resp.StatusCode), shared.ErrPaymentUnavailable)
	}

	reference := env.Data.Reference
	if reference == "" {
		reference = req.Reference
	}
	return &shared.InitializeResult{AuthorizationURL: env.Data.AuthorizationURL, Reference: reference}, nil
}
