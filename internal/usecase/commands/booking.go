package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"booking-engine/internal/domain/money"
	"booking-engine/internal/domain/payment"
	"booking-engine/internal/domain/quote"
	"booking-engine/internal/infra/metrics"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/shared"

	"github.com/google/uuid"
)

type BookInput struct {
	OfferID       string            `json:"offer_id"`
	SearchPrice   money.Money       `json:"-"`
	AcceptedPrice *money.Money      `json:"-"`
	Passengers    []quote.Passenger `json:"passengers"`
	Email         string            `json:"email"`
	Phone         string            `json:"phone"`
	Channel       string            `json:"channel"`
	PaymentMethod string            `json:"payment_method"`
}

type BookResult struct {
	QuoteID     uuid.UUID `json:"quote_id"`
	Reference   string    `json:"reference"`
	PaymentURL  string    `json:"payment_url"`
	AmountMinor int64     `json:"amount_minor"`
	Currency    string    `json:"currency"`
	IsReplayed  bool      `json:"-"`
}

type BookingConfig struct {
	SupportedCurrencies []string
	GatewayTimeout      time.Duration
	IdempotencyTTL      time.Duration
	CallbackURL         string
}

type BookingCommands interface {
	Book(ctx context.Context, in BookInput, idempotencyKey string) (*BookResult, error)
}

type bookingUseCaseImpl struct {
	uow     shared.UnitOfWork
	gate    PriceGate
	gateway shared.PaymentGateway
	cfg     BookingConfig
	clock   clock.Clock
	logger  *slog.Logger
}

func NewBookingUseCase(
	uow shared.UnitOfWork,
	gate PriceGate,
	gateway shared.PaymentGateway,
	cfg BookingConfig,
	clk clock.Clock,
	logger *slog.Logger,
) BookingCommands {
	return &bookingUseCaseImpl{
		uow:     uow,
		gate:    gate,
		gateway: gateway,
		cfg:     cfg,
		clock:   clk,
		logger:  logger,
	}
}

type validatedBooking struct {
	contact quote.Contact
	channel quote.Channel
	method  payment.Method
}

func (uc *bookingUseCaseImpl) Book(ctx context.Context, in BookInput, idempotencyKey string) (*BookResult, error) {
	vb, err := uc.validate(in)
	if err != nil {
		metrics.BookingsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if idempotencyKey != "" {
		replay, err := uc.reserveKey(ctx, idempotencyKey, calculateRequestHash(in))
		if err != nil {
			return nil, err
		}
		if replay != nil {
			metrics.BookingsTotal.WithLabelValues("replayed").Inc()
			return replay, nil
		}
	}

	result, err := uc.book(ctx, in, vb, idempotencyKey)
	if err != nil {
		if idempotencyKey != "" {
			uc.releaseKey(ctx, idempotencyKey)
		}
		metrics.BookingsTotal.WithLabelValues(bookResultLabel(err)).Inc()
		return nil, err
	}
	metrics.BookingsTotal.WithLabelValues("created").Inc()
	return result, nil
}

func (uc *bookingUseCaseImpl) validate(in BookInput) (*validatedBooking, error) {
	if strings.TrimSpace(in.OfferID) == "" {
		return nil, validationError(quote.ErrMissingOffer)
	}
	if len(in.Passengers) == 0 {
		return nil, validationError(quote.ErrNoPassengers)
	}
	for _, p := range in.Passengers {
		if err := p.Validate(); err != nil {
			return nil, validationError(err)
		}
	}
	contact, err := quote.NewContact(in.Email, in.Phone)
	if err != nil {
		return nil, validationError(err)
	}
	channel, err := quote.NewChannel(in.Channel)
	if err != nil {
		return nil, validationError(err)
	}
	method, err := payment.NewMethod(in.PaymentMethod)
	if err != nil {
		return nil, validationError(err)
	}
	if in.SearchPrice.AmountMinor() <= 0 {
		return nil, validationError(quote.ErrZeroPrice)
	}
	if err := payment.CheckCurrency(in.SearchPrice.Currency(), uc.cfg.SupportedCurrencies); err != nil {
		return nil, validationError(err)
	}
	return &validatedBooking{contact: contact, channel: channel, method: method}, nil
}

func (uc *bookingUseCaseImpl) reserveKey(ctx context.Context, key, requestHash string) (*BookResult, error) {
	now := uc.clock.Now()

	var entry *shared.IdempotencyEntry
	var reserved bool
	err := uc.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
		var rerr error
		entry, reserved, rerr = tx.Idempotency().Reserve(ctx, shared.OperationBook, key, requestHash, now, now.Add(uc.cfg.IdempotencyTTL))
		return rerr
	})
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if reserved {
		return nil, nil
	}

	if entry.RequestHash != requestHash {
		return nil, ErrIdempotencyKeyReuse
	}
	if !entry.IsCompleted() {
		return nil, ErrIdempotencyInProgress
	}

	var stored BookResult
	if err := json.Unmarshal(entry.Response, &stored); err != nil {
		return nil, errs.Wrap(err, "decode stored book response")
	}
	stored.IsReplayed = true
	return &stored, nil
}

func (uc *bookingUseCaseImpl) releaseKey(ctx context.Context, key string) {
	// the caller's context may already be cancelled
	ctx = context.WithoutCancel(ctx)
	err := uc.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Idempotency().Release(ctx, shared.OperationBook, key)
	})
	if err != nil {
		uc.logger.Error("failed to release idempotency key",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
}

func (uc *bookingUseCaseImpl) book(ctx context.Context, in BookInput, vb *validatedBooking, idempotencyKey string) (*BookResult, error) {
	offer, err := uc.gate.Reconfirm(ctx, in.OfferID, in.SearchPrice, in.AcceptedPrice)
	if err != nil {
		return nil, err
	}
	if err := payment.CheckCurrency(offer.Total.Currency(), uc.cfg.SupportedCurrencies); err != nil {
		return nil, validationError(err)
	}

	q, pay, err := uc.persistQuote(ctx, in, vb, offer)
	if err != nil {
		return nil, err
	}

	initResult, err := uc.initializePayment(ctx, q, vb.method)
	if err != nil {
		// the quote stays awaiting_payment and is expired by the sweep
		uc.logger.Warn("payment initialization failed",
			slog.String("quote_id", q.ID().String()),
			slog.String("reference", q.GatewayReference()),
			slog.String("error", err.Error()))
		return nil, errs.Mark(err, ErrPaymentUnavailable)
	}

	result := &BookResult{
		QuoteID:     q.ID(),
		Reference:   q.GatewayReference(),
		PaymentURL:  initResult.AuthorizationURL,
		AmountMinor: q.Price().AmountMinor(),
		Currency:    q.Price().Currency(),
	}
	response, err := json.Marshal(result)
	if err != nil {
		return nil, errs.Wrap(err, "encode book response")
	}

	err = uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		pay.AttachAuthorizationURL(initResult.AuthorizationURL, uc.clock.Now())
		if err := tx.Payments().Update(ctx, pay); err != nil {
			return err
		}
		if idempotencyKey == "" {
			return nil
		}
		return tx.Idempotency().Complete(ctx, shared.OperationBook, idempotencyKey, response, uc.clock.Now())
	})
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	uc.logger.Info("quote created",
		slog.String("quote_id", q.ID().String()),
		slog.String("reference", q.GatewayReference()),
		slog.String("price", q.Price().String()))
	return result, nil
}

func (uc *bookingUseCaseImpl) persistQuote(ctx context.Context, in BookInput, vb *validatedBooking, offer *shared.PricedOffer) (*quote.Quote, *payment.Payment, error) {
	snapshot, err := quote.NewOffer(in.OfferID, offer.Raw)
	if err != nil {
		return nil, nil, validationError(err)
	}

	now := uc.clock.Now()
	reference := payment.NewReference()
	q, err := quote.NewQuote(snapshot, offer.Total, vb.contact, in.Passengers, vb.channel, reference, now)
	if err != nil {
		return nil, nil, validationError(err)
	}
	pay, err := payment.NewPayment(q.ID(), reference, offer.Total, vb.method, now)
	if err != nil {
		return nil, nil, validationError(err)
	}

	err = uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.Quotes().Create(ctx, q); err != nil {
			return err
		}
		return tx.Payments().Create(ctx, pay)
	})
	if err != nil {
		return nil, nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return q, pay, nil
}

func (uc *bookingUseCaseImpl) initializePayment(ctx context.Context, q *quote.Quote, method payment.Method) (*shared.InitializeResult, error) {
	if uc.cfg.GatewayTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.cfg.GatewayTimeout)
		defer cancel()
	}

	res, err := uc.gateway.Initialize(ctx, shared.InitializeRequest{
		Amount:    q.Price(),
		Reference: q.GatewayReference(),
		Email:     q.Contact().Email(),
		Channels:  gatewayChannels(method),
		Metadata: map[string]string{
			"quote_id":        q.ID().String(),
			"payment_method":  string(method),
			"booking_channel": string(q.Channel()),
			"customer_email":  q.Contact().Email(),
			"customer_phone":  q.Contact().Phone(),
		},
	})
	if err != nil {
		return nil, err
	}
	if res == nil || res.AuthorizationURL == "" {
		return nil, errs.New("gateway returned no authorization url")
	}
	return res, nil
}

func gatewayChannels(method payment.Method) []string {
	switch method {
	case payment.MethodBank:
		return []string{"bank", "bank_transfer"}
	case payment.MethodUSSD:
		return []string{"ussd"}
	default:
		return []string{"card"}
	}
}

type requestFingerprint struct {
	BookInput
	SearchMinor    int64  `json:"search_minor"`
	SearchCurrency string `json:"search_currency"`
	AcceptedMinor  *int64 `json:"accepted_minor,omitempty"`
}

func calculateRequestHash(in BookInput) string {
	fp := requestFingerprint{
		BookInput:      in,
		SearchMinor:    in.SearchPrice.AmountMinor(),
		SearchCurrency: in.SearchPrice.Currency(),
	}
	if in.AcceptedPrice != nil {
		v := in.AcceptedPrice.AmountMinor()
		fp.AcceptedMinor = &v
	}
	data, _ := json.Marshal(fp)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

func bookResultLabel(err error) string {
	var priceErr *PriceChangedError
	switch {
	case errs.As(err, &priceErr):
		return "price_changed"
	case errs.Is(err, ErrValidation):
		return "invalid"
	case errs.Is(err, ErrContentUnavailable):
		return "content_unavailable"
	case errs.Is(err, ErrPaymentUnavailable):
		return "payment_unavailable"
	default:
		return "error"
	}
}
