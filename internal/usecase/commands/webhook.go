package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"booking-engine/internal/domain/money"
	"booking-engine/internal/domain/payment"
	"booking-engine/internal/domain/quote"
	"booking-engine/internal/domain/ticketing"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/metrics"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/shared"

	"github.com/google/uuid"
)

type WebhookInput struct {
	Body      []byte
	Signature string
	EventID   string
}

// WebhookResult is identical for every delivery of the same event.
type WebhookResult struct {
	Status   string          `json:"status"`
	Outcome  payment.Outcome `json:"outcome"`
	Replayed bool            `json:"-"`
}

type WebhookConfig struct {
	Secret                 string
	AmountTolerancePercent float64
	QuoteExpiry            time.Duration
	TicketingHorizon       time.Duration
	DedupTTL               time.Duration
}

type WebhookCommands interface {
	Handle(ctx context.Context, in WebhookInput) (*WebhookResult, error)
}

type webhookUseCaseImpl struct {
	uow       shared.UnitOfWork
	publisher shared.SignalPublisher
	escalator shared.Escalator
	cfg       WebhookConfig
	clock     clock.Clock
	logger    *slog.Logger
}

func NewWebhookUseCase(
	uow shared.UnitOfWork,
	publisher shared.SignalPublisher,
	escalator shared.Escalator,
	cfg WebhookConfig,
	clk clock.Clock,
	logger *slog.Logger,
) WebhookCommands {
	return &webhookUseCaseImpl{
		uow:       uow,
		publisher: publisher,
		escalator: escalator,
		cfg:       cfg,
		clock:     clk,
		logger:    logger,
	}
}

// applied is what one delivery did, kept for the after-commit side effects.
type applied struct {
	outcome   payment.Outcome
	quoteID   *uuid.UUID
	reference string
	detail    string
	paidAt    time.Time
}

func (uc *webhookUseCaseImpl) Handle(ctx context.Context, in WebhookInput) (*WebhookResult, error) {
	if !payment.VerifySignature(uc.cfg.Secret, in.Body, in.Signature) {
		metrics.WebhookSignatureFailuresTotal.Inc()
		uc.logger.Warn("webhook signature rejected", slog.String("event_id", in.EventID))
		return nil, ErrInvalidSignature
	}

	key := payment.DedupKey(in.EventID, in.Body)
	bodyHash := sha256.Sum256(in.Body)
	requestHash := hex.EncodeToString(bodyHash[:])
	ev, parseErr := payment.ParseEvent(in.Body)

	var result *WebhookResult
	var effect *applied
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		result, effect = nil, nil
		now := uc.clock.Now()

		entry, reserved, err := tx.Idempotency().Reserve(ctx, shared.OperationPaymentWebhook, key, requestHash, now, now.Add(uc.cfg.DedupTTL))
		if err != nil {
			return err
		}
		if !reserved {
			replay, err := uc.replay(entry, requestHash, key)
			if err != nil {
				return err
			}
			result = replay
			return nil
		}

		a, err := uc.apply(ctx, tx, ev, parseErr, now)
		if err != nil {
			return err
		}

		eventType := "malformed"
		if ev != nil && ev.Type() != "" {
			eventType = ev.Type()
		}
		rec, err := payment.NewEventRecord(key, eventType, a.reference, a.quoteID, a.outcome, a.detail, in.Body, now)
		if err != nil {
			return err
		}
		inserted, err := tx.PaymentEvents().Insert(ctx, rec)
		if err != nil {
			return err
		}
		if !inserted {
			// ledger entry was purged but the event itself is on file
			a = &applied{outcome: payment.OutcomeAlreadyApplied, quoteID: a.quoteID, reference: a.reference}
		}

		result = &WebhookResult{Status: "ok", Outcome: a.outcome}
		response, err := json.Marshal(result)
		if err != nil {
			return errs.Wrap(err, "encode webhook response")
		}
		if err := tx.Idempotency().Complete(ctx, shared.OperationPaymentWebhook, key, response, now); err != nil {
			return err
		}
		effect = a
		return nil
	})
	if err != nil {
		if errs.Is(err, ErrIdempotencyInProgress) {
			return nil, err
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	metrics.WebhookEventsTotal.WithLabelValues(string(result.Outcome), strconv.FormatBool(result.Replayed)).Inc()
	if effect != nil {
		uc.afterCommit(ctx, effect)
	}
	return result, nil
}

func (uc *webhookUseCaseImpl) replay(entry *shared.IdempotencyEntry, requestHash, key string) (*WebhookResult, error) {
	if !entry.IsCompleted() {
		return nil, ErrIdempotencyInProgress
	}
	if entry.RequestHash != requestHash {
		uc.logger.Warn("webhook redelivered with a different body", slog.String("dedup_key", key))
	}
	var stored WebhookResult
	if err := json.Unmarshal(entry.Response, &stored); err != nil {
		return nil, errs.Wrap(err, "decode stored webhook response")
	}
	stored.Replayed = true
	return &stored, nil
}

func (uc *webhookUseCaseImpl) apply(ctx context.Context, tx shared.Tx, ev payment.Event, parseErr error, now time.Time) (*applied, error) {
	if parseErr != nil {
		return &applied{outcome: payment.OutcomeMalformed, detail: parseErr.Error()}, nil
	}

	switch e := ev.(type) {
	case payment.ChargeSuccess:
		return uc.applySuccess(ctx, tx, e, now)
	case payment.ChargeFailed:
		return uc.applyFailure(ctx, tx, e, now)
	case payment.Unrecognized:
		if e.Type() == payment.EventChargeSuccess {
			return &applied{outcome: payment.OutcomeMalformed, reference: e.Reference(), detail: "charge.success without usable reference or amount"}, nil
		}
		return &applied{outcome: payment.OutcomeIgnored, reference: e.Reference(), detail: "unhandled event " + e.Type()}, nil
	default:
		return &applied{outcome: payment.OutcomeIgnored}, nil
	}
}

func (uc *webhookUseCaseImpl) applySuccess(ctx context.Context, tx shared.Tx, e payment.ChargeSuccess, now time.Time) (*applied, error) {
	a := &applied{reference: e.Reference(), paidAt: now}

	q, err := tx.Quotes().FindByReferenceForUpdate(ctx, e.Reference())
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			a.outcome = payment.OutcomeUnknownReference
			return a, nil
		}
		return nil, err
	}
	id := q.ID()
	a.quoteID = &id

	switch q.Status() {
	case quote.StatusPaid, quote.StatusTicketed:
		a.outcome = payment.OutcomeAlreadyApplied
		return a, nil
	case quote.StatusExpired:
		a.outcome = payment.OutcomeExpiredQuote
		a.detail = "payment received for expired quote"
		return a, nil
	case quote.StatusFailed, quote.StatusCancelled:
		a.outcome = payment.OutcomeInvalidState
		a.detail = "payment received for " + q.Status().String() + " quote"
		return a, nil
	}

	if q.IsPastExpiry(now, uc.cfg.QuoteExpiry) {
		a.outcome = payment.OutcomePaymentAfterExpiry
		a.detail = "payment arrived after the quote expiry horizon"
		return a, nil
	}

	from := q.Status()
	if err := q.MarkPaid(e.Amount(), uc.cfg.AmountTolerancePercent, now); err != nil {
		switch {
		case errs.Is(err, quote.ErrAmountMismatch):
			a.outcome = payment.OutcomeAmountMismatch
			a.detail = "paid " + e.Amount().String() + ", quoted " + q.Price().String()
		case errs.Is(err, quote.ErrExpiredQuote):
			a.outcome = payment.OutcomeExpiredQuote
		default:
			a.outcome = payment.OutcomeInvalidState
			a.detail = err.Error()
		}
		return a, nil
	}
	if err := tx.Quotes().UpdateStatus(ctx, q, from); err != nil {
		return nil, err
	}

	if err := uc.markPayment(ctx, tx, e.Reference(), e.Amount(), now, true); err != nil {
		return nil, err
	}

	task := ticketing.NewTask(q.ID(), now, uc.cfg.TicketingHorizon)
	if _, err := tx.TicketingTasks().Enqueue(ctx, task); err != nil {
		return nil, err
	}

	a.outcome = payment.OutcomeApplied
	return a, nil
}

func (uc *webhookUseCaseImpl) applyFailure(ctx context.Context, tx shared.Tx, e payment.ChargeFailed, now time.Time) (*applied, error) {
	a := &applied{reference: e.Reference(), outcome: payment.OutcomePaymentFailed, detail: e.Reason()}

	q, err := tx.Quotes().FindByReferenceForUpdate(ctx, e.Reference())
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			a.outcome = payment.OutcomeUnknownReference
			return a, nil
		}
		return nil, err
	}
	id := q.ID()
	a.quoteID = &id

	if q.Status() == quote.StatusAwaitingPayment {
		if err := uc.markPayment(ctx, tx, e.Reference(), money.Money{}, now, false); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (uc *webhookUseCaseImpl) markPayment(
	ctx context.Context,
	tx shared.Tx,
	reference string,
	paid money.Money,
	now time.Time,
	succeeded bool,
) error {
	p, err := tx.Payments().FindByReference(ctx, reference)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			uc.logger.Warn("quote has no payment row", slog.String("reference", reference))
			return nil
		}
		return err
	}

	if succeeded {
		err = p.MarkSucceeded(paid, now)
	} else {
		err = p.MarkFailed(now)
	}
	if err != nil {
		uc.logger.Warn("payment already finalized",
			slog.String("reference", reference),
			slog.String("status", string(p.Status())))
		return nil
	}
	return tx.Payments().Update(ctx, p)
}

func (uc *webhookUseCaseImpl) afterCommit(ctx context.Context, a *applied) {
	ctx = context.WithoutCancel(ctx)

	if a.outcome == payment.OutcomeApplied && a.quoteID != nil {
		if err := uc.publisher.PublishQuotePaid(ctx, shared.PaidSignal{QuoteID: *a.quoteID, PaidAt: a.paidAt}); err != nil {
			// the poller and the sweep pick the task up anyway
			uc.logger.Warn("failed to publish quote paid signal",
				slog.String("quote_id", a.quoteID.String()),
				slog.String("error", err.Error()))
		}
		return
	}

	if !a.outcome.IsAnomaly() {
		return
	}
	uc.logger.Warn("webhook anomaly",
		slog.String("outcome", string(a.outcome)),
		slog.String("reference", a.reference),
		slog.String("detail", a.detail))

	kind := escalationKind(a.outcome)
	if kind == "" {
		return
	}
	esc := shared.Escalation{
		Kind:       kind,
		QuoteID:    a.quoteID,
		Reference:  a.reference,
		Reason:     a.detail,
		OccurredAt: uc.clock.Now(),
	}
	if err := uc.escalator.Escalate(ctx, esc); err != nil {
		uc.logger.Error("failed to escalate webhook anomaly",
			slog.String("kind", kind),
			slog.String("error", err.Error()))
	}
}

func escalationKind(o payment.Outcome) string {
	switch o {
	case payment.OutcomeAmountMismatch:
		return shared.EscalationAmountMismatch
	case payment.OutcomeUnknownReference:
		return shared.EscalationUnknownReference
	case payment.OutcomeExpiredQuote:
		return shared.EscalationExpiredQuote
	case payment.OutcomePaymentAfterExpiry:
		return shared.EscalationPaymentAfterExpiry
	case payment.OutcomeInvalidState:
		return shared.EscalationInvalidState
	default:
		return ""
	}
}
