package commands

import (
	"context"
	"log/slog"
	"time"

	"booking-engine/internal/domain/money"
	"booking-engine/internal/domain/quote"
	"booking-engine/internal/domain/ticketing"
	"booking-engine/internal/domain/trip"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/metrics"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/shared"

	"github.com/google/uuid"
)

type Trigger string

const (
	TriggerSignal Trigger = "signal"
	TriggerPoll   Trigger = "poll"
	TriggerSweep  Trigger = "sweep"
	// TriggerManual ignores the backoff schedule but not the attempt budget.
	TriggerManual Trigger = "manual"
)

type IssueOutcome string

const (
	IssueTicketed        IssueOutcome = "ticketed"
	IssueAlreadyTicketed IssueOutcome = "already_ticketed"
	IssueRetryScheduled  IssueOutcome = "retry_scheduled"
	IssueFailed          IssueOutcome = "failed"
	IssueCancelled       IssueOutcome = "cancelled"
	IssueNotDue          IssueOutcome = "not_due"
)

type IssueResult struct {
	QuoteID       uuid.UUID
	Outcome       IssueOutcome
	QuoteStatus   quote.Status
	Trip          *trip.Trip
	Attempts      int
	NextAttemptAt *time.Time
	LastError     string
}

type TicketingConfig struct {
	Policy          ticketing.RetryPolicy
	LeaseTTL        time.Duration
	SupplierTimeout time.Duration
	Horizon         time.Duration
}

type TicketingCommands interface {
	Issue(ctx context.Context, quoteID uuid.UUID, trigger Trigger) (*IssueResult, error)
}

// LeaseKey is the lock guarding every ticketing-side mutation of one quote.
func LeaseKey(quoteID uuid.UUID) string {
	return "lock:quote:" + quoteID.String()
}

type ticketingUseCaseImpl struct {
	uow       shared.UnitOfWork
	locker    shared.Locker
	supplier  shared.SupplierIssuer
	notifier  shared.Notifier
	escalator shared.Escalator
	cfg       TicketingConfig
	clock     clock.Clock
	logger    *slog.Logger
}

func NewTicketingUseCase(
	uow shared.UnitOfWork,
	locker shared.Locker,
	supplier shared.SupplierIssuer,
	notifier shared.Notifier,
	escalator shared.Escalator,
	cfg TicketingConfig,
	clk clock.Clock,
	logger *slog.Logger,
) TicketingCommands {
	return &ticketingUseCaseImpl{
		uow:       uow,
		locker:    locker,
		supplier:  supplier,
		notifier:  notifier,
		escalator: escalator,
		cfg:       cfg,
		clock:     clk,
		logger:    logger,
	}
}

type preparedAttempt struct {
	quote      *quote.Quote
	paid       money.Money
	attempts   int
	done       *IssueResult
	escalation *shared.Escalation
}

func (uc *ticketingUseCaseImpl) Issue(ctx context.Context, quoteID uuid.UUID, trigger Trigger) (*IssueResult, error) {
	lease, err := uc.locker.Acquire(ctx, LeaseKey(quoteID), uc.cfg.LeaseTTL)
	if err != nil {
		if errs.Is(err, shared.ErrLockNotAcquired) {
			return nil, ErrTicketingInProgress
		}
		return nil, errs.Wrap(err, "acquire ticketing lease")
	}
	defer uc.release(ctx, lease, quoteID)

	prep, err := uc.prepare(ctx, quoteID, trigger)
	if err != nil {
		return nil, err
	}
	if prep.done != nil {
		uc.escalate(ctx, prep.escalation)
		return prep.done, nil
	}

	order, callErr := uc.callSupplier(ctx, prep)

	// the supplier outcome is recorded even when the caller has gone away
	settle := context.WithoutCancel(ctx)
	if callErr == nil {
		var tr *trip.Trip
		tr, callErr = trip.NewTrip(quoteID, order.OrderID, order.PNR, order.ETickets, order.Raw, uc.clock.Now())
		if callErr == nil {
			return uc.complete(settle, prep.quote, tr, prep.attempts)
		}
		callErr = ticketing.Retryable("supplier returned an incomplete order: " + callErr.Error())
	}

	var rejected *ticketing.RejectedError
	if errs.As(callErr, &rejected) {
		metrics.TicketingAttemptsTotal.WithLabelValues("rejected").Inc()
		return uc.giveUp(settle, quoteID, shared.EscalationTicketingRejected, rejected.Error())
	}
	metrics.TicketingAttemptsTotal.WithLabelValues("retryable").Inc()
	return uc.scheduleRetry(settle, quoteID, callErr)
}

func (uc *ticketingUseCaseImpl) prepare(ctx context.Context, quoteID uuid.UUID, trigger Trigger) (*preparedAttempt, error) {
	var prep *preparedAttempt
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		prep = &preparedAttempt{}
		now := uc.clock.Now()

		q, err := tx.Quotes().FindByIDForUpdate(ctx, quoteID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrQuoteNotFound
			}
			return err
		}

		existing, err := tx.Trips().FindByQuoteID(ctx, quoteID)
		if err != nil && !infra.IsKind(err, infra.KindNotFound) {
			return err
		}
		if existing != nil {
			prep.done = &IssueResult{QuoteID: quoteID, Outcome: IssueAlreadyTicketed, QuoteStatus: q.Status(), Trip: existing}
			return nil
		}

		switch q.Status() {
		case quote.StatusFailed:
			prep.done = &IssueResult{QuoteID: quoteID, Outcome: IssueFailed, QuoteStatus: q.Status()}
			return nil
		case quote.StatusCancelled:
			prep.done = &IssueResult{QuoteID: quoteID, Outcome: IssueCancelled, QuoteStatus: q.Status()}
			return nil
		case quote.StatusPaid:
		default:
			return errs.Wrapf(ErrQuoteNotPaid, "quote is %s", q.Status())
		}

		task, err := uc.loadOrEnqueue(ctx, tx, q)
		if err != nil {
			return err
		}
		if task.Status() != ticketing.TaskPending {
			return errs.Newf("ticketing task for paid quote %s is %s", quoteID, task.Status())
		}

		if ok, reason := uc.cfg.Policy.CanAttempt(task, now); !ok {
			esc, err := uc.failInTx(ctx, tx, q, task, shared.EscalationTicketingExhausted, reason, now)
			if err != nil {
				return err
			}
			prep.done = &IssueResult{QuoteID: quoteID, Outcome: IssueFailed, QuoteStatus: q.Status(), Attempts: task.Attempts(), LastError: task.LastError()}
			prep.escalation = esc
			return nil
		}

		if trigger != TriggerManual && !task.IsDue(now) {
			next := task.NextAttemptAt()
			prep.done = &IssueResult{QuoteID: quoteID, Outcome: IssueNotDue, QuoteStatus: q.Status(), Attempts: task.Attempts(), NextAttemptAt: &next, LastError: task.LastError()}
			return nil
		}

		paid, err := uc.paidAmount(ctx, tx, q)
		if err != nil {
			return err
		}

		// counted before the call so a crash mid-call still consumes budget
		if err := task.BeginAttempt(now); err != nil {
			return err
		}
		if err := tx.TicketingTasks().Update(ctx, task); err != nil {
			return err
		}
		prep.quote = q
		prep.paid = paid
		prep.attempts = task.Attempts()
		return nil
	})
	if err != nil {
		if errs.Is(err, ErrQuoteNotFound) || errs.Is(err, ErrQuoteNotPaid) {
			return nil, err
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return prep, nil
}

func (uc *ticketingUseCaseImpl) loadOrEnqueue(ctx context.Context, tx shared.Tx, q *quote.Quote) (*ticketing.Task, error) {
	task, err := tx.TicketingTasks().FindByQuoteIDForUpdate(ctx, q.ID())
	if err == nil {
		return task, nil
	}
	if !infra.IsKind(err, infra.KindNotFound) {
		return nil, err
	}

	uc.logger.Warn("paid quote had no ticketing task", slog.String("quote_id", q.ID().String()))
	task = ticketing.NewTask(q.ID(), q.StatusChangedAt(), uc.cfg.Horizon)
	if _, err := tx.TicketingTasks().Enqueue(ctx, task); err != nil {
		return nil, err
	}
	return tx.TicketingTasks().FindByQuoteIDForUpdate(ctx, q.ID())
}

// paidAmount is what the gateway confirmed for the quote, falling back to the
// quoted price when no confirmed payment row exists.
func (uc *ticketingUseCaseImpl) paidAmount(ctx context.Context, tx shared.Tx, q *quote.Quote) (money.Money, error) {
	p, err := tx.Payments().FindByReference(ctx, q.GatewayReference())
	if err != nil && !infra.IsKind(err, infra.KindNotFound) {
		return money.Money{}, err
	}
	if p == nil || p.PaidAmount().IsZero() {
		uc.logger.Warn("paid quote has no confirmed payment amount",
			slog.String("quote_id", q.ID().String()),
			slog.String("reference", q.GatewayReference()))
		return q.Price(), nil
	}
	return p.PaidAmount(), nil
}

func (uc *ticketingUseCaseImpl) callSupplier(ctx context.Context, prep *preparedAttempt) (*shared.SupplierOrder, error) {
	if uc.cfg.SupplierTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.cfg.SupplierTimeout)
		defer cancel()
	}

	q := prep.quote
	order, err := uc.supplier.Issue(ctx, shared.IssueRequest{
		QuoteID:          q.ID(),
		Reference:        q.GatewayReference(),
		IdempotencyToken: q.IdempotencyToken(),
		Amount:           prep.paid,
		OfferSnapshot:    q.Offer().Snapshot(),
		Passengers:       q.Passengers(),
	})
	if err != nil {
		if ticketing.IsRejected(err) || ticketing.IsRetryable(err) {
			return nil, err
		}
		// timeouts, transport failures and anything unclassified are retried
		return nil, ticketing.Retryable(err.Error())
	}
	if order == nil {
		return nil, ticketing.Retryable("supplier returned no order")
	}
	return order, nil
}

func (uc *ticketingUseCaseImpl) complete(ctx context.Context, q *quote.Quote, tr *trip.Trip, attempts int) (*IssueResult, error) {
	var stored *trip.Trip
	var status quote.Status
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		now := uc.clock.Now()

		inserted, err := tx.Trips().Insert(ctx, tr)
		if err != nil {
			return err
		}
		stored = tr
		if !inserted {
			if stored, err = tx.Trips().FindByQuoteID(ctx, q.ID()); err != nil {
				return err
			}
		}

		current, err := tx.Quotes().FindByIDForUpdate(ctx, q.ID())
		if err != nil {
			return err
		}
		if current.Status() == quote.StatusPaid {
			if err := current.MarkTicketed(now); err != nil {
				return err
			}
			if err := tx.Quotes().UpdateStatus(ctx, current, quote.StatusPaid); err != nil {
				return err
			}
		} else if current.Status() != quote.StatusTicketed {
			uc.logger.Error("trip issued for quote that is no longer paid",
				slog.String("quote_id", q.ID().String()),
				slog.String("status", current.Status().String()))
		}
		status = current.Status()

		task, err := tx.TicketingTasks().FindByQuoteIDForUpdate(ctx, q.ID())
		if err != nil {
			return err
		}
		task.Complete(now)
		return tx.TicketingTasks().Update(ctx, task)
	})
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	metrics.TicketingAttemptsTotal.WithLabelValues("ticketed").Inc()

	uc.logger.Info("quote ticketed",
		slog.String("quote_id", q.ID().String()),
		slog.String("pnr", stored.PNR()),
		slog.Int("attempts", attempts))

	notification := shared.TripNotification{
		QuoteID:  q.ID(),
		TripID:   stored.ID(),
		Email:    q.Contact().Email(),
		Phone:    q.Contact().Phone(),
		Channel:  string(q.Channel()),
		PNR:      stored.PNR(),
		ETickets: stored.ETickets(),
	}
	if err := uc.notifier.Notify(context.WithoutCancel(ctx), notification); err != nil {
		uc.logger.Warn("failed to send trip notification",
			slog.String("quote_id", q.ID().String()),
			slog.String("error", err.Error()))
	}

	return &IssueResult{QuoteID: q.ID(), Outcome: IssueTicketed, QuoteStatus: status, Trip: stored, Attempts: attempts}, nil
}

func (uc *ticketingUseCaseImpl) scheduleRetry(ctx context.Context, quoteID uuid.UUID, cause error) (*IssueResult, error) {
	var result *IssueResult
	var esc *shared.Escalation
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		now := uc.clock.Now()
		task, err := tx.TicketingTasks().FindByQuoteIDForUpdate(ctx, quoteID)
		if err != nil {
			return err
		}

		decision := uc.cfg.Policy.Decide(task, now)
		if decision.Action == ticketing.ActionRetry {
			task.ScheduleRetry(decision.NextAt, cause.Error(), now)
			if err := tx.TicketingTasks().Update(ctx, task); err != nil {
				return err
			}
			next := decision.NextAt
			result = &IssueResult{QuoteID: quoteID, Outcome: IssueRetryScheduled, QuoteStatus: quote.StatusPaid, Attempts: task.Attempts(), NextAttemptAt: &next, LastError: cause.Error()}
			return nil
		}

		q, err := tx.Quotes().FindByIDForUpdate(ctx, quoteID)
		if err != nil {
			return err
		}
		esc, err = uc.failInTx(ctx, tx, q, task, shared.EscalationTicketingExhausted, decision.Exhausted+": "+cause.Error(), now)
		if err != nil {
			return err
		}
		result = &IssueResult{QuoteID: quoteID, Outcome: IssueFailed, QuoteStatus: q.Status(), Attempts: task.Attempts(), LastError: task.LastError()}
		return nil
	})
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	if result.Outcome == IssueRetryScheduled {
		uc.logger.Warn("ticketing attempt failed, retry scheduled",
			slog.String("quote_id", quoteID.String()),
			slog.Int("attempts", result.Attempts),
			slog.Time("next_attempt_at", *result.NextAttemptAt),
			slog.String("error", cause.Error()))
	}
	uc.escalate(ctx, esc)
	return result, nil
}

func (uc *ticketingUseCaseImpl) giveUp(ctx context.Context, quoteID uuid.UUID, kind, reason string) (*IssueResult, error) {
	var result *IssueResult
	var esc *shared.Escalation
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		now := uc.clock.Now()
		q, err := tx.Quotes().FindByIDForUpdate(ctx, quoteID)
		if err != nil {
			return err
		}
		task, err := tx.TicketingTasks().FindByQuoteIDForUpdate(ctx, quoteID)
		if err != nil {
			return err
		}
		esc, err = uc.failInTx(ctx, tx, q, task, kind, reason, now)
		if err != nil {
			return err
		}
		result = &IssueResult{QuoteID: quoteID, Outcome: IssueFailed, QuoteStatus: q.Status(), Attempts: task.Attempts(), LastError: reason}
		return nil
	})
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	uc.escalate(ctx, esc)
	return result, nil
}

// failInTx closes the task and fails the quote. The escalation is returned
// so it is only emitted after commit.
func (uc *ticketingUseCaseImpl) failInTx(ctx context.Context, tx shared.Tx, q *quote.Quote, task *ticketing.Task, kind, reason string, now time.Time) (*shared.Escalation, error) {
	task.Fail(reason, now)
	if err := tx.TicketingTasks().Update(ctx, task); err != nil {
		return nil, err
	}
	if q.Status() == quote.StatusPaid {
		if err := q.MarkFailed(now); err != nil {
			return nil, err
		}
		if err := tx.Quotes().UpdateStatus(ctx, q, quote.StatusPaid); err != nil {
			return nil, err
		}
	}
	id := q.ID()
	return &shared.Escalation{
		Kind:       kind,
		QuoteID:    &id,
		Reference:  q.GatewayReference(),
		Reason:     reason,
		OccurredAt: now,
	}, nil
}

func (uc *ticketingUseCaseImpl) escalate(ctx context.Context, esc *shared.Escalation) {
	if esc == nil {
		return
	}
	uc.logger.Error("ticketing escalated",
		slog.String("kind", esc.Kind),
		slog.String("reference", esc.Reference),
		slog.String("reason", esc.Reason))
	if err := uc.escalator.Escalate(context.WithoutCancel(ctx), *esc); err != nil {
		uc.logger.Error("failed to publish escalation",
			slog.String("kind", esc.Kind),
			slog.String("error", err.Error()))
	}
}

func (uc *ticketingUseCaseImpl) release(ctx context.Context, lease shared.Lease, quoteID uuid.UUID) {
	if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
		uc.logger.Warn("failed to release ticketing lease",
			slog.String("quote_id", quoteID.String()),
			slog.String("error", err.Error()))
	}
}
