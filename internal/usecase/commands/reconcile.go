package commands

import (
	"context"
	"log/slog"
	"time"

	"booking-engine/internal/domain/quote"
	"booking-engine/internal/domain/ticketing"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/metrics"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/shared"

	"github.com/google/uuid"
)

type SweepReport struct {
	Expired  int `json:"expired"`
	Requeued int `json:"requeued"`
	Failed   int `json:"failed"`
	Enqueued int `json:"enqueued"`
	Purged   int `json:"purged"`
}

type SweepConfig struct {
	QuoteExpiry time.Duration
	StuckAfter  time.Duration
	BatchSize   int
	Ticketing   TicketingConfig
}

type ReconcileCommands interface {
	Sweep(ctx context.Context) (*SweepReport, error)
}

type reconcileUseCaseImpl struct {
	uow       shared.UnitOfWork
	locker    shared.Locker
	publisher shared.SignalPublisher
	escalator shared.Escalator
	cfg       SweepConfig
	clock     clock.Clock
	logger    *slog.Logger
}

func NewReconcileUseCase(
	uow shared.UnitOfWork,
	locker shared.Locker,
	publisher shared.SignalPublisher,
	escalator shared.Escalator,
	cfg SweepConfig,
	clk clock.Clock,
	logger *slog.Logger,
) ReconcileCommands {
	return &reconcileUseCaseImpl{
		uow:       uow,
		locker:    locker,
		publisher: publisher,
		escalator: escalator,
		cfg:       cfg,
		clock:     clk,
		logger:    logger,
	}
}

type repairAction int

const (
	repairNone repairAction = iota
	repairEnqueued
	repairRequeued
	repairFailed
)

// Sweep is safe to run concurrently and arbitrarily often.
func (uc *reconcileUseCaseImpl) Sweep(ctx context.Context) (*SweepReport, error) {
	report := &SweepReport{}

	expired, err := uc.expireQuotes(ctx)
	if err != nil {
		return nil, err
	}
	report.Expired = expired

	stuck, err := uc.listStuck(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range stuck {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		action, err := uc.repair(ctx, id)
		if err != nil {
			uc.logger.Error("sweep repair failed",
				slog.String("quote_id", id.String()),
				slog.String("error", err.Error()))
			continue
		}
		switch action {
		case repairEnqueued:
			report.Enqueued++
		case repairRequeued:
			report.Requeued++
		case repairFailed:
			report.Failed++
		}
	}

	err = uc.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
		n, err := tx.Idempotency().DeleteExpired(ctx, uc.clock.Now())
		report.Purged = int(n)
		return err
	})
	if err != nil {
		uc.logger.Warn("failed to purge expired idempotency keys", slog.String("error", err.Error()))
	}

	metrics.SweepActionsTotal.WithLabelValues("expired").Add(float64(report.Expired))
	metrics.SweepActionsTotal.WithLabelValues("enqueued").Add(float64(report.Enqueued))
	metrics.SweepActionsTotal.WithLabelValues("requeued").Add(float64(report.Requeued))
	metrics.SweepActionsTotal.WithLabelValues("failed").Add(float64(report.Failed))

	if report.Expired+report.Enqueued+report.Requeued+report.Failed > 0 {
		uc.logger.Info("reconciliation sweep repaired quotes",
			slog.Int("expired", report.Expired),
			slog.Int("enqueued", report.Enqueued),
			slog.Int("requeued", report.Requeued),
			slog.Int("failed", report.Failed))
	}
	return report, nil
}

func (uc *reconcileUseCaseImpl) expireQuotes(ctx context.Context) (int, error) {
	var count int
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		count = 0
		now := uc.clock.Now()
		quotes, err := tx.Quotes().ListExpirable(ctx, now.Add(-uc.cfg.QuoteExpiry), uc.cfg.BatchSize)
		if err != nil {
			return err
		}
		for _, q := range quotes {
			if err := q.Expire(now); err != nil {
				continue
			}
			if err := tx.Quotes().UpdateStatus(ctx, q, quote.StatusAwaitingPayment); err != nil {
				if errs.Is(err, shared.ErrStaleWrite) {
					continue
				}
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return count, nil
}

func (uc *reconcileUseCaseImpl) listStuck(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := uc.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
		quotes, err := tx.Quotes().ListStuckPaid(ctx, uc.clock.Now().Add(-uc.cfg.StuckAfter), uc.cfg.BatchSize)
		if err != nil {
			return err
		}
		for _, q := range quotes {
			ids = append(ids, q.ID())
		}
		return nil
	})
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return ids, nil
}

// repair takes the ticketing lease so it never races an attempt in flight.
func (uc *reconcileUseCaseImpl) repair(ctx context.Context, quoteID uuid.UUID) (repairAction, error) {
	lease, err := uc.locker.Acquire(ctx, LeaseKey(quoteID), uc.cfg.Ticketing.LeaseTTL)
	if err != nil {
		if errs.Is(err, shared.ErrLockNotAcquired) {
			return repairNone, nil
		}
		return repairNone, err
	}
	defer func() {
		if rerr := lease.Release(context.WithoutCancel(ctx)); rerr != nil {
			uc.logger.Warn("failed to release lease", slog.String("quote_id", quoteID.String()), slog.String("error", rerr.Error()))
		}
	}()

	action := repairNone
	var esc *shared.Escalation
	err = uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		action, esc = repairNone, nil
		now := uc.clock.Now()

		q, err := tx.Quotes().FindByIDForUpdate(ctx, quoteID)
		if err != nil {
			return err
		}
		if q.Status() != quote.StatusPaid {
			return nil
		}
		if _, err := tx.Trips().FindByQuoteID(ctx, quoteID); err == nil {
			// the trip exists, only the status flip was lost
			if err := q.MarkTicketed(now); err != nil {
				return err
			}
			return tx.Quotes().UpdateStatus(ctx, q, quote.StatusPaid)
		} else if !infra.IsKind(err, infra.KindNotFound) {
			return err
		}

		task, err := tx.TicketingTasks().FindByQuoteIDForUpdate(ctx, quoteID)
		if err != nil {
			if !infra.IsKind(err, infra.KindNotFound) {
				return err
			}
			task = ticketing.NewTask(quoteID, q.StatusChangedAt(), uc.cfg.Ticketing.Horizon)
			task.MakeDue(now)
			if _, err := tx.TicketingTasks().Enqueue(ctx, task); err != nil {
				return err
			}
			action = repairEnqueued
			return nil
		}

		if task.Status() == ticketing.TaskPending {
			if ok, _ := uc.cfg.Ticketing.Policy.CanAttempt(task, now); ok {
				if task.NextAttemptAt().After(now) {
					// waiting out a backoff, nothing is lost
					return nil
				}
				task.MakeDue(now)
				if err := tx.TicketingTasks().Update(ctx, task); err != nil {
					return err
				}
				action = repairRequeued
				return nil
			}
		}

		reason := "paid quote stuck without a trip"
		if task.LastError() != "" {
			reason += ": " + task.LastError()
		}
		if task.Status() == ticketing.TaskPending {
			task.Fail(reason, now)
			if err := tx.TicketingTasks().Update(ctx, task); err != nil {
				return err
			}
		}
		if err := q.MarkFailed(now); err != nil {
			return err
		}
		if err := tx.Quotes().UpdateStatus(ctx, q, quote.StatusPaid); err != nil {
			return err
		}
		id := q.ID()
		esc = &shared.Escalation{
			Kind:       shared.EscalationTicketingStuck,
			QuoteID:    &id,
			Reference:  q.GatewayReference(),
			Reason:     reason,
			OccurredAt: now,
		}
		action = repairFailed
		return nil
	})
	if err != nil {
		return repairNone, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	switch action {
	case repairEnqueued, repairRequeued:
		if err := uc.publisher.PublishQuotePaid(context.WithoutCancel(ctx), shared.PaidSignal{QuoteID: quoteID, PaidAt: uc.clock.Now()}); err != nil {
			uc.logger.Warn("failed to publish requeue signal",
				slog.String("quote_id", quoteID.String()),
				slog.String("error", err.Error()))
		}
	case repairFailed:
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
	return action, nil
}
