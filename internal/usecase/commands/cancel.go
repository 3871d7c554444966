package commands

import (
	"context"
	"log/slog"

	"booking-engine/internal/domain/quote"
	"booking-engine/internal/infra"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/shared"

	"github.com/google/uuid"
)

type CancelResult struct {
	QuoteID uuid.UUID
	Status  quote.Status
}

type QuoteCommands interface {
	Cancel(ctx context.Context, quoteID uuid.UUID, reason string) (*CancelResult, error)
}

type quoteUseCaseImpl struct {
	uow    shared.UnitOfWork
	locker shared.Locker
	cfg    TicketingConfig
	clock  clock.Clock
	logger *slog.Logger
}

func NewQuoteUseCase(uow shared.UnitOfWork, locker shared.Locker, cfg TicketingConfig, clk clock.Clock, logger *slog.Logger) QuoteCommands {
	return &quoteUseCaseImpl{uow: uow, locker: locker, cfg: cfg, clock: clk, logger: logger}
}

// Cancel holds the ticketing lease so a paid quote is never cancelled while
// an issuance attempt is in flight.
func (uc *quoteUseCaseImpl) Cancel(ctx context.Context, quoteID uuid.UUID, reason string) (*CancelResult, error) {
	lease, err := uc.locker.Acquire(ctx, LeaseKey(quoteID), uc.cfg.LeaseTTL)
	if err != nil {
		if errs.Is(err, shared.ErrLockNotAcquired) {
			return nil, ErrTicketingInProgress
		}
		return nil, errs.Wrap(err, "acquire ticketing lease")
	}
	defer func() {
		if rerr := lease.Release(context.WithoutCancel(ctx)); rerr != nil {
			uc.logger.Warn("failed to release lease", slog.String("quote_id", quoteID.String()), slog.String("error", rerr.Error()))
		}
	}()

	var result *CancelResult
	err = uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		now := uc.clock.Now()
		q, err := tx.Quotes().FindByIDForUpdate(ctx, quoteID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrQuoteNotFound
			}
			return err
		}
		if q.Status() == quote.StatusCancelled {
			result = &CancelResult{QuoteID: quoteID, Status: q.Status()}
			return nil
		}

		from := q.Status()
		if err := q.Cancel(now); err != nil {
			return errs.Mark(errs.Wrapf(err, "quote is %s", from), ErrQuoteNotCancellable)
		}
		if err := tx.Quotes().UpdateStatus(ctx, q, from); err != nil {
			return err
		}

		task, err := tx.TicketingTasks().FindByQuoteIDForUpdate(ctx, quoteID)
		switch {
		case err == nil:
			task.Cancel(now)
			if err := tx.TicketingTasks().Update(ctx, task); err != nil {
				return err
			}
		case !infra.IsKind(err, infra.KindNotFound):
			return err
		}

		result = &CancelResult{QuoteID: quoteID, Status: q.Status()}
		return nil
	})
	if err != nil {
		if errs.Is(err, ErrQuoteNotFound) || errs.Is(err, ErrQuoteNotCancellable) {
			return nil, err
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	uc.logger.Info("quote cancelled",
		slog.String("quote_id", quoteID.String()),
		slog.String("reason", reason))
	return result, nil
}
