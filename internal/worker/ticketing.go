package worker

import (
	"context"
	"log/slog"
	"time"

	"booking-engine/internal/infra/messaging"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/commands"
	"booking-engine/internal/usecase/shared"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// SignalSource delivers quote.paid nudges. *messaging.Consumer satisfies it.
type SignalSource interface {
	Consume(ctx context.Context, handler messaging.PaidSignalHandler) error
}

type TicketingConfig struct {
	Concurrency  int
	PollInterval time.Duration
	PollBatch    int
	// ClaimFor hides claimed tasks from other pollers while they are worked.
	ClaimFor time.Duration
}

// TicketingWorker drives issuance from two triggers: Kafka signals for low
// latency and a poll over due tasks for everything a signal missed.
type TicketingWorker struct {
	ticketing commands.TicketingCommands
	uow       shared.UnitOfWork
	signals   SignalSource
	clock     clock.Clock
	cfg       TicketingConfig
	logger    *slog.Logger
}

func NewTicketingWorker(
	ticketing commands.TicketingCommands,
	uow shared.UnitOfWork,
	signals SignalSource,
	clk clock.Clock,
	cfg TicketingConfig,
	logger *slog.Logger,
) *TicketingWorker {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &TicketingWorker{
		ticketing: ticketing,
		uow:       uow,
		signals:   signals,
		clock:     clk,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run blocks until ctx is cancelled or the signal consumer fails.
func (w *TicketingWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if w.signals != nil {
		g.Go(func() error {
			return w.signals.Consume(ctx, w.HandleSignal)
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(w.cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if _, err := w.PollOnce(ctx); err != nil {
					w.logger.Error("ticketing poll failed", slog.String("error", err.Error()))
				}
			}
		}
	})

	return g.Wait()
}

// HandleSignal runs one attempt for the signalled quote. Losing the lease
// race or a quote that is no longer paid are expected outcomes.
func (w *TicketingWorker) HandleSignal(ctx context.Context, s shared.PaidSignal) error {
	res, err := w.ticketing.Issue(ctx, s.QuoteID, commands.TriggerSignal)
	switch {
	case err == nil:
		w.logger.Info("paid signal handled",
			slog.String("quote_id", s.QuoteID.String()),
			slog.String("outcome", string(res.Outcome)))
		return nil
	case errs.Is(err, commands.ErrTicketingInProgress), errs.Is(err, commands.ErrQuoteNotPaid):
		w.logger.Debug("paid signal skipped",
			slog.String("quote_id", s.QuoteID.String()),
			slog.String("reason", err.Error()))
		return nil
	default:
		return err
	}
}

// PollOnce claims due tasks and works them with bounded concurrency.
// Individual failures are logged; they stay due and come back next poll.
func (w *TicketingWorker) PollOnce(ctx context.Context) (int, error) {
	now := w.clock.Now()
	var ids []uuid.UUID
	err := w.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		ids, err = tx.TicketingTasks().ClaimDue(ctx, now, now.Add(w.cfg.ClaimFor), w.cfg.PollBatch)
		return err
	})
	if err != nil {
		return 0, errs.Wrap(err, "claim due ticketing tasks")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.Concurrency)
	for _, id := range ids {
		g.Go(func() error {
			res, err := w.ticketing.Issue(gctx, id, commands.TriggerPoll)
			if err != nil {
				if !errs.Is(err, commands.ErrTicketingInProgress) {
					w.logger.Warn("polled ticketing attempt failed",
						slog.String("quote_id", id.String()),
						slog.String("error", err.Error()))
				}
				return nil
			}
			w.logger.Debug("polled ticketing attempt",
				slog.String("quote_id", id.String()),
				slog.String("outcome", string(res.Outcome)))
			return nil
		})
	}
	_ = g.Wait()
	return len(ids), ctx.Err()
}
