package worker

import (
	"context"
	"log/slog"
	"time"

	"booking-engine/internal/usecase/commands"
)

// Sweeper runs the reconciliation sweep on a fixed interval.
type Sweeper struct {
	reconcile commands.ReconcileCommands
	interval  time.Duration
	logger    *slog.Logger
}

func NewSweeper(reconcile commands.ReconcileCommands, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{reconcile: reconcile, interval: interval, logger: logger}
}

func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce never fails the loop; the next tick retries whatever was left.
func (s *Sweeper) RunOnce(ctx context.Context) *commands.SweepReport {
	report, err := s.reconcile.Sweep(ctx)
	if err != nil {
		s.logger.Error("reconciliation sweep failed", slog.String("error", err.Error()))
		return nil
	}
	if report.Expired+report.Requeued+report.Failed+report.Enqueued+report.Purged > 0 {
		s.logger.Info("reconciliation sweep repaired drift",
			slog.Int("expired", report.Expired),
			slog.Int("requeued", report.Requeued),
			slog.Int("failed", report.Failed),
			slog.Int("enqueued", report.Enqueued),
			slog.Int("purged", report.Purged))
	}
	return report
}
