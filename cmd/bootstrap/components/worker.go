package components

import (
	"context"
	"log/slog"

	"booking-engine/internal/infra/messaging"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/usecase/commands"
	"booking-engine/internal/usecase/shared"
	"booking-engine/internal/worker"

	"go.uber.org/fx"
)

var WorkerModule = fx.Module("worker",
	fx.Provide(
		NewSignalSource,
		NewTicketingWorker,
		NewSweeper,
	),
)

// NewSignalSource returns nil without brokers; the worker then relies on polling.
func NewSignalSource(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) worker.SignalSource {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Warn("No Kafka brokers configured, ticketing runs on polling only")
		return nil
	}
	consumer := messaging.NewConsumer(messaging.NewKafkaReader(cfg.Kafka), logger)
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return consumer.Close()
		},
	})
	return consumer
}

func NewTicketingWorker(uc commands.TicketingCommands, uow shared.UnitOfWork, signals worker.SignalSource, clk clock.Clock, cfg config.Config, logger *slog.Logger) *worker.TicketingWorker {
	return worker.NewTicketingWorker(uc, uow, signals, clk, worker.TicketingConfig{
		Concurrency:  cfg.Worker.Concurrency,
		PollInterval: cfg.Worker.PollInterval,
		PollBatch:    cfg.Worker.PollBatch,
		ClaimFor:     cfg.Ticketing.LeaseTTL,
	}, logger)
}

func NewSweeper(uc commands.ReconcileCommands, cfg config.Config, logger *slog.Logger) *worker.Sweeper {
	return worker.NewSweeper(uc, cfg.Sweep.Interval, logger)
}
