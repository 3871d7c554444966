package messaging

import (
	"context"
	"log/slog"

	"booking-engine/internal/usecase/shared"
)

// LogPublisher stands in for Kafka when no brokers are configured. Signals
// are dropped after logging; the poller still finds the durable task.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishQuotePaid(_ context.Context, s shared.PaidSignal) error {
	p.logger.Info("Paid signal (no broker)", slog.String("quote_id", s.QuoteID.String()))
	return nil
}

func (p *LogPublisher) Escalate(_ context.Context, e shared.Escalation) error {
	p.logger.Warn("Escalating to operators (no broker)",
		slog.String("kind", e.Kind),
		slog.String("reference", e.Reference),
		slog.String("reason", e.Reason))
	return nil
}
