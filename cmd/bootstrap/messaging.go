package bootstrap

import (
	"context"
	"log/slog"

	"booking-engine/internal/infra/messaging"
	"booking-engine/internal/infra/notify"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/usecase/shared"

	"go.uber.org/fx"
)

var MessagingModule = fx.Module("messaging",
	fx.Provide(
		NewPublisher,
		NewNotifier,
	),
)

// Publisher is provided under both ports; Kafka carries signals and escalations.
type Publisher struct {
	fx.Out

	Signals   shared.SignalPublisher
	Escalator shared.Escalator
}

func NewPublisher(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) Publisher {
	if len(cfg.Kafka.Brokers) == 0 {
		p := messaging.NewLogPublisher(logger)
		return Publisher{Signals: p, Escalator: p}
	}

	producer := messaging.NewProducer(messaging.NewKafkaWriter(cfg.Kafka), cfg.Kafka, logger)
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return producer.Close()
		},
	})
	return Publisher{Signals: producer, Escalator: producer}
}

func NewNotifier(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (shared.Notifier, error) {
	if cfg.AMQP.URL == "" {
		return notify.NewLogNotifier(logger), nil
	}

	conn, ch, err := notify.Dial(cfg.AMQP)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			_ = ch.Close()
			return conn.Close()
		},
	})
	return notify.NewAMQPNotifier(ch, cfg.AMQP, logger), nil
}
