package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"booking-engine/internal/pkg/config"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/shared"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the subset of *amqp.Channel used for publishing.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPNotifier publishes trip notifications to a topic exchange routed by
// the booking channel, e.g. notify.web or notify.whatsapp.
type AMQPNotifier struct {
	mu       sync.Mutex
	channel  Channel
	exchange string
	logger   *slog.Logger
}

func Dial(cfg config.AMQPConfig) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, nil, errs.Wrap(err, "failed to connect to RabbitMQ")
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, errs.Wrap(err, "failed to open channel")
	}
	err = ch.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // kind
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, errs.Wrap(err, "failed to declare exchange")
	}
	return conn, ch, nil
}

func NewAMQPNotifier(ch Channel, cfg config.AMQPConfig, logger *slog.Logger) *AMQPNotifier {
	return &AMQPNotifier{channel: ch, exchange: cfg.Exchange, logger: logger}
}

func (n *AMQPNotifier) Notify(ctx context.Context, tn shared.TripNotification) error {
	body, err := json.Marshal(tn)
	if err != nil {
		return errs.Wrap(err, "failed to marshal notification")
	}

	// amqp channels are not safe for concurrent publishing
	n.mu.Lock()
	defer n.mu.Unlock()

	err = n.channel.PublishWithContext(ctx,
		n.exchange,
		RoutingKey(tn.Channel),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			MessageId:    tn.TripID.String(),
		},
	)
	if err != nil {
		return errs.Wrap(err, "failed to publish notification")
	}
	n.logger.Info("Trip notification published",
		slog.String("quote_id", tn.QuoteID.String()),
		slog.String("channel", tn.Channel))
	return nil
}

func RoutingKey(channel string) string {
	if channel == "" {
		channel = "web"
	}
	return "notify." + channel
}

// LogNotifier is used when no AMQP URL is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, tn shared.TripNotification) error {
	n.logger.Info("Trip notification (no broker)",
		slog.String("quote_id", tn.QuoteID.String()),
		slog.String("routing_key", RoutingKey(tn.Channel)))
	return nil
}
