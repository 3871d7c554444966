package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"booking-engine/internal/pkg/config"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/shared"

	"github.com/segmentio/kafka-go"
)

// MessageReader is the subset of *kafka.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type PaidSignalHandler func(ctx context.Context, s shared.PaidSignal) error

type Consumer struct {
	reader MessageReader
	logger *slog.Logger
}

func NewKafkaReader(cfg config.KafkaConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:           cfg.Brokers,
		GroupID:           cfg.GroupID,
		Topic:             cfg.QuotePaidTopic,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	})
}

func NewConsumer(reader MessageReader, logger *slog.Logger) *Consumer {
	return &Consumer{reader: reader, logger: logger}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume hands each paid signal to handler and commits the offset afterwards.
// Handler errors are logged, not retried: the poller and the sweep pick up
// whatever a signal failed to drive.
func (c *Consumer) Consume(ctx context.Context, handler PaidSignalHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return errs.Wrap(err, "failed to fetch message")
		}

		var signal shared.PaidSignal
		if err := json.Unmarshal(msg.Value, &signal); err != nil {
			c.logger.Warn("Dropping undecodable paid signal",
				slog.Int64("offset", msg.Offset),
				slog.String("error", err.Error()))
		} else if err := handler(ctx, signal); err != nil {
			c.logger.Warn("Paid signal handling failed",
				slog.String("quote_id", signal.QuoteID.String()),
				slog.String("error", err.Error()))
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return errs.Wrap(err, "failed to commit message")
		}
	}
}
