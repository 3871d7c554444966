package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"booking-engine/internal/pkg/config"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/shared"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes paid signals and operator escalations. Both are
// best-effort: the durable state is already committed when they are sent.
type Producer struct {
	writer       MessageWriter
	paidTopic    string
	escalations  string
	writeTimeout time.Duration
	logger       *slog.Logger
}

func NewKafkaWriter(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

func NewProducer(writer MessageWriter, cfg config.KafkaConfig, logger *slog.Logger) *Producer {
	return &Producer{
		writer:       writer,
		paidTopic:    cfg.QuotePaidTopic,
		escalations:  cfg.EscalationsTopic,
		writeTimeout: cfg.WriteTimeout,
		logger:       logger,
	}
}

func (p *Producer) PublishQuotePaid(ctx context.Context, s shared.PaidSignal) error {
	return p.publish(ctx, p.paidTopic, s.QuoteID.String(), s)
}

func (p *Producer) Escalate(ctx context.Context, e shared.Escalation) error {
	key := e.Reference
	if e.QuoteID != nil {
		key = e.QuoteID.String()
	}
	p.logger.Warn("Escalating to operators",
		slog.String("kind", e.Kind),
		slog.String("key", key),
		slog.String("reason", e.Reason))
	return p.publish(ctx, p.escalations, key, e)
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

func (p *Producer) publish(ctx context.Context, topic, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errs.Wrap(err, "failed to marshal message")
	}

	if p.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.writeTimeout)
		defer cancel()
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now().UTC(),
	})
	if err != nil {
		return errs.Wrapf(err, "failed to write message to %s", topic)
	}
	p.logger.Debug("Published message", slog.String("topic", topic), slog.String("key", key))
	return nil
}
