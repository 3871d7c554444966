//go:build unit

package notify_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"booking-engine/internal/infra/notify"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/usecase/shared"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	published []published
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.published = append(c.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (c *fakeChannel) Close() error { return nil }

func TestNotify(t *testing.T) {
	ch := &fakeChannel{}
	n := notify.NewAMQPNotifier(ch, config.AMQPConfig{Exchange: "booking.notifications"}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	tn := shared.TripNotification{
		QuoteID:  uuid.New(),
		TripID:   uuid.New(),
		Email:    "ada@example.com",
		Channel:  "whatsapp",
		PNR:      "PNR12345",
		ETickets: []string{"ET1", "ET2"},
	}
	require.NoError(t, n.Notify(context.Background(), tn))

	require.Len(t, ch.published, 1)
	got := ch.published[0]
	assert.Equal(t, "booking.notifications", got.exchange)
	assert.Equal(t, "notify.whatsapp", got.key)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)
	assert.Equal(t, tn.TripID.String(), got.msg.MessageId)

	var decoded shared.TripNotification
	require.NoError(t, json.Unmarshal(got.msg.Body, &decoded))
	assert.Equal(t, tn.PNR, decoded.PNR)
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "notify.web", notify.RoutingKey(""))
	assert.Equal(t, "notify.twitter", notify.RoutingKey("twitter"))
}
