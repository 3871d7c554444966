//go:build unit

package commands_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"booking-engine/internal/domain/money"
	"booking-engine/internal/domain/payment"
	"booking-engine/internal/domain/quote"
	"booking-engine/internal/domain/ticketing"
	"booking-engine/internal/usecase/shared"
	"booking-engine/tests/common/builder"
	"booking-engine/tests/common/memdb"

	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustMoney(t *testing.T, minor int64, currency string) money.Money {
	t.Helper()
	m, err := money.New(minor, currency)
	require.NoError(t, err)
	return m
}

// seedQuote stores the quote built by b together with its initialized payment.
func seedQuote(t *testing.T, store *memdb.Store, b *builder.QuoteBuilder) *quote.Quote {
	t.Helper()
	q := b.Build()
	p, err := payment.NewPayment(q.ID(), q.GatewayReference(), q.Price(), payment.MethodCard, q.CreatedAt())
	require.NoError(t, err)
	require.NoError(t, store.Seed(func(tx shared.Tx) error {
		if err := tx.Quotes().Create(context.Background(), q); err != nil {
			return err
		}
		return tx.Payments().Create(context.Background(), p)
	}))
	return q
}

// seedPaid stores a paid quote and its pending ticketing task.
func seedPaid(t *testing.T, store *memdb.Store, paidAt time.Time, horizon time.Duration) *quote.Quote {
	t.Helper()
	q := seedQuote(t, store, builder.NewQuoteBuilder().WithStatus(quote.StatusPaid).WithCreatedAt(paidAt))
	require.NoError(t, store.Seed(func(tx shared.Tx) error {
		_, err := tx.TicketingTasks().Enqueue(context.Background(), ticketing.NewTask(q.ID(), paidAt, horizon))
		return err
	}))
	return q
}

// recorder captures outbound signals, escalations and notifications.
type recorder struct {
	mu            sync.Mutex
	signals       []shared.PaidSignal
	escalations   []shared.Escalation
	notifications []shared.TripNotification
	err           error
}

func (r *recorder) PublishQuotePaid(_ context.Context, s shared.PaidSignal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, s)
	return r.err
}

func (r *recorder) Escalate(_ context.Context, e shared.Escalation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.escalations = append(r.escalations, e)
	return r.err
}

func (r *recorder) Notify(_ context.Context, n shared.TripNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
	return r.err
}

func (r *recorder) Signals() []shared.PaidSignal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]shared.PaidSignal(nil), r.signals...)
}

func (r *recorder) Escalations() []shared.Escalation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]shared.Escalation(nil), r.escalations...)
}

func (r *recorder) Notifications() []shared.TripNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]shared.TripNotification(nil), r.notifications...)
}

func ticketingPolicy() ticketing.RetryPolicy {
	return ticketing.RetryPolicy{
		MaxAttempts: 3,
		Base:        time.Minute,
		Max:         time.Hour,
		Delay: func(attempt int, base, _ time.Duration) time.Duration {
			return base * time.Duration(1<<attempt)
		},
	}
}
