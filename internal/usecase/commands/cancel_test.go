//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"booking-engine/internal/domain/quote"
	"booking-engine/internal/domain/ticketing"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/commands"
	"booking-engine/tests/common/builder"
	"booking-engine/tests/common/memdb"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCancelFixture(t *testing.T) (*memdb.Store, *memdb.Locker, commands.QuoteCommands) {
	t.Helper()
	store := memdb.New()
	clk := clock.NewMockClock(t0.Add(10 * time.Minute))
	locker := memdb.NewLocker(clk)
	uc := commands.NewQuoteUseCase(store, locker, commands.TicketingConfig{LeaseTTL: time.Minute}, clk, discardLogger())
	return store, locker, uc
}

func TestCancel(t *testing.T) {
	t.Run("awaiting payment", func(t *testing.T) {
		store, _, uc := newCancelFixture(t)
		q := seedQuote(t, store, builder.NewQuoteBuilder())

		res, err := uc.Cancel(context.Background(), q.ID(), "customer request")
		require.NoError(t, err)
		assert.Equal(t, quote.StatusCancelled, res.Status)
		assert.Equal(t, quote.StatusCancelled, store.Quote(q.ID()).Status())
	})

	t.Run("paid quote closes its ticketing task", func(t *testing.T) {
		store, _, uc := newCancelFixture(t)
		q := seedPaid(t, store, t0, 3*time.Hour)

		_, err := uc.Cancel(context.Background(), q.ID(), "ops")
		require.NoError(t, err)
		assert.Equal(t, quote.StatusCancelled, store.Quote(q.ID()).Status())
		assert.Equal(t, ticketing.TaskCancelled, store.Task(q.ID()).Status())
	})

	t.Run("cancelling twice is a no-op", func(t *testing.T) {
		store, _, uc := newCancelFixture(t)
		q := seedQuote(t, store, builder.NewQuoteBuilder().WithStatus(quote.StatusCancelled))
		commits := store.Commits()

		res, err := uc.Cancel(context.Background(), q.ID(), "again")
		require.NoError(t, err)
		assert.Equal(t, quote.StatusCancelled, res.Status)
		assert.Equal(t, commits+1, store.Commits())
	})

	t.Run("terminal quotes cannot be cancelled", func(t *testing.T) {
		for _, status := range []quote.Status{quote.StatusTicketed, quote.StatusExpired, quote.StatusFailed} {
			store, _, uc := newCancelFixture(t)
			q := seedQuote(t, store, builder.NewQuoteBuilder().WithStatus(status))

			_, err := uc.Cancel(context.Background(), q.ID(), "late")
			assert.True(t, errs.Is(err, commands.ErrQuoteNotCancellable), "status %s: %v", status, err)
			assert.Equal(t, status, store.Quote(q.ID()).Status())
		}
	})

	t.Run("unknown quote", func(t *testing.T) {
		_, _, uc := newCancelFixture(t)
		_, err := uc.Cancel(context.Background(), uuid.New(), "")
		assert.ErrorIs(t, err, commands.ErrQuoteNotFound)
	})

	t.Run("waits for an issuance in flight", func(t *testing.T) {
		store, locker, uc := newCancelFixture(t)
		q := seedPaid(t, store, t0, 3*time.Hour)
		release := locker.Hold(commands.LeaseKey(q.ID()))
		defer release()

		_, err := uc.Cancel(context.Background(), q.ID(), "ops")
		assert.ErrorIs(t, err, commands.ErrTicketingInProgress)
		assert.Equal(t, quote.StatusPaid, store.Quote(q.ID()).Status())
	})
}
