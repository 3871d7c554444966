//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"booking-engine/internal/domain/quote"
	"booking-engine/internal/domain/ticketing"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/usecase/commands"
	"booking-engine/internal/usecase/shared"
	"booking-engine/tests/common/builder"
	"booking-engine/tests/common/memdb"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type ReconcileTestSuite struct {
	suite.Suite
	store  *memdb.Store
	clock  *clock.MockClock
	locker *memdb.Locker
	out    *recorder
	uc     commands.ReconcileCommands
}

func (s *ReconcileTestSuite) SetupTest() {
	s.store = memdb.New()
	s.clock = clock.NewMockClock(t0.Add(time.Hour))
	s.locker = memdb.NewLocker(s.clock)
	s.out = &recorder{}
	s.uc = commands.NewReconcileUseCase(s.store, s.locker, s.out, s.out, commands.SweepConfig{
		QuoteExpiry: 30 * time.Minute,
		StuckAfter:  10 * time.Minute,
		BatchSize:   100,
		Ticketing: commands.TicketingConfig{
			Policy:   ticketingPolicy(),
			LeaseTTL: time.Minute,
			Horizon:  3 * time.Hour,
		},
	}, s.clock, discardLogger())
}

func TestReconcileTestSuite(t *testing.T) {
	suite.Run(t, new(ReconcileTestSuite))
}

func (s *ReconcileTestSuite) updateTask(quoteID uuid.UUID, mutate func(*ticketing.Task)) {
	s.Require().NoError(s.store.Seed(func(tx shared.Tx) error {
		task, err := tx.TicketingTasks().FindByQuoteID(context.Background(), quoteID)
		if err != nil {
			return err
		}
		mutate(task)
		return tx.TicketingTasks().Update(context.Background(), task)
	}))
}

func (s *ReconcileTestSuite) TestSweep_RepairsEveryKindOfDrift() {
	now := s.clock.Now()

	stale := seedQuote(s.T(), s.store, builder.NewQuoteBuilder().WithCreatedAt(t0))
	fresh := seedQuote(s.T(), s.store, builder.NewQuoteBuilder().WithCreatedAt(now.Add(-10*time.Minute)))

	overdue := seedPaid(s.T(), s.store, t0, 3*time.Hour)
	orphan := seedQuote(s.T(), s.store, builder.NewQuoteBuilder().WithStatus(quote.StatusPaid).WithCreatedAt(t0))
	backingOff := seedPaid(s.T(), s.store, t0, 3*time.Hour)
	s.updateTask(backingOff.ID(), func(task *ticketing.Task) {
		_ = task.BeginAttempt(t0)
		task.ScheduleRetry(now.Add(5*time.Minute), "timeout", t0)
	})
	exhausted := seedPaid(s.T(), s.store, t0, 3*time.Hour)
	s.updateTask(exhausted.ID(), func(task *ticketing.Task) {
		for range 3 {
			_ = task.BeginAttempt(t0)
		}
		task.ScheduleRetry(t0.Add(10*time.Minute), "status 503", t0)
	})
	recentlyPaid := seedPaid(s.T(), s.store, now.Add(-time.Minute), 3*time.Hour)

	s.Require().NoError(s.store.WithDB(context.Background(), func(ctx context.Context, tx shared.Tx) error {
		_, _, err := tx.Idempotency().Reserve(ctx, shared.OperationBook, "old-key", "h", t0.Add(-48*time.Hour), t0.Add(-24*time.Hour))
		return err
	}))

	report, err := s.uc.Sweep(context.Background())
	s.Require().NoError(err)
	s.Equal(commands.SweepReport{Expired: 1, Requeued: 1, Failed: 1, Enqueued: 1, Purged: 1}, *report)

	s.Equal(quote.StatusExpired, s.store.Quote(stale.ID()).Status())
	s.Equal(quote.StatusAwaitingPayment, s.store.Quote(fresh.ID()).Status())

	s.Equal(now, s.store.Task(overdue.ID()).NextAttemptAt())
	s.Require().NotNil(s.store.Task(orphan.ID()))
	s.True(s.store.Task(orphan.ID()).IsDue(now))
	s.Equal(now.Add(5*time.Minute), s.store.Task(backingOff.ID()).NextAttemptAt())
	s.Equal(quote.StatusPaid, s.store.Quote(backingOff.ID()).Status())
	s.Equal(quote.StatusPaid, s.store.Quote(recentlyPaid.ID()).Status())

	s.Equal(quote.StatusFailed, s.store.Quote(exhausted.ID()).Status())
	s.Equal(ticketing.TaskFailed, s.store.Task(exhausted.ID()).Status())
	escalations := s.out.Escalations()
	s.Require().Len(escalations, 1)
	s.Equal(shared.EscalationTicketingStuck, escalations[0].Kind)
	s.Equal(exhausted.ID(), *escalations[0].QuoteID)
	s.Contains(escalations[0].Reason, "status 503")

	signalled := map[uuid.UUID]bool{}
	for _, sig := range s.out.Signals() {
		signalled[sig.QuoteID] = true
	}
	s.Equal(map[uuid.UUID]bool{overdue.ID(): true, orphan.ID(): true}, signalled)

	s.Nil(s.store.Entry(shared.OperationBook, "old-key"))
}

func (s *ReconcileTestSuite) TestSweep_IsRepeatable() {
	seedQuote(s.T(), s.store, builder.NewQuoteBuilder().WithCreatedAt(t0))
	seedQuote(s.T(), s.store, builder.NewQuoteBuilder().WithStatus(quote.StatusPaid).WithCreatedAt(t0))

	first, err := s.uc.Sweep(context.Background())
	s.Require().NoError(err)
	s.Equal(1, first.Expired)
	s.Equal(1, first.Enqueued)

	second, err := s.uc.Sweep(context.Background())
	s.Require().NoError(err)
	s.Equal(0, second.Expired)
	s.Equal(0, second.Enqueued)
	s.Equal(0, second.Failed)
}

func (s *ReconcileTestSuite) TestSweep_SkipsQuotesUnderLease() {
	q := seedPaid(s.T(), s.store, t0, 3*time.Hour)
	release := s.locker.Hold(commands.LeaseKey(q.ID()))
	defer release()

	report, err := s.uc.Sweep(context.Background())
	s.Require().NoError(err)
	s.Equal(0, report.Requeued)
	s.Equal(t0, s.store.Task(q.ID()).NextAttemptAt())
	s.Empty(s.out.Signals())
}

func (s *ReconcileTestSuite) TestSweep_NothingToDo() {
	report, err := s.uc.Sweep(context.Background())
	s.Require().NoError(err)
	s.Equal(commands.SweepReport{}, *report)
}
