//go:build unit

// Package memdb is an in-memory UnitOfWork for use case tests. Transactions
// run one at a time against a copy of the state and are discarded on error,
// which is stricter than row locking but observably equivalent for the
// invariants under test.
package memdb

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"booking-engine/internal/domain/payment"
	"booking-engine/internal/domain/quote"
	"booking-engine/internal/domain/ticketing"
	"booking-engine/internal/domain/trip"
	"booking-engine/internal/infra"
	"booking-engine/internal/usecase/shared"

	"github.com/google/uuid"
)

var silent = slog.New(slog.NewTextHandler(io.Discard, nil))

type state struct {
	quotes   map[uuid.UUID]quote.Quote
	refs     map[string]uuid.UUID
	payments map[string]payment.Payment
	events   map[string]payment.EventRecord
	trips    map[uuid.UUID]trip.Trip
	entries  map[string]shared.IdempotencyEntry
	tasks    map[uuid.UUID]ticketing.Task
	claims   map[uuid.UUID]time.Time
}

func newState() *state {
	return &state{
		quotes:   map[uuid.UUID]quote.Quote{},
		refs:     map[string]uuid.UUID{},
		payments: map[string]payment.Payment{},
		events:   map[string]payment.EventRecord{},
		trips:    map[uuid.UUID]trip.Trip{},
		entries:  map[string]shared.IdempotencyEntry{},
		tasks:    map[uuid.UUID]ticketing.Task{},
		claims:   map[uuid.UUID]time.Time{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.quotes {
		c.quotes[k] = v
	}
	for k, v := range s.refs {
		c.refs[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	for k, v := range s.trips {
		c.trips[k] = v
	}
	for k, v := range s.entries {
		c.entries[k] = v
	}
	for k, v := range s.tasks {
		c.tasks[k] = v
	}
	for k, v := range s.claims {
		c.claims[k] = v
	}
	return c
}

type Store struct {
	mu          sync.Mutex
	st          *state
	failCommits int
	commitErr   error
	txCount     int
}

func New() *Store {
	return &Store{st: newState()}
}

var _ shared.UnitOfWork = (*Store)(nil)

func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	// a cancelled context cannot begin a transaction, as with pgx
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(ctx, &memTx{st: work}); err != nil {
		return err
	}
	if s.failCommits > 0 {
		s.failCommits--
		return s.commitErr
	}
	s.st = work
	s.txCount++
	return nil
}

// WithDB keeps every write, matching autocommit statements.
func (s *Store) WithDB(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx, &memTx{st: s.st})
}

// FailCommits makes the next n Within calls roll back with err after fn succeeds.
func (s *Store) FailCommits(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCommits = n
	s.commitErr = err
}

func (s *Store) read(fn func(st *state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.st)
}

// Seed runs fn as a committed transaction, for arranging fixtures.
func (s *Store) Seed(fn func(tx shared.Tx) error) error {
	return s.Within(context.Background(), func(_ context.Context, tx shared.Tx) error { return fn(tx) })
}

func (s *Store) Quote(id uuid.UUID) *quote.Quote {
	var out *quote.Quote
	s.read(func(st *state) {
		if q, ok := st.quotes[id]; ok {
			out = &q
		}
	})
	return out
}

func (s *Store) Payment(reference string) *payment.Payment {
	var out *payment.Payment
	s.read(func(st *state) {
		if p, ok := st.payments[reference]; ok {
			out = &p
		}
	})
	return out
}

func (s *Store) Trip(quoteID uuid.UUID) *trip.Trip {
	var out *trip.Trip
	s.read(func(st *state) {
		if t, ok := st.trips[quoteID]; ok {
			out = &t
		}
	})
	return out
}

func (s *Store) Task(quoteID uuid.UUID) *ticketing.Task {
	var out *ticketing.Task
	s.read(func(st *state) {
		if t, ok := st.tasks[quoteID]; ok {
			out = &t
		}
	})
	return out
}

func (s *Store) Entry(operation, key string) *shared.IdempotencyEntry {
	var out *shared.IdempotencyEntry
	s.read(func(st *state) {
		if e, ok := st.entries[entryKey(operation, key)]; ok {
			out = &e
		}
	})
	return out
}

// Events returns the recorded webhook events ordered by arrival.
func (s *Store) Events() []payment.EventRecord {
	var out []payment.EventRecord
	s.read(func(st *state) {
		for _, e := range st.events {
			out = append(out, e)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *Store) TripCount() int {
	n := 0
	s.read(func(st *state) { n = len(st.trips) })
	return n
}

func (s *Store) QuoteCount() int {
	n := 0
	s.read(func(st *state) { n = len(st.quotes) })
	return n
}

func (s *Store) Commits() int {
	n := 0
	s.read(func(st *state) { n = s.txCount })
	return n
}

func entryKey(operation, key string) string {
	return operation + "\x00" + key
}

func notFound(msg string) error {
	return infra.WrapRepoErr(silent, infra.KindNotFound, msg, nil)
}

func duplicate(msg string) error {
	return infra.WrapRepoErr(silent, infra.KindDuplicateKey, msg, nil)
}

func foreignKey(msg string) error {
	return infra.WrapRepoErr(silent, infra.KindForeignKeyViolated, msg, nil)
}
