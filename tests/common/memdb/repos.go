//go:build unit

package memdb

import (
	"context"
	"sort"
	"time"

	"booking-engine/internal/domain/payment"
	"booking-engine/internal/domain/quote"
	"booking-engine/internal/domain/ticketing"
	"booking-engine/internal/domain/trip"
	"booking-engine/internal/usecase/shared"

	"github.com/google/uuid"
)

type memTx struct {
	st *state
}

func (t *memTx) Quotes() shared.QuoteRepository                 { return quoteRepo{t.st} }
func (t *memTx) Payments() shared.PaymentRepository             { return paymentRepo{t.st} }
func (t *memTx) PaymentEvents() shared.PaymentEventRepository   { return eventRepo{t.st} }
func (t *memTx) Trips() shared.TripRepository                   { return tripRepo{t.st} }
func (t *memTx) Idempotency() shared.IdempotencyRepository      { return idempotencyRepo{t.st} }
func (t *memTx) TicketingTasks() shared.TicketingTaskRepository { return taskRepo{t.st} }

type quoteRepo struct{ st *state }

func (r quoteRepo) Create(_ context.Context, q *quote.Quote) error {
	if _, ok := r.st.quotes[q.ID()]; ok {
		return duplicate("quote already exists")
	}
	if _, ok := r.st.refs[q.GatewayReference()]; ok {
		return duplicate("gateway reference already exists")
	}
	r.st.quotes[q.ID()] = *q
	r.st.refs[q.GatewayReference()] = q.ID()
	return nil
}

func (r quoteRepo) FindByID(_ context.Context, id uuid.UUID) (*quote.Quote, error) {
	q, ok := r.st.quotes[id]
	if !ok {
		return nil, notFound("quote not found")
	}
	return &q, nil
}

func (r quoteRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*quote.Quote, error) {
	return r.FindByID(ctx, id)
}

func (r quoteRepo) FindByReferenceForUpdate(ctx context.Context, reference string) (*quote.Quote, error) {
	id, ok := r.st.refs[reference]
	if !ok {
		return nil, notFound("quote not found")
	}
	return r.FindByID(ctx, id)
}

func (r quoteRepo) UpdateStatus(_ context.Context, q *quote.Quote, from quote.Status) error {
	stored, ok := r.st.quotes[q.ID()]
	if !ok || stored.Status() != from {
		return shared.ErrStaleWrite
	}
	r.st.quotes[q.ID()] = *q
	return nil
}

func (r quoteRepo) ListExpirable(_ context.Context, createdBefore time.Time, limit int) ([]*quote.Quote, error) {
	return r.list(limit, func(q quote.Quote) bool {
		return q.Status() == quote.StatusAwaitingPayment && !q.CreatedAt().After(createdBefore)
	}, func(q quote.Quote) time.Time { return q.CreatedAt() }), nil
}

func (r quoteRepo) ListStuckPaid(_ context.Context, changedBefore time.Time, limit int) ([]*quote.Quote, error) {
	return r.list(limit, func(q quote.Quote) bool {
		_, hasTrip := r.st.trips[q.ID()]
		return q.Status() == quote.StatusPaid && !q.StatusChangedAt().After(changedBefore) && !hasTrip
	}, func(q quote.Quote) time.Time { return q.StatusChangedAt() }), nil
}

func (r quoteRepo) list(limit int, match func(quote.Quote) bool, order func(quote.Quote) time.Time) []*quote.Quote {
	var out []*quote.Quote
	for _, q := range r.st.quotes {
		if match(q) {
			q := q
			out = append(out, &q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return order(*out[i]).Before(order(*out[j])) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type paymentRepo struct{ st *state }

func (r paymentRepo) Create(_ context.Context, p *payment.Payment) error {
	if _, ok := r.st.quotes[p.QuoteID()]; !ok {
		return foreignKey("payment quote does not exist")
	}
	if _, ok := r.st.payments[p.Reference()]; ok {
		return duplicate("payment reference already exists")
	}
	r.st.payments[p.Reference()] = *p
	return nil
}

func (r paymentRepo) FindByReference(_ context.Context, reference string) (*payment.Payment, error) {
	p, ok := r.st.payments[reference]
	if !ok {
		return nil, notFound("payment not found")
	}
	return &p, nil
}

func (r paymentRepo) Update(_ context.Context, p *payment.Payment) error {
	if _, ok := r.st.payments[p.Reference()]; !ok {
		return notFound("payment not found")
	}
	r.st.payments[p.Reference()] = *p
	return nil
}

type eventRepo struct{ st *state }

func (r eventRepo) Insert(_ context.Context, rec *payment.EventRecord) (bool, error) {
	if _, ok := r.st.events[rec.DedupKey]; ok {
		return false, nil
	}
	r.st.events[rec.DedupKey] = *rec
	return true, nil
}

type tripRepo struct{ st *state }

func (r tripRepo) Insert(_ context.Context, t *trip.Trip) (bool, error) {
	if _, ok := r.st.quotes[t.QuoteID()]; !ok {
		return false, foreignKey("trip quote does not exist")
	}
	if _, ok := r.st.trips[t.QuoteID()]; ok {
		return false, nil
	}
	r.st.trips[t.QuoteID()] = *t
	return true, nil
}

func (r tripRepo) FindByQuoteID(_ context.Context, quoteID uuid.UUID) (*trip.Trip, error) {
	t, ok := r.st.trips[quoteID]
	if !ok {
		return nil, notFound("trip not found")
	}
	return &t, nil
}

type idempotencyRepo struct{ st *state }

func (r idempotencyRepo) Reserve(_ context.Context, operation, key, requestHash string, now, expiresAt time.Time) (*shared.IdempotencyEntry, bool, error) {
	k := entryKey(operation, key)
	if e, ok := r.st.entries[k]; ok && e.ExpiresAt.After(now) {
		return &e, false, nil
	}
	e := shared.IdempotencyEntry{
		Operation:   operation,
		Key:         key,
		RequestHash: requestHash,
		Status:      shared.IdempotencyProcessing,
		ExpiresAt:   expiresAt,
		CreatedAt:   now,
	}
	r.st.entries[k] = e
	return &e, true, nil
}

func (r idempotencyRepo) Complete(_ context.Context, operation, key string, response []byte, now time.Time) error {
	k := entryKey(operation, key)
	e, ok := r.st.entries[k]
	if !ok {
		return notFound("idempotency key not found")
	}
	e.Status = shared.IdempotencyCompleted
	e.Response = append([]byte(nil), response...)
	e.CompletedAt = &now
	r.st.entries[k] = e
	return nil
}

func (r idempotencyRepo) Release(_ context.Context, operation, key string) error {
	k := entryKey(operation, key)
	if e, ok := r.st.entries[k]; ok && e.Status == shared.IdempotencyProcessing {
		delete(r.st.entries, k)
	}
	return nil
}

func (r idempotencyRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for k, e := range r.st.entries {
		if !e.ExpiresAt.After(now) {
			delete(r.st.entries, k)
			n++
		}
	}
	return n, nil
}

type taskRepo struct{ st *state }

func (r taskRepo) Enqueue(_ context.Context, t *ticketing.Task) (bool, error) {
	if _, ok := r.st.quotes[t.QuoteID()]; !ok {
		return false, foreignKey("ticketing task quote does not exist")
	}
	if _, ok := r.st.tasks[t.QuoteID()]; ok {
		return false, nil
	}
	r.st.tasks[t.QuoteID()] = *t
	return true, nil
}

func (r taskRepo) FindByQuoteID(_ context.Context, quoteID uuid.UUID) (*ticketing.Task, error) {
	t, ok := r.st.tasks[quoteID]
	if !ok {
		return nil, notFound("ticketing task not found")
	}
	return &t, nil
}

func (r taskRepo) FindByQuoteIDForUpdate(ctx context.Context, quoteID uuid.UUID) (*ticketing.Task, error) {
	return r.FindByQuoteID(ctx, quoteID)
}

func (r taskRepo) Update(_ context.Context, t *ticketing.Task) error {
	if _, ok := r.st.tasks[t.QuoteID()]; !ok {
		return notFound("ticketing task not found")
	}
	r.st.tasks[t.QuoteID()] = *t
	delete(r.st.claims, t.QuoteID())
	return nil
}

func (r taskRepo) ClaimDue(_ context.Context, now, claimUntil time.Time, limit int) ([]uuid.UUID, error) {
	var due []ticketing.Task
	for id, t := range r.st.tasks {
		if t.Status() != ticketing.TaskPending || t.NextAttemptAt().After(now) {
			continue
		}
		if until, ok := r.st.claims[id]; ok && until.After(now) {
			continue
		}
		due = append(due, t)
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextAttemptAt().Before(due[j].NextAttemptAt()) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	ids := make([]uuid.UUID, 0, len(due))
	for _, t := range due {
		r.st.claims[t.QuoteID()] = claimUntil
		ids = append(ids, t.QuoteID())
	}
	return ids, nil
}
