package queries

import (
	"context"

	"booking-engine/internal/infra"
	"booking-engine/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrTripNotFound = errs.New("trip not found")

type TripQueries interface {
	// GetTrip accepts a trip id or a quote id so the booking status is
	// visible before a trip exists.
	GetTrip(ctx context.Context, id uuid.UUID) (*TripView, error)
}

type TripReadStore interface {
	FindByTripID(ctx context.Context, id uuid.UUID) (*TripView, error)
	FindByQuoteID(ctx context.Context, quoteID uuid.UUID) (*TripView, error)
}

type tripQueriesImpl struct {
	store TripReadStore
}

func NewTripQueries(store TripReadStore) TripQueries {
	return &tripQueriesImpl{store: store}
}

func (q *tripQueriesImpl) GetTrip(ctx context.Context, id uuid.UUID) (*TripView, error) {
	view, err := q.store.FindByTripID(ctx, id)
	if err == nil {
		return view, nil
	}
	if !infra.IsKind(err, infra.KindNotFound) {
		return nil, err
	}

	view, err = q.store.FindByQuoteID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return view, nil
}
