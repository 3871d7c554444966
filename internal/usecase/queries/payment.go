package queries

import (
	"context"
	"strings"

	"booking-engine/internal/infra"
	"booking-engine/internal/pkg/errs"
)

var ErrPaymentNotFound = errs.New("payment not found")

type PaymentQueries interface {
	GetByReference(ctx context.Context, reference string) (*PaymentView, error)
}

type PaymentReadStore interface {
	FindByReference(ctx context.Context, reference string) (*PaymentView, error)
}

type paymentQueriesImpl struct {
	store PaymentReadStore
}

func NewPaymentQueries(store PaymentReadStore) PaymentQueries {
	return &paymentQueriesImpl{store: store}
}

func (q *paymentQueriesImpl) GetByReference(ctx context.Context, reference string) (*PaymentView, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, ErrPaymentNotFound
	}
	view, err := q.store.FindByReference(ctx, reference)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return view, nil
}
