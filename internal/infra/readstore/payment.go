package readstore

import (
	"context"
	"log/slog"

	"booking-engine/internal/infra"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/pkg/pgconv"
	"booking-engine/internal/usecase/queries"

	"github.com/jackc/pgx/v5/pgtype"
)

const paymentViewByReferenceSQL = `SELECT p.reference, p.quote_id, p.provider, p.method, p.status, q.status,
	p.amount_minor, p.paid_amount_minor, p.currency, p.authorization_url, p.created_at, p.updated_at
	FROM payments p
	JOIN quotes q ON q.id = p.quote_id
	WHERE p.reference = $1`

type PaymentReadStore struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewPaymentReadStore(dbtx db.DBTX, logger *slog.Logger) *PaymentReadStore {
	return &PaymentReadStore{db: dbtx, logger: logger}
}

func (s *PaymentReadStore) FindByReference(ctx context.Context, reference string) (*queries.PaymentView, error) {
	var (
		v       queries.PaymentView
		paid    pgtype.Int8
		authURL pgtype.Text
	)
	err := s.db.QueryRow(ctx, paymentViewByReferenceSQL, reference).Scan(
		&v.Reference, &v.QuoteID, &v.Provider, &v.Method, &v.Status, &v.QuoteStatus,
		&v.AmountMinor, &paid, &v.Currency, &authURL, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(s.logger, infra.KindNotFound, "payment not found", err)
		}
		return nil, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "failed to get payment view", err)
	}
	if paid.Valid {
		v.PaidAmountMinor = &paid.Int64
	}
	v.AuthorizationURL = pgconv.StringFromPgtype(authURL)
	v.CreatedAt = v.CreatedAt.UTC()
	v.UpdatedAt = v.UpdatedAt.UTC()
	return &v, nil
}
