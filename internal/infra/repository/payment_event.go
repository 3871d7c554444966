package repository

import (
	"context"
	"log/slog"

	"booking-engine/internal/domain/payment"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/pkg/pgconv"
)

const insertPaymentEventSQL = `INSERT INTO payment_events
	(id, event_key, event_type, reference, quote_id, outcome, detail, raw_payload, received_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (event_key) DO NOTHING`

type PaymentEventRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewPaymentEventRepository(dbtx db.DBTX, logger *slog.Logger) *PaymentEventRepository {
	return &PaymentEventRepository{db: dbtx, logger: logger}
}

// Insert records are immutable, so there is no update path.
func (r *PaymentEventRepository) Insert(ctx context.Context, rec *payment.EventRecord) (bool, error) {
	tag, err := r.db.Exec(ctx, insertPaymentEventSQL,
		rec.ID,
		rec.DedupKey,
		rec.EventType,
		pgconv.StringToPgtype(rec.Reference),
		pgconv.UUIDPtrToPgtype(rec.QuoteID),
		string(rec.Outcome),
		pgconv.StringToPgtype(rec.Detail),
		[]byte(rec.Payload),
		rec.CreatedAt,
	)
	if err != nil {
		return false, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to record payment event", err)
	}
	return tag.RowsAffected() == 1, nil
}
