package repository

import (
	"context"
	"log/slog"
	"time"

	"booking-engine/internal/domain/trip"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/pkg/pgconv"

	"github.com/google/uuid"
)

const (
	insertTripSQL = `INSERT INTO trips (id, quote_id, supplier_order_id, pnr, eticket_numbers, raw_order, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (quote_id) DO NOTHING`

	selectTripByQuoteSQL = `SELECT id, quote_id, supplier_order_id, pnr, eticket_numbers, raw_order, created_at
	FROM trips WHERE quote_id = $1`
)

type TripRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewTripRepository(dbtx db.DBTX, logger *slog.Logger) *TripRepository {
	return &TripRepository{db: dbtx, logger: logger}
}

func (r *TripRepository) Insert(ctx context.Context, t *trip.Trip) (bool, error) {
	tag, err := r.db.Exec(ctx, insertTripSQL,
		t.ID(), t.QuoteID(), t.SupplierOrderID(), t.PNR(), t.ETickets(), []byte(t.Raw()), t.CreatedAt())
	if err != nil {
		if pgconv.IsForeignKeyViolation(err) {
			return false, infra.WrapRepoErr(r.logger, infra.KindForeignKeyViolated, "trip quote does not exist", err)
		}
		return false, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to insert trip", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *TripRepository) FindByQuoteID(ctx context.Context, quoteID uuid.UUID) (*trip.Trip, error) {
	var (
		id, qid   uuid.UUID
		orderID   string
		pnr       string
		etickets  []string
		raw       []byte
		createdAt time.Time
	)
	err := r.db.QueryRow(ctx, selectTripByQuoteSQL, quoteID).Scan(&id, &qid, &orderID, &pnr, &etickets, &raw, &createdAt)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "trip not found", err)
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to load trip", err)
	}
	return trip.ReconstructTrip(id, qid, orderID, pnr, etickets, raw, createdAt.UTC()), nil
}
