package readstore

import (
	"context"
	"log/slog"
	"time"

	"booking-engine/internal/infra"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/pkg/pgconv"
	"booking-engine/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const tripViewSelect = `SELECT t.id, q.id, q.status, q.gateway_reference, q.price_minor, q.currency,
	t.supplier_order_id, t.pnr, t.eticket_numbers, q.created_at, t.created_at, tt.last_error
	FROM quotes q
	LEFT JOIN trips t ON t.quote_id = q.id
	LEFT JOIN ticketing_tasks tt ON tt.quote_id = q.id`

const (
	tripViewByTripIDSQL  = tripViewSelect + ` WHERE t.id = $1`
	tripViewByQuoteIDSQL = tripViewSelect + ` WHERE q.id = $1`
)

type TripReadStore struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewTripReadStore(dbtx db.DBTX, logger *slog.Logger) *TripReadStore {
	return &TripReadStore{db: dbtx, logger: logger}
}

func (s *TripReadStore) FindByTripID(ctx context.Context, id uuid.UUID) (*queries.TripView, error) {
	return s.find(ctx, tripViewByTripIDSQL, id)
}

func (s *TripReadStore) FindByQuoteID(ctx context.Context, quoteID uuid.UUID) (*queries.TripView, error) {
	return s.find(ctx, tripViewByQuoteIDSQL, quoteID)
}

func (s *TripReadStore) find(ctx context.Context, sql string, id uuid.UUID) (*queries.TripView, error) {
	var (
		v          queries.TripView
		tripID     pgtype.UUID
		orderID    pgtype.Text
		pnr        pgtype.Text
		etickets   []string
		createdAt  time.Time
		ticketedAt pgtype.Timestamptz
		lastError  pgtype.Text
	)
	err := s.db.QueryRow(ctx, sql, id).Scan(
		&tripID, &v.QuoteID, &v.Status, &v.Reference, &v.AmountMinor, &v.Currency,
		&orderID, &pnr, &etickets, &createdAt, &ticketedAt, &lastError,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(s.logger, infra.KindNotFound, "trip not found", err)
		}
		return nil, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "failed to get trip view", err)
	}

	v.TripID = pgconv.UUIDPtrFromPgtype(tripID)
	v.SupplierOrderID = pgconv.StringFromPgtype(orderID)
	v.PNR = pgconv.StringFromPgtype(pnr)
	v.ETicketNumbers = etickets
	if v.ETicketNumbers == nil {
		v.ETicketNumbers = []string{}
	}
	v.QuoteCreatedAt = createdAt.UTC()
	v.TicketedAt = pgconv.TimePtrFromPgtype(ticketedAt)
	v.LastError = pgconv.StringFromPgtype(lastError)
	return &v, nil
}
