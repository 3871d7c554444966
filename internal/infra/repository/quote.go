package repository

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"booking-engine/internal/domain/money"
	"booking-engine/internal/domain/quote"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/pkg/pgconv"
	"booking-engine/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const quoteColumns = `id, offer_id, offer_snapshot, price_minor, currency, email, phone,
	passengers, channel, status, gateway_reference, created_at, status_changed_at`

const (
	insertQuoteSQL = `INSERT INTO quotes (` + quoteColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	selectQuoteByIDSQL = `SELECT ` + quoteColumns + ` FROM quotes WHERE id = $1`

	selectQuoteByIDForUpdateSQL = selectQuoteByIDSQL + ` FOR UPDATE`

	selectQuoteByReferenceForUpdateSQL = `SELECT ` + quoteColumns + ` FROM quotes
	WHERE gateway_reference = $1 FOR UPDATE`

	updateQuoteStatusSQL = `UPDATE quotes SET status = $2, status_changed_at = $3
	WHERE id = $1 AND status = $4`

	listExpirableQuotesSQL = `SELECT ` + quoteColumns + ` FROM quotes
	WHERE status = 'awaiting_payment' AND created_at <= $1
	ORDER BY created_at
	LIMIT $2
	FOR UPDATE SKIP LOCKED`

	listStuckPaidQuotesSQL = `SELECT ` + quoteColumns + ` FROM quotes q
	WHERE q.status = 'paid' AND q.status_changed_at <= $1
	  AND NOT EXISTS (SELECT 1 FROM trips t WHERE t.quote_id = q.id)
	ORDER BY q.status_changed_at
	LIMIT $2`
)

type QuoteRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewQuoteRepository(dbtx db.DBTX, logger *slog.Logger) *QuoteRepository {
	return &QuoteRepository{
		db:     dbtx,
		logger: logger,
	}
}

func (r *QuoteRepository) Create(ctx context.Context, q *quote.Quote) error {
	passengers, err := json.Marshal(q.Passengers())
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to encode passengers", err)
	}

	_, err = r.db.Exec(ctx, insertQuoteSQL,
		q.ID(),
		q.Offer().ID(),
		[]byte(q.Offer().Snapshot()),
		q.Price().AmountMinor(),
		q.Price().Currency(),
		pgconv.StringToPgtype(q.Contact().Email()),
		pgconv.StringToPgtype(q.Contact().Phone()),
		passengers,
		string(q.Channel()),
		string(q.Status()),
		q.GatewayReference(),
		q.CreatedAt(),
		q.StatusChangedAt(),
	)
	if err != nil {
		if pgconv.IsUniqueViolation(err) {
			return infra.WrapRepoErr(r.logger, infra.KindDuplicateKey, "quote already exists", err)
		}
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to create quote", err)
	}
	return nil
}

func (r *QuoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*quote.Quote, error) {
	return r.findOne(ctx, selectQuoteByIDSQL, id)
}

func (r *QuoteRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*quote.Quote, error) {
	return r.findOne(ctx, selectQuoteByIDForUpdateSQL, id)
}

func (r *QuoteRepository) FindByReferenceForUpdate(ctx context.Context, reference string) (*quote.Quote, error) {
	return r.findOne(ctx, selectQuoteByReferenceForUpdateSQL, reference)
}

func (r *QuoteRepository) UpdateStatus(ctx context.Context, q *quote.Quote, from quote.Status) error {
	tag, err := r.db.Exec(ctx, updateQuoteStatusSQL, q.ID(), string(q.Status()), q.StatusChangedAt(), string(from))
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to update quote status", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrStaleWrite
	}
	return nil
}

func (r *QuoteRepository) ListExpirable(ctx context.Context, createdBefore time.Time, limit int) ([]*quote.Quote, error) {
	return r.findMany(ctx, listExpirableQuotesSQL, createdBefore, limit)
}

func (r *QuoteRepository) ListStuckPaid(ctx context.Context, changedBefore time.Time, limit int) ([]*quote.Quote, error) {
	return r.findMany(ctx, listStuckPaidQuotesSQL, changedBefore, limit)
}

func (r *QuoteRepository) findOne(ctx context.Context, sql string, arg any) (*quote.Quote, error) {
	q, err := scanQuote(r.db.QueryRow(ctx, sql, arg))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "quote not found", err)
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to load quote", err)
	}
	return q, nil
}

func (r *QuoteRepository) findMany(ctx context.Context, sql string, args ...any) ([]*quote.Quote, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to list quotes", err)
	}
	defer rows.Close()

	var quotes []*quote.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan quote", err)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to iterate quotes", err)
	}
	return quotes, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuote(row rowScanner) (*quote.Quote, error) {
	var (
		id              uuid.UUID
		offerID         string
		snapshot        []byte
		priceMinor      int64
		currency        string
		email           pgtype.Text
		phone           pgtype.Text
		passengersRaw   []byte
		channel         string
		status          string
		reference       string
		createdAt       time.Time
		statusChangedAt time.Time
	)
	if err := row.Scan(&id, &offerID, &snapshot, &priceMinor, &currency, &email, &phone,
		&passengersRaw, &channel, &status, &reference, &createdAt, &statusChangedAt); err != nil {
		return nil, err
	}
	return toQuoteDomain(id, offerID, snapshot, priceMinor, currency,
		pgconv.StringFromPgtype(email), pgconv.StringFromPgtype(phone),
		passengersRaw, channel, status, reference, createdAt, statusChangedAt)
}

func toQuoteDomain(
	id uuid.UUID,
	offerID string,
	snapshot []byte,
	priceMinor int64,
	currency, email, phone string,
	passengersRaw []byte,
	channel, status, reference string,
	createdAt, statusChangedAt time.Time,
) (*quote.Quote, error) {
	offer, err := quote.NewOffer(offerID, snapshot)
	if err != nil {
		return nil, err
	}
	price, err := money.New(priceMinor, currency)
	if err != nil {
		return nil, err
	}
	contact, err := quote.NewContact(email, phone)
	if err != nil {
		return nil, err
	}
	var passengers []quote.Passenger
	if len(passengersRaw) > 0 {
		if err := json.Unmarshal(passengersRaw, &passengers); err != nil {
			return nil, err
		}
	}
	st, err := quote.NewStatus(status)
	if err != nil {
		return nil, err
	}
	return quote.ReconstructQuote(
		id, offer, price, contact, passengers, quote.Channel(channel), st, reference,
		createdAt.UTC(), statusChangedAt.UTC(),
	), nil
}
