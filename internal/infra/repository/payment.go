package repository

import (
	"context"
	"log/slog"
	"time"

	"booking-engine/internal/domain/money"
	"booking-engine/internal/domain/payment"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	insertPaymentSQL = `INSERT INTO payments
	(id, reference, quote_id, provider, amount_minor, paid_amount_minor, currency, method, status, authorization_url,
	created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	selectPaymentByReferenceSQL = `SELECT id, quote_id, provider, reference, amount_minor, paid_amount_minor, currency, method,
	status, authorization_url, created_at, updated_at
	FROM payments WHERE reference = $1`

	updatePaymentSQL = `UPDATE payments SET status = $2, paid_amount_minor = $3, authorization_url = $4, updated_at = $5
	WHERE id = $1`
)

type PaymentRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewPaymentRepository(dbtx db.DBTX, logger *slog.Logger) *PaymentRepository {
	return &PaymentRepository{db: dbtx, logger: logger}
}

func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	_, err := r.db.Exec(ctx, insertPaymentSQL,
		p.ID(),
		p.Reference(),
		p.QuoteID(),
		p.Provider(),
		p.Amount().AmountMinor(),
		paidAmountToPgtype(p),
		p.Amount().Currency(),
		string(p.Method()),
		string(p.Status()),
		pgconv.StringToPgtype(p.AuthorizationURL()),
		p.CreatedAt(),
		p.UpdatedAt(),
	)
	if err != nil {
		switch {
		case pgconv.IsUniqueViolation(err):
			return infra.WrapRepoErr(r.logger, infra.KindDuplicateKey, "payment reference already exists", err)
		case pgconv.IsForeignKeyViolation(err):
			return infra.WrapRepoErr(r.logger, infra.KindForeignKeyViolated, "payment quote does not exist", err)
		default:
			return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to create payment", err)
		}
	}
	return nil
}

func (r *PaymentRepository) FindByReference(ctx context.Context, reference string) (*payment.Payment, error) {
	var (
		id, quoteID          uuid.UUID
		provider, ref        string
		amountMinor          int64
		paidMinor            pgtype.Int8
		currency             string
		method, status       string
		authURL              pgtype.Text
		createdAt, updatedAt time.Time
	)
	err := r.db.QueryRow(ctx, selectPaymentByReferenceSQL, reference).Scan(
		&id, &quoteID, &provider, &ref, &amountMinor, &paidMinor, &currency, &method, &status, &authURL, &createdAt, &updatedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "payment not found", err)
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to load payment", err)
	}

	amount, err := money.New(amountMinor, currency)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "invalid stored payment amount", err)
	}
	var paid money.Money
	if paidMinor.Valid {
		if paid, err = money.New(paidMinor.Int64, currency); err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "invalid stored paid amount", err)
		}
	}
	p, err := payment.ReconstructPayment(id, quoteID, provider, ref, amount, paid, payment.Method(method),
		payment.Status(status), pgconv.StringFromPgtype(authURL), createdAt.UTC(), updatedAt.UTC())
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "invalid stored payment", err)
	}
	return p, nil
}

func (r *PaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	tag, err := r.db.Exec(ctx, updatePaymentSQL, p.ID(), string(p.Status()), paidAmountToPgtype(p),
		pgconv.StringToPgtype(p.AuthorizationURL()), p.UpdatedAt())
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to update payment", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr(r.logger, infra.KindNotFound, "payment not found", nil)
	}
	return nil
}

// paidAmountToPgtype stores NULL until the gateway confirms a charge.
func paidAmountToPgtype(p *payment.Payment) pgtype.Int8 {
	paid := p.PaidAmount()
	if paid.IsZero() {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: paid.AmountMinor(), Valid: true}
}
