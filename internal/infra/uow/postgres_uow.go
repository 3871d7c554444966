package uow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"booking-engine/internal/infra/db"
	"booking-engine/internal/infra/repository"
	"booking-engine/internal/pkg/backoff"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/shared"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgErrCodeSerializationFailure = "40001"
	pgErrCodeDeadlockDetected     = "40P01"
)

var (
	errTransactionBegin   = errs.New("failed to begin transaction")
	errTransactionCommit  = errs.New("failed to commit transaction")
	errMaxRetriesExceeded = errs.New("transaction failed after max retries")
)

type PostgresUoW struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresUoW(pool *pgxpool.Pool, logger *slog.Logger) shared.UnitOfWork {
	return &PostgresUoW{
		pool:   pool,
		logger: logger,
	}
}

// ReadCommitted prevents dirty reads while allowing concurrent writes
func (u *PostgresUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return u.runInTxWithOptions(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
}

func (u *PostgresUoW) WithDB(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return fn(ctx, &pgTx{dbtx: u.pool, logger: u.logger})
}

// Avoids defer accumulation in retry loops to prevent connection leaks
func (u *PostgresUoW) runInTxWithOptions(ctx context.Context, options pgx.TxOptions, fn func(ctx context.Context, tx shared.Tx) error) error {
	const maxRetries = 3
	base := 100 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		pgxTx, err := u.pool.BeginTx(ctx, options)
		if err != nil {
			return errs.Mark(err, errTransactionBegin)
		}

		tx := &pgTx{
			dbtx:   pgxTx,
			logger: u.logger,
		}

		err = fn(ctx, tx)
		if err == nil {
			if err = pgxTx.Commit(ctx); err == nil {
				return nil
			}
			err = errs.Mark(err, errTransactionCommit)
		}

		if rollbackErr := pgxTx.Rollback(ctx); rollbackErr != nil {
			if !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				u.logger.Warn("rollback failed", "attempt", attempt+1, "error", rollbackErr.Error())
			}
		}

		if !shouldRetry(err, attempt, maxRetries) {
			if attempt == maxRetries && isRetryableError(err) {
				u.logger.Error("transaction failed after max retries",
					"attempts", attempt+1,
					"error", err.Error())
				return errs.Mark(err, errMaxRetriesExceeded)
			}
			return err
		}

		waitTime := backoff.Exponential(attempt, base, 0)

		u.logger.Warn("retrying transaction due to retryable error",
			"attempt", attempt+1,
			"wait_ms", waitTime.Milliseconds(),
			"error", err.Error())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}

	return errMaxRetriesExceeded
}

func shouldRetry(err error, attempt, maxRetries int) bool {
	return isRetryableError(err) && attempt < maxRetries
}

func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case pgErrCodeSerializationFailure, pgErrCodeDeadlockDetected:
		return true
	default:
		return false
	}
}

type pgTx struct {
	dbtx   db.DBTX
	logger *slog.Logger

	// Lazy-initialized repositories
	quoteRepo        shared.QuoteRepository
	paymentRepo      shared.PaymentRepository
	paymentEventRepo shared.PaymentEventRepository
	tripRepo         shared.TripRepository
	idempotencyRepo  shared.IdempotencyRepository
	taskRepo         shared.TicketingTaskRepository
}

func (t *pgTx) Quotes() shared.QuoteRepository {
	if t.quoteRepo == nil {
		t.quoteRepo = repository.NewQuoteRepository(t.dbtx, t.logger)
	}
	return t.quoteRepo
}

func (t *pgTx) Payments() shared.PaymentRepository {
	if t.paymentRepo == nil {
		t.paymentRepo = repository.NewPaymentRepository(t.dbtx, t.logger)
	}
	return t.paymentRepo
}

func (t *pgTx) PaymentEvents() shared.PaymentEventRepository {
	if t.paymentEventRepo == nil {
		t.paymentEventRepo = repository.NewPaymentEventRepository(t.dbtx, t.logger)
	}
	return t.paymentEventRepo
}

func (t *pgTx) Trips() shared.TripRepository {
	if t.tripRepo == nil {
		t.tripRepo = repository.NewTripRepository(t.dbtx, t.logger)
	}
	return t.tripRepo
}

func (t *pgTx) Idempotency() shared.IdempotencyRepository {
	if t.idempotencyRepo == nil {
		t.idempotencyRepo = repository.NewIdempotencyRepository(t.dbtx, t.logger)
	}
	return t.idempotencyRepo
}

func (t *pgTx) TicketingTasks() shared.TicketingTaskRepository {
	if t.taskRepo == nil {
		t.taskRepo = repository.NewTicketingTaskRepository(t.dbtx, t.logger)
	}
	return t.taskRepo
}
