package repository

import (
	"context"
	"log/slog"
	"time"

	"booking-engine/internal/infra"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/pkg/pgconv"
	"booking-engine/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgtype"
)

const (
	reserveIdempotencyKeySQL = `INSERT INTO idempotency_keys
	(operation, key, request_hash, status, expires_at, created_at)
	VALUES ($1, $2, $3, 'processing', $4, $5)
	ON CONFLICT (operation, key) DO NOTHING`

	selectIdempotencyKeySQL = `SELECT operation, key, request_hash, status, response, expires_at, created_at, completed_at
	FROM idempotency_keys WHERE operation = $1 AND key = $2`

	// expired rows are taken over in place so the primary key stays the arbiter
	reclaimIdempotencyKeySQL = `UPDATE idempotency_keys
	SET request_hash = $3, status = 'processing', response = NULL, expires_at = $4, created_at = $5, completed_at = NULL
	WHERE operation = $1 AND key = $2 AND expires_at <= $5`

	completeIdempotencyKeySQL = `UPDATE idempotency_keys
	SET status = 'completed', response = $3, completed_at = $4
	WHERE operation = $1 AND key = $2`

	releaseIdempotencyKeySQL = `DELETE FROM idempotency_keys
	WHERE operation = $1 AND key = $2 AND status = 'processing'`

	deleteExpiredIdempotencyKeysSQL = `DELETE FROM idempotency_keys WHERE expires_at <= $1`
)

type IdempotencyRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewIdempotencyRepository(dbtx db.DBTX, logger *slog.Logger) *IdempotencyRepository {
	return &IdempotencyRepository{db: dbtx, logger: logger}
}

func (r *IdempotencyRepository) Reserve(ctx context.Context, operation, key, requestHash string, now, expiresAt time.Time) (*shared.IdempotencyEntry, bool, error) {
	// a row released between our insert and select sends us round once more
	for range 2 {
		tag, err := r.db.Exec(ctx, reserveIdempotencyKeySQL, operation, key, requestHash, expiresAt, now)
		if err != nil {
			return nil, false, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to reserve idempotency key", err)
		}
		if tag.RowsAffected() == 1 {
			return newProcessingEntry(operation, key, requestHash, now, expiresAt), true, nil
		}

		existing, err := r.find(ctx, operation, key)
		if infra.IsKind(err, infra.KindNotFound) {
			continue
		}
		if err != nil {
			return nil, false, err
		}
		if existing.ExpiresAt.After(now) {
			return existing, false, nil
		}

		tag, err = r.db.Exec(ctx, reclaimIdempotencyKeySQL, operation, key, requestHash, expiresAt, now)
		if err != nil {
			return nil, false, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to reclaim idempotency key", err)
		}
		if tag.RowsAffected() == 1 {
			return newProcessingEntry(operation, key, requestHash, now, expiresAt), true, nil
		}
	}

	existing, err := r.find(ctx, operation, key)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *IdempotencyRepository) Complete(ctx context.Context, operation, key string, response []byte, now time.Time) error {
	tag, err := r.db.Exec(ctx, completeIdempotencyKeySQL, operation, key, response, now)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to complete idempotency key", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr(r.logger, infra.KindNotFound, "idempotency key not found", nil)
	}
	return nil
}

func (r *IdempotencyRepository) Release(ctx context.Context, operation, key string) error {
	if _, err := r.db.Exec(ctx, releaseIdempotencyKeySQL, operation, key); err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to release idempotency key", err)
	}
	return nil
}

func (r *IdempotencyRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, deleteExpiredIdempotencyKeysSQL, now)
	if err != nil {
		return 0, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to purge idempotency keys", err)
	}
	return tag.RowsAffected(), nil
}

func (r *IdempotencyRepository) find(ctx context.Context, operation, key string) (*shared.IdempotencyEntry, error) {
	var (
		e           shared.IdempotencyEntry
		response    []byte
		completedAt pgtype.Timestamptz
	)
	err := r.db.QueryRow(ctx, selectIdempotencyKeySQL, operation, key).Scan(
		&e.Operation, &e.Key, &e.RequestHash, &e.Status, &response, &e.ExpiresAt, &e.CreatedAt, &completedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "idempotency key vanished", err)
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to load idempotency key", err)
	}
	e.Response = response
	e.CompletedAt = pgconv.TimePtrFromPgtype(completedAt)
	return &e, nil
}

func newProcessingEntry(operation, key, requestHash string, now, expiresAt time.Time) *shared.IdempotencyEntry {
	return &shared.IdempotencyEntry{
		Operation:   operation,
		Key:         key,
		RequestHash: requestHash,
		Status:      shared.IdempotencyProcessing,
		ExpiresAt:   expiresAt,
		CreatedAt:   now,
	}
}
