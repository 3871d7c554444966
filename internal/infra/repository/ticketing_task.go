package repository

import (
	"context"
	"log/slog"
	"time"

	"booking-engine/internal/domain/ticketing"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const ticketingTaskColumns = `quote_id, status, attempts, next_attempt_at, deadline, last_error, created_at, updated_at`

const (
	enqueueTicketingTaskSQL = `INSERT INTO ticketing_tasks (` + ticketingTaskColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (quote_id) DO NOTHING`

	selectTicketingTaskSQL = `SELECT ` + ticketingTaskColumns + ` FROM ticketing_tasks WHERE quote_id = $1`

	selectTicketingTaskForUpdateSQL = selectTicketingTaskSQL + ` FOR UPDATE`

	updateTicketingTaskSQL = `UPDATE ticketing_tasks
	SET status = $2, attempts = $3, next_attempt_at = $4, last_error = $5, updated_at = $6, claimed_until = NULL
	WHERE quote_id = $1`

	claimDueTicketingTasksSQL = `UPDATE ticketing_tasks SET claimed_until = $2
	WHERE quote_id IN (
		SELECT quote_id FROM ticketing_tasks
		WHERE status = 'pending' AND next_attempt_at <= $1
		  AND (claimed_until IS NULL OR claimed_until <= $1)
		ORDER BY next_attempt_at
		LIMIT $3
		FOR UPDATE SKIP LOCKED
	)
	RETURNING quote_id`
)

type TicketingTaskRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewTicketingTaskRepository(dbtx db.DBTX, logger *slog.Logger) *TicketingTaskRepository {
	return &TicketingTaskRepository{db: dbtx, logger: logger}
}

func (r *TicketingTaskRepository) Enqueue(ctx context.Context, t *ticketing.Task) (bool, error) {
	tag, err := r.db.Exec(ctx, enqueueTicketingTaskSQL,
		t.QuoteID(),
		string(t.Status()),
		t.Attempts(),
		t.NextAttemptAt(),
		t.Deadline(),
		pgconv.StringToPgtype(t.LastError()),
		t.CreatedAt(),
		t.UpdatedAt(),
	)
	if err != nil {
		if pgconv.IsForeignKeyViolation(err) {
			return false, infra.WrapRepoErr(r.logger, infra.KindForeignKeyViolated, "ticketing task quote does not exist", err)
		}
		return false, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to enqueue ticketing task", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *TicketingTaskRepository) FindByQuoteID(ctx context.Context, quoteID uuid.UUID) (*ticketing.Task, error) {
	return r.findOne(ctx, selectTicketingTaskSQL, quoteID)
}

func (r *TicketingTaskRepository) FindByQuoteIDForUpdate(ctx context.Context, quoteID uuid.UUID) (*ticketing.Task, error) {
	return r.findOne(ctx, selectTicketingTaskForUpdateSQL, quoteID)
}

func (r *TicketingTaskRepository) Update(ctx context.Context, t *ticketing.Task) error {
	tag, err := r.db.Exec(ctx, updateTicketingTaskSQL,
		t.QuoteID(),
		string(t.Status()),
		t.Attempts(),
		t.NextAttemptAt(),
		pgconv.StringToPgtype(t.LastError()),
		t.UpdatedAt(),
	)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to update ticketing task", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr(r.logger, infra.KindNotFound, "ticketing task not found", nil)
	}
	return nil
}

func (r *TicketingTaskRepository) ClaimDue(ctx context.Context, now, claimUntil time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, claimDueTicketingTasksSQL, now, claimUntil, limit)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to claim ticketing tasks", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan claimed task", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to claim ticketing tasks", err)
	}
	return ids, nil
}

func (r *TicketingTaskRepository) findOne(ctx context.Context, sql string, quoteID uuid.UUID) (*ticketing.Task, error) {
	var (
		id                      uuid.UUID
		status                  string
		attempts                int
		nextAttemptAt, deadline time.Time
		lastError               pgtype.Text
		createdAt, updatedAt    time.Time
	)
	err := r.db.QueryRow(ctx, sql, quoteID).Scan(&id, &status, &attempts, &nextAttemptAt, &deadline, &lastError, &createdAt, &updatedAt)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "ticketing task not found", err)
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to load ticketing task", err)
	}
	t, err := ticketing.ReconstructTask(id, ticketing.TaskStatus(status), attempts,
		nextAttemptAt.UTC(), deadline.UTC(), pgconv.StringFromPgtype(lastError), createdAt.UTC(), updatedAt.UTC())
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "invalid stored ticketing task", err)
	}
	return t, nil
}
