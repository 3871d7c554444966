package infra

import (
	"log/slog"

	"booking-engine/internal/pkg/errs"

	"github.com/jackc/pgx/v5/pgconn"
)

type RepositoryErrorKind string

// Infrastructure-specific error kinds
const (
	KindNotFound           RepositoryErrorKind = "NOT_FOUND"
	KindDBFailure          RepositoryErrorKind = "DB_FAILURE"
	KindDuplicateKey       RepositoryErrorKind = "DUPLICATE_KEY"
	KindForeignKeyViolated RepositoryErrorKind = "FOREIGN_KEY_VIOLATED"
	// KindConflict is a serialization failure or deadlock; the whole
	// transaction can be retried.
	KindConflict RepositoryErrorKind = "CONFLICT"
)

var pgCodeKinds = map[string]RepositoryErrorKind{
	"23505": KindDuplicateKey,
	"23503": KindForeignKeyViolated,
	"40001": KindConflict,
	"40P01": KindConflict,
}

type RepositoryError struct {
	Kind RepositoryErrorKind
	msg  string
	err  error // wrapped low-level error
}

func (e RepositoryError) Error() string {
	if e.err != nil {
		return string(e.Kind) + ": " + e.msg + ": " + e.err.Error()
	}
	return string(e.Kind) + ": " + e.msg
}

func (e RepositoryError) Unwrap() error {
	return e.err
}

// WrapRepoErr logs and wraps a repository failure. A generic KindDBFailure is
// narrowed when the driver error carries a more specific SQLSTATE.
func WrapRepoErr(logger *slog.Logger, kind RepositoryErrorKind, msg string, err error) error {
	if kind == KindDBFailure {
		if k, ok := kindFromPg(err); ok {
			kind = k
		}
	}

	attrs := []any{slog.String("kind", string(kind))}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}

	switch kind {
	case KindNotFound:
		// misses are routine lookups
		logger.Debug("repository: "+msg, attrs...)
	case KindConflict, KindDuplicateKey:
		logger.Warn("repository: "+msg, attrs...)
	default:
		logger.Error("repository: "+msg, attrs...)
	}

	if err != nil {
		err = errs.Wrap(err, msg)
	}
	return RepositoryError{Kind: kind, msg: msg, err: err}
}

func IsKind(err error, kind RepositoryErrorKind) bool {
	var e RepositoryError
	if errs.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

func kindFromPg(err error) (RepositoryErrorKind, bool) {
	var pgErr *pgconn.PgError
	if err == nil || !errs.As(err, &pgErr) {
		return "", false
	}
	k, ok := pgCodeKinds[pgErr.Code]
	return k, ok
}
