//go:build unit

package infra_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"booking-engine/internal/infra"
	"booking-engine/internal/pkg/errs"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestWrapRepoErr(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cases := []struct {
		name string
		kind infra.RepositoryErrorKind
		err  error
		want infra.RepositoryErrorKind
	}{
		{"not found stays not found", infra.KindNotFound, nil, infra.KindNotFound},
		{"plain failure", infra.KindDBFailure, errors.New("conn reset"), infra.KindDBFailure},
		{"unique violation is narrowed", infra.KindDBFailure, &pgconn.PgError{Code: "23505"}, infra.KindDuplicateKey},
		{"serialization failure is a conflict", infra.KindDBFailure, &pgconn.PgError{Code: "40001"}, infra.KindConflict},
		{"deadlock is a conflict", infra.KindDBFailure, &pgconn.PgError{Code: "40P01"}, infra.KindConflict},
		{"explicit kind wins", infra.KindForeignKeyViolated, &pgconn.PgError{Code: "23505"}, infra.KindForeignKeyViolated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := infra.WrapRepoErr(logger, tc.kind, "op", tc.err)
			assert.True(t, infra.IsKind(err, tc.want))
			// kind survives further wrapping
			assert.True(t, infra.IsKind(errs.Wrap(err, "outer"), tc.want))
			if tc.err != nil {
				assert.True(t, errors.Is(err, tc.err))
			}
		})
	}
}
