//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// DBLike is satisfied by the pool and by a transaction.
type DBLike interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CountRows counts rows of table matching an optional where clause.
func CountRows(t *testing.T, db DBLike, table, where string, args ...any) int {
	t.Helper()

	query := "SELECT COUNT(*) FROM " + table
	if where != "" {
		query += " WHERE " + where
	}
	var n int
	require.NoError(t, db.QueryRow(context.Background(), query, args...).Scan(&n))
	return n
}

func QuoteStatus(t *testing.T, db DBLike, quoteID uuid.UUID) string {
	t.Helper()

	var status string
	err := db.QueryRow(context.Background(), "SELECT status FROM quotes WHERE id = $1", quoteID).Scan(&status)
	require.NoError(t, err)
	return status
}

// BackdateQuote shifts a quote's creation time into the past so sweeps treat it as stale.
func BackdateQuote(t *testing.T, db DBLike, quoteID uuid.UUID, by time.Duration) {
	t.Helper()

	tag, err := db.Exec(context.Background(),
		"UPDATE quotes SET created_at = created_at - $2::interval, status_changed_at = status_changed_at - $2::interval WHERE id = $1",
		quoteID, fmt.Sprintf("%d seconds", int64(by.Seconds())))
	require.NoError(t, err)
	require.EqualValues(t, 1, tag.RowsAffected())
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	_, err := pool.Exec(ctx, sqlAny.(string))
	return err
}
