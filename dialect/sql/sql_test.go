package sql

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keays/mysql-adapter/dialect"
)

func mockDriver(t *testing.T) (*Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return OpenDB(dialect.MySQL, db), mock
}

func TestDialect(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, dialect.MySQL, OpenDB("mysql", db).Dialect())
	// Instrumented registrations keep the base dialect.
	assert.Equal(t, dialect.MySQL, OpenDB("mysql+tracing", db).Dialect())
}

func TestExec(t *testing.T) {
	drv, mock := mockDriver(t)
	ctx := context.Background()

	t.Run("nil_dest", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM `user`").WillReturnResult(sqlmock.NewResult(0, 2))
		require.NoError(t, drv.Exec(ctx, "DELETE FROM `user`", []any{}, nil))
	})
	t.Run("result_dest", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO `user` VALUES ()").WillReturnResult(sqlmock.NewResult(7, 1))
		var res sql.Result
		require.NoError(t, drv.Exec(ctx, "INSERT INTO `user` VALUES ()", []any{}, &res))
		id, err := res.LastInsertId()
		require.NoError(t, err)
		assert.Equal(t, int64(7), id)
	})
	t.Run("invalid_dest", func(t *testing.T) {
		// Fails before touching the database.
		var out []string
		err := drv.Exec(ctx, "DELETE FROM `user`", []any{}, &out)
		require.EqualError(t, err, "dialect/sql: invalid type *[]string. expect *sql.Result")
	})
	t.Run("invalid_args", func(t *testing.T) {
		err := drv.Exec(ctx, "DELETE FROM `user`", "no args", nil)
		require.Error(t, err)
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery(t *testing.T) {
	drv, mock := mockDriver(t)
	ctx := context.Background()

	t.Run("rows_dest", func(t *testing.T) {
		mock.ExpectQuery("SELECT * FROM `user`").WillReturnRows(
			sqlmock.NewRows([]string{"id", "name"}).
				AddRow(1, "alice").
				AddRow(2, "bob"))
		rows := &Rows{}
		require.NoError(t, drv.Query(ctx, "SELECT * FROM `user`", []any{}, rows))
		defer rows.Close()
		var names []string
		for rows.Next() {
			var (
				id   int64
				name string
			)
			require.NoError(t, rows.Scan(&id, &name))
			names = append(names, name)
		}
		require.NoError(t, rows.Err())
		assert.Equal(t, []string{"alice", "bob"}, names)
	})
	t.Run("invalid_dest", func(t *testing.T) {
		var out []string
		err := drv.Query(ctx, "SELECT * FROM `user`", []any{}, &out)
		require.EqualError(t, err, "dialect/sql: invalid type *[]string. expect *sql.Rows")
	})
	t.Run("invalid_args", func(t *testing.T) {
		err := drv.Query(ctx, "SELECT * FROM `user`", "no args", &Rows{})
		require.Error(t, err)
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsDriver(t *testing.T) {
	drv, mock := mockDriver(t)
	ctx := context.Background()
	boom := errors.New("boom")

	var hooked []string
	stats := NewStatsDriver(drv,
		WithHook(func(_ context.Context, query string, _ []any, _ time.Duration, _ error) {
			hooked = append(hooked, query)
		}),
	)

	mock.ExpectExec("DELETE FROM `user`").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, stats.Exec(ctx, "DELETE FROM `user`", []any{}, nil))

	mock.ExpectQuery("SELECT * FROM `user`").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	rows := &Rows{}
	require.NoError(t, stats.Query(ctx, "SELECT * FROM `user`", []any{}, rows))
	rows.Close()

	mock.ExpectExec("DELETE FROM `post`").WillReturnError(boom)
	require.Error(t, stats.Exec(ctx, "DELETE FROM `post`", []any{}, nil))

	snap := stats.QueryStats().Stats()
	assert.Equal(t, int64(2), snap.TotalExecs)
	assert.Equal(t, int64(1), snap.TotalQueries)
	assert.Equal(t, int64(1), snap.Errors)
	assert.Equal(t, []string{
		"DELETE FROM `user`",
		"SELECT * FROM `user`",
		"DELETE FROM `post`",
	}, hooked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsSlowThreshold(t *testing.T) {
	drv, mock := mockDriver(t)
	// Negative threshold: every statement counts as slow.
	stats := NewStatsDriver(drv, WithSlowThreshold(-time.Second))

	mock.ExpectExec("DELETE FROM `user`").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, stats.Exec(context.Background(), "DELETE FROM `user`", []any{}, nil))
	assert.Equal(t, int64(1), stats.QueryStats().Stats().SlowQueries)
}

func TestStatsSlowQueryLog(t *testing.T) {
	drv, mock := mockDriver(t)
	stats := NewStatsDriver(drv,
		WithSlowThreshold(-time.Second),
		WithSlowQueryLog(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	mock.ExpectExec("DELETE FROM `user`").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, stats.Exec(context.Background(), "DELETE FROM `user`", []any{}, nil))
}

func TestStatsSnapshotString(t *testing.T) {
	var snap StatsSnapshot
	assert.Equal(t, time.Duration(0), snap.AvgDuration())

	snap = StatsSnapshot{
		TotalQueries:  2,
		TotalExecs:    2,
		TotalDuration: 40 * time.Millisecond,
		SlowQueries:   1,
	}
	assert.Equal(t, 10*time.Millisecond, snap.AvgDuration())
	assert.Equal(t, "queries=2 execs=2 duration=40ms avg=10ms slow=1 errors=0", snap.String())
}
