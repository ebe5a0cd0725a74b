// Package dialect defines the driver boundary between the adapter and the
// database server. The adapter produces SQL text; a Driver runs it on a
// borrowed connection and hands raw rows or results back.
package dialect

import "context"

// MySQL is the dialect this adapter generates SQL for.
const MySQL = "mysql"

// ExecQuerier wraps the two operations the adapter issues against a database:
// statements that mutate (Exec) and statements that return rows (Query).
//
// The args parameter is expected to be a []any, and v an *sql.Result for Exec
// or a *sql.Rows-compatible destination for Query. Passing anything else is a
// programming error and fails immediately.
type ExecQuerier interface {
	// Exec executes a statement that does not return rows.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a statement and scans its rows into v.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the minimal connection surface the adapter depends on.
// Implementations borrow one connection per statement from an external pool;
// no connection is held across logical operations.
type Driver interface {
	ExecQuerier
	// Close closes the underlying connection pool.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}
