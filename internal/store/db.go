package store

import (
	"context"
	"database/sql"
)

// DBTX is the query surface the SQL stores need. *sql.DB and *sql.Tx both
// satisfy it, so a store bound to either runs the same statements inside or
// outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
