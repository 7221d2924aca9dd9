package domain

import (
	"context"
	"database/sql"
)

// Querier abstracts over *sql.DB and *sql.Tx so repository methods can run
// inside or outside an explicit transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
