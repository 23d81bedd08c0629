package dialect

import (
	"context"

	"github.com/syssam/minorm/value"
)

// Dialect names.
const (
	Generic  = "generic"
	SQLite   = "sqlite"
	MySQL    = "mysql"
	Postgres = "postgres"
)

// Querier runs a statement and returns its rows.
type Querier interface {
	Query(ctx context.Context, query string, args []any) ([]value.Map, error)
}

// Execer runs a statement and returns the number of affected rows.
type Execer interface {
	Exec(ctx context.Context, query string, args []any) (int64, error)
}

// ExecQuerier wraps the Exec and Query methods.
type ExecQuerier interface {
	Execer
	Querier
}
