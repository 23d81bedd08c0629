// Package dialect names the SQL dialects supported by minorm and defines the
// query-execution capability the SQL compiler talks to.
//
// # Supported Dialects
//
//   - Generic: ANSI baseline
//   - SQLite: INSERT OR IGNORE / OR REPLACE, PRAGMA introspection
//   - MySQL: backtick quoting, primary indexes
//   - Postgres: $n placeholders, ON CONFLICT upserts
//
// # Execution Interfaces
//
// Rows are returned as ordered generic mappings keyed by column name:
//
//	type Querier interface {
//	    Query(ctx context.Context, query string, args []any) ([]value.Map, error)
//	}
//
//	type Execer interface {
//	    Exec(ctx context.Context, query string, args []any) (int64, error)
//	}
//
// The dialect/sql package implements both over database/sql:
//
//	drv, err := sql.Open(dialect.SQLite, "file:app.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
//	cols, err := sql.SQLite.ShowColumns(ctx, drv, "items")
//
// # Sub-packages
//
//   - dialect/sql: expression rendering, statement compilation, database/sql driver
//   - dialect/sql/schema: table metadata from shapes and schema sync
package dialect
