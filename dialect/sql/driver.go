package sql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/syssam/minorm/dialect"
	"github.com/syssam/minorm/value"
)

// Driver is a dialect.ExecQuerier over a database/sql connection pool.
type Driver struct {
	Conn
}

// NewDriver creates a new Driver with the given Conn.
func NewDriver(c Conn) *Driver {
	return &Driver{Conn: c}
}

// Open wraps the database/sql.Open method. The dialect is resolved from
// the driver name.
func Open(driverName, source string) (*Driver, error) {
	d, err := dialectForDriver(driverName)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName, source)
	if err != nil {
		return nil, err
	}
	return OpenDB(d, db), nil
}

// OpenDB wraps the given database/sql.DB with a Driver.
func OpenDB(d *Dialect, db *sql.DB) *Driver {
	return NewDriver(Conn{db, d})
}

// dialectForDriver resolves the dialect of a database/sql driver name,
// including names of wrapped drivers such as "sqlite3-otel".
func dialectForDriver(name string) (*Dialect, error) {
	for _, d := range []*Dialect{SQLite, MySQL, Postgres} {
		if strings.HasPrefix(name, d.name) {
			return d, nil
		}
	}
	return DialectOf(name)
}

// DB returns the underlying *sql.DB instance.
func (d Driver) DB() *sql.DB {
	return d.ExecQuerier.(*sql.DB)
}

// Tx starts and returns a transaction.
func (d *Driver) Tx(ctx context.Context) (*Tx, error) {
	return d.BeginTx(ctx, nil)
}

// BeginTx starts a transaction with options.
func (d *Driver) BeginTx(ctx context.Context, opts *TxOptions) (*Tx, error) {
	tx, err := d.DB().BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{
		Conn: Conn{tx, d.dialect},
		Tx:   tx,
	}, nil
}

// Close closes the underlying connection.
func (d *Driver) Close() error { return d.DB().Close() }

// Tx is a transaction implementing dialect.ExecQuerier.
type Tx struct {
	Conn
	driver.Tx
}

// ExecQuerier wraps the standard Exec and Query methods.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn implements dialect.ExecQuerier given ExecQuerier. Driver errors
// pass through the dialect's TranslateError.
type Conn struct {
	ExecQuerier
	dialect *Dialect
}

// Dialect returns the dialect of the connection.
func (c Conn) Dialect() *Dialect { return c.dialect }

// Exec implements the dialect.Execer interface.
func (c Conn) Exec(ctx context.Context, query string, args []any) (int64, error) {
	res, err := c.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, c.dialect.TranslateError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		// Some drivers do not report affected rows.
		return 0, nil
	}
	return n, nil
}

// Query implements the dialect.Querier interface.
func (c Conn) Query(ctx context.Context, query string, args []any) ([]value.Map, error) {
	rows, err := c.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, c.dialect.TranslateError(err)
	}
	maps, err := ScanMaps(rows)
	if err != nil {
		return nil, c.dialect.TranslateError(err)
	}
	return maps, nil
}

// ScanMaps reads all rows into generic mappings keyed by column label and
// closes rows.
func ScanMaps(rows ColumnScanner) (maps []value.Map, err error) {
	defer func() { err = errors.Join(err, rows.Close()) }()
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		m, err := value.Row(columns, values)
		if err != nil {
			return nil, err
		}
		maps = append(maps, m)
	}
	return maps, rows.Err()
}

type (
	// Result is an alias to sql.Result.
	Result = sql.Result
	// TxOptions holds the transaction options to be used in DB.BeginTx.
	TxOptions = sql.TxOptions
)

// ColumnScanner is the interface that wraps the standard
// sql.Rows methods used for scanning database rows.
type ColumnScanner interface {
	Close() error
	Columns() ([]string, error)
	Err() error
	Next() bool
	Scan(dest ...any) error
}

var (
	_ dialect.ExecQuerier = (*Driver)(nil)
	_ dialect.ExecQuerier = (*Tx)(nil)
)
