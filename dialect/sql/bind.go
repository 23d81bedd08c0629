package sql

import (
	"context"
	"errors"
	"fmt"

	"github.com/syssam/minorm/dialect"
	"github.com/syssam/minorm/value"
)

// BindValue converts a generic value to a driver argument for column c.
// Sequences and mappings are bound as JSON text, or as msgpack bytes when
// the column is packed. c may be nil.
func BindValue(c *Column, v value.Value) (any, error) {
	switch v := v.(type) {
	case nil, value.Null:
		return nil, nil
	case value.Bool:
		return bool(v), nil
	case value.Int:
		return v.V, nil
	case value.Uint:
		return v.V, nil
	case value.Float:
		return v.V, nil
	case value.String:
		return string(v), nil
	case value.Bytes:
		return []byte(v), nil
	case value.Native:
		return v.V, nil
	case value.Seq, value.Map:
		if c != nil && c.Packed {
			return value.EncodeMsgpack(v)
		}
		b, err := value.MarshalJSON(v)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	default:
		return nil, fmt.Errorf("dialect/sql: unexpected value %T", v)
	}
}

// Args returns the driver arguments of row in the order of columns. Absent
// keys are bound as NULL.
func Args(columns []*Column, row value.Map) ([]any, error) {
	args := make([]any, len(columns))
	for i, c := range columns {
		v, ok := row.Get(c.Name)
		if !ok {
			continue
		}
		arg, err := BindValue(c, v)
		if err != nil {
			return nil, fmt.Errorf("dialect/sql: bind %q: %w", c.Name, err)
		}
		args[i] = arg
	}
	return args, nil
}

// ShowColumnsQuery returns the statement listing the columns of table and
// a function extracting the column name from each returned row.
func (d *Dialect) ShowColumnsQuery(table string) (string, func(value.Map) string) {
	return d.showColumns(d, table)
}

// ShowColumns returns the columns of an existing table. Only the column
// names are filled.
func (d *Dialect) ShowColumns(ctx context.Context, q dialect.Querier, table string) ([]*Column, error) {
	query, name := d.ShowColumnsQuery(table)
	rows, err := q.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	cols := make([]*Column, len(rows))
	for i, row := range rows {
		cols[i] = &Column{Name: name(row)}
	}
	return cols, nil
}

// ErrEmptyArgs is returned by MultiQuery for an empty argument list.
var ErrEmptyArgs = errors.New("dialect/sql: empty argument list")

// MultiQuery runs query once per argument list, in order, and returns the
// rows of the last run. It stops at the first error.
func MultiQuery(ctx context.Context, q dialect.Querier, query string, argsList [][]any) ([]value.Map, error) {
	if len(argsList) == 0 {
		return nil, ErrEmptyArgs
	}
	var last []value.Map
	for _, args := range argsList {
		rows, err := q.Query(ctx, query, args)
		if err != nil {
			return nil, err
		}
		last = rows
	}
	return last, nil
}

// Repeat returns args repeated n times, as required by InsertInfo.
func Repeat(args []any, n int) []any {
	out := make([]any, 0, len(args)*n)
	for range n {
		out = append(out, args...)
	}
	return out
}
