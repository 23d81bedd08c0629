package sql

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/syssam/minorm/schema/field"
	"github.com/syssam/minorm/schema/index"
	"github.com/syssam/minorm/typer"
)

// OnConflict selects what an INSERT does when it hits a uniqueness
// constraint.
type OnConflict uint8

// Conflict policies.
const (
	// ConflictError fails the statement.
	ConflictError OnConflict = iota
	// ConflictIgnore skips the conflicting row.
	ConflictIgnore
	// ConflictReplace overwrites the conflicting row.
	ConflictReplace
)

// String returns the policy name.
func (c OnConflict) String() string {
	switch c {
	case ConflictIgnore:
		return "IGNORE"
	case ConflictReplace:
		return "REPLACE"
	default:
		return "ERROR"
	}
}

type (
	// Column is the metadata of one table column.
	Column struct {
		Name       string
		Type       field.Type
		GoType     reflect.Type // used to derive the default, may be nil
		Nullable   bool
		Default    any // explicit default, used when HasDefault is set
		HasDefault bool
		MaxLength  int
		Packed     bool // sequence or mapping stored as msgpack bytes
	}

	// IndexColumn is one column of an index with its direction.
	IndexColumn struct {
		Name string
		Desc bool
	}

	// Index is the metadata of a table index.
	Index struct {
		Name    string
		Kind    index.Kind
		Columns []IndexColumn
	}

	// Table is the metadata of a table.
	Table struct {
		Name    string
		Columns []*Column
		Indexes []*Index
	}

	// InsertInfo is a compiled INSERT statement. The caller binds the
	// argument list RepeatCount times in a row.
	InsertInfo struct {
		SQL         string
		RepeatCount int
	}
)

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Direction returns the direction token of the column.
func (c IndexColumn) Direction() string {
	if c.Desc {
		return "DESC"
	}
	return "ASC"
}

// ColumnType returns the SQL type name of a column with the given type tag.
// A positive maxLength bounds text columns.
func (d *Dialect) ColumnType(tag field.Type, maxLength int) string {
	if t, ok := d.types[tag]; ok {
		return t
	}
	switch tag {
	case field.TypeInt8, field.TypeInt16, field.TypeInt32, field.TypeInt,
		field.TypeUint8, field.TypeUint16, field.TypeUint32, field.TypeIntKey:
		return "INTEGER"
	case field.TypeInt64, field.TypeUint, field.TypeUint64:
		return "BIGINT"
	case field.TypeFloat32:
		return "REAL"
	case field.TypeFloat64:
		return "DOUBLE PRECISION"
	case field.TypeBool:
		return "BOOLEAN"
	case field.TypeBytes:
		return "BLOB"
	case field.TypeTime:
		return "TIMESTAMP"
	default:
		if maxLength > 0 {
			return "VARCHAR(" + strconv.Itoa(maxLength) + ")"
		}
		return "VARCHAR"
	}
}

func (d *Dialect) columnType(c *Column) string {
	if c.Packed {
		return d.ColumnType(field.TypeBytes, 0)
	}
	return d.ColumnType(c.Type, c.MaxLength)
}

// ColumnDef returns the definition of c as used in CREATE TABLE and
// ALTER TABLE. Nullable columns never carry a default; other columns
// default to their explicit default or to the zero value of their Go type.
func (d *Dialect) ColumnDef(t *typer.Typer, c *Column) (string, error) {
	var b strings.Builder
	b.WriteString(d.QuoteIdentifier(c.Name))
	b.WriteByte(' ')
	b.WriteString(d.columnType(c))
	if c.Nullable {
		b.WriteString(" NULL")
		return b.String(), nil
	}
	lit, err := d.DefaultLiteral(t, c)
	if err != nil {
		return "", fmt.Errorf("dialect/sql: column %q default: %w", c.Name, err)
	}
	b.WriteString(" NOT NULL DEFAULT (")
	b.WriteString(lit)
	b.WriteByte(')')
	return b.String(), nil
}

// DefaultLiteral returns the SQL literal of the default value of c.
func (d *Dialect) DefaultLiteral(t *typer.Typer, c *Column) (string, error) {
	def := c.Default
	if !c.HasDefault {
		if c.GoType == nil {
			return "", errors.New("no Go type to derive a default from")
		}
		v, err := t.CreateDefault(c.GoType)
		if err != nil {
			return "", err
		}
		def = v
	}
	v, err := t.Untype(def)
	if err != nil {
		return "", err
	}
	arg, err := BindValue(c, v)
	if err != nil {
		return "", err
	}
	return d.QuoteLiteral(arg), nil
}

// CreateTable returns an idempotent CREATE TABLE statement.
func (d *Dialect) CreateTable(t *typer.Typer, table string, columns []*Column) (string, error) {
	defs := make([]string, len(columns))
	for i, c := range columns {
		def, err := d.ColumnDef(t, c)
		if err != nil {
			return "", err
		}
		defs[i] = def
	}
	return "CREATE TABLE IF NOT EXISTS " + d.QuoteIdentifier(table) + " (" + strings.Join(defs, ", ") + ");", nil
}

// AlterTableAddColumn returns an ALTER TABLE statement adding c.
func (d *Dialect) AlterTableAddColumn(t *typer.Typer, table string, c *Column) (string, error) {
	def, err := d.ColumnDef(t, c)
	if err != nil {
		return "", err
	}
	return "ALTER TABLE " + d.QuoteIdentifier(table) + " ADD " + def + ";", nil
}

// Delete returns a DELETE statement. A limit of zero or less means no limit.
func (d *Dialect) Delete(table string, where Predicate, limit int) (string, error) {
	cond, err := d.Render(where)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("DELETE FROM ")
	b.WriteString(d.QuoteIdentifier(table))
	b.WriteString(" WHERE ")
	b.WriteString(cond)
	if limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(limit))
	}
	b.WriteByte(';')
	return b.String(), nil
}

// CreateIndex returns an idempotent CREATE INDEX statement. The index is
// named <table>_<name>. Primary indexes degrade to unique indexes on
// dialects without primary index support.
func (d *Dialect) CreateIndex(kind index.Kind, table string, columns []IndexColumn, name string) string {
	var b strings.Builder
	b.WriteString("CREATE ")
	switch {
	case kind == index.KindPrimary && d.primaryIndex:
		b.WriteString("PRIMARY INDEX")
	case kind == index.KindPrimary, kind == index.KindUnique:
		b.WriteString("UNIQUE INDEX")
	default:
		b.WriteString("INDEX")
	}
	b.WriteString(" IF NOT EXISTS ")
	b.WriteString(d.QuoteIdentifier(table + "_" + name))
	b.WriteString(" ON ")
	b.WriteString(d.QuoteIdentifier(table))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.QuoteIdentifier(c.Name))
		b.WriteByte(' ')
		b.WriteString(c.Direction())
	}
	b.WriteString(");")
	return b.String()
}

// Insert returns a single-row INSERT statement for the given columns.
func (d *Dialect) Insert(t *Table, columns []*Column, c OnConflict) (InsertInfo, error) {
	return d.insert(t, columns, 1, c, false)
}

// InsertBatch returns an INSERT statement carrying rows rows. Arguments
// are bound row after row and the statement is never repeated.
func (d *Dialect) InsertBatch(t *Table, columns []*Column, rows int, c OnConflict) (InsertInfo, error) {
	if rows > 1 && !d.extendedInsert {
		return InsertInfo{}, fmt.Errorf("dialect/sql: %s does not support multi-row inserts", d.name)
	}
	if rows < 1 {
		return InsertInfo{}, fmt.Errorf("dialect/sql: invalid row count %d", rows)
	}
	return d.insert(t, columns, rows, c, true)
}

func (d *Dialect) insert(t *Table, columns []*Column, rows int, c OnConflict, batch bool) (InsertInfo, error) {
	if len(columns) == 0 {
		return InsertInfo{}, fmt.Errorf("dialect/sql: insert into %q without columns", t.Name)
	}
	var b strings.Builder
	b.WriteString(d.insertInto(c))
	b.WriteString(d.QuoteIdentifier(t.Name))
	b.WriteString(" (")
	for i, col := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.QuoteIdentifier(col.Name))
	}
	b.WriteString(") VALUES ")
	next := 1
	for r := range rows {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for i := range columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.Placeholder(next))
			next++
		}
		b.WriteByte(')')
	}
	clause, repeat, err := d.conflict(d, t, columns, c, next, batch)
	if err != nil {
		return InsertInfo{}, err
	}
	b.WriteString(clause)
	return InsertInfo{SQL: b.String(), RepeatCount: 1 + repeat}, nil
}

func genericInsertInto(c OnConflict) string {
	if c == ConflictIgnore {
		return "INSERT IGNORE INTO "
	}
	return "INSERT INTO "
}

func noConflictClause(*Dialect, *Table, []*Column, OnConflict, int, bool) (string, int, error) {
	return "", 0, nil
}

func mysqlConflictClause(d *Dialect, _ *Table, cols []*Column, c OnConflict, _ int, batch bool) (string, int, error) {
	if c != ConflictReplace {
		return "", 0, nil
	}
	sets := make([]string, len(cols))
	for i, col := range cols {
		name := d.QuoteIdentifier(col.Name)
		if batch {
			sets[i] = name + "=VALUES(" + name + ")"
		} else {
			sets[i] = name + "=?"
		}
	}
	clause := " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	if batch {
		return clause, 0, nil
	}
	return clause, 1, nil
}

func postgresConflictClause(d *Dialect, t *Table, cols []*Column, c OnConflict, next int, batch bool) (string, int, error) {
	switch c {
	case ConflictIgnore:
		return " ON CONFLICT DO NOTHING", 0, nil
	case ConflictReplace:
	default:
		return "", 0, nil
	}
	target := t.conflictTarget()
	if target == nil {
		return "", 0, fmt.Errorf("dialect/sql: upsert into %q requires a unique index", t.Name)
	}
	keys := make([]string, len(target.Columns))
	for i, ic := range target.Columns {
		keys[i] = d.QuoteIdentifier(ic.Name)
	}
	sets := make([]string, len(cols))
	for i, col := range cols {
		name := d.QuoteIdentifier(col.Name)
		if batch {
			sets[i] = name + "=EXCLUDED." + name
		} else {
			sets[i] = name + "=" + d.Placeholder(next+i)
		}
	}
	clause := " ON CONFLICT (" + strings.Join(keys, ", ") + ") DO UPDATE SET " + strings.Join(sets, ", ")
	if batch {
		return clause, 0, nil
	}
	return clause, 1, nil
}

// conflictTarget returns the first primary or unique index.
func (t *Table) conflictTarget() *Index {
	for _, kind := range []index.Kind{index.KindPrimary, index.KindUnique} {
		for _, idx := range t.Indexes {
			if idx.Kind == kind {
				return idx
			}
		}
	}
	return nil
}
