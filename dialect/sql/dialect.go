package sql

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/syssam/minorm/dialect"
	"github.com/syssam/minorm/schema"
	"github.com/syssam/minorm/schema/field"
	"github.com/syssam/minorm/value"
)

// Dialect is an immutable SQL-variant configuration. The predefined
// dialects are shared values; methods that configure a dialect return a
// modified copy.
type Dialect struct {
	name           string
	quote          byte
	primaryIndex   bool
	extendedInsert bool
	rawExpressions bool
	numbered       bool   // $n placeholders
	timeLayout     string // timestamp literal layout
	utc            bool   // convert timestamps to UTC before formatting
	types          map[field.Type]string
	insertInto     func(OnConflict) string
	conflict       func(d *Dialect, t *Table, cols []*Column, c OnConflict, next int, batch bool) (string, int, error)
	showColumns    func(d *Dialect, table string) (string, func(value.Map) string)
}

// Predefined dialects.
var (
	// Generic is the ANSI baseline.
	Generic = &Dialect{
		name:       dialect.Generic,
		quote:      '"',
		timeLayout: "2006-01-02 15:04:05.999999",
		utc:        true,
		insertInto: genericInsertInto,
		conflict:   noConflictClause,
		showColumns: func(d *Dialect, table string) (string, func(value.Map) string) {
			return "SHOW COLUMNS FROM " + d.QuoteIdentifier(table) + ";", columnName("FIELD", "COLUMN_NAME")
		},
	}

	// SQLite supports INSERT OR IGNORE, INSERT OR REPLACE and PRAGMA
	// based introspection.
	SQLite = Generic.derive(func(d *Dialect) {
		d.name = dialect.SQLite
		d.extendedInsert = true
		d.insertInto = func(c OnConflict) string {
			switch c {
			case ConflictIgnore:
				return "INSERT OR IGNORE INTO "
			case ConflictReplace:
				return "INSERT OR REPLACE INTO "
			default:
				return genericInsertInto(c)
			}
		}
		d.showColumns = func(d *Dialect, table string) (string, func(value.Map) string) {
			return "PRAGMA table_info(" + d.QuoteIdentifier(table) + ");", columnName("name")
		}
	})

	// MySQL quotes identifiers with backticks and supports primary indexes.
	MySQL = Generic.derive(func(d *Dialect) {
		d.name = dialect.MySQL
		d.quote = '`'
		d.primaryIndex = true
		d.extendedInsert = true
		d.conflict = mysqlConflictClause
	})

	// Postgres uses numbered placeholders and ON CONFLICT clauses.
	Postgres = Generic.derive(func(d *Dialect) {
		d.name = dialect.Postgres
		d.numbered = true
		d.extendedInsert = true
		d.timeLayout = "2006-01-02 15:04:05.999999Z07:00"
		d.utc = false
		d.types = map[field.Type]string{
			field.TypeBytes: "BYTEA",
		}
		d.insertInto = func(OnConflict) string { return "INSERT INTO " }
		d.conflict = postgresConflictClause
		d.showColumns = func(d *Dialect, table string) (string, func(value.Map) string) {
			return "SELECT column_name FROM information_schema.columns WHERE table_name = " +
				d.QuoteString(table) + " ORDER BY ordinal_position;", columnName("column_name")
		}
	})
)

// DialectOf returns the predefined dialect with the given name.
func DialectOf(name string) (*Dialect, error) {
	switch name {
	case dialect.Generic, "":
		return Generic, nil
	case dialect.SQLite, "sqlite3":
		return SQLite, nil
	case dialect.MySQL:
		return MySQL, nil
	case dialect.Postgres, "pgx":
		return Postgres, nil
	default:
		return nil, fmt.Errorf("dialect/sql: unknown dialect %q", name)
	}
}

func (d *Dialect) derive(fn func(*Dialect)) *Dialect {
	n := *d
	fn(&n)
	return &n
}

// WithRawExpressions returns a copy of d that splices Raw predicates
// verbatim instead of failing. The caller is responsible for the text.
func (d *Dialect) WithRawExpressions() *Dialect {
	return d.derive(func(n *Dialect) { n.rawExpressions = true })
}

// Name returns the dialect name.
func (d *Dialect) Name() string { return d.name }

// SupportsPrimaryIndex reports whether CREATE PRIMARY INDEX is valid.
func (d *Dialect) SupportsPrimaryIndex() bool { return d.primaryIndex }

// SupportsExtendedInsert reports whether one INSERT may carry several rows.
func (d *Dialect) SupportsExtendedInsert() bool { return d.extendedInsert }

// String implements fmt.Stringer.
func (d *Dialect) String() string { return d.name }

// QuoteIdentifier quotes a table or column name, doubling any embedded
// quote character.
func (d *Dialect) QuoteIdentifier(s string) string {
	return quote(s, d.quote)
}

// QuoteString quotes a string literal.
func (d *Dialect) QuoteString(s string) string {
	return quote(s, '\'')
}

func quote(s string, q byte) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(q)
	for i := 0; i < len(s); i++ {
		if s[i] == q {
			b.WriteByte(q)
		}
		b.WriteByte(s[i])
	}
	b.WriteByte(q)
	return b.String()
}

var timeType = reflect.TypeFor[time.Time]()

// QuoteLiteral renders v as an SQL literal.
func (d *Dialect) QuoteLiteral(v any) string {
	switch v := v.(type) {
	case nil, value.Null:
		return "NULL"
	case value.Value:
		return d.quoteValue(v)
	case schema.IntKey:
		return strconv.FormatInt(int64(v), 10)
	case schema.Key:
		return d.QuoteString(string(v))
	case string:
		return d.QuoteString(v)
	case []byte:
		return "X'" + hex.EncodeToString(v) + "'"
	case time.Time:
		return d.QuoteString(d.FormatTime(v))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		return value.FormatFloat(value.Float{V: rv.Float(), Bits: 32})
	case reflect.Float64:
		return value.FormatFloat(value.Float64(rv.Float()))
	case reflect.Pointer:
		if rv.IsNil() {
			return "NULL"
		}
		return d.QuoteLiteral(rv.Elem().Interface())
	}
	if s, ok := v.(fmt.Stringer); ok {
		return d.QuoteString(s.String())
	}
	if rv.Type().ConvertibleTo(timeType) {
		return d.QuoteString(d.FormatTime(rv.Convert(timeType).Interface().(time.Time)))
	}
	return d.QuoteString(fmt.Sprint(v))
}

func (d *Dialect) quoteValue(v value.Value) string {
	switch v := v.(type) {
	case value.Bool, value.Int, value.Uint, value.Float:
		return value.Text(v)
	case value.String:
		return d.QuoteString(string(v))
	case value.Bytes:
		return d.QuoteLiteral([]byte(v))
	case value.Native:
		return d.QuoteLiteral(v.V)
	default:
		return d.QuoteString(value.Text(v))
	}
}

// FormatTime formats t as the dialect's timestamp literal text.
func (d *Dialect) FormatTime(t time.Time) string {
	if d.utc {
		t = t.UTC()
	}
	return t.Format(d.timeLayout)
}

// Placeholder returns the parameter marker for the i-th argument, 1-based.
func (d *Dialect) Placeholder(i int) string {
	if d.numbered {
		return "$" + strconv.Itoa(i)
	}
	return "?"
}

func columnName(keys ...string) func(value.Map) string {
	return func(row value.Map) string {
		for _, k := range keys {
			if v, ok := row.Lookup(k); ok && !value.IsNull(v) {
				return value.Text(v)
			}
		}
		return "-"
	}
}
