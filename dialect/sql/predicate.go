package sql

import (
	"strings"

	"github.com/syssam/minorm"
)

// Op is a binary operator of the expression model.
type Op uint8

// Operators. OpAnd and OpOr join predicates; the rest compare a column
// with a literal.
const (
	OpAnd Op = iota
	OpOr
	OpLike
	OpEQ
	OpNEQ
	OpGT
	OpLT
	OpGTE
	OpLTE
)

var opTokens = [...]string{
	OpAnd:  "AND",
	OpOr:   "OR",
	OpLike: "LIKE",
	OpEQ:   "=",
	OpNEQ:  "<>",
	OpGT:   ">",
	OpLT:   "<",
	OpGTE:  ">=",
	OpLTE:  "<=",
}

// String returns the SQL token of the operator.
func (o Op) String() string {
	if int(o) < len(opTokens) {
		return opTokens[o]
	}
	return "?"
}

// Predicate is an immutable boolean expression tree rendered into a WHERE
// clause by a Dialect.
type Predicate interface {
	render(d *Dialect, b *strings.Builder) error
}

type (
	constant bool

	compare struct {
		field string
		op    Op
		lit   any
	}

	binary struct {
		op   Op
		l, r Predicate
	}

	not struct{ p Predicate }

	in struct {
		field string
		lits  []any
	}

	raw string
)

// Always returns a predicate that is always true.
func Always() Predicate { return constant(true) }

// Never returns a predicate that is always false.
func Never() Predicate { return constant(false) }

// Compare returns a predicate comparing a column with a literal.
func Compare(field string, op Op, v any) Predicate {
	return compare{field: field, op: op, lit: v}
}

// EQ returns a "field = v" predicate.
func EQ(field string, v any) Predicate { return Compare(field, OpEQ, v) }

// NEQ returns a "field <> v" predicate.
func NEQ(field string, v any) Predicate { return Compare(field, OpNEQ, v) }

// GT returns a "field > v" predicate.
func GT(field string, v any) Predicate { return Compare(field, OpGT, v) }

// GTE returns a "field >= v" predicate.
func GTE(field string, v any) Predicate { return Compare(field, OpGTE, v) }

// LT returns a "field < v" predicate.
func LT(field string, v any) Predicate { return Compare(field, OpLT, v) }

// LTE returns a "field <= v" predicate.
func LTE(field string, v any) Predicate { return Compare(field, OpLTE, v) }

// Like returns a "field LIKE pattern" predicate.
func Like(field, pattern string) Predicate { return Compare(field, OpLike, pattern) }

// In returns a membership predicate. An empty list never matches.
func In(field string, vs ...any) Predicate {
	return in{field: field, lits: vs}
}

// And joins the predicates left to right. With no arguments it is Always.
func And(ps ...Predicate) Predicate { return fold(OpAnd, Always(), ps) }

// Or joins the predicates left to right. With no arguments it is Never.
func Or(ps ...Predicate) Predicate { return fold(OpOr, Never(), ps) }

func fold(op Op, empty Predicate, ps []Predicate) Predicate {
	if len(ps) == 0 {
		return empty
	}
	p := ps[0]
	for _, r := range ps[1:] {
		p = binary{op: op, l: p, r: r}
	}
	return p
}

// Not negates p.
func Not(p Predicate) Predicate { return not{p: p} }

// Raw returns a predicate holding SQL text. Only dialects configured with
// WithRawExpressions render it.
func Raw(text string) Predicate { return raw(text) }

// Render returns the WHERE clause text of p.
func (d *Dialect) Render(p Predicate) (string, error) {
	var b strings.Builder
	if err := p.render(d, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (c constant) render(_ *Dialect, b *strings.Builder) error {
	if c {
		b.WriteString("1=1")
	} else {
		b.WriteString("1=0")
	}
	return nil
}

func (c compare) render(d *Dialect, b *strings.Builder) error {
	b.WriteString(d.QuoteIdentifier(c.field))
	b.WriteString(c.op.String())
	b.WriteString(d.QuoteLiteral(c.lit))
	return nil
}

func (n binary) render(d *Dialect, b *strings.Builder) error {
	b.WriteString("((")
	if err := n.l.render(d, b); err != nil {
		return err
	}
	b.WriteString(") ")
	b.WriteString(n.op.String())
	b.WriteString(" (")
	if err := n.r.render(d, b); err != nil {
		return err
	}
	b.WriteString("))")
	return nil
}

func (n not) render(d *Dialect, b *strings.Builder) error {
	b.WriteString("(NOT (")
	if err := n.p.render(d, b); err != nil {
		return err
	}
	b.WriteString("))")
	return nil
}

func (n in) render(d *Dialect, b *strings.Builder) error {
	if len(n.lits) == 0 {
		return Never().render(d, b)
	}
	b.WriteString(d.QuoteIdentifier(n.field))
	b.WriteString(" IN (")
	for i, v := range n.lits {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.QuoteLiteral(v))
	}
	b.WriteByte(')')
	return nil
}

func (r raw) render(d *Dialect, b *strings.Builder) error {
	if !d.rawExpressions {
		return minorm.NewNotImplementedError("raw")
	}
	b.WriteString(string(r))
	return nil
}

// Field is a typed column reference that builds predicates.
//
//	var Score = sql.Field[int]("score")
//	where := sql.And(Score.GT(10), Name.Like("a%"))
type Field[T any] string

// Name returns the column name.
func (f Field[T]) Name() string { return string(f) }

// EQ returns a predicate that checks if the column equals v.
func (f Field[T]) EQ(v T) Predicate { return EQ(string(f), v) }

// NEQ returns a predicate that checks if the column does not equal v.
func (f Field[T]) NEQ(v T) Predicate { return NEQ(string(f), v) }

// GT returns a predicate that checks if the column is greater than v.
func (f Field[T]) GT(v T) Predicate { return GT(string(f), v) }

// GTE returns a predicate that checks if the column is greater than or equal to v.
func (f Field[T]) GTE(v T) Predicate { return GTE(string(f), v) }

// LT returns a predicate that checks if the column is less than v.
func (f Field[T]) LT(v T) Predicate { return LT(string(f), v) }

// LTE returns a predicate that checks if the column is less than or equal to v.
func (f Field[T]) LTE(v T) Predicate { return LTE(string(f), v) }

// In returns a predicate that checks if the column is one of vs.
func (f Field[T]) In(vs ...T) Predicate {
	lits := make([]any, len(vs))
	for i, v := range vs {
		lits[i] = v
	}
	return In(string(f), lits...)
}

// NotIn returns a predicate that checks if the column is none of vs.
func (f Field[T]) NotIn(vs ...T) Predicate { return Not(f.In(vs...)) }

// StringField is a text column reference with pattern predicates. Pattern
// characters in the arguments are not escaped.
type StringField struct{ Field[string] }

// String returns a StringField for the named column.
func String(name string) StringField { return StringField{Field[string](name)} }

// Like returns a predicate that checks if the column matches pattern.
func (f StringField) Like(pattern string) Predicate { return Like(f.Name(), pattern) }

// HasPrefix returns a predicate that checks if the column starts with prefix.
func (f StringField) HasPrefix(prefix string) Predicate {
	return Like(f.Name(), prefix+"%")
}

// HasSuffix returns a predicate that checks if the column ends with suffix.
func (f StringField) HasSuffix(suffix string) Predicate {
	return Like(f.Name(), "%"+suffix)
}

// Contains returns a predicate that checks if the column contains sub.
func (f StringField) Contains(sub string) Predicate {
	return Like(f.Name(), "%"+sub+"%")
}
