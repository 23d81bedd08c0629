// Package value defines the generic value model used as the intermediate
// form between typed records and SQL parameters or result rows.
//
// A Value is one of a closed set of variants:
//
//	Null, Bool, Int, Uint, Float, String, Bytes, Seq, Map, Native
//
// Values are immutable once constructed. Map keeps insertion order and
// unique keys; it can only be built through MapOf or a MapBuilder.
package value

import (
	"fmt"
	"strconv"
)

// Kind identifies the variant of a Value.
type Kind uint8

// Value kinds.
const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindString
	KindBytes
	KindSeq
	KindMap
	KindNative
)

var kindNames = [...]string{
	KindNull:   "null",
	KindBool:   "bool",
	KindInt:    "int",
	KindUint:   "uint",
	KindFloat:  "float",
	KindString: "string",
	KindBytes:  "bytes",
	KindSeq:    "seq",
	KindMap:    "map",
	KindNative: "native",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Numeric reports whether the kind holds a number.
func (k Kind) Numeric() bool {
	return k == KindInt || k == KindUint || k == KindFloat
}

// Value is a generic value. The set of implementations is closed.
type Value interface {
	// Kind returns the variant of the value.
	Kind() Kind
	// Interface returns the natural Go form of the value.
	// Seq becomes []any and Map becomes map[string]any.
	Interface() any

	value()
}

type (
	// Null is the absent value.
	Null struct{}

	// Bool is a boolean value.
	Bool bool

	// Int is a signed integer with its declared bit width.
	Int struct {
		V    int64
		Bits uint8
	}

	// Uint is an unsigned integer with its declared bit width.
	Uint struct {
		V    uint64
		Bits uint8
	}

	// Float is a floating point number with its declared bit width.
	Float struct {
		V    float64
		Bits uint8
	}

	// String is a text value.
	String string

	// Bytes is a raw byte buffer.
	Bytes []byte

	// Seq is an ordered sequence of values.
	Seq []Value

	// Native carries a value of a type registered as kept as-is,
	// such as time.Time, so drivers can bind it natively.
	Native struct {
		V any
	}
)

func (Null) Kind() Kind   { return KindNull }
func (Bool) Kind() Kind   { return KindBool }
func (Int) Kind() Kind    { return KindInt }
func (Uint) Kind() Kind   { return KindUint }
func (Float) Kind() Kind  { return KindFloat }
func (String) Kind() Kind { return KindString }
func (Bytes) Kind() Kind  { return KindBytes }
func (Seq) Kind() Kind    { return KindSeq }
func (Native) Kind() Kind { return KindNative }

func (Null) Interface() any     { return nil }
func (v Bool) Interface() any   { return bool(v) }
func (v Int) Interface() any    { return v.V }
func (v Uint) Interface() any   { return v.V }
func (v Float) Interface() any  { return v.V }
func (v String) Interface() any { return string(v) }
func (v Bytes) Interface() any  { return []byte(v) }
func (v Native) Interface() any { return v.V }

func (v Seq) Interface() any {
	out := make([]any, len(v))
	for i, e := range v {
		out[i] = e.Interface()
	}
	return out
}

func (Null) value()   {}
func (Bool) value()   {}
func (Int) value()    {}
func (Uint) value()   {}
func (Float) value()  {}
func (String) value() {}
func (Bytes) value()  {}
func (Seq) value()    {}
func (Map) value()    {}
func (Native) value() {}

func (Null) String() string    { return "null" }
func (v Int) String() string   { return strconv.FormatInt(v.V, 10) }
func (v Uint) String() string  { return strconv.FormatUint(v.V, 10) }
func (v Float) String() string { return FormatFloat(v) }

// Int64 returns a 64-bit Int.
func Int64(v int64) Int { return Int{V: v, Bits: 64} }

// Uint64 returns a 64-bit Uint.
func Uint64(v uint64) Uint { return Uint{V: v, Bits: 64} }

// Float64 returns a 64-bit Float.
func Float64(v float64) Float { return Float{V: v, Bits: 64} }

// FormatFloat formats f in the shortest form that round-trips at its width.
func FormatFloat(f Float) string {
	bits := int(f.Bits)
	if bits != 32 {
		bits = 64
	}
	return strconv.FormatFloat(f.V, 'g', -1, bits)
}

// IsNull reports whether v is nil or Null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// Text returns the textual form of a scalar value. Bytes are returned as
// raw text and composite values are encoded as JSON.
func Text(v Value) string {
	switch v := v.(type) {
	case nil, Null:
		return ""
	case Bool:
		return strconv.FormatBool(bool(v))
	case Int:
		return v.String()
	case Uint:
		return v.String()
	case Float:
		return FormatFloat(v)
	case String:
		return string(v)
	case Bytes:
		return string(v)
	case Native:
		if s, ok := v.V.(fmt.Stringer); ok {
			return s.String()
		}
		return fmt.Sprint(v.V)
	default:
		b, err := MarshalJSON(v)
		if err != nil {
			return fmt.Sprint(v.Interface())
		}
		return string(b)
	}
}
