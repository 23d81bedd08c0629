// Package typer implements the coercion engine that converts typed Go values
// to generic values and back.
//
// A Typer is an immutable converter registry. Configuration methods return a
// new Typer, so one configured at startup can be shared by any number of
// goroutines without locking:
//
//	t := typer.New().
//	    WithKeepType(reflect.TypeFor[decimal.Decimal]())
//	t = typer.Register(t, untypeMoney, typeMoney)
//
//	v, err := t.Untype(item)                 // Item => value.Map
//	back, err := typer.TypeAs[Item](t, v)    // value.Map => Item
//
// Records are converted through the Decomposer and Reconstructor methods
// emitted by the code generator when present, and otherwise through a codec
// derived once from the record shape.
package typer

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/minorm"
	"github.com/syssam/minorm/schema"
	"github.com/syssam/minorm/value"
)

type (
	// UntypeFunc converts a typed value to a generic value.
	UntypeFunc func(t *Typer, v any) (value.Value, error)

	// TypeFunc converts a generic value to a typed value.
	TypeFunc func(t *Typer, v value.Value) (any, error)

	// Decomposer is implemented by records that convert themselves to a
	// generic mapping keyed by column name.
	Decomposer interface {
		DecomposeValue(t *Typer) (value.Map, error)
	}

	// Reconstructor is implemented by record pointers that fill themselves
	// from a generic mapping keyed by column name.
	Reconstructor interface {
		ReconstructValue(t *Typer, m value.Map) error
	}

	// Defaulter is implemented by record pointers that set their own
	// defaults before fields are assigned.
	Defaulter interface {
		SetDefaults()
	}

	// Validator is implemented by records that validate themselves after
	// being assembled.
	Validator interface {
		Validate() error
	}
)

var (
	valueType         = reflect.TypeFor[value.Value]()
	decomposerType    = reflect.TypeFor[Decomposer]()
	reconstructorType = reflect.TypeFor[Reconstructor]()
	defaulterType     = reflect.TypeFor[Defaulter]()
)

// Typer is an immutable converter registry.
type Typer struct {
	keep     map[reflect.Type]struct{}
	untypers map[reflect.Type]UntypeFunc
	typers   map[reflect.Type]TypeFunc
}

// New returns a Typer with the built-in converters: time.Time is kept as-is
// and uuid.UUID converts to and from its text form.
func New() *Typer {
	t := Empty().WithKeepType(reflect.TypeFor[time.Time]())
	t = Register(t, untypeUUID, typeUUID)
	return Register(t, nil, typeTime)
}

// Empty returns a Typer without any registration.
func Empty() *Typer {
	return &Typer{
		keep:     map[reflect.Type]struct{}{},
		untypers: map[reflect.Type]UntypeFunc{},
		typers:   map[reflect.Type]TypeFunc{},
	}
}

func (t *Typer) clone() *Typer {
	return &Typer{
		keep:     maps.Clone(t.keep),
		untypers: maps.Clone(t.untypers),
		typers:   maps.Clone(t.typers),
	}
}

// WithKeepType returns a new Typer that passes values of rt through Untype
// unchanged, wrapped in value.Native.
func (t *Typer) WithKeepType(rt reflect.Type) *Typer {
	n := t.clone()
	n.keep[rt] = struct{}{}
	return n
}

// WithUntyper returns a new Typer that converts values of rt with fn.
func (t *Typer) WithUntyper(rt reflect.Type, fn UntypeFunc) *Typer {
	n := t.clone()
	n.untypers[rt] = fn
	return n
}

// WithTyper returns a new Typer that builds values of rt with fn.
func (t *Typer) WithTyper(rt reflect.Type, fn TypeFunc) *Typer {
	n := t.clone()
	n.typers[rt] = fn
	return n
}

// Keep is the generic form of WithKeepType.
func Keep[T any](t *Typer) *Typer {
	return t.WithKeepType(reflect.TypeFor[T]())
}

// Register returns a new Typer with both directions of a converter for T.
// Either function may be nil.
func Register[T any](t *Typer, untype func(*Typer, T) (value.Value, error), typ func(*Typer, value.Value) (T, error)) *Typer {
	rt := reflect.TypeFor[T]()
	n := t.clone()
	if untype != nil {
		n.untypers[rt] = func(t *Typer, v any) (value.Value, error) {
			return untype(t, v.(T))
		}
	}
	if typ != nil {
		n.typers[rt] = func(t *Typer, v value.Value) (any, error) {
			return typ(t, v)
		}
	}
	return n
}

// Kept reports whether rt is passed through as-is.
func (t *Typer) Kept(rt reflect.Type) bool {
	_, ok := t.keep[rt]
	return ok
}

// Check validates that every given type can be converted in both
// directions. It is meant to run at startup so unsupported shapes fail
// before the first conversion.
func (t *Typer) Check(types ...reflect.Type) error {
	var errs []error
	seen := make(map[reflect.Type]bool)
	for _, rt := range types {
		if err := t.check(rt, rt.String(), seen); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *Typer) check(rt reflect.Type, path string, seen map[reflect.Type]bool) error {
	if seen[rt] {
		return nil
	}
	seen[rt] = true
	if _, ok := t.keep[rt]; ok {
		return nil
	}
	_, hasU := t.untypers[rt]
	_, hasT := t.typers[rt]
	if hasU || hasT || rt == valueType {
		return nil
	}
	if rt.Implements(decomposerType) || reflect.PointerTo(rt).Implements(reconstructorType) {
		return nil
	}
	switch rt.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return t.check(rt.Elem(), path, seen)
	case reflect.Map:
		switch rt.Key().Kind() {
		case reflect.String, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		default:
			return unsupported(rt, path, fmt.Errorf("map key %s", rt.Key()))
		}
		return t.check(rt.Elem(), path, seen)
	case reflect.Struct:
		s, err := schema.Of(rt)
		if err != nil {
			return noConstructor(rt, path, err)
		}
		var errs []error
		for _, f := range s.Fields {
			if err := t.check(f.Type, path+"."+f.Name, seen); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	case reflect.Interface:
		if rt.NumMethod() > 0 {
			return noConstructor(rt, path, nil)
		}
		return nil
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return noConstructor(rt, path, nil)
	case reflect.Complex64, reflect.Complex128, reflect.Uintptr:
		return unsupported(rt, path, nil)
	default:
		return nil
	}
}

func coercionError(kind minorm.CoercionKind, rt reflect.Type, path string, v any, err error) error {
	e := minorm.NewCoercionError(kind, rt, v, err)
	e.Path = path
	return e
}

func unsupported(rt reflect.Type, path string, err error) error {
	return coercionError(minorm.UnsupportedConversion, rt, path, nil, err)
}

func noConstructor(rt reflect.Type, path string, err error) error {
	return coercionError(minorm.NoConstructor, rt, path, nil, err)
}

func untypeUUID(_ *Typer, u uuid.UUID) (value.Value, error) {
	return value.String(u.String()), nil
}

func typeUUID(_ *Typer, v value.Value) (uuid.UUID, error) {
	switch v := v.(type) {
	case value.Bytes:
		if len(v) == 16 {
			return uuid.FromBytes(v)
		}
		return uuid.ParseBytes(v)
	case value.String:
		return uuid.Parse(string(v))
	case value.Native:
		if u, ok := v.V.(uuid.UUID); ok {
			return u, nil
		}
	}
	return uuid.UUID{}, unsupported(reflect.TypeFor[uuid.UUID](), "", fmt.Errorf("from %s", v.Kind()))
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.DateOnly,
}

func typeTime(_ *Typer, v value.Value) (time.Time, error) {
	switch v := v.(type) {
	case value.Native:
		if tm, ok := v.V.(time.Time); ok {
			return tm, nil
		}
	case value.Int:
		return time.UnixMilli(v.V).UTC(), nil
	case value.Uint:
		return time.UnixMilli(int64(v.V)).UTC(), nil
	case value.Float:
		return time.UnixMilli(int64(v.V)).UTC(), nil
	case value.String, value.Bytes:
		s := value.Text(v)
		for _, layout := range timeLayouts {
			if tm, err := time.Parse(layout, s); err == nil {
				return tm, nil
			}
		}
		return time.Time{}, unsupported(reflect.TypeFor[time.Time](), "", fmt.Errorf("unrecognized time %q", s))
	}
	return time.Time{}, unsupported(reflect.TypeFor[time.Time](), "", fmt.Errorf("from %s", v.Kind()))
}
