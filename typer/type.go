package typer

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/syssam/minorm"
	"github.com/syssam/minorm/schema"
	"github.com/syssam/minorm/schema/field"
	"github.com/syssam/minorm/value"
)

// Type converts the generic value v to a value of type rt.
func (t *Typer) Type(v value.Value, rt reflect.Type) (any, error) {
	rv, err := t.typeValue(v, rt, "")
	if err != nil {
		return nil, err
	}
	return rv.Interface(), nil
}

// TypeAs converts the generic value v to a T.
func TypeAs[T any](t *Typer, v value.Value) (T, error) {
	var zero T
	rv, err := t.typeValue(v, reflect.TypeFor[T](), "")
	if err != nil {
		return zero, err
	}
	out, _ := rv.Interface().(T)
	return out, nil
}

// TypeInto converts the generic value v and stores it in the value dst
// points to.
func (t *Typer) TypeInto(v value.Value, dst any) error {
	p := reflect.ValueOf(dst)
	if p.Kind() != reflect.Pointer || p.IsNil() {
		return fmt.Errorf("typer: TypeInto requires a non-nil pointer, got %T", dst)
	}
	rv, err := t.typeValue(v, p.Type().Elem(), "")
	if err != nil {
		return err
	}
	p.Elem().Set(rv)
	return nil
}

func (t *Typer) typeValue(v value.Value, rt reflect.Type, path string) (reflect.Value, error) {
	if v == nil {
		v = value.Null{}
	}
	if n, ok := v.(value.Native); ok && n.V != nil && reflect.TypeOf(n.V) == rt {
		return reflect.ValueOf(n.V), nil
	}
	if rt == valueType {
		out := reflect.New(rt).Elem()
		out.Set(reflect.ValueOf(v))
		return out, nil
	}
	if rt.Kind() == reflect.Interface && rt.NumMethod() == 0 {
		out := reflect.New(rt).Elem()
		if x := v.Interface(); x != nil {
			out.Set(reflect.ValueOf(x))
		}
		return out, nil
	}
	// Null leaves the target at its zero value, as an absent key would.
	if value.IsNull(v) {
		return reflect.Zero(rt), nil
	}
	if fn, ok := t.typers[rt]; ok {
		x, err := fn(t, v)
		if err != nil {
			return reflect.Value{}, wrap(err, minorm.UnsupportedConversion, rt, path)
		}
		return assign(x, rt, path)
	}
	if reflect.PointerTo(rt).Implements(reconstructorType) {
		return t.reconstruct(v, rt, path)
	}
	switch rt.Kind() {
	case reflect.Pointer:
		elem, err := t.typeValue(v, rt.Elem(), path)
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(rt.Elem())
		p.Elem().Set(elem)
		return p, nil
	case reflect.Bool:
		out := reflect.New(rt).Elem()
		out.SetBool(truthy(v))
		return out, nil
	case reflect.String:
		out := reflect.New(rt).Elem()
		out.SetString(value.Text(v))
		return out, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return typeInt(v, rt, path)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return typeUint(v, rt, path)
	case reflect.Float32, reflect.Float64:
		return typeFloat(v, rt, path)
	case reflect.Slice:
		if rt.Elem().Kind() == reflect.Uint8 {
			if b, ok := bytesOf(v); ok {
				return reflect.ValueOf(b).Convert(rt), nil
			}
		}
		return t.typeSlice(v, rt, path)
	case reflect.Array:
		return t.typeArray(v, rt, path)
	case reflect.Map:
		if field.IsSet(rt) {
			return t.typeSet(v, rt, path)
		}
		return t.typeMap(v, rt, path)
	case reflect.Struct:
		return t.reconstruct(v, rt, path)
	case reflect.Interface, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return reflect.Value{}, noConstructor(rt, path, nil)
	default:
		return reflect.Value{}, coercionError(minorm.UnsupportedConversion, rt, path, v.Interface(), nil)
	}
}

func assign(x any, rt reflect.Type, path string) (reflect.Value, error) {
	out := reflect.New(rt).Elem()
	xv := reflect.ValueOf(x)
	switch {
	case !xv.IsValid():
	case xv.Type().AssignableTo(rt):
		out.Set(xv)
	case xv.Type().ConvertibleTo(rt):
		out.Set(xv.Convert(rt))
	default:
		return reflect.Value{}, unsupported(rt, path, fmt.Errorf("converter returned %T", x))
	}
	return out, nil
}

// truthy implements boolean coercion: numbers are true when nonzero, text
// when nonempty, and any other value is true.
func truthy(v value.Value) bool {
	switch v := v.(type) {
	case value.Bool:
		return bool(v)
	case value.Int:
		return v.V != 0
	case value.Uint:
		return v.V != 0
	case value.Float:
		return v.V != 0
	case value.String:
		return v != ""
	default:
		return true
	}
}

func invalidNumber(rt reflect.Type, path string, v value.Value, err error) error {
	return coercionError(minorm.InvalidNumericLiteral, rt, path, v.Interface(), err)
}

func typeInt(v value.Value, rt reflect.Type, path string) (reflect.Value, error) {
	var n int64
	switch v := v.(type) {
	case value.Int:
		n = v.V
	case value.Uint:
		if v.V > math.MaxInt64 {
			return reflect.Value{}, invalidNumber(rt, path, v, strconv.ErrRange)
		}
		n = int64(v.V)
	case value.Float:
		if math.IsNaN(v.V) || v.V < math.MinInt64 || v.V >= math.MaxInt64 {
			return reflect.Value{}, invalidNumber(rt, path, v, strconv.ErrRange)
		}
		n = int64(v.V)
	default:
		s := strings.TrimSpace(value.Text(v))
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
				return reflect.Value{}, invalidNumber(rt, path, v, err)
			}
			i = int64(f)
		}
		n = i
	}
	out := reflect.New(rt).Elem()
	if out.OverflowInt(n) {
		return reflect.Value{}, invalidNumber(rt, path, v, strconv.ErrRange)
	}
	out.SetInt(n)
	return out, nil
}

func typeUint(v value.Value, rt reflect.Type, path string) (reflect.Value, error) {
	var n uint64
	switch v := v.(type) {
	case value.Uint:
		n = v.V
	case value.Int:
		if v.V < 0 {
			return reflect.Value{}, invalidNumber(rt, path, v, strconv.ErrRange)
		}
		n = uint64(v.V)
	case value.Float:
		if math.IsNaN(v.V) || v.V < 0 || v.V >= math.MaxUint64 {
			return reflect.Value{}, invalidNumber(rt, path, v, strconv.ErrRange)
		}
		n = uint64(v.V)
	default:
		u, err := strconv.ParseUint(strings.TrimSpace(value.Text(v)), 10, 64)
		if err != nil {
			return reflect.Value{}, invalidNumber(rt, path, v, err)
		}
		n = u
	}
	out := reflect.New(rt).Elem()
	if out.OverflowUint(n) {
		return reflect.Value{}, invalidNumber(rt, path, v, strconv.ErrRange)
	}
	out.SetUint(n)
	return out, nil
}

func typeFloat(v value.Value, rt reflect.Type, path string) (reflect.Value, error) {
	var f float64
	switch v := v.(type) {
	case value.Float:
		f = v.V
	case value.Int:
		f = float64(v.V)
	case value.Uint:
		f = float64(v.V)
	default:
		p, err := strconv.ParseFloat(strings.TrimSpace(value.Text(v)), rt.Bits())
		if err != nil {
			return reflect.Value{}, invalidNumber(rt, path, v, err)
		}
		f = p
	}
	out := reflect.New(rt).Elem()
	if out.OverflowFloat(f) {
		return reflect.Value{}, invalidNumber(rt, path, v, strconv.ErrRange)
	}
	out.SetFloat(f)
	return out, nil
}

func bytesOf(v value.Value) ([]byte, bool) {
	switch v := v.(type) {
	case value.Bytes:
		return append([]byte(nil), v...), true
	case value.String:
		return []byte(v), true
	}
	return nil, false
}

// seqOf returns the elements of a sequence source. Text is decoded as JSON
// and bytes as msgpack.
func seqOf(v value.Value, rt reflect.Type, path string) (value.Seq, error) {
	src := v
	switch v := v.(type) {
	case value.Seq:
		return v, nil
	case value.String:
		d, err := value.ParseJSON([]byte(v))
		if err != nil {
			return nil, unsupported(rt, path, err)
		}
		src = d
	case value.Bytes:
		d, err := value.DecodeMsgpack(v)
		if err != nil {
			return nil, unsupported(rt, path, err)
		}
		src = d
	}
	switch s := src.(type) {
	case value.Seq:
		return s, nil
	case value.Null:
		return value.Seq{}, nil
	}
	return nil, coercionError(minorm.UnsupportedConversion, rt, path, nil, fmt.Errorf("from %s", src.Kind()))
}

func mapOf(v value.Value, rt reflect.Type, path string) (value.Map, error) {
	src := v
	switch v := v.(type) {
	case value.Map:
		return v, nil
	case value.String:
		d, err := value.ParseJSON([]byte(v))
		if err != nil {
			return value.Map{}, unsupported(rt, path, err)
		}
		src = d
	case value.Bytes:
		d, err := value.DecodeMsgpack(v)
		if err != nil {
			return value.Map{}, unsupported(rt, path, err)
		}
		src = d
	}
	switch m := src.(type) {
	case value.Map:
		return m, nil
	case value.Null:
		return value.Map{}, nil
	}
	return value.Map{}, coercionError(minorm.UnsupportedConversion, rt, path, nil, fmt.Errorf("from %s", src.Kind()))
}

func (t *Typer) typeSlice(v value.Value, rt reflect.Type, path string) (reflect.Value, error) {
	seq, err := seqOf(v, rt, path)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.MakeSlice(rt, len(seq), len(seq))
	for i, e := range seq {
		ev, err := t.typeValue(e, rt.Elem(), path+"["+strconv.Itoa(i)+"]")
		if err != nil {
			return reflect.Value{}, err
		}
		out.Index(i).Set(ev)
	}
	return out, nil
}

func (t *Typer) typeArray(v value.Value, rt reflect.Type, path string) (reflect.Value, error) {
	out := reflect.New(rt).Elem()
	if b, ok := v.(value.Bytes); ok && rt.Elem().Kind() == reflect.Uint8 {
		if len(b) != rt.Len() {
			return reflect.Value{}, unsupported(rt, path, fmt.Errorf("got %d bytes", len(b)))
		}
		reflect.Copy(out, reflect.ValueOf([]byte(b)))
		return out, nil
	}
	seq, err := seqOf(v, rt, path)
	if err != nil {
		return reflect.Value{}, err
	}
	if len(seq) != rt.Len() {
		return reflect.Value{}, unsupported(rt, path, fmt.Errorf("got %d elements", len(seq)))
	}
	for i, e := range seq {
		ev, err := t.typeValue(e, rt.Elem(), path+"["+strconv.Itoa(i)+"]")
		if err != nil {
			return reflect.Value{}, err
		}
		out.Index(i).Set(ev)
	}
	return out, nil
}

func (t *Typer) typeSet(v value.Value, rt reflect.Type, path string) (reflect.Value, error) {
	seq, err := seqOf(v, rt, path)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.MakeMapWithSize(rt, len(seq))
	member := reflect.Zero(rt.Elem())
	for _, e := range seq {
		k, err := t.typeValue(e, rt.Key(), path)
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetMapIndex(k, member)
	}
	return out, nil
}

func (t *Typer) typeMap(v value.Value, rt reflect.Type, path string) (reflect.Value, error) {
	m, err := mapOf(v, rt, path)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.MakeMapWithSize(rt, m.Len())
	for k, e := range m.All() {
		kv, err := t.typeValue(value.String(k), rt.Key(), path)
		if err != nil {
			return reflect.Value{}, err
		}
		ev, err := t.typeValue(e, rt.Elem(), join(path, k))
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetMapIndex(kv, ev)
	}
	return out, nil
}

// reconstruct builds a record of type rt from a mapping keyed by column
// name. Absent keys leave the field at its default.
func (t *Typer) reconstruct(v value.Value, rt reflect.Type, path string) (rv reflect.Value, err error) {
	m, err := mapOf(v, rt, path)
	if err != nil {
		return reflect.Value{}, err
	}
	p := reflect.New(rt)
	defer func() {
		if r := recover(); r != nil {
			rv, err = reflect.Value{}, coercionError(minorm.ConstructionFailed, rt, path, nil, fmt.Errorf("panic: %v", r))
		}
	}()
	if d, ok := p.Interface().(Defaulter); ok {
		d.SetDefaults()
	}
	if r, ok := p.Interface().(Reconstructor); ok {
		if err := r.ReconstructValue(t, m); err != nil {
			return reflect.Value{}, wrap(err, minorm.ConstructionFailed, rt, path)
		}
	} else {
		s, err := schema.Of(rt)
		if err != nil {
			return reflect.Value{}, noConstructor(rt, path, err)
		}
		for _, f := range s.Fields {
			e, ok := m.Lookup(f.Name)
			if !ok {
				continue
			}
			fv, err := t.typeValue(e, f.Type, join(path, f.Name))
			if err != nil {
				return reflect.Value{}, err
			}
			p.Elem().FieldByIndex(f.Index).Set(fv)
		}
	}
	if vd, ok := p.Interface().(Validator); ok {
		if err := vd.Validate(); err != nil {
			return reflect.Value{}, coercionError(minorm.ConstructionFailed, rt, path, nil, err)
		}
	}
	return p.Elem(), nil
}

// Field converts the entry of m stored under name to a T. It is used by
// generated reconstructors. Absent keys report false.
func Field[T any](t *Typer, m value.Map, name string) (T, bool, error) {
	var zero T
	v, ok := m.Lookup(name)
	if !ok {
		return zero, false, nil
	}
	rv, err := t.typeValue(v, reflect.TypeFor[T](), name)
	if err != nil {
		return zero, true, err
	}
	out, _ := rv.Interface().(T)
	return out, true, nil
}
