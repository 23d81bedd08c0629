package typer

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/syssam/minorm"
	"github.com/syssam/minorm/schema"
	"github.com/syssam/minorm/schema/field"
	"github.com/syssam/minorm/value"
)

// Untype converts v to its generic form.
func (t *Typer) Untype(v any) (value.Value, error) {
	switch v := v.(type) {
	case nil:
		return value.Null{}, nil
	case value.Value:
		return v, nil
	}
	return t.untype(reflect.ValueOf(v), "")
}

func (t *Typer) untype(rv reflect.Value, path string) (value.Value, error) {
	if !rv.IsValid() {
		return value.Null{}, nil
	}
	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return value.Null{}, nil
		}
		rv = rv.Elem()
	}
	rt := rv.Type()
	if _, ok := t.keep[rt]; ok {
		return value.Native{V: rv.Interface()}, nil
	}
	if fn, ok := t.untypers[rt]; ok {
		v, err := fn(t, rv.Interface())
		if err != nil {
			return nil, wrap(err, minorm.UnsupportedConversion, rt, path)
		}
		return v, nil
	}
	if rt.Implements(valueType) {
		return rv.Interface().(value.Value), nil
	}
	if d, ok := decomposer(rv); ok {
		m, err := d.DecomposeValue(t)
		if err != nil {
			return nil, wrap(err, minorm.UnsupportedConversion, rt, path)
		}
		return m, nil
	}
	switch rt.Kind() {
	case reflect.Bool:
		return value.Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return value.Int{V: rv.Int(), Bits: uint8(rt.Bits())}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return value.Uint{V: rv.Uint(), Bits: uint8(rt.Bits())}, nil
	case reflect.Float32, reflect.Float64:
		return value.Float{V: rv.Float(), Bits: uint8(rt.Bits())}, nil
	case reflect.String:
		return value.String(rv.String()), nil
	case reflect.Slice:
		if rt.Elem().Kind() == reflect.Uint8 {
			return value.Bytes(append([]byte(nil), rv.Bytes()...)), nil
		}
		return t.untypeSeq(rv, path)
	case reflect.Array:
		if rt.Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return value.Bytes(b), nil
		}
		return t.untypeSeq(rv, path)
	case reflect.Map:
		if field.IsSet(rt) {
			return t.untypeSet(rv, path)
		}
		return t.untypeMap(rv, path)
	case reflect.Pointer:
		if rv.IsNil() {
			return value.Null{}, nil
		}
		return t.untype(rv.Elem(), path)
	case reflect.Struct:
		return t.decompose(rv, path)
	default:
		return nil, unsupported(rt, path, nil)
	}
}

// decomposer returns the Decomposer of rv, taking the address of a copy
// when the method has a pointer receiver.
func decomposer(rv reflect.Value) (Decomposer, bool) {
	rt := rv.Type()
	if rt.Implements(decomposerType) {
		if rt.Kind() == reflect.Pointer && rv.IsNil() {
			return nil, false
		}
		return rv.Interface().(Decomposer), true
	}
	if rt.Kind() != reflect.Pointer && reflect.PointerTo(rt).Implements(decomposerType) {
		p := reflect.New(rt)
		p.Elem().Set(rv)
		return p.Interface().(Decomposer), true
	}
	return nil, false
}

func (t *Typer) untypeSeq(rv reflect.Value, path string) (value.Value, error) {
	seq := make(value.Seq, rv.Len())
	for i := range seq {
		e, err := t.untype(rv.Index(i), path+"["+strconv.Itoa(i)+"]")
		if err != nil {
			return nil, err
		}
		seq[i] = e
	}
	return seq, nil
}

func (t *Typer) untypeSet(rv reflect.Value, path string) (value.Value, error) {
	seq := make(value.Seq, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		e, err := t.untype(iter.Key(), path)
		if err != nil {
			return nil, err
		}
		seq = append(seq, e)
	}
	sort.Slice(seq, func(i, j int) bool {
		return value.Text(seq[i]) < value.Text(seq[j])
	})
	return seq, nil
}

func (t *Typer) untypeMap(rv reflect.Value, path string) (value.Value, error) {
	type entry struct {
		key string
		val reflect.Value
	}
	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k, err := mapKey(iter.Key())
		if err != nil {
			return nil, unsupported(rv.Type(), path, err)
		}
		entries = append(entries, entry{key: k, val: iter.Value()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
	b := value.NewMapBuilder(len(entries))
	for _, e := range entries {
		v, err := t.untype(e.val, path+"."+e.key)
		if err != nil {
			return nil, err
		}
		b.Set(e.key, v)
	}
	return b.Map(), nil
}

func mapKey(k reflect.Value) (string, error) {
	switch k.Kind() {
	case reflect.String:
		return k.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(k.Uint(), 10), nil
	default:
		return "", fmt.Errorf("map key %s", k.Type())
	}
}

// decompose converts a struct to a Map keyed by column name in declaration
// order.
func (t *Typer) decompose(rv reflect.Value, path string) (value.Value, error) {
	s, err := schema.Of(rv.Type())
	if err != nil {
		return nil, unsupported(rv.Type(), path, err)
	}
	b := value.NewMapBuilder(len(s.Fields))
	for _, f := range s.Fields {
		v, err := t.untype(rv.FieldByIndex(f.Index), join(path, f.Name))
		if err != nil {
			return nil, err
		}
		b.Set(f.Name, v)
	}
	return b.Map(), nil
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// wrap turns a foreign error into a CoercionError of the given kind.
// CoercionErrors pass through with their path filled in.
func wrap(err error, kind minorm.CoercionKind, rt reflect.Type, path string) error {
	if ce, ok := err.(*minorm.CoercionError); ok {
		if ce.Path != "" || path == "" {
			return ce
		}
		cp := *ce
		cp.Path = path
		return &cp
	}
	return coercionError(kind, rt, path, nil, err)
}
