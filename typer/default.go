package typer

import (
	"reflect"

	"github.com/syssam/minorm"
	"github.com/syssam/minorm/schema"
)

// CreateDefault returns the canonical zero value of rt: 0, "", false, an
// empty non-nil slice or map, a nil pointer, or a record whose fields are
// recursively defaulted and whose SetDefaults method, if any, has run.
func (t *Typer) CreateDefault(rt reflect.Type) (any, error) {
	rv, err := t.createDefault(rt, "")
	if err != nil {
		return nil, err
	}
	return rv.Interface(), nil
}

func (t *Typer) createDefault(rt reflect.Type, path string) (reflect.Value, error) {
	if _, ok := t.keep[rt]; ok {
		return reflect.Zero(rt), nil
	}
	if _, ok := t.typers[rt]; ok {
		return reflect.Zero(rt), nil
	}
	switch rt.Kind() {
	case reflect.Slice:
		return reflect.MakeSlice(rt, 0, 0), nil
	case reflect.Map:
		return reflect.MakeMap(rt), nil
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return reflect.Value{}, coercionError(minorm.NoDefault, rt, path, nil, nil)
	case reflect.Interface:
		if rt.NumMethod() > 0 {
			return reflect.Value{}, coercionError(minorm.NoDefault, rt, path, nil, nil)
		}
		return reflect.Zero(rt), nil
	case reflect.Array:
		out := reflect.New(rt).Elem()
		for i := range rt.Len() {
			e, err := t.createDefault(rt.Elem(), path)
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(e)
		}
		return out, nil
	case reflect.Struct:
		return t.defaultRecord(rt, path)
	default:
		return reflect.Zero(rt), nil
	}
}

func (t *Typer) defaultRecord(rt reflect.Type, path string) (reflect.Value, error) {
	p := reflect.New(rt)
	if !reflect.PointerTo(rt).Implements(reconstructorType) {
		s, err := schema.Of(rt)
		if err != nil {
			return reflect.Value{}, coercionError(minorm.NoDefault, rt, path, nil, err)
		}
		for _, f := range s.Fields {
			fv, err := t.createDefault(f.Type, join(path, f.Name))
			if err != nil {
				return reflect.Value{}, err
			}
			p.Elem().FieldByIndex(f.Index).Set(fv)
		}
	}
	if p.Type().Implements(defaulterType) {
		p.Interface().(Defaulter).SetDefaults()
	}
	return p.Elem(), nil
}
