package gen

import (
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/minorm/compiler/load"
	"github.com/syssam/minorm/dialect/sql"
	dsqlschema "github.com/syssam/minorm/dialect/sql/schema"
	"github.com/syssam/minorm/schema"
	"github.com/syssam/minorm/schema/field"
	"github.com/syssam/minorm/schema/index"
	"github.com/syssam/minorm/typer"
)

// standIns are the Go types a loaded column is typed as when its source
// type is not available at run time.
var standIns = map[field.Type]reflect.Type{
	field.TypeBool:    reflect.TypeFor[bool](),
	field.TypeTime:    reflect.TypeFor[time.Time](),
	field.TypeUUID:    reflect.TypeFor[uuid.UUID](),
	field.TypeKey:     reflect.TypeFor[schema.Key](),
	field.TypeIntKey:  reflect.TypeFor[schema.IntKey](),
	field.TypeBytes:   reflect.TypeFor[[]byte](),
	field.TypeString:  reflect.TypeFor[string](),
	field.TypeSeq:     reflect.TypeFor[[]any](),
	field.TypeMap:     reflect.TypeFor[map[string]any](),
	field.TypeShape:   reflect.TypeFor[map[string]any](),
	field.TypeOther:   reflect.TypeFor[any](),
	field.TypeInt8:    reflect.TypeFor[int8](),
	field.TypeInt16:   reflect.TypeFor[int16](),
	field.TypeInt32:   reflect.TypeFor[int32](),
	field.TypeInt:     reflect.TypeFor[int](),
	field.TypeInt64:   reflect.TypeFor[int64](),
	field.TypeUint8:   reflect.TypeFor[uint8](),
	field.TypeUint16:  reflect.TypeFor[uint16](),
	field.TypeUint32:  reflect.TypeFor[uint32](),
	field.TypeUint:    reflect.TypeFor[uint](),
	field.TypeUint64:  reflect.TypeFor[uint64](),
	field.TypeFloat32: reflect.TypeFor[float32](),
	field.TypeFloat64: reflect.TypeFor[float64](),
}

// Table returns the table metadata of a loaded record. Indexes come from
// the struct tags only; Indexes methods are not evaluated.
func Table(t *typer.Typer, s *load.Shape) (*sql.Table, error) {
	rs := &schema.Shape{
		Name:   s.Name,
		Table:  s.Table,
		Fields: make([]*schema.Field, len(s.Fields)),
	}
	for i, f := range s.Fields {
		rt, ok := standIns[f.Info]
		if !ok {
			return nil, NewShapeError(s.Name, f.GoName, "unsupported field type", nil)
		}
		if f.Nullable {
			rt = reflect.PointerTo(rt)
		}
		rs.Fields[i] = &schema.Field{
			Name:       f.Name,
			GoName:     f.GoName,
			Type:       rt,
			Info:       f.Info,
			Nullable:   f.Nullable,
			Default:    f.Default,
			HasDefault: f.HasDefault,
			MaxLength:  f.MaxLength,
			Unique:     f.Unique,
			Indexed:    f.Indexed,
			Desc:       f.Desc,
			Packed:     f.Packed,
		}
		if !f.Unique && !f.Indexed {
			continue
		}
		b := index.Fields(f.Name)
		if f.Unique {
			b.Unique()
		}
		if f.Desc {
			b.Desc()
		}
		rs.Indexes = append(rs.Indexes, b.Descriptor())
	}
	tbl, err := dsqlschema.NewTable(t, rs)
	if err != nil {
		return nil, NewShapeError(s.Name, "", "table", err)
	}
	return tbl, nil
}
