package schema

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/syssam/minorm/schema/field"
	"github.com/syssam/minorm/schema/index"
)

// TagName is the struct tag key read by Of.
const TagName = "minorm"

type (
	// Shape describes a record type.
	Shape struct {
		Name    string       // Go type name
		Table   string       // table name
		Type    reflect.Type // struct type
		Fields  []*Field     // columns in declaration order
		Indexes []*index.Descriptor

		byName map[string]*Field
	}

	// Field describes one column of a Shape.
	Field struct {
		Name       string       // column name
		GoName     string       // Go field name
		Index      []int        // reflect field index path
		Type       reflect.Type // Go type of the field
		Info       field.Type   // semantic type tag
		Nullable   bool         // pointer-typed field
		Default    string       // explicit default literal
		HasDefault bool
		MaxLength  int
		Unique     bool
		Indexed    bool
		Desc       bool
		Packed     bool
	}
)

// Tabler is implemented by records that choose their table name.
type Tabler interface {
	TableName() string
}

// Indexer is implemented by records that declare composite indexes.
type Indexer interface {
	Indexes() []*index.Descriptor
}

// Field returns the column with the given name.
func (s *Shape) Field(name string) (*Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// Columns returns the column names in declaration order.
func (s *Shape) Columns() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Elem returns the Go type with pointers removed.
func (f *Field) Elem() reflect.Type {
	t := f.Type
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

var (
	shapes sync.Map // reflect.Type => *Shape
	group  singleflight.Group
)

// Of returns the shape of the struct type rt, or of the struct rt points to.
// Shapes are derived once and cached.
func Of(rt reflect.Type) (*Shape, error) {
	if rt == nil {
		return nil, fmt.Errorf("schema: nil type")
	}
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if s, ok := shapes.Load(rt); ok {
		return s.(*Shape), nil
	}
	v, err, _ := group.Do(rt.PkgPath()+"|"+rt.String(), func() (any, error) {
		if s, ok := shapes.Load(rt); ok {
			return s, nil
		}
		s, err := derive(rt)
		if err != nil {
			return nil, err
		}
		actual, _ := shapes.LoadOrStore(rt, s)
		return actual, nil
	})
	if err != nil {
		return nil, err
	}
	// Distinct types may share a key; only trust a result for rt itself.
	if s := v.(*Shape); s.Type == rt {
		return s, nil
	}
	s, err := derive(rt)
	if err != nil {
		return nil, err
	}
	actual, _ := shapes.LoadOrStore(rt, s)
	return actual.(*Shape), nil
}

// MustOf is like Of but panics on error. It is meant for package-level
// variables and tests.
func MustOf(rt reflect.Type) *Shape {
	s, err := Of(rt)
	if err != nil {
		panic(err)
	}
	return s
}

func derive(rt reflect.Type) (*Shape, error) {
	if rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema: %s is not a struct", rt)
	}
	s := &Shape{
		Name:   rt.Name(),
		Table:  TableName(rt.Name()),
		Type:   rt,
		byName: make(map[string]*Field),
	}
	zero := reflect.Zero(rt).Interface()
	if t, ok := zero.(Tabler); ok {
		s.Table = t.TableName()
	}
	if err := s.collect(rt, nil); err != nil {
		return nil, err
	}
	for _, f := range s.Fields {
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
		s.Indexes = append(s.Indexes, b.Descriptor())
	}
	if i, ok := zero.(Indexer); ok {
		for _, d := range i.Indexes() {
			for _, c := range d.Fields {
				if _, ok := s.byName[c]; !ok {
					return nil, fmt.Errorf("schema: %s index references unknown column %q", rt, c)
				}
			}
			s.Indexes = append(s.Indexes, d)
		}
	}
	return s, nil
}

func (s *Shape) collect(rt reflect.Type, parent []int) error {
	for i := range rt.NumField() {
		sf := rt.Field(i)
		tag, hasTag := sf.Tag.Lookup(TagName)
		if tag == "-" {
			continue
		}
		idx := append(append([]int(nil), parent...), i)
		// Untagged embedded structs are flattened.
		if sf.Anonymous && !hasTag && sf.Type.Kind() == reflect.Struct && sf.IsExported() {
			if err := s.collect(sf.Type, idx); err != nil {
				return err
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}
		f, err := parseField(sf, tag)
		if err != nil {
			return fmt.Errorf("schema: %s.%s: %w", rt.Name(), sf.Name, err)
		}
		f.Index = idx
		if _, ok := s.byName[f.Name]; ok {
			return fmt.Errorf("schema: %s: duplicate column %q", s.Type, f.Name)
		}
		s.byName[f.Name] = f
		s.Fields = append(s.Fields, f)
	}
	return nil
}

func parseField(sf reflect.StructField, tag string) (*Field, error) {
	f := &Field{
		GoName:   sf.Name,
		Type:     sf.Type,
		Nullable: sf.Type.Kind() == reflect.Pointer,
	}
	f.Info = field.TypeOf(sf.Type)
	if !f.Info.Valid() {
		return nil, fmt.Errorf("unsupported type %s", sf.Type)
	}
	t, err := ParseTag(tag)
	if err != nil {
		return nil, err
	}
	if t.Packed && !Packable(f.Info) {
		return nil, fmt.Errorf("packed requires a sequence, mapping or record, got %s", sf.Type)
	}
	f.Name = t.Name
	if f.Name == "" {
		f.Name = Snake(sf.Name)
	}
	f.Default, f.HasDefault = t.Default, t.HasDefault
	f.MaxLength = t.MaxLength
	f.Unique, f.Indexed, f.Desc, f.Packed = t.Unique, t.Indexed, t.Desc, t.Packed
	return f, nil
}

// Tag is a parsed minorm struct tag:
//
//	`minorm:"name,maxlen=32,default=x,unique,index,desc,packed"`
type Tag struct {
	Name       string // column name, empty for the default
	MaxLength  int
	Default    string
	HasDefault bool
	Unique     bool
	Indexed    bool
	Desc       bool
	Packed     bool
}

// ParseTag parses the value of a minorm struct tag.
func ParseTag(tag string) (Tag, error) {
	var t Tag
	name, opts, _ := strings.Cut(tag, ",")
	t.Name = name
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		key, val, _ := strings.Cut(opt, "=")
		switch key {
		case "maxlen":
			n, err := strconv.Atoi(val)
			if err != nil || n < 0 {
				return Tag{}, fmt.Errorf("invalid maxlen %q", val)
			}
			t.MaxLength = n
		case "default":
			t.Default, t.HasDefault = val, true
		case "unique":
			t.Unique = true
		case "index":
			t.Indexed = true
		case "desc":
			t.Desc = true
		case "packed":
			t.Packed = true
		case "":
		default:
			return Tag{}, fmt.Errorf("unknown tag option %q", key)
		}
	}
	return t, nil
}

// Packable reports whether columns of the given type may be packed.
func Packable(t field.Type) bool {
	return t == field.TypeSeq || t == field.TypeMap || t == field.TypeShape
}
