// Package load finds record types marked for code generation in Go
// packages and describes their columns.
//
// A record is marked with a directive comment. The optional table argument
// overrides the table name derived from the type name:
//
//	//minorm:shape table=people
//	type Person struct {
//		ID   schema.IntKey `minorm:"id"`
//		Name string        `minorm:",maxlen=64"`
//	}
package load

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"path/filepath"
	"reflect"
	"slices"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/syssam/minorm/schema"
	"github.com/syssam/minorm/schema/field"
)

// Directive marks a struct type as a record.
const Directive = "//minorm:shape"

type (
	// Package is a loaded Go package and its records.
	Package struct {
		Name   string   `json:"name"`
		Path   string   `json:"path"`
		Dir    string   `json:"dir"`
		Shapes []*Shape `json:"shapes,omitempty"`
	}

	// Shape is a record type loaded from source.
	Shape struct {
		Name   string   `json:"name"`
		Table  string   `json:"table"`
		Pos    string   `json:"-"`
		Fields []*Field `json:"fields,omitempty"`
	}

	// Field is one column of a record. It carries the options of its
	// struct tag.
	Field struct {
		schema.Tag
		GoName   string     `json:"go_name"`
		Path     []string   `json:"path"` // selector path from the record, ending in GoName
		Type     types.Type `json:"-"`
		Info     field.Type `json:"info"`
		Nullable bool       `json:"nullable,omitempty"`
	}
)

// Config configures Load.
type Config struct {
	// Dir is the directory patterns are resolved in. Defaults to the
	// working directory.
	Dir string
	// BuildFlags are passed to the go command.
	BuildFlags []string
	// Ignore lists base names of files whose errors do not fail loading.
	Ignore []string
}

const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
	packages.NeedTypes | packages.NeedTypesInfo

// Load loads the packages matching patterns and returns their records.
// Packages are returned in pattern order and records sorted by name.
func (c *Config) Load(ctx context.Context, patterns ...string) ([]*Package, error) {
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	pkgs, err := packages.Load(&packages.Config{
		Context:    ctx,
		Mode:       loadMode,
		Dir:        c.Dir,
		BuildFlags: c.BuildFlags,
	}, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	out := make([]*Package, 0, len(pkgs))
	for _, p := range pkgs {
		var errs []error
		for _, e := range p.Errors {
			if !slices.Contains(c.Ignore, filepath.Base(errorFile(e.Pos))) {
				errs = append(errs, e)
			}
		}
		if len(errs) > 0 {
			return nil, fmt.Errorf("load: %s: %w", p.PkgPath, errors.Join(errs...))
		}
		lp, err := loadPackage(p)
		if err != nil {
			return nil, err
		}
		out = append(out, lp)
	}
	return out, nil
}

// Load is a shorthand for loading patterns relative to dir.
func Load(ctx context.Context, dir string, patterns ...string) ([]*Package, error) {
	return (&Config{Dir: dir}).Load(ctx, patterns...)
}

func loadPackage(p *packages.Package) (*Package, error) {
	lp := &Package{Name: p.Name, Path: p.PkgPath}
	if len(p.GoFiles) > 0 {
		lp.Dir = filepath.Dir(p.GoFiles[0])
	}
	for _, file := range p.Syntax {
		for _, decl := range file.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.TYPE {
				continue
			}
			for _, spec := range gd.Specs {
				ts := spec.(*ast.TypeSpec)
				doc := ts.Doc
				if doc == nil && len(gd.Specs) == 1 {
					doc = gd.Doc
				}
				args, ok := directive(doc)
				if !ok {
					continue
				}
				s, err := loadShape(p, ts, args)
				if err != nil {
					return nil, fmt.Errorf("load: %s: %w", p.Fset.Position(ts.Pos()), err)
				}
				lp.Shapes = append(lp.Shapes, s)
			}
		}
	}
	sort.Slice(lp.Shapes, func(i, j int) bool {
		return lp.Shapes[i].Name < lp.Shapes[j].Name
	})
	return lp, nil
}

// errorFile returns the file name of a "file:line:col" error position.
func errorFile(pos string) string {
	for range 2 {
		i := strings.LastIndexByte(pos, ':')
		if i < 0 {
			break
		}
		if _, err := strconv.Atoi(pos[i+1:]); err != nil {
			break
		}
		pos = pos[:i]
	}
	return pos
}

// directive returns the arguments of the record directive in doc.
func directive(doc *ast.CommentGroup) ([]string, bool) {
	if doc == nil {
		return nil, false
	}
	for _, c := range doc.List {
		rest, ok := strings.CutPrefix(c.Text, Directive)
		if !ok || rest != "" && rest[0] != ' ' && rest[0] != '\t' {
			continue
		}
		return strings.Fields(rest), true
	}
	return nil, false
}

func loadShape(p *packages.Package, ts *ast.TypeSpec, args []string) (*Shape, error) {
	obj := p.Types.Scope().Lookup(ts.Name.Name)
	if obj == nil {
		return nil, fmt.Errorf("type %s not found", ts.Name.Name)
	}
	named, ok := obj.Type().(*types.Named)
	if !ok {
		return nil, fmt.Errorf("%s is not a named type", ts.Name.Name)
	}
	if named.TypeParams().Len() > 0 {
		return nil, fmt.Errorf("%s: generic records are not supported", ts.Name.Name)
	}
	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return nil, fmt.Errorf("%s is not a struct", ts.Name.Name)
	}
	s := &Shape{
		Name:  ts.Name.Name,
		Table: schema.TableName(ts.Name.Name),
		Pos:   p.Fset.Position(ts.Pos()).String(),
	}
	for _, arg := range args {
		key, val, _ := strings.Cut(arg, "=")
		switch key {
		case "table":
			if val == "" {
				return nil, fmt.Errorf("%s: empty table name", s.Name)
			}
			s.Table = val
		default:
			return nil, fmt.Errorf("%s: unknown directive argument %q", s.Name, arg)
		}
	}
	if err := s.collect(st, nil, make(map[string]bool)); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Shape) collect(st *types.Struct, parent []string, seen map[string]bool) error {
	for i := range st.NumFields() {
		v := st.Field(i)
		tag, hasTag := reflect.StructTag(st.Tag(i)).Lookup(schema.TagName)
		if tag == "-" {
			continue
		}
		path := append(append([]string(nil), parent...), v.Name())
		// Untagged embedded structs are flattened.
		if v.Anonymous() && !hasTag && v.Exported() {
			if est, ok := v.Type().Underlying().(*types.Struct); ok {
				if _, ptr := v.Type().(*types.Pointer); !ptr {
					if err := s.collect(est, path, seen); err != nil {
						return err
					}
					continue
				}
			}
		}
		if !v.Exported() {
			continue
		}
		f, err := newField(v, tag)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", s.Name, v.Name(), err)
		}
		f.Path = path
		if seen[f.Name] {
			return fmt.Errorf("%s: duplicate column %q", s.Name, f.Name)
		}
		seen[f.Name] = true
		s.Fields = append(s.Fields, f)
	}
	return nil
}

func newField(v *types.Var, tag string) (*Field, error) {
	_, ptr := v.Type().(*types.Pointer)
	f := &Field{
		GoName:   v.Name(),
		Type:     v.Type(),
		Info:     TypeOf(v.Type()),
		Nullable: ptr,
	}
	if !f.Info.Valid() {
		return nil, fmt.Errorf("unsupported type %s", v.Type())
	}
	t, err := schema.ParseTag(tag)
	if err != nil {
		return nil, err
	}
	if t.Packed && !schema.Packable(f.Info) {
		return nil, fmt.Errorf("packed requires a sequence, mapping or record, got %s", v.Type())
	}
	f.Tag = t
	if f.Name == "" {
		f.Name = schema.Snake(v.Name())
	}
	return f, nil
}

const schemaPkg = "github.com/syssam/minorm/schema"

// TypeOf returns the semantic type of a Go type, as field.TypeOf does for
// reflected types.
func TypeOf(t types.Type) field.Type {
	for {
		p, ok := t.(*types.Pointer)
		if !ok {
			break
		}
		t = p.Elem()
	}
	if n, ok := t.(*types.Named); ok && n.Obj().Pkg() != nil {
		switch n.Obj().Pkg().Path() + "." + n.Obj().Name() {
		case "time.Time":
			return field.TypeTime
		case "github.com/google/uuid.UUID":
			return field.TypeUUID
		case schemaPkg + ".Key":
			return field.TypeKey
		case schemaPkg + ".IntKey":
			return field.TypeIntKey
		}
	}
	switch u := t.Underlying().(type) {
	case *types.Basic:
		return basicType(u)
	case *types.Slice:
		if b, ok := u.Elem().Underlying().(*types.Basic); ok && b.Kind() == types.Uint8 {
			return field.TypeBytes
		}
		return field.TypeSeq
	case *types.Array:
		return field.TypeSeq
	case *types.Map:
		if e, ok := u.Elem().Underlying().(*types.Struct); ok && e.NumFields() == 0 {
			return field.TypeSeq
		}
		return field.TypeMap
	case *types.Struct:
		return field.TypeShape
	case *types.Interface:
		return field.TypeOther
	default:
		return field.TypeInvalid
	}
}

var basicTypes = map[types.BasicKind]field.Type{
	types.Bool:    field.TypeBool,
	types.String:  field.TypeString,
	types.Int:     field.TypeInt,
	types.Int8:    field.TypeInt8,
	types.Int16:   field.TypeInt16,
	types.Int32:   field.TypeInt32,
	types.Int64:   field.TypeInt64,
	types.Uint:    field.TypeUint,
	types.Uint8:   field.TypeUint8,
	types.Uint16:  field.TypeUint16,
	types.Uint32:  field.TypeUint32,
	types.Uint64:  field.TypeUint64,
	types.Float32: field.TypeFloat32,
	types.Float64: field.TypeFloat64,
}

func basicType(b *types.Basic) field.Type {
	if t, ok := basicTypes[b.Kind()]; ok {
		return t
	}
	return field.TypeInvalid
}
