package load

import (
	"context"
	"go/ast"
	"go/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/minorm/schema"
	"github.com/syssam/minorm/schema/field"
)

func TestLoad(t *testing.T) {
	pkgs, err := Load(context.Background(), "./testdata/valid")
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	pkg := pkgs[0]
	assert.Equal(t, "valid", pkg.Name)
	assert.Equal(t, "github.com/syssam/minorm/compiler/load/testdata/valid", pkg.Path)
	assert.NotEmpty(t, pkg.Dir)

	require.Len(t, pkg.Shapes, 2)
	item, person := pkg.Shapes[0], pkg.Shapes[1]
	assert.Equal(t, "Item", item.Name)
	assert.Equal(t, "items", item.Table)
	assert.Contains(t, item.Pos, "shapes.go")
	assert.Equal(t, "Person", person.Name)
	assert.Equal(t, "people", person.Table)

	cols := make(map[string]*Field)
	var names []string
	for _, f := range item.Fields {
		cols[f.Name] = f
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"created_at", "id", "name", "score", "nick", "tags", "flags", "attrs", "owner", "data"}, names)
	assert.Equal(t, []string{"Base", "CreatedAt"}, cols["created_at"].Path)
	assert.Equal(t, field.TypeTime, cols["created_at"].Info)
	assert.Equal(t, field.TypeKey, cols["id"].Info)
	assert.Equal(t, schema.Tag{Name: "name", MaxLength: 32, Unique: true}, cols["name"].Tag)
	assert.Equal(t, "5", cols["score"].Default)
	assert.True(t, cols["score"].HasDefault)
	assert.True(t, cols["nick"].Nullable)
	assert.Equal(t, field.TypeString, cols["nick"].Info)
	assert.True(t, cols["tags"].Packed)
	assert.Equal(t, field.TypeSeq, cols["flags"].Info)
	assert.Equal(t, field.TypeMap, cols["attrs"].Info)
	assert.Equal(t, field.TypeUUID, cols["owner"].Info)
	assert.Equal(t, field.TypeBytes, cols["data"].Info)
	assert.Equal(t, "map[string]int", cols["attrs"].Type.String())

	require.Len(t, person.Fields, 3)
	assert.Equal(t, field.TypeIntKey, person.Fields[0].Info)
	assert.Equal(t, field.TypeShape, person.Fields[2].Info)
	assert.True(t, person.Fields[2].Nullable)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(context.Background(), "./testdata/failure")
	assert.ErrorContains(t, err, "Bad.C: unsupported type chan int")

	_, err = Load(context.Background(), "./testdata/missing")
	assert.Error(t, err)

	pkgs, err := (&Config{Dir: "./testdata/none"}).Load(context.Background(), ".")
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Empty(t, pkgs[0].Shapes)
}

func TestDirective(t *testing.T) {
	group := func(lines ...string) *ast.CommentGroup {
		g := &ast.CommentGroup{}
		for _, l := range lines {
			g.List = append(g.List, &ast.Comment{Text: l})
		}
		return g
	}
	tests := []struct {
		name string
		doc  *ast.CommentGroup
		args []string
		ok   bool
	}{
		{"nil", nil, nil, false},
		{"plain", group("// Item is a record."), nil, false},
		{"bare", group("// Item is a record.", "//", "//minorm:shape"), []string{}, true},
		{"args", group("//minorm:shape table=people"), []string{"table=people"}, true},
		{"prefix only", group("//minorm:shapes"), nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, ok := directive(tt.doc)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, len(tt.args), len(args))
				for i := range tt.args {
					assert.Equal(t, tt.args[i], args[i])
				}
			}
		})
	}
}

func TestTypeOf(t *testing.T) {
	str := types.Typ[types.String]
	tests := []struct {
		typ  types.Type
		want field.Type
	}{
		{types.Typ[types.Bool], field.TypeBool},
		{types.Typ[types.Int32], field.TypeInt32},
		{types.Typ[types.Uint64], field.TypeUint64},
		{types.Typ[types.Float32], field.TypeFloat32},
		{types.NewPointer(str), field.TypeString},
		{types.NewSlice(types.Typ[types.Byte]), field.TypeBytes},
		{types.NewSlice(str), field.TypeSeq},
		{types.NewArray(str, 2), field.TypeSeq},
		{types.NewMap(str, types.NewStruct(nil, nil)), field.TypeSeq},
		{types.NewMap(str, str), field.TypeMap},
		{types.NewInterfaceType(nil, nil), field.TypeOther},
		{types.NewChan(types.SendRecv, str), field.TypeInvalid},
		{types.Typ[types.Complex64], field.TypeInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.typ))
		})
	}
}

func TestLoad_Ignore(t *testing.T) {
	_, err := Load(context.Background(), "./testdata/stale")
	assert.ErrorContains(t, err, "Removed")

	pkgs, err := (&Config{Dir: "./testdata/stale", Ignore: []string{"minorm_shapes.go"}}).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	require.Len(t, pkgs[0].Shapes, 1)
	assert.Equal(t, "Rec", pkgs[0].Shapes[0].Name)
	assert.Equal(t, types.Typ[types.String], pkgs[0].Shapes[0].Fields[0].Type)
}

func TestErrorFile(t *testing.T) {
	tests := map[string]string{
		"/a/b/c.go:3:7": "/a/b/c.go",
		"/a/b/c.go:3":   "/a/b/c.go",
		"/a/b/c.go":     "/a/b/c.go",
		`C:\a\c.go:1:2`: `C:\a\c.go`,
		"":              "",
		"-":             "-",
	}
	for pos, want := range tests {
		assert.Equal(t, want, errorFile(pos), pos)
	}
}
