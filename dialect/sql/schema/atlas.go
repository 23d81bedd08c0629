package schema

import (
	"fmt"
	"strings"

	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	atlas "ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"

	"github.com/syssam/minorm/dialect"

	"github.com/syssam/minorm/dialect/sql"
	"github.com/syssam/minorm/schema/field"
	"github.com/syssam/minorm/schema/index"
	"github.com/syssam/minorm/typer"
)

// Atlas converts tbl to an Atlas table, for use with Atlas based migration
// tooling. Column types and defaults are the ones d renders in DDL.
func Atlas(d *sql.Dialect, t *typer.Typer, tbl *sql.Table) (*atlas.Table, error) {
	at := atlas.NewTable(tbl.Name)
	cols := make(map[string]*atlas.Column, len(tbl.Columns))
	for _, c := range tbl.Columns {
		ac := atlas.NewColumn(c.Name).
			SetType(atlasType(d, c)).
			SetNull(c.Nullable)
		if !c.Nullable {
			lit, err := d.DefaultLiteral(t, c)
			if err != nil {
				return nil, fmt.Errorf("schema: column %q.%q default: %w", tbl.Name, c.Name, err)
			}
			ac.SetDefault(&atlas.RawExpr{X: lit})
		}
		at.AddColumns(ac)
		cols[c.Name] = ac
	}
	for _, idx := range tbl.Indexes {
		ai := atlas.NewIndex(tbl.Name + "_" + idx.Name).
			SetUnique(idx.Kind == index.KindUnique || idx.Kind == index.KindPrimary)
		for _, ic := range idx.Columns {
			ac, ok := cols[ic.Name]
			if !ok {
				return nil, fmt.Errorf("schema: index %q references unknown column %q", idx.Name, ic.Name)
			}
			ai.AddParts(atlas.NewColumnPart(ac).SetDesc(ic.Desc))
		}
		if idx.Kind == index.KindPrimary && at.PrimaryKey == nil {
			at.SetPrimaryKey(ai)
			continue
		}
		at.AddIndexes(ai)
	}
	return at, nil
}

// HCL returns the Atlas HCL document of tables, grouped in a schema named
// name. An empty name means "public" for Postgres and "main" otherwise.
func HCL(d *sql.Dialect, t *typer.Typer, name string, tables []*sql.Table) ([]byte, error) {
	var marshal func(any) ([]byte, error)
	switch d.Name() {
	case dialect.SQLite:
		marshal = sqlite.MarshalHCL
	case dialect.MySQL:
		marshal = mysql.MarshalHCL
	case dialect.Postgres:
		marshal = postgres.MarshalHCL
	default:
		return nil, fmt.Errorf("schema: no atlas support for dialect %q", d.Name())
	}
	if name == "" {
		name = "main"
		if d.Name() == dialect.Postgres {
			name = "public"
		}
	}
	s := atlas.New(name)
	for _, tbl := range tables {
		at, err := Atlas(d, t, tbl)
		if err != nil {
			return nil, err
		}
		s.AddTables(at)
	}
	b, err := marshal(s)
	if err != nil {
		return nil, fmt.Errorf("schema: marshal hcl: %w", err)
	}
	return b, nil
}

func atlasType(d *sql.Dialect, c *sql.Column) atlas.Type {
	tag := c.Type
	if c.Packed {
		tag = field.TypeBytes
	}
	name := strings.ToLower(d.ColumnType(tag, c.MaxLength))
	switch {
	case tag.Integer(), tag == field.TypeIntKey:
		unsigned := tag >= field.TypeUint8 && tag <= field.TypeUint64
		return &atlas.IntegerType{T: name, Unsigned: unsigned}
	case tag.Float():
		return &atlas.FloatType{T: name}
	case tag == field.TypeBool:
		return &atlas.BoolType{T: name}
	case tag == field.TypeBytes:
		return &atlas.BinaryType{T: name}
	case tag == field.TypeTime:
		return &atlas.TimeType{T: name}
	case strings.HasPrefix(name, "varchar"):
		return &atlas.StringType{T: "varchar", Size: c.MaxLength}
	default:
		return &atlas.UnsupportedType{T: name}
	}
}
