package schema

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"reflect"
	"testing"

	atlas "ariga.io/atlas/sql/schema"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/minorm/dialect/sql"
	ormschema "github.com/syssam/minorm/schema"
	"github.com/syssam/minorm/schema/field"
	"github.com/syssam/minorm/schema/index"
	"github.com/syssam/minorm/typer"
)

type item struct {
	ID    ormschema.Key `minorm:"id"`
	Name  string        `minorm:",unique,maxlen=32"`
	Score int           `minorm:",default=5"`
}

type itemV2 struct {
	ID    ormschema.Key `minorm:"id"`
	Name  string        `minorm:",unique,maxlen=32"`
	Score int           `minorm:",default=5"`
	Nick  *string
	Tags  []string `minorm:",packed"`
	Level int      `minorm:",index"`
}

func (itemV2) TableName() string { return "items" }

func (itemV2) Indexes() []*index.Descriptor {
	return []*index.Descriptor{
		index.Fields("score", "name").DescField("score").StorageKey("by_score").Descriptor(),
	}
}

func newTable(t *testing.T, rt reflect.Type) *sql.Table {
	t.Helper()
	tbl, err := NewTable(typer.New(), ormschema.MustOf(rt))
	require.NoError(t, err)
	return tbl
}

func TestNewTable(t *testing.T) {
	tbl := newTable(t, reflect.TypeFor[itemV2]())
	assert.Equal(t, "items", tbl.Name)

	names := make([]string, len(tbl.Columns))
	for i, c := range tbl.Columns {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"id", "name", "score", "nick", "tags", "level"}, names)

	name, _ := tbl.Column("name")
	assert.Equal(t, field.TypeString, name.Type)
	assert.Equal(t, 32, name.MaxLength)
	score, _ := tbl.Column("score")
	assert.True(t, score.HasDefault)
	assert.Equal(t, 5, score.Default)
	nick, _ := tbl.Column("nick")
	assert.True(t, nick.Nullable)
	tags, _ := tbl.Column("tags")
	assert.True(t, tags.Packed)

	require.Len(t, tbl.Indexes, 3)
	assert.Equal(t, &sql.Index{Name: "name", Kind: index.KindUnique, Columns: []sql.IndexColumn{{Name: "name"}}}, tbl.Indexes[0])
	assert.Equal(t, &sql.Index{Name: "level", Kind: index.KindIndex, Columns: []sql.IndexColumn{{Name: "level"}}}, tbl.Indexes[1])
	assert.Equal(t, &sql.Index{
		Name:    "by_score",
		Kind:    index.KindIndex,
		Columns: []sql.IndexColumn{{Name: "score", Desc: true}, {Name: "name"}},
	}, tbl.Indexes[2])
}

type badDefault struct {
	Score int `minorm:",default=high"`
}

type dupIndex struct {
	Name string `minorm:",index"`
}

func (dupIndex) Indexes() []*index.Descriptor {
	return []*index.Descriptor{index.Fields("name").Unique().Descriptor()}
}

func TestNewTable_Errors(t *testing.T) {
	_, err := NewTable(typer.New(), ormschema.MustOf(reflect.TypeFor[badDefault]()))
	assert.ErrorContains(t, err, `default "high"`)

	_, err = NewTable(typer.New(), ormschema.MustOf(reflect.TypeFor[dupIndex]()))
	assert.ErrorContains(t, err, `duplicate index "name"`)
}

func TestNewIndex(t *testing.T) {
	idx := NewIndex(index.Fields("a", "b").Unique().Desc().Descriptor())
	assert.Equal(t, "a_b", idx.Name)
	assert.Equal(t, index.KindUnique, idx.Kind)
	assert.Equal(t, []sql.IndexColumn{{Name: "a", Desc: true}, {Name: "b", Desc: true}}, idx.Columns)

	idx = NewIndex(&index.Descriptor{Fields: []string{"x"}})
	assert.Equal(t, []sql.IndexColumn{{Name: "x"}}, idx.Columns)
}

func TestStatements(t *testing.T) {
	tbl := newTable(t, reflect.TypeFor[item]())
	stmts, err := Statements(sql.SQLite, typer.New(), tbl)
	require.NoError(t, err)
	assert.Equal(t, []string{
		`CREATE TABLE IF NOT EXISTS "items" ("id" VARCHAR NOT NULL DEFAULT (''), "name" VARCHAR(32) NOT NULL DEFAULT (''), "score" INTEGER NOT NULL DEFAULT (5));`,
		`CREATE UNIQUE INDEX IF NOT EXISTS "items_name" ON "items" ("name" ASC);`,
	}, stmts)

	stmts, err = Statements(sql.MySQL, typer.New(), tbl)
	require.NoError(t, err)
	assert.Equal(t, "CREATE UNIQUE INDEX IF NOT EXISTS `items_name` ON `items` (`name` ASC);", stmts[1])
}

func openSQLite(t *testing.T) *sql.Driver {
	t.Helper()
	drv, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&_pragma=foreign_keys(1)")
	require.NoError(t, err)
	drv.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { drv.Close() })
	return drv
}

func columnNames(t *testing.T, drv *sql.Driver, table string) []string {
	t.Helper()
	cur, err := Current(context.Background(), drv.Dialect(), drv, table)
	require.NoError(t, err)
	if cur == nil {
		return nil
	}
	names := make([]string, len(cur.Columns))
	for i, c := range cur.Columns {
		names[i] = c.Name
	}
	return names
}

func TestSync_SQLite(t *testing.T) {
	ctx := context.Background()
	ty := typer.New()
	drv := openSQLite(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	assert.Empty(t, columnNames(t, drv, "items"))

	v1 := newTable(t, reflect.TypeFor[item]())
	for range 2 {
		require.NoError(t, Sync(ctx, drv.Dialect(), ty, drv, v1, WithLogger(logger)))
	}
	assert.Equal(t, []string{"id", "name", "score"}, columnNames(t, drv, "items"))
	assert.NotContains(t, buf.String(), "add column")

	_, err := drv.Exec(ctx, `INSERT INTO "items" ("id", "name") VALUES (?, ?)`, []any{"k1", "a"})
	require.NoError(t, err)

	v2 := newTable(t, reflect.TypeFor[itemV2]())
	require.NoError(t, Sync(ctx, drv.Dialect(), ty, drv, v2, WithLogger(logger)))
	assert.Equal(t, []string{"id", "name", "score", "nick", "tags", "level"}, columnNames(t, drv, "items"))
	assert.Contains(t, buf.String(), `msg="add column"`)
	assert.Contains(t, buf.String(), "column=level")

	rows, err := drv.Query(ctx, `SELECT "id", "name", "score", "nick", "tags", "level" FROM "items"`, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	got, err := typer.TypeAs[itemV2](ty, rows[0])
	require.NoError(t, err)
	assert.Equal(t, itemV2{ID: "k1", Name: "a", Score: 5, Tags: []string{}}, got)

	// The unique index exists after sync.
	_, err = drv.Exec(ctx, `INSERT INTO "items" ("id", "name") VALUES (?, ?)`, []any{"k2", "a"})
	require.Error(t, err)

	require.NoError(t, Sync(ctx, drv.Dialect(), ty, drv, v2, WithLogger(logger), WithoutIndexes()))
}

func TestSync_Errors(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()
	drv := sql.OpenDB(sql.Generic, db)
	ty := typer.New()
	tbl := newTable(t, reflect.TypeFor[item]())
	create := `CREATE TABLE IF NOT EXISTS "items" ("id" VARCHAR NOT NULL DEFAULT (''), "name" VARCHAR(32) NOT NULL DEFAULT (''), "score" INTEGER NOT NULL DEFAULT (5));`
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	mock.ExpectExec(create).WillReturnError(errors.New("denied"))
	err = Sync(ctx, sql.Generic, ty, drv, tbl, WithLogger(logger))
	assert.ErrorContains(t, err, `schema: create "items"`)

	mock.ExpectExec(create).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SHOW COLUMNS FROM "items";`).
		WillReturnRows(sqlmock.NewRows([]string{"Field"}).AddRow("id").AddRow("name"))
	mock.ExpectExec(`ALTER TABLE "items" ADD "score" INTEGER NOT NULL DEFAULT (5);`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE UNIQUE INDEX IF NOT EXISTS "items_name" ON "items" ("name" ASC);`).
		WillReturnError(errors.New("duplicate values"))
	err = Sync(ctx, sql.Generic, ty, drv, tbl, WithLogger(logger))
	assert.ErrorContains(t, err, `schema: create index "name" on "items"`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func messages(errs []*ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Error()
	}
	return out
}

func TestValidateDiff(t *testing.T) {
	desired := newTable(t, reflect.TypeFor[item]())
	desired.Columns = append(desired.Columns, &sql.Column{Name: "level", Type: field.TypeInt})
	current := &sql.Table{
		Name: "items",
		Columns: []*sql.Column{
			{Name: "id"},
			{Name: "name", Type: field.TypeString, MaxLength: 64},
			{Name: "score", Type: field.TypeString, Nullable: true},
			{Name: "legacy"},
		},
		Indexes: []*sql.Index{{Name: "old", Kind: index.KindIndex}},
	}
	stale := &sql.Table{Name: "stale", Columns: []*sql.Column{{Name: "id"}}}

	result := ValidateDiff([]*sql.Table{current, stale, nil}, []*sql.Table{desired})
	assert.ElementsMatch(t, []string{
		"items.legacy: column will be dropped",
		"items.score: column changing from NULL to NOT NULL may fail if column has NULL values",
		`items: index "old" will be dropped`,
		"stale: table will be dropped",
	}, messages(result.Errors))
	assert.ElementsMatch(t, []string{
		"items.level: new NOT NULL column without explicit default is filled with the zero value",
		"items.score: column type changing from string to int",
		"items.name: column size reducing from 64 to 32 may truncate data",
		`items: adding UNIQUE index "name" may fail if duplicate values exist`,
	}, messages(result.Warnings))
	assert.True(t, result.HasErrors())
	assert.True(t, result.HasBreakingChanges())
	assert.Contains(t, result.String(), "[BREAKING]")

	result = ValidateDiff([]*sql.Table{current, stale}, []*sql.Table{desired},
		AllowDropColumn(), AllowDropTable(), AllowDropIndex(), AllowNullToNotNull())
	assert.False(t, result.HasErrors())
	assert.Len(t, result.Warnings, 8)
	assert.True(t, result.HasBreakingChanges())

	same := newTable(t, reflect.TypeFor[item]())
	result = ValidateDiff([]*sql.Table{same}, nil)
	assert.Len(t, result.Errors, 1)
	result = ValidateDiff([]*sql.Table{{Name: "items", Columns: same.Columns, Indexes: same.Indexes}}, []*sql.Table{same})
	assert.False(t, result.HasErrors())
	assert.False(t, result.HasWarnings())
	assert.Equal(t, "No issues found", result.String())

	live := &sql.Table{Name: "items", Columns: same.Columns}
	result = ValidateDiff([]*sql.Table{live}, []*sql.Table{same})
	assert.False(t, result.HasWarnings(), "unknown indexes are not compared: %s", result)
	result = ValidateDiff([]*sql.Table{{Name: "items", Columns: same.Columns, Indexes: []*sql.Index{}}}, []*sql.Table{same})
	assert.True(t, result.HasWarnings())
}

func TestValidateTable(t *testing.T) {
	result := ValidateTable(newTable(t, reflect.TypeFor[item]()))
	assert.False(t, result.HasErrors())
	assert.False(t, result.HasWarnings())

	result = ValidateSchema([]*sql.Table{
		{
			Name:    "a",
			Columns: []*sql.Column{{Name: "id"}, {Name: "id"}},
			Indexes: []*sql.Index{
				{Name: "x", Columns: []sql.IndexColumn{{Name: "missing"}}},
				{Name: "x"},
			},
		},
		{Name: "a"},
	})
	assert.ElementsMatch(t, []string{
		"a.id: duplicate column name",
		`a: index "x" references non-existent column "missing"`,
		"a: duplicate index name: x",
		"a: duplicate table name",
		"a: table has no columns",
	}, messages(result.Errors))
	assert.Equal(t, []string{"a: table has no unique index", "a: table has no unique index"}, messages(result.Warnings))
}

func TestAtlas(t *testing.T) {
	ty := typer.New()
	tbl := newTable(t, reflect.TypeFor[itemV2]())
	tbl.Indexes = append(tbl.Indexes, NewIndex(index.Fields("id").Primary().Descriptor()))

	at, err := Atlas(sql.Postgres, ty, tbl)
	require.NoError(t, err)
	assert.Equal(t, "items", at.Name)
	require.Len(t, at.Columns, 6)
	assert.Equal(t, &atlas.StringType{T: "varchar"}, at.Columns[0].Type.Type)
	assert.Equal(t, &atlas.StringType{T: "varchar", Size: 32}, at.Columns[1].Type.Type)
	assert.Equal(t, &atlas.IntegerType{T: "integer"}, at.Columns[2].Type.Type)
	assert.Equal(t, &atlas.RawExpr{X: "5"}, at.Columns[2].Default)
	assert.True(t, at.Columns[3].Type.Null)
	assert.Nil(t, at.Columns[3].Default)
	assert.Equal(t, &atlas.BinaryType{T: "bytea"}, at.Columns[4].Type.Type)
	assert.Equal(t, &atlas.RawExpr{X: `X'90'`}, at.Columns[4].Default)

	require.Len(t, at.Indexes, 3)
	assert.Equal(t, "items_name", at.Indexes[0].Name)
	assert.True(t, at.Indexes[0].Unique)
	byScore := at.Indexes[2]
	require.Len(t, byScore.Parts, 2)
	assert.Same(t, at.Columns[2], byScore.Parts[0].C)
	assert.True(t, byScore.Parts[0].Desc)
	assert.False(t, byScore.Parts[1].Desc)
	require.NotNil(t, at.PrimaryKey)
	assert.Same(t, at.Columns[0], at.PrimaryKey.Parts[0].C)

	at, err = Atlas(sql.MySQL, ty, tbl)
	require.NoError(t, err)
	assert.Equal(t, &atlas.BinaryType{T: "blob"}, at.Columns[4].Type.Type)

	tbl.Indexes = append(tbl.Indexes, &sql.Index{Name: "bad", Columns: []sql.IndexColumn{{Name: "missing"}}})
	_, err = Atlas(sql.SQLite, ty, tbl)
	assert.ErrorContains(t, err, `unknown column "missing"`)
}

func TestHCL(t *testing.T) {
	ty := typer.New()
	tbl := newTable(t, reflect.TypeFor[item]())

	b, err := HCL(sql.SQLite, ty, "", []*sql.Table{tbl})
	require.NoError(t, err)
	doc := string(b)
	assert.Contains(t, doc, `table "items"`)
	assert.Contains(t, doc, `column "name"`)
	assert.Contains(t, doc, `schema "main"`)
	assert.Contains(t, doc, `index "items_name"`)

	b, err = HCL(sql.Postgres, ty, "", []*sql.Table{tbl})
	require.NoError(t, err)
	assert.Contains(t, string(b), `schema "public"`)

	b, err = HCL(sql.MySQL, ty, "shop", nil)
	require.NoError(t, err)
	assert.Contains(t, string(b), `schema "shop"`)

	_, err = HCL(sql.Generic, ty, "", []*sql.Table{tbl})
	assert.ErrorContains(t, err, "no atlas support")
}

func TestCurrent_Missing(t *testing.T) {
	drv := openSQLite(t)
	cur, err := Current(context.Background(), sql.SQLite, drv, "nothing")
	require.NoError(t, err)
	assert.Nil(t, cur)
}
