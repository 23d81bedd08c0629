package sql

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/minorm"
	"github.com/syssam/minorm/schema"
	"github.com/syssam/minorm/schema/field"
	"github.com/syssam/minorm/schema/index"
	"github.com/syssam/minorm/typer"
	"github.com/syssam/minorm/value"
)

func itemColumns() []*Column {
	return []*Column{
		{Name: "id", Type: field.TypeKey, GoType: reflect.TypeFor[schema.Key]()},
		{Name: "name", Type: field.TypeString, GoType: reflect.TypeFor[string]()},
		{Name: "score", Type: field.TypeInt, GoType: reflect.TypeFor[int]()},
	}
}

func itemTable() *Table {
	return &Table{
		Name:    "items",
		Columns: itemColumns(),
		Indexes: []*Index{
			{Name: "name", Kind: index.KindUnique, Columns: []IndexColumn{{Name: "name"}}},
		},
	}
}

func TestCreateTable(t *testing.T) {
	ty := typer.New()
	got, err := Generic.CreateTable(ty, "items", itemColumns())
	require.NoError(t, err)
	assert.Equal(t, `CREATE TABLE IF NOT EXISTS "items" ("id" VARCHAR NOT NULL DEFAULT (''), "name" VARCHAR NOT NULL DEFAULT (''), "score" INTEGER NOT NULL DEFAULT (0));`, got)

	again, err := Generic.CreateTable(ty, "items", itemColumns())
	require.NoError(t, err)
	assert.Equal(t, got, again)

	got, err = MySQL.CreateTable(ty, "items", itemColumns()[2:])
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS `items` (`score` INTEGER NOT NULL DEFAULT (0));", got)
}

func TestColumnType(t *testing.T) {
	tests := []struct {
		tag    field.Type
		maxLen int
		want   string
	}{
		{field.TypeInt, 0, "INTEGER"},
		{field.TypeInt32, 0, "INTEGER"},
		{field.TypeUint16, 0, "INTEGER"},
		{field.TypeInt64, 0, "BIGINT"},
		{field.TypeUint64, 0, "BIGINT"},
		{field.TypeBool, 0, "BOOLEAN"},
		{field.TypeBytes, 0, "BLOB"},
		{field.TypeTime, 0, "TIMESTAMP"},
		{field.TypeString, 0, "VARCHAR"},
		{field.TypeString, 64, "VARCHAR(64)"},
		{field.TypeIntKey, 0, "INTEGER"},
		{field.TypeKey, 0, "VARCHAR"},
		{field.TypeUUID, 36, "VARCHAR(36)"},
		{field.TypeFloat32, 0, "REAL"},
		{field.TypeFloat64, 0, "DOUBLE PRECISION"},
		{field.TypeSeq, 0, "VARCHAR"},
		{field.TypeOther, 0, "VARCHAR"},
	}
	for _, tt := range tests {
		t.Run(tt.want+"/"+tt.tag.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Generic.ColumnType(tt.tag, tt.maxLen))
		})
	}
	assert.Equal(t, "BYTEA", Postgres.ColumnType(field.TypeBytes, 0))
	assert.Equal(t, "BLOB", SQLite.ColumnType(field.TypeBytes, 0))
}

type scoreTag struct {
	Value int
}

func (s *scoreTag) SetDefaults() { s.Value = 7 }

func TestColumnDef(t *testing.T) {
	ty := typer.New()
	tests := []struct {
		name string
		col  *Column
		want string
	}{
		{
			name: "nullable",
			col:  &Column{Name: "nick", Type: field.TypeString, GoType: reflect.TypeFor[*string](), Nullable: true},
			want: `"nick" VARCHAR NULL`,
		},
		{
			name: "nullable ignores default",
			col:  &Column{Name: "nick", Type: field.TypeString, Nullable: true, Default: "x", HasDefault: true},
			want: `"nick" VARCHAR NULL`,
		},
		{
			name: "max length",
			col:  &Column{Name: "code", Type: field.TypeString, GoType: reflect.TypeFor[string](), MaxLength: 8},
			want: `"code" VARCHAR(8) NOT NULL DEFAULT ('')`,
		},
		{
			name: "explicit default",
			col:  &Column{Name: "score", Type: field.TypeInt, Default: 5, HasDefault: true},
			want: `"score" INTEGER NOT NULL DEFAULT (5)`,
		},
		{
			name: "explicit text default",
			col:  &Column{Name: "state", Type: field.TypeString, Default: "it's", HasDefault: true},
			want: `"state" VARCHAR NOT NULL DEFAULT ('it''s')`,
		},
		{
			name: "bool",
			col:  &Column{Name: "ok", Type: field.TypeBool, GoType: reflect.TypeFor[bool]()},
			want: `"ok" BOOLEAN NOT NULL DEFAULT (false)`,
		},
		{
			name: "int key",
			col:  &Column{Name: "_id", Type: field.TypeIntKey, GoType: reflect.TypeFor[schema.IntKey]()},
			want: `"_id" INTEGER NOT NULL DEFAULT (0)`,
		},
		{
			name: "time",
			col:  &Column{Name: "at", Type: field.TypeTime, GoType: reflect.TypeFor[time.Time]()},
			want: `"at" TIMESTAMP NOT NULL DEFAULT ('0001-01-01 00:00:00')`,
		},
		{
			name: "sequence",
			col:  &Column{Name: "tags", Type: field.TypeSeq, GoType: reflect.TypeFor[[]string]()},
			want: `"tags" VARCHAR NOT NULL DEFAULT ('[]')`,
		},
		{
			name: "mapping",
			col:  &Column{Name: "attrs", Type: field.TypeMap, GoType: reflect.TypeFor[map[string]string]()},
			want: `"attrs" VARCHAR NOT NULL DEFAULT ('{}')`,
		},
		{
			name: "packed",
			col:  &Column{Name: "tags", Type: field.TypeSeq, GoType: reflect.TypeFor[[]string](), Packed: true},
			want: `"tags" BLOB NOT NULL DEFAULT (X'90')`,
		},
		{
			name: "record defaults",
			col:  &Column{Name: "tag", Type: field.TypeShape, GoType: reflect.TypeFor[scoreTag]()},
			want: `"tag" VARCHAR NOT NULL DEFAULT ('{"value":7}')`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Generic.ColumnDef(ty, tt.col)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("no go type", func(t *testing.T) {
		_, err := Generic.ColumnDef(ty, &Column{Name: "x", Type: field.TypeString})
		assert.ErrorContains(t, err, `column "x" default`)
	})
	t.Run("no default", func(t *testing.T) {
		_, err := Generic.ColumnDef(ty, &Column{Name: "fn", Type: field.TypeOther, GoType: reflect.TypeFor[func()]()})
		require.Error(t, err)
		assert.True(t, minorm.IsCoercion(err, minorm.NoDefault))
	})
}

func TestAlterTableAddColumn(t *testing.T) {
	ty := typer.New()
	got, err := Generic.AlterTableAddColumn(ty, "items", itemColumns()[2])
	require.NoError(t, err)
	assert.Equal(t, `ALTER TABLE "items" ADD "score" INTEGER NOT NULL DEFAULT (0);`, got)

	got, err = MySQL.AlterTableAddColumn(ty, "items", &Column{Name: "nick", Type: field.TypeString, Nullable: true})
	require.NoError(t, err)
	assert.Equal(t, "ALTER TABLE `items` ADD `nick` VARCHAR NULL;", got)
}

func TestDelete(t *testing.T) {
	got, err := Generic.Delete("items", Compare("score", OpGT, 10), 0)
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "items" WHERE "score">10;`, got)

	got, err = SQLite.Delete("items", And(EQ("name", "a"), LT("score", 3)), 5)
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "items" WHERE (("name"='a') AND ("score"<3)) LIMIT 5;`, got)

	got, err = Generic.Delete("items", In("id"), -1)
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "items" WHERE 1=0;`, got)

	_, err = Generic.Delete("items", Raw("1"), 0)
	assert.True(t, minorm.IsExpressionError(err))
}

func TestCreateIndex(t *testing.T) {
	cols := []IndexColumn{{Name: "score", Desc: true}, {Name: "name"}}
	tests := []struct {
		name string
		d    *Dialect
		kind index.Kind
		want string
	}{
		{"index", Generic, index.KindIndex, `CREATE INDEX IF NOT EXISTS "items_rank" ON "items" ("score" DESC, "name" ASC);`},
		{"other", Generic, index.KindOther, `CREATE INDEX IF NOT EXISTS "items_rank" ON "items" ("score" DESC, "name" ASC);`},
		{"unique", SQLite, index.KindUnique, `CREATE UNIQUE INDEX IF NOT EXISTS "items_rank" ON "items" ("score" DESC, "name" ASC);`},
		{"primary degrades", SQLite, index.KindPrimary, `CREATE UNIQUE INDEX IF NOT EXISTS "items_rank" ON "items" ("score" DESC, "name" ASC);`},
		{"primary", MySQL, index.KindPrimary, "CREATE PRIMARY INDEX IF NOT EXISTS `items_rank` ON `items` (`score` DESC, `name` ASC);"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.CreateIndex(tt.kind, "items", cols, "rank"))
		})
	}
}

func TestInsert(t *testing.T) {
	tbl := itemTable()
	cols := tbl.Columns[:2]
	tests := []struct {
		name   string
		d      *Dialect
		c      OnConflict
		want   string
		repeat int
	}{
		{"generic error", Generic, ConflictError, `INSERT INTO "items" ("id", "name") VALUES (?, ?)`, 1},
		{"generic ignore", Generic, ConflictIgnore, `INSERT IGNORE INTO "items" ("id", "name") VALUES (?, ?)`, 1},
		{"generic replace", Generic, ConflictReplace, `INSERT INTO "items" ("id", "name") VALUES (?, ?)`, 1},
		{"sqlite ignore", SQLite, ConflictIgnore, `INSERT OR IGNORE INTO "items" ("id", "name") VALUES (?, ?)`, 1},
		{"sqlite replace", SQLite, ConflictReplace, `INSERT OR REPLACE INTO "items" ("id", "name") VALUES (?, ?)`, 1},
		{"mysql ignore", MySQL, ConflictIgnore, "INSERT IGNORE INTO `items` (`id`, `name`) VALUES (?, ?)", 1},
		{"mysql replace", MySQL, ConflictReplace, "INSERT INTO `items` (`id`, `name`) VALUES (?, ?) ON DUPLICATE KEY UPDATE `id`=?, `name`=?", 2},
		{"postgres error", Postgres, ConflictError, `INSERT INTO "items" ("id", "name") VALUES ($1, $2)`, 1},
		{"postgres ignore", Postgres, ConflictIgnore, `INSERT INTO "items" ("id", "name") VALUES ($1, $2) ON CONFLICT DO NOTHING`, 1},
		{"postgres replace", Postgres, ConflictReplace, `INSERT INTO "items" ("id", "name") VALUES ($1, $2) ON CONFLICT ("name") DO UPDATE SET "id"=$3, "name"=$4`, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := tt.d.Insert(tbl, cols, tt.c)
			require.NoError(t, err)
			assert.Equal(t, tt.want, info.SQL)
			assert.Equal(t, tt.repeat, info.RepeatCount)
		})
	}

	t.Run("no columns", func(t *testing.T) {
		_, err := Generic.Insert(tbl, nil, ConflictError)
		assert.Error(t, err)
	})
	t.Run("postgres upsert without unique index", func(t *testing.T) {
		_, err := Postgres.Insert(&Table{Name: "logs", Columns: cols}, cols, ConflictReplace)
		assert.ErrorContains(t, err, "requires a unique index")
	})
}

func TestInsertBatch(t *testing.T) {
	tbl := itemTable()
	cols := tbl.Columns[:2]

	info, err := SQLite.InsertBatch(tbl, cols, 2, ConflictIgnore)
	require.NoError(t, err)
	assert.Equal(t, `INSERT OR IGNORE INTO "items" ("id", "name") VALUES (?, ?), (?, ?)`, info.SQL)
	assert.Equal(t, 1, info.RepeatCount)

	info, err = MySQL.InsertBatch(tbl, cols, 2, ConflictReplace)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO `items` (`id`, `name`) VALUES (?, ?), (?, ?) ON DUPLICATE KEY UPDATE `id`=VALUES(`id`), `name`=VALUES(`name`)", info.SQL)
	assert.Equal(t, 1, info.RepeatCount)

	info, err = Postgres.InsertBatch(tbl, cols, 2, ConflictReplace)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "items" ("id", "name") VALUES ($1, $2), ($3, $4) ON CONFLICT ("name") DO UPDATE SET "id"=EXCLUDED."id", "name"=EXCLUDED."name"`, info.SQL)

	_, err = Generic.InsertBatch(tbl, cols, 2, ConflictError)
	assert.ErrorContains(t, err, "multi-row")
	_, err = SQLite.InsertBatch(tbl, cols, 0, ConflictError)
	assert.Error(t, err)
}

func TestBindValue(t *testing.T) {
	seq := value.Seq{value.String("a"), value.Int64(1)}
	tests := []struct {
		name string
		c    *Column
		v    value.Value
		want any
	}{
		{"nil", nil, nil, nil},
		{"null", nil, value.Null{}, nil},
		{"bool", nil, value.Bool(true), true},
		{"int", nil, value.Int64(-4), int64(-4)},
		{"uint", nil, value.Uint64(4), uint64(4)},
		{"float", nil, value.Float64(0.5), 0.5},
		{"string", nil, value.String("x"), "x"},
		{"bytes", nil, value.Bytes("x"), []byte("x")},
		{"native", nil, value.Native{V: time.Unix(0, 0)}, time.Unix(0, 0)},
		{"seq json", &Column{Name: "tags"}, seq, `["a",1]`},
		{"map json", nil, value.MapOf(value.E("k", value.Null{})), `{"k":null}`},
		{"seq packed", &Column{Name: "tags", Packed: true}, value.Seq{}, []byte{0x90}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BindValue(tt.c, tt.v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestArgs(t *testing.T) {
	row := value.MapOf(
		value.E("score", value.Int64(3)),
		value.E("id", value.String("k1")),
	)
	args, err := Args(itemColumns(), row)
	require.NoError(t, err)
	assert.Equal(t, []any{"k1", nil, int64(3)}, args)
	assert.Equal(t, []any{"k1", nil, int64(3), "k1", nil, int64(3)}, Repeat(args, 2))
}

func TestDialectOf(t *testing.T) {
	for name, want := range map[string]*Dialect{
		"":         Generic,
		"generic":  Generic,
		"sqlite":   SQLite,
		"sqlite3":  SQLite,
		"mysql":    MySQL,
		"postgres": Postgres,
		"pgx":      Postgres,
	} {
		got, err := DialectOf(name)
		require.NoError(t, err)
		assert.Same(t, want, got, name)
	}
	_, err := DialectOf("oracle")
	assert.Error(t, err)

	assert.False(t, Generic.SupportsPrimaryIndex())
	assert.False(t, SQLite.SupportsPrimaryIndex())
	assert.True(t, MySQL.SupportsPrimaryIndex())
	assert.False(t, Generic.SupportsExtendedInsert())
	assert.True(t, SQLite.SupportsExtendedInsert())
	assert.Equal(t, "?", SQLite.Placeholder(3))
	assert.Equal(t, "$3", Postgres.Placeholder(3))
}

func TestShowColumnsQuery(t *testing.T) {
	tests := []struct {
		d     *Dialect
		query string
		row   value.Map
		want  string
	}{
		{Generic, `SHOW COLUMNS FROM "items";`, value.MapOf(value.E("Field", value.String("id"))), "id"},
		{Generic, `SHOW COLUMNS FROM "items";`, value.MapOf(value.E("COLUMN_NAME", value.Bytes("name"))), "name"},
		{Generic, `SHOW COLUMNS FROM "items";`, value.MapOf(value.E("Type", value.String("int"))), "-"},
		{MySQL, "SHOW COLUMNS FROM `items`;", value.MapOf(value.E("Field", value.Bytes("score"))), "score"},
		{SQLite, `PRAGMA table_info("items");`, value.MapOf(value.E("cid", value.Int64(0)), value.E("name", value.String("id"))), "id"},
		{Postgres, `SELECT column_name FROM information_schema.columns WHERE table_name = 'items' ORDER BY ordinal_position;`, value.MapOf(value.E("column_name", value.String("id"))), "id"},
	}
	for _, tt := range tests {
		t.Run(tt.d.Name()+"/"+tt.want, func(t *testing.T) {
			query, name := tt.d.ShowColumnsQuery("items")
			assert.Equal(t, tt.query, query)
			assert.Equal(t, tt.want, name(tt.row))
		})
	}
}
