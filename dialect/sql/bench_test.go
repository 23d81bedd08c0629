package sql

import (
	"testing"

	"github.com/syssam/minorm/typer"
)

func BenchmarkRender(b *testing.B) {
	p := And(EQ("owner", "alice"), Or(In("state", "open", "draft"), Not(Like("name", "tmp%"))), GT("score", 10))
	for _, d := range []*Dialect{Generic, SQLite, MySQL, Postgres} {
		b.Run(d.Name(), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = d.Render(p)
			}
		})
	}
}

func BenchmarkInsert(b *testing.B) {
	tbl := itemTable()
	for _, d := range []*Dialect{Generic, SQLite, MySQL, Postgres} {
		b.Run(d.Name(), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = d.Insert(tbl, tbl.Columns, ConflictReplace)
			}
		})
	}
}

func BenchmarkCreateTable(b *testing.B) {
	ty := typer.New()
	cols := itemColumns()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = SQLite.CreateTable(ty, "items", cols)
	}
}
