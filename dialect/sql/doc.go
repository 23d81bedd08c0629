// Package sql compiles predicates and statements for SQL dialects and runs
// them through database/sql.
//
// # Dialects
//
// A *Dialect is immutable and shared. There is no default dialect; every
// compilation goes through an explicit value:
//
//	d := sql.SQLite
//	q, err := d.Delete("items", sql.GT("score", 10), 0)
//	// DELETE FROM "items" WHERE "score">10;
//
// # Predicates
//
//	p := sql.And(
//	    sql.EQ("owner", "alice"),
//	    sql.Or(sql.In("state", "open", "draft"), sql.Not(sql.Like("name", "tmp%"))),
//	)
//	where, err := d.Render(p)
//
// Typed column references avoid stringly-typed literals:
//
//	var Score = sql.Field[int]("score")
//	p := Score.GTE(10)
//
// Raw predicates fail with a *minorm.ExpressionError unless the dialect was
// derived with WithRawExpressions.
//
// # Statements
//
// CreateTable, AlterTableAddColumn, CreateIndex, Delete and Insert return
// statement text. Insert reports how many times its argument list must be
// bound:
//
//	info, err := sql.MySQL.Insert(table, table.Columns, sql.ConflictReplace)
//	args, err := sql.Args(table.Columns, row)
//	_, err = drv.Exec(ctx, info.SQL, sql.Repeat(args, info.RepeatCount))
//
// # Drivers
//
// Driver, Tx and Conn adapt database/sql to dialect.ExecQuerier. Rows are
// returned as value.Map and uniqueness violations surface as
// *minorm.DuplicateKeyError. StatsDriver and DebugDriver wrap any
// dialect.ExecQuerier.
package sql
