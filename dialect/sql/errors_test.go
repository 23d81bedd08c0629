package sql

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/syssam/minorm"
)

type stateError struct{ state string }

func (e stateError) Error() string    { return "state " + e.state }
func (e stateError) SQLState() string { return e.state }

type codeError struct{ code string }

func (e codeError) Error() string { return "code " + e.code }
func (e codeError) Code() string  { return e.code }

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		dup  bool
	}{
		{"mysql duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a' for key 'name'"}, true},
		{"mysql duplicate with key", &mysql.MySQLError{Number: 1586}, true},
		{"mysql foreign key", &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}, false},
		{"postgres unique", &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}, true},
		{"postgres foreign key", &pq.Error{Code: "23503", Message: "insert or update violates foreign key"}, false},
		{"sqlstate", stateError{"23505"}, true},
		{"code", codeError{"23505"}, true},
		{"other sqlstate", stateError{"42P01"}, false},
		{"sqlite message", errors.New("constraint failed: UNIQUE constraint failed: items.name (2067)"), true},
		{"unique violation", errors.New("unique constraint violation on items.name"), true},
		{"mysql message", errors.New("Error 1062 (23000): Duplicate entry 'a' for key 'name'"), true},
		{"postgres message", errors.New(`pq: duplicate key value violates unique constraint "items_name"`), true},
		{"foreign key message", errors.New("FOREIGN KEY constraint failed"), false},
		{"not null message", errors.New("NOT NULL constraint failed: items.name"), false},
		{"integrity violation", errors.New("integrity constraint violation"), false},
		{"wrapped", fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062}), true},
		{"unrelated", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generic.TranslateError(tt.err)
			assert.Equal(t, tt.dup, minorm.IsDuplicateKey(got))
			assert.Equal(t, tt.dup, IsUniqueConstraintError(tt.err))
			if tt.dup {
				assert.ErrorIs(t, got, tt.err)
				assert.ErrorIs(t, got, minorm.ErrDuplicateKey)
			} else {
				assert.Equal(t, tt.err, got)
			}
		})
	}
}

func TestTranslateError_Passthrough(t *testing.T) {
	assert.NoError(t, SQLite.TranslateError(nil))
	dup := minorm.NewDuplicateKeyError(errors.New("x"))
	assert.Same(t, dup, SQLite.TranslateError(dup))
	assert.False(t, IsUniqueConstraintError(nil))
}

func TestTranslateError_SQLite(t *testing.T) {
	ctx := context.Background()
	drv := openSQLite(t)
	for _, stmt := range []string{
		`CREATE TABLE "owners" ("id" TEXT PRIMARY KEY)`,
		`CREATE TABLE "pets" ("id" TEXT PRIMARY KEY, "name" TEXT NOT NULL UNIQUE, "age" INTEGER CHECK ("age" >= 0), "owner" TEXT REFERENCES "owners" ("id"))`,
		`INSERT INTO "owners" ("id") VALUES ('o1')`,
		`INSERT INTO "pets" ("id", "name", "age", "owner") VALUES ('p1', 'rex', 3, 'o1')`,
	} {
		_, err := drv.Exec(ctx, stmt, nil)
		require.NoError(t, err, stmt)
	}
	tests := []struct {
		name string
		stmt string
		code int
		dup  bool
	}{
		{"unique", `INSERT INTO "pets" ("id", "name") VALUES ('p2', 'rex')`, sqlite3.SQLITE_CONSTRAINT_UNIQUE, true},
		{"primary key", `INSERT INTO "owners" ("id") VALUES ('o1')`, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, true},
		{"foreign key", `INSERT INTO "pets" ("id", "name", "owner") VALUES ('p3', 'max', 'nobody')`, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, false},
		{"check", `INSERT INTO "pets" ("id", "name", "age") VALUES ('p4', 'tom', -1)`, sqlite3.SQLITE_CONSTRAINT_CHECK, false},
		{"not null", `INSERT INTO "pets" ("id", "name") VALUES ('p5', NULL)`, sqlite3.SQLITE_CONSTRAINT_NOTNULL, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := drv.Exec(ctx, tt.stmt, nil)
			require.Error(t, err)
			var liteErr *sqlite.Error
			require.True(t, errors.As(err, &liteErr), "got %T", err)
			assert.Equal(t, tt.code, liteErr.Code())
			assert.Equal(t, tt.dup, minorm.IsDuplicateKey(err), "got %v", err)
		})
	}
}
