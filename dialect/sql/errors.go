package sql

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/syssam/minorm"
)

// errorCoder is implemented by drivers that expose a SQLSTATE as Code.
type errorCoder interface {
	Code() string
}

// sqlStateError is implemented by drivers that expose a SQLSTATE.
type sqlStateError interface {
	SQLState() string
}

const pgUniqueViolation = "23505"

// MySQL error numbers for duplicate entries.
const (
	mysqlDuplicateEntry        = 1062
	mysqlDuplicateEntryWithKey = 1586
)

// uniquePhrases are matched against the messages of drivers that do not
// expose typed errors.
var uniquePhrases = []string{
	"Error 1062",                 // MySQL
	"Duplicate entry",            // MySQL
	"violates unique constraint", // Postgres
	"UNIQUE constraint failed",   // SQLite
	"unique constraint violation",
	"duplicate key",
}

// TranslateError converts a uniqueness constraint failure reported by the
// driver into a *minorm.DuplicateKeyError wrapping it. Other errors are
// returned unchanged.
func (d *Dialect) TranslateError(err error) error {
	if err == nil || minorm.IsDuplicateKey(err) {
		return err
	}
	if IsUniqueConstraintError(err) {
		return minorm.NewDuplicateKeyError(err)
	}
	return err
}

// IsUniqueConstraintError reports if the error resulted from a DB
// uniqueness constraint violation.
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry || myErr.Number == mysqlDuplicateEntryWithKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	if e, ok := asError[sqlStateError](err); ok && e.SQLState() == pgUniqueViolation {
		return true
	}
	if e, ok := asError[errorCoder](err); ok && e.Code() == pgUniqueViolation {
		return true
	}
	return containsAny(err.Error(), uniquePhrases...)
}

// asError attempts to extract an error implementing interface T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
