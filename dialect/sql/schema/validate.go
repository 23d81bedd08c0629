package schema

import (
	"fmt"
	"strings"

	"github.com/syssam/minorm/dialect/sql"
	"github.com/syssam/minorm/schema/index"
)

// ValidationError is a problem found while comparing or checking tables.
type ValidationError struct {
	Table   string
	Column  string
	Message string
	// Breaking reports a change that loses data.
	Breaking bool
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of schema validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// HasBreakingChanges returns true if there are any breaking changes.
func (r *ValidationResult) HasBreakingChanges() bool {
	for _, e := range r.Errors {
		if e.Breaking {
			return true
		}
	}
	for _, w := range r.Warnings {
		if w.Breaking {
			return true
		}
	}
	return false
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			if e.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			if w.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

// ValidateOption configures schema validation.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	allowDropColumn    bool
	allowDropTable     bool
	allowDropIndex     bool
	allowNullToNotNull bool
}

// AllowDropColumn allows dropping columns without error.
func AllowDropColumn() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropColumn = true
	}
}

// AllowDropTable allows dropping tables without error.
func AllowDropTable() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropTable = true
	}
}

// AllowDropIndex allows dropping indexes without error.
func AllowDropIndex() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropIndex = true
	}
}

// AllowNullToNotNull allows changing nullable columns to not null.
func AllowNullToNotNull() ValidateOption {
	return func(c *validateConfig) {
		c.allowNullToNotNull = true
	}
}

// ValidateDiff compares the tables in the database with the desired ones.
// Changes that lose data are errors unless allowed by an option; risky
// changes are warnings. Current tables may carry column names only, in
// which case type changes are not reported.
//
//	current, _ := schema.Current(ctx, sql.SQLite, drv, "items")
//	result := schema.ValidateDiff([]*sql.Table{current}, []*sql.Table{desired})
//	if result.HasBreakingChanges() {
//		return errors.New(result.String())
//	}
func ValidateDiff(current, desired []*sql.Table, opts ...ValidateOption) *ValidationResult {
	cfg := &validateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	result := &ValidationResult{}
	desiredMap := make(map[string]*sql.Table, len(desired))
	for _, t := range desired {
		if t != nil {
			desiredMap[t.Name] = t
		}
	}
	for _, cur := range current {
		if cur == nil {
			continue
		}
		want, ok := desiredMap[cur.Name]
		if !ok {
			result.add(&ValidationError{
				Table:    cur.Name,
				Message:  "table will be dropped",
				Breaking: true,
			}, cfg.allowDropTable)
			continue
		}
		validateTableDiff(cur, want, cfg, result)
	}
	return result
}

func (r *ValidationResult) add(err *ValidationError, allowed bool) {
	if allowed {
		r.Warnings = append(r.Warnings, err)
	} else {
		r.Errors = append(r.Errors, err)
	}
}

func (r *ValidationResult) warn(table, column, format string, args ...any) {
	r.Warnings = append(r.Warnings, &ValidationError{
		Table:   table,
		Column:  column,
		Message: fmt.Sprintf(format, args...),
	})
}

func validateTableDiff(current, desired *sql.Table, cfg *validateConfig, result *ValidationResult) {
	for _, c := range current.Columns {
		if _, ok := desired.Column(c.Name); !ok {
			result.add(&ValidationError{
				Table:    current.Name,
				Column:   c.Name,
				Message:  "column will be dropped",
				Breaking: true,
			}, cfg.allowDropColumn)
		}
	}

	for _, want := range desired.Columns {
		cur, ok := current.Column(want.Name)
		if !ok {
			if !want.Nullable && !want.HasDefault {
				result.warn(current.Name, want.Name, "new NOT NULL column without explicit default is filled with the zero value")
			}
			continue
		}
		if cur.Type.Valid() && cur.Type != want.Type {
			result.warn(current.Name, want.Name, "column type changing from %v to %v", cur.Type, want.Type)
		}
		if cur.Type.Valid() && cur.Nullable && !want.Nullable {
			result.add(&ValidationError{
				Table:    current.Name,
				Column:   want.Name,
				Message:  "column changing from NULL to NOT NULL may fail if column has NULL values",
				Breaking: true,
			}, cfg.allowNullToNotNull)
		}
		if cur.MaxLength > 0 && want.MaxLength > 0 && want.MaxLength < cur.MaxLength {
			result.warn(current.Name, want.Name, "column size reducing from %d to %d may truncate data", cur.MaxLength, want.MaxLength)
		}
	}

	// A nil index list means the indexes of the live table are unknown.
	if current.Indexes == nil {
		return
	}
	for _, idx := range current.Indexes {
		if findIndex(desired, idx.Name) == nil {
			result.add(&ValidationError{
				Table:   current.Name,
				Message: fmt.Sprintf("index %q will be dropped", idx.Name),
			}, cfg.allowDropIndex)
		}
	}
	for _, idx := range desired.Indexes {
		if idx.Kind == index.KindIndex || findIndex(current, idx.Name) != nil {
			continue
		}
		result.warn(current.Name, "", "adding %s index %q may fail if duplicate values exist", idx.Kind, idx.Name)
	}
}

func findIndex(t *sql.Table, name string) *sql.Index {
	for _, idx := range t.Indexes {
		if idx.Name == name {
			return idx
		}
	}
	return nil
}

// ValidateTable checks a single table definition.
func ValidateTable(t *sql.Table) *ValidationResult {
	result := &ValidationResult{}
	if len(t.Columns) == 0 {
		result.Errors = append(result.Errors, &ValidationError{
			Table:   t.Name,
			Message: "table has no columns",
		})
	}

	colNames := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if colNames[c.Name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Column:  c.Name,
				Message: "duplicate column name",
			})
		}
		colNames[c.Name] = true
	}

	unique := false
	idxNames := make(map[string]bool, len(t.Indexes))
	for _, idx := range t.Indexes {
		if idxNames[idx.Name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Message: fmt.Sprintf("duplicate index name: %s", idx.Name),
			})
		}
		idxNames[idx.Name] = true
		if idx.Kind == index.KindUnique || idx.Kind == index.KindPrimary {
			unique = true
		}
		for _, col := range idx.Columns {
			if !colNames[col.Name] {
				result.Errors = append(result.Errors, &ValidationError{
					Table:   t.Name,
					Message: fmt.Sprintf("index %q references non-existent column %q", idx.Name, col.Name),
				})
			}
		}
	}
	if !unique {
		result.Warnings = append(result.Warnings, &ValidationError{
			Table:   t.Name,
			Message: "table has no unique index",
		})
	}
	return result
}

// ValidateSchema checks all tables of a schema.
func ValidateSchema(tables []*sql.Table) *ValidationResult {
	result := &ValidationResult{}
	tableNames := make(map[string]bool, len(tables))
	for _, t := range tables {
		if tableNames[t.Name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Message: "duplicate table name",
			})
		}
		tableNames[t.Name] = true

		tableResult := ValidateTable(t)
		result.Errors = append(result.Errors, tableResult.Errors...)
		result.Warnings = append(result.Warnings, tableResult.Warnings...)
	}
	return result
}
