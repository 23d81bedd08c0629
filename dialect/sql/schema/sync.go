package schema

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/syssam/minorm/dialect"
	"github.com/syssam/minorm/dialect/sql"
	"github.com/syssam/minorm/typer"
)

// SyncOption configures Sync.
type SyncOption func(*syncConfig)

type syncConfig struct {
	logger      *slog.Logger
	skipIndexes bool
}

// WithLogger sets the logger Sync reports its statements to.
// Defaults to slog.Default().
func WithLogger(l *slog.Logger) SyncOption {
	return func(c *syncConfig) {
		c.logger = l
	}
}

// WithoutIndexes disables index creation.
func WithoutIndexes() SyncOption {
	return func(c *syncConfig) {
		c.skipIndexes = true
	}
}

// Sync brings the table in line with tbl. It creates the table when it is
// missing, adds every column the database does not know about and creates
// every index. Columns are never dropped or altered, and running Sync again
// is a no-op.
func Sync(ctx context.Context, d *sql.Dialect, t *typer.Typer, conn dialect.ExecQuerier, tbl *sql.Table, opts ...SyncOption) error {
	cfg := &syncConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}
	log := cfg.logger.With("table", tbl.Name, "dialect", d.Name())

	create, err := d.CreateTable(t, tbl.Name, tbl.Columns)
	if err != nil {
		return fmt.Errorf("schema: create %q: %w", tbl.Name, err)
	}
	log.DebugContext(ctx, "create table", "sql", create)
	if _, err := conn.Exec(ctx, create, nil); err != nil {
		return fmt.Errorf("schema: create %q: %w", tbl.Name, err)
	}

	existing, err := d.ShowColumns(ctx, conn, tbl.Name)
	if err != nil {
		return fmt.Errorf("schema: show columns of %q: %w", tbl.Name, err)
	}
	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[c.Name] = true
	}
	for _, c := range tbl.Columns {
		if have[c.Name] {
			continue
		}
		alter, err := d.AlterTableAddColumn(t, tbl.Name, c)
		if err != nil {
			return fmt.Errorf("schema: add column %q.%q: %w", tbl.Name, c.Name, err)
		}
		log.InfoContext(ctx, "add column", "column", c.Name, "sql", alter)
		if _, err := conn.Exec(ctx, alter, nil); err != nil {
			return fmt.Errorf("schema: add column %q.%q: %w", tbl.Name, c.Name, err)
		}
	}

	if cfg.skipIndexes {
		return nil
	}
	for _, idx := range tbl.Indexes {
		stmt := d.CreateIndex(idx.Kind, tbl.Name, idx.Columns, idx.Name)
		log.DebugContext(ctx, "create index", "index", idx.Name, "sql", stmt)
		if _, err := conn.Exec(ctx, stmt, nil); err != nil {
			return fmt.Errorf("schema: create index %q on %q: %w", idx.Name, tbl.Name, err)
		}
	}
	return nil
}

// Statements returns the DDL creating tbl and its indexes from scratch.
func Statements(d *sql.Dialect, t *typer.Typer, tbl *sql.Table) ([]string, error) {
	create, err := d.CreateTable(t, tbl.Name, tbl.Columns)
	if err != nil {
		return nil, fmt.Errorf("schema: create %q: %w", tbl.Name, err)
	}
	stmts := []string{create}
	for _, idx := range tbl.Indexes {
		stmts = append(stmts, d.CreateIndex(idx.Kind, tbl.Name, idx.Columns, idx.Name))
	}
	return stmts, nil
}
