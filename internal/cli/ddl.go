package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syssam/minorm/compiler/gen"
	"github.com/syssam/minorm/dialect"
	"github.com/syssam/minorm/dialect/sql"
	"github.com/syssam/minorm/dialect/sql/schema"
	"github.com/syssam/minorm/typer"
)

func newDDLCmd() *cobra.Command {
	var name, format, schemaName string
	cmd := &cobra.Command{
		Use:   "ddl",
		Short: "Print the tables of the records",
		Long: `Print the CREATE TABLE and CREATE INDEX statements of every record in the
configured packages. Indexes are taken from struct tags. With --format hcl
the tables are printed as an Atlas HCL schema instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := sql.DialectOf(name)
			if err != nil {
				return err
			}
			if format != "sql" && format != "hcl" {
				return fmt.Errorf("unknown format %q", format)
			}
			e := envFrom(cmd.Context())
			ty := typer.New()
			tables, err := e.tables(cmd.Context(), ty)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if format == "hcl" {
				b, err := schema.HCL(d, ty, schemaName, tables)
				if err != nil {
					return err
				}
				_, err = out.Write(b)
				return err
			}
			for _, tbl := range tables {
				stmts, err := schema.Statements(d, ty, tbl)
				if err != nil {
					return err
				}
				for _, s := range stmts {
					_, _ = fmt.Fprintln(out, s)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "dialect", "d", dialect.SQLite, "SQL dialect (generic, sqlite, mysql, postgres)")
	cmd.Flags().StringVarP(&format, "format", "f", "sql", "output format (sql, hcl)")
	cmd.Flags().StringVar(&schemaName, "schema", "", "schema name of the hcl output")
	registerDialectCompletion(cmd)
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions([]string{"sql", "hcl"}, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}

// tables returns the table metadata of every loaded record, validated as
// a whole.
func (e *env) tables(ctx context.Context, ty *typer.Typer) ([]*sql.Table, error) {
	pkgs, err := e.loadPackages(ctx)
	if err != nil {
		return nil, err
	}
	var tables []*sql.Table
	for _, pkg := range pkgs {
		for _, s := range pkg.Shapes {
			tbl, err := gen.Table(ty, s)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", s.Pos, err)
			}
			tables = append(tables, tbl)
		}
	}
	res := schema.ValidateSchema(tables)
	for _, w := range res.Warnings {
		e.logger.Warn(w.Message, "table", w.Table, "column", w.Column)
	}
	if res.HasErrors() {
		return nil, fmt.Errorf("invalid records:\n%s", res)
	}
	return tables, nil
}

func registerDialectCompletion(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("dialect", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{dialect.Generic, dialect.SQLite, dialect.MySQL, dialect.Postgres}, cobra.ShellCompDirectiveNoFileComp
	})
}
