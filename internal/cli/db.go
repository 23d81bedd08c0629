package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	// Database drivers for the commands connecting to a live database.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/syssam/minorm/dialect"
	"github.com/syssam/minorm/dialect/sql"
	"github.com/syssam/minorm/dialect/sql/schema"
	"github.com/syssam/minorm/typer"
)

// dbFlags are the connection flags of commands using a live database.
type dbFlags struct {
	dialect string
	dsn     string
}

func (f *dbFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.dialect, "dialect", "d", dialect.SQLite, "database dialect (sqlite, mysql, postgres)")
	cmd.Flags().StringVar(&f.dsn, "dsn", "", "data source name")
	_ = cmd.MarkFlagRequired("dsn")
	registerDialectCompletion(cmd)
}

// session is an open database. Its statements are counted and, in
// verbose mode, logged.
type session struct {
	drv    *sql.Driver
	conn   *sql.StatsDriver
	logger *slog.Logger
}

// open connects to the database. The dialect name is the database/sql
// driver name.
func (f *dbFlags) open(e *env) (*session, error) {
	if f.dialect == dialect.Generic {
		return nil, errors.New("the generic dialect has no driver")
	}
	d, err := sql.DialectOf(f.dialect)
	if err != nil {
		return nil, err
	}
	drv, err := sql.Open(d.Name(), f.dsn)
	if err != nil {
		return nil, err
	}
	var conn dialect.ExecQuerier = drv
	if e.verbose {
		conn = sql.NewDebugDriver(drv, e.logger)
	}
	return &session{
		drv:    drv,
		conn:   sql.NewStatsDriver(conn, sql.WithLogger(e.logger), sql.WithSlowQueryLog()),
		logger: e.logger,
	}, nil
}

func (s *session) Dialect() *sql.Dialect { return s.drv.Dialect() }

// Close logs the statement statistics and closes the database.
func (s *session) Close() error {
	s.logger.Debug("database closed", "stats", s.conn.QueryStats().Stats().String())
	return s.drv.Close()
}

func newColumnsCmd() *cobra.Command {
	var (
		db    dbFlags
		table string
	)
	cmd := &cobra.Command{
		Use:   "columns",
		Short: "List the columns of a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := db.open(envFrom(cmd.Context()))
			if err != nil {
				return err
			}
			defer s.Close()
			cols, err := s.Dialect().ShowColumns(cmd.Context(), s.conn, table)
			if err != nil {
				return err
			}
			if len(cols) == 0 {
				return fmt.Errorf("table %q not found", table)
			}
			out := cmd.OutOrStdout()
			for _, c := range cols {
				_, _ = fmt.Fprintln(out, c.Name)
			}
			return nil
		},
	}
	db.register(cmd)
	cmd.Flags().StringVar(&table, "table", "", "table name")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

func newSyncCmd() *cobra.Command {
	var (
		db        dbFlags
		noIndexes bool
	)
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Create the tables of the records",
		Long: `Create the tables of every record in the configured packages and add the
columns missing from existing tables. Columns are never dropped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := envFrom(cmd.Context())
			ty := typer.New()
			tables, err := e.tables(cmd.Context(), ty)
			if err != nil {
				return err
			}
			s, err := db.open(e)
			if err != nil {
				return err
			}
			defer s.Close()
			opts := []schema.SyncOption{schema.WithLogger(e.logger)}
			if noIndexes {
				opts = append(opts, schema.WithoutIndexes())
			}
			for _, tbl := range tables {
				if err := schema.Sync(cmd.Context(), s.Dialect(), ty, s.conn, tbl, opts...); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), tbl.Name)
			}
			return nil
		},
	}
	db.register(cmd)
	cmd.Flags().BoolVar(&noIndexes, "no-indexes", false, "do not create indexes")
	return cmd
}

func newCheckCmd() *cobra.Command {
	var (
		db          dbFlags
		allowDrop   bool
		allowToNull bool
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Compare the records with a database",
		Long: `Compare the tables of the records with the tables of a database and report
the changes a sync would need. The command fails when a change loses data.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := envFrom(cmd.Context())
			tables, err := e.tables(cmd.Context(), typer.New())
			if err != nil {
				return err
			}
			s, err := db.open(e)
			if err != nil {
				return err
			}
			defer s.Close()
			var current []*sql.Table
			for _, tbl := range tables {
				cur, err := schema.Current(cmd.Context(), s.Dialect(), s.conn, tbl.Name)
				if err != nil {
					return err
				}
				if cur != nil {
					current = append(current, cur)
				}
			}
			var opts []schema.ValidateOption
			if allowDrop {
				opts = append(opts, schema.AllowDropColumn())
			}
			if allowToNull {
				opts = append(opts, schema.AllowNullToNotNull())
			}
			res := schema.ValidateDiff(current, tables, opts...)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), res)
			if res.HasErrors() {
				return errors.New("schema check failed")
			}
			return nil
		},
	}
	db.register(cmd)
	cmd.Flags().BoolVar(&allowDrop, "allow-drop-column", false, "accept columns missing from the records")
	cmd.Flags().BoolVar(&allowToNull, "allow-null-to-not-null", false, "accept columns becoming NOT NULL")
	return cmd
}
