// Package cli provides the command-line interface of minorm.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/syssam/minorm/compiler/gen"
	"github.com/syssam/minorm/compiler/load"
)

// Version is set at build time.
var Version = "dev"

// envKey stores the command environment in the command context.
type envKey struct{}

// env is the state shared by subcommands.
type env struct {
	dir     string
	cfg     *gen.Config
	logger  *slog.Logger
	verbose bool
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	var (
		cfgFile string
		dir     string
		verbose bool
	)
	root := &cobra.Command{
		Use:   "minorm",
		Short: "Record codecs and tables for minorm",
		Long: `minorm generates the decompose and reconstruct methods of record types
marked with //minorm:shape, prints their DDL and keeps databases in sync
with them.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			path := cfgFile
			if path == "" {
				path = filepath.Join(dir, gen.ConfigFile)
			}
			cfg, err := gen.LoadConfig(path)
			if err != nil {
				return err
			}
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			cmd.SetContext(context.WithValue(cmd.Context(), envKey{}, &env{dir: dir, cfg: cfg, logger: logger, verbose: verbose}))
			logger.Debug("config loaded", "path", path, "patterns", cfg.Patterns)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: <dir>/"+gen.ConfigFile+")")
	root.PersistentFlags().StringVarP(&dir, "dir", "C", ".", "directory package patterns are resolved in")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(newGenCmd())
	root.AddCommand(newDDLCmd())
	root.AddCommand(newColumnsCmd())
	root.AddCommand(newSyncCmd())
	root.AddCommand(newCheckCmd())
	return root
}

// Execute runs the root command until it completes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func envFrom(ctx context.Context) *env {
	if e, ok := ctx.Value(envKey{}).(*env); ok {
		return e
	}
	return &env{dir: ".", cfg: gen.DefaultConfig(), logger: slog.Default()}
}

// loadPackages loads the configured package patterns. Errors in previously
// generated files are ignored so that stale output never blocks a run.
func (e *env) loadPackages(ctx context.Context) ([]*load.Package, error) {
	c := &load.Config{Dir: e.dir, BuildFlags: e.cfg.BuildFlags, Ignore: []string{e.cfg.Output}}
	return c.Load(ctx, e.cfg.Patterns...)
}
