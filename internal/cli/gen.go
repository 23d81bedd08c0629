package cli

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/syssam/minorm/compiler/gen"
)

// debounce is how long gen --watch waits for file events to settle.
const debounce = 100 * time.Millisecond

func newGenCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate record codecs",
		Long: `Generate the DecomposeValue and ReconstructValue methods of every record
in the configured packages. With --watch, files are regenerated whenever a
Go source file changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := envFrom(cmd.Context())
			if err := e.generate(cmd.Context(), cmd.OutOrStdout()); err != nil {
				if !watch {
					return err
				}
				e.logger.Error("generate", "error", err)
			}
			if !watch {
				return nil
			}
			return e.watch(cmd.Context(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "regenerate when source files change")
	return cmd
}

func (e *env) generate(ctx context.Context, out io.Writer) error {
	pkgs, err := e.loadPackages(ctx)
	if err != nil {
		return err
	}
	paths, err := gen.NewGenerator(e.cfg).WithLogger(e.logger).Generate(ctx, pkgs)
	if err != nil {
		return err
	}
	for _, p := range paths {
		_, _ = fmt.Fprintln(out, p)
	}
	return nil
}

// watch regenerates on source changes until ctx is done.
func (e *env) watch(ctx context.Context, out io.Writer) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()
	if err := watchDir(w, e.dir); err != nil {
		return fmt.Errorf("watch %s: %w", e.dir, err)
	}
	e.logger.Info("watching", "dir", e.dir)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if err := watchDir(w, ev.Name); err != nil {
						e.logger.Warn("watch", "dir", ev.Name, "error", err)
					}
					continue
				}
			}
			if !e.relevant(ev) {
				continue
			}
			e.logger.Debug("change detected", "file", ev.Name, "op", ev.Op.String())
			pending = time.After(debounce)
		case <-pending:
			pending = nil
			if err := e.generate(ctx, out); err != nil {
				e.logger.Error("generate", "error", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			e.logger.Warn("watcher", "error", err)
		}
	}
}

// relevant reports whether ev touches a hand-written Go source file.
func (e *env) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(ev.Name)
	return strings.HasSuffix(base, ".go") && !strings.HasSuffix(base, "_test.go") && base != e.cfg.Output
}

// watchDir adds dir and its subdirectories to w. Hidden, vendor and
// testdata directories are skipped.
func watchDir(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != dir && (strings.HasPrefix(name, ".") || name == "vendor" || name == "testdata") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
