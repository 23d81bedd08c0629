package gen

import (
	"bytes"
	"context"
	"fmt"
	"go/types"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dave/jennifer/jen"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/minorm/compiler/load"
)

const (
	typerPkg = "github.com/syssam/minorm/typer"
	valuePkg = "github.com/syssam/minorm/value"
)

// Generator writes the decompose and reconstruct methods of loaded
// records, one file per package.
type Generator struct {
	cfg    *Config
	logger *slog.Logger
}

// NewGenerator returns a generator for cfg. A nil cfg uses the defaults.
func NewGenerator(cfg *Config) *Generator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Generator{cfg: cfg, logger: slog.Default()}
}

// WithLogger sets the logger reporting written files.
func (g *Generator) WithLogger(l *slog.Logger) *Generator {
	if l != nil {
		g.logger = l
	}
	return g
}

// Generate writes the generated file of every package with records, in
// parallel, and returns the written paths in package order. Packages
// without records are skipped.
func (g *Generator) Generate(ctx context.Context, pkgs []*load.Package) ([]string, error) {
	if err := g.cfg.Validate(); err != nil {
		return nil, err
	}
	workers := g.cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	paths := make([]string, len(pkgs))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, pkg := range pkgs {
		if len(pkg.Shapes) == 0 {
			continue
		}
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			path, err := g.writePackage(pkg)
			if err != nil {
				return err
			}
			g.logger.InfoContext(ctx, "generated", "package", pkg.Path, "file", path, "shapes", len(pkg.Shapes))
			paths[i] = path
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	written := paths[:0]
	for _, p := range paths {
		if p != "" {
			written = append(written, p)
		}
	}
	return written, nil
}

// Generate is a shorthand for NewGenerator(cfg).Generate(ctx, pkgs).
func Generate(ctx context.Context, cfg *Config, pkgs []*load.Package) ([]string, error) {
	return NewGenerator(cfg).Generate(ctx, pkgs)
}

func (g *Generator) writePackage(pkg *load.Package) (string, error) {
	if pkg.Dir == "" {
		return "", NewGenerationError(pkg.Path, "", "package has no directory", nil)
	}
	f, err := g.File(pkg)
	if err != nil {
		return "", err
	}
	path := filepath.Join(pkg.Dir, g.cfg.Output)
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return "", NewGenerationError(pkg.Path, g.cfg.Output, "render", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", NewGenerationError(pkg.Path, g.cfg.Output, "write", err)
	}
	return path, nil
}

// File returns the generated file of pkg.
func (g *Generator) File(pkg *load.Package) (*jen.File, error) {
	f := jen.NewFilePathName(pkg.Path, pkg.Name)
	if g.cfg.Header != "" {
		f.HeaderComment(g.cfg.Header)
	}
	for _, s := range pkg.Shapes {
		if err := g.shape(f, s); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (g *Generator) shape(f *jen.File, s *load.Shape) error {
	fieldTypes := make([]jen.Code, len(s.Fields))
	for i, fd := range s.Fields {
		c, err := typeCode(fd.Type)
		if err != nil {
			return NewShapeError(s.Name, fd.GoName, "unsupported field type", err)
		}
		fieldTypes[i] = c
	}

	f.Var().Defs(
		jen.Id("_").Qual(typerPkg, "Decomposer").Op("=").Id(s.Name).Values(),
		jen.Id("_").Qual(typerPkg, "Reconstructor").Op("=").Parens(jen.Op("*").Id(s.Name)).Parens(jen.Nil()),
	)
	f.Line()

	decompose := []jen.Code{
		jen.Id("b").Op(":=").Qual(valuePkg, "NewMapBuilder").Call(jen.Lit(len(s.Fields))),
	}
	if len(s.Fields) > 0 {
		decompose = append(decompose, jen.Var().Defs(
			jen.Id("v").Qual(valuePkg, "Value"),
			jen.Err().Error(),
		))
	}
	for _, fd := range s.Fields {
		decompose = append(decompose,
			jen.If(
				jen.List(jen.Id("v"), jen.Err()).Op("=").Id("t").Dot("Untype").Call(selector("r", fd.Path)),
				jen.Err().Op("!=").Nil(),
			).Block(
				jen.Return(
					jen.Qual(valuePkg, "Map").Values(),
					jen.Qual("fmt", "Errorf").Call(jen.Lit(columnError(s, fd)), jen.Err()),
				),
			),
			jen.Id("b").Dot("Set").Call(jen.Lit(fd.Name), jen.Id("v")),
		)
	}
	decompose = append(decompose, jen.Return(jen.Id("b").Dot("Map").Call(), jen.Nil()))

	f.Comment("DecomposeValue implements typer.Decomposer.")
	f.Func().
		Params(jen.Id("r").Id(s.Name)).
		Id("DecomposeValue").
		Params(jen.Id("t").Op("*").Qual(typerPkg, "Typer")).
		Params(jen.Qual(valuePkg, "Map"), jen.Error()).
		Block(decompose...)
	f.Line()

	var reconstruct []jen.Code
	for i, fd := range s.Fields {
		reconstruct = append(reconstruct,
			jen.If(
				jen.List(jen.Id("v"), jen.Id("ok"), jen.Err()).Op(":=").
					Qual(typerPkg, "Field").Types(fieldTypes[i]).
					Call(jen.Id("t"), jen.Id("m"), jen.Lit(fd.Name)),
				jen.Err().Op("!=").Nil(),
			).Block(
				jen.Return(jen.Qual("fmt", "Errorf").Call(jen.Lit(columnError(s, fd)), jen.Err())),
			).Else().If(jen.Id("ok")).Block(
				selector("r", fd.Path).Op("=").Id("v"),
			),
		)
	}
	reconstruct = append(reconstruct, jen.Return(jen.Nil()))

	f.Comment("ReconstructValue implements typer.Reconstructor.")
	f.Func().
		Params(jen.Id("r").Op("*").Id(s.Name)).
		Id("ReconstructValue").
		Params(
			jen.Id("t").Op("*").Qual(typerPkg, "Typer"),
			jen.Id("m").Qual(valuePkg, "Map"),
		).
		Error().
		Block(reconstruct...)
	f.Line()
	return nil
}

func columnError(s *load.Shape, fd *load.Field) string {
	return s.Name + "." + fd.Name + ": %w"
}

func selector(recv string, path []string) *jen.Statement {
	st := jen.Id(recv)
	for _, p := range path {
		st = st.Dot(p)
	}
	return st
}

// typeCode returns the source form of t.
func typeCode(t types.Type) (jen.Code, error) {
	switch t := types.Unalias(t).(type) {
	case *types.Basic:
		return jen.Id(t.Name()), nil
	case *types.Named:
		obj := t.Obj()
		var st *jen.Statement
		if obj.Pkg() == nil {
			st = jen.Id(obj.Name())
		} else {
			st = jen.Qual(obj.Pkg().Path(), obj.Name())
		}
		if args := t.TypeArgs(); args.Len() > 0 {
			codes := make([]jen.Code, args.Len())
			for i := range args.Len() {
				c, err := typeCode(args.At(i))
				if err != nil {
					return nil, err
				}
				codes[i] = c
			}
			st = st.Types(codes...)
		}
		return st, nil
	case *types.Pointer:
		elem, err := typeCode(t.Elem())
		if err != nil {
			return nil, err
		}
		return jen.Op("*").Add(elem), nil
	case *types.Slice:
		elem, err := typeCode(t.Elem())
		if err != nil {
			return nil, err
		}
		return jen.Index().Add(elem), nil
	case *types.Array:
		elem, err := typeCode(t.Elem())
		if err != nil {
			return nil, err
		}
		return jen.Index(jen.Lit(int(t.Len()))).Add(elem), nil
	case *types.Map:
		key, err := typeCode(t.Key())
		if err != nil {
			return nil, err
		}
		elem, err := typeCode(t.Elem())
		if err != nil {
			return nil, err
		}
		return jen.Map(key).Add(elem), nil
	case *types.Struct:
		if t.NumFields() == 0 {
			return jen.Struct(), nil
		}
	case *types.Interface:
		if t.Empty() {
			return jen.Id("any"), nil
		}
	}
	return nil, fmt.Errorf("type %s has no name to refer to", strings.TrimSpace(t.String()))
}
