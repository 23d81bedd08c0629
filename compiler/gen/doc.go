// Package gen writes the record codecs of loaded packages.
//
// For every record marked with //minorm:shape, gen writes a DecomposeValue
// method converting the record to a value.Map and a ReconstructValue
// method filling it back, so the typer converts records without
// reflection:
//
//	pkgs, err := load.Load(ctx, ".", "./...")
//	if err != nil {
//		return err
//	}
//	paths, err := gen.Generate(ctx, gen.MustNewConfig(gen.WithWorkers(4)), pkgs)
//
// Table returns the table metadata of a loaded record for printing DDL
// without compiling the package.
package gen
