// Package schema derives table metadata from record shapes and keeps a
// database in sync with them.
//
//	tbl, err := schema.NewTable(ty, ormschema.MustOf(reflect.TypeFor[Item]()))
//	if err != nil {
//		return err
//	}
//	if err := schema.Sync(ctx, sql.SQLite, ty, drv, tbl); err != nil {
//		return err
//	}
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/syssam/minorm/dialect"
	"github.com/syssam/minorm/dialect/sql"
	ormschema "github.com/syssam/minorm/schema"
	"github.com/syssam/minorm/schema/index"
	"github.com/syssam/minorm/typer"
	"github.com/syssam/minorm/value"
)

// NewTable returns the table metadata of a record shape. Explicit tag
// defaults are typed to the field's Go type with t.
func NewTable(t *typer.Typer, s *ormschema.Shape) (*sql.Table, error) {
	tbl := &sql.Table{
		Name:    s.Table,
		Columns: make([]*sql.Column, len(s.Fields)),
	}
	for i, f := range s.Fields {
		c := &sql.Column{
			Name:       f.Name,
			Type:       f.Info,
			GoType:     f.Type,
			Nullable:   f.Nullable,
			HasDefault: f.HasDefault,
			MaxLength:  f.MaxLength,
			Packed:     f.Packed,
		}
		if f.HasDefault && !f.Nullable {
			def, err := t.Type(value.String(f.Default), f.Type)
			if err != nil {
				return nil, fmt.Errorf("schema: %s.%s: default %q: %w", s.Name, f.GoName, f.Default, err)
			}
			c.Default = def
		}
		tbl.Columns[i] = c
	}
	seen := make(map[string]bool, len(s.Indexes))
	for _, d := range s.Indexes {
		idx := NewIndex(d)
		if seen[idx.Name] {
			return nil, fmt.Errorf("schema: %s: duplicate index %q", s.Name, idx.Name)
		}
		seen[idx.Name] = true
		tbl.Indexes = append(tbl.Indexes, idx)
	}
	return tbl, nil
}

// NewIndex returns the index metadata of an index descriptor. Indexes
// without a storage key are named after their columns.
func NewIndex(d *index.Descriptor) *sql.Index {
	idx := &sql.Index{
		Name:    d.StorageKey,
		Kind:    d.Kind,
		Columns: make([]sql.IndexColumn, len(d.Fields)),
	}
	if idx.Name == "" {
		idx.Name = strings.Join(d.Fields, "_")
	}
	for i, name := range d.Fields {
		idx.Columns[i] = sql.IndexColumn{Name: name, Desc: i < len(d.Desc) && d.Desc[i]}
	}
	return idx
}

// Current returns the table as it exists in the database, with column
// names only. Its Indexes are nil, so ValidateDiff skips index checks for
// it. It returns nil if the table has no columns.
func Current(ctx context.Context, d *sql.Dialect, q dialect.Querier, name string) (*sql.Table, error) {
	cols, err := d.ShowColumns(ctx, q, name)
	if err != nil {
		return nil, fmt.Errorf("schema: show columns of %q: %w", name, err)
	}
	if len(cols) == 0 {
		return nil, nil
	}
	return &sql.Table{Name: name, Columns: cols}, nil
}
