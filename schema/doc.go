// Package schema derives the Target Shape of a record type: its table name,
// its ordered columns with their semantic types, nullability, defaults and
// length hints, and its indexes.
//
// Shapes are read from plain Go structs. Exported fields become columns in
// declaration order, named by the snake_case form of the Go name unless a
// minorm struct tag says otherwise:
//
//	type Item struct {
//	    ID      schema.Key `minorm:"id,unique"`
//	    Name    string     `minorm:",maxlen=64,index"`
//	    Score   int
//	    Note    *string    // nullable
//	    Tags    []string   `minorm:",packed"`
//	    Ignored string     `minorm:"-"`
//	}
//
// The tag is a column name followed by options:
//
//	maxlen=N     VARCHAR(N)
//	default=LIT  explicit default literal for NOT NULL columns
//	unique       single-column unique index
//	index        single-column index
//	desc         descending direction for the single-column index
//	packed       store sequences and mappings as msgpack BLOBs
//
// The table name is the plural snake_case form of the type name, or the
// result of a TableName method. Composite indexes come from an Indexes
// method returning []*index.Descriptor.
//
// Shapes are computed once per type and cached:
//
//	shape, err := schema.Of(reflect.TypeFor[Item]())
//
// For detailed documentation on each subpackage, see their respective package docs.
package schema
