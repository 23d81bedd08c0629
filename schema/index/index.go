// Package index provides builders for declaring composite indexes on records.
//
//	func (Item) Indexes() []*index.Descriptor {
//		return []*index.Descriptor{
//			index.Fields("owner", "name").Unique().Descriptor(),
//			index.Fields("created_at").Desc().Descriptor(),
//		}
//	}
package index

// Kind is the kind of an index.
type Kind uint8

// Index kinds.
const (
	KindIndex Kind = iota
	KindUnique
	KindPrimary
	KindOther
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindUnique:
		return "UNIQUE"
	case KindPrimary:
		return "PRIMARY"
	case KindOther:
		return "OTHER"
	default:
		return "INDEX"
	}
}

// A Descriptor for index configuration.
type Descriptor struct {
	Kind       Kind     // index kind
	Unique     bool     // unique index, set for KindUnique and KindPrimary
	Fields     []string // column names
	Desc       []bool   // descending direction per field
	StorageKey string   // custom index name
}

// Builder for indexes on record fields.
type Builder struct {
	desc *Descriptor
}

// Fields creates an index on the given column names.
func Fields(fields ...string) *Builder {
	return &Builder{desc: &Descriptor{
		Fields: fields,
		Desc:   make([]bool, len(fields)),
	}}
}

// Unique sets the index to be a unique index.
func (b *Builder) Unique() *Builder {
	b.desc.Kind = KindUnique
	b.desc.Unique = true
	return b
}

// Primary sets the index to be the primary index. Dialects without a
// primary index concept render it as a unique index.
func (b *Builder) Primary() *Builder {
	b.desc.Kind = KindPrimary
	b.desc.Unique = true
	return b
}

// Desc marks every field of the index as descending.
func (b *Builder) Desc() *Builder {
	for i := range b.desc.Desc {
		b.desc.Desc[i] = true
	}
	return b
}

// DescField marks a single field of the index as descending.
func (b *Builder) DescField(name string) *Builder {
	for i, f := range b.desc.Fields {
		if f == name {
			b.desc.Desc[i] = true
		}
	}
	return b
}

// StorageKey sets the name of the index in the database.
func (b *Builder) StorageKey(key string) *Builder {
	b.desc.StorageKey = key
	return b
}

// Descriptor implements the Descriptor method of the Index interface.
func (b *Builder) Descriptor() *Descriptor {
	return b.desc
}
