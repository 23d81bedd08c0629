package value

import (
	"iter"

	"golang.org/x/text/cases"
)

// Entry is a key/value pair of a Map.
type Entry struct {
	Key   string
	Value Value
}

// E is shorthand for an Entry literal.
func E(key string, v Value) Entry { return Entry{Key: key, Value: v} }

// Map is an insertion-ordered mapping from text keys to values.
// The zero Map is empty and ready to use.
type Map struct {
	keys []string
	vals []Value
	idx  map[string]int
}

// MapOf builds a Map from entries. A repeated key keeps its first
// position and takes the last value.
func MapOf(entries ...Entry) Map {
	b := NewMapBuilder(len(entries))
	for _, e := range entries {
		b.Set(e.Key, e.Value)
	}
	return b.Map()
}

// Kind returns KindMap.
func (Map) Kind() Kind { return KindMap }

// Interface returns the map as map[string]any.
func (m Map) Interface() any {
	out := make(map[string]any, len(m.keys))
	for i, k := range m.keys {
		out[k] = m.vals[i].Interface()
	}
	return out
}

// Len returns the number of entries.
func (m Map) Len() int { return len(m.keys) }

// Keys returns a copy of the keys in insertion order.
func (m Map) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Get returns the value stored under key.
func (m Map) Get(key string) (Value, bool) {
	i, ok := m.idx[key]
	if !ok {
		return nil, false
	}
	return m.vals[i], true
}

// Lookup is like Get but falls back to a case-insensitive match.
// Drivers are free to report column labels in upper case.
func (m Map) Lookup(key string) (Value, bool) {
	if v, ok := m.Get(key); ok {
		return v, true
	}
	fold := cases.Fold()
	want := fold.String(key)
	for i, k := range m.keys {
		if fold.String(k) == want {
			return m.vals[i], true
		}
	}
	return nil, false
}

// All iterates entries in insertion order.
func (m Map) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for i, k := range m.keys {
			if !yield(k, m.vals[i]) {
				return
			}
		}
	}
}

// Entries returns a copy of the entries in insertion order.
func (m Map) Entries() []Entry {
	out := make([]Entry, len(m.keys))
	for i, k := range m.keys {
		out[i] = Entry{Key: k, Value: m.vals[i]}
	}
	return out
}

// MapBuilder accumulates entries for a Map.
type MapBuilder struct {
	m Map
}

// NewMapBuilder returns a builder sized for n entries.
func NewMapBuilder(n int) *MapBuilder {
	return &MapBuilder{m: Map{
		keys: make([]string, 0, n),
		vals: make([]Value, 0, n),
		idx:  make(map[string]int, n),
	}}
}

// Set stores v under key. A nil v is stored as Null.
func (b *MapBuilder) Set(key string, v Value) *MapBuilder {
	if b.m.idx == nil {
		b.m.idx = make(map[string]int)
	}
	if v == nil {
		v = Null{}
	}
	if i, ok := b.m.idx[key]; ok {
		b.m.vals[i] = v
		return b
	}
	b.m.idx[key] = len(b.m.keys)
	b.m.keys = append(b.m.keys, key)
	b.m.vals = append(b.m.vals, v)
	return b
}

// Len returns the number of entries set so far.
func (b *MapBuilder) Len() int { return len(b.m.keys) }

// Map returns the built Map. The builder is reset and must not be reused
// to modify the returned Map.
func (b *MapBuilder) Map() Map {
	m := b.m
	b.m = Map{}
	return m
}
