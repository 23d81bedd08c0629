package value

import (
	"fmt"
	"sort"
	"time"
)

// FromDriver converts a value produced by a database/sql scan into a Value.
func FromDriver(v any) (Value, error) {
	switch v := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return v, nil
	case bool:
		return Bool(v), nil
	case int:
		return Int{V: int64(v), Bits: 64}, nil
	case int8:
		return Int{V: int64(v), Bits: 8}, nil
	case int16:
		return Int{V: int64(v), Bits: 16}, nil
	case int32:
		return Int{V: int64(v), Bits: 32}, nil
	case int64:
		return Int{V: v, Bits: 64}, nil
	case uint:
		return Uint{V: uint64(v), Bits: 64}, nil
	case uint8:
		return Uint{V: uint64(v), Bits: 8}, nil
	case uint16:
		return Uint{V: uint64(v), Bits: 16}, nil
	case uint32:
		return Uint{V: uint64(v), Bits: 32}, nil
	case uint64:
		return Uint{V: v, Bits: 64}, nil
	case float32:
		return Float{V: float64(v), Bits: 32}, nil
	case float64:
		return Float{V: v, Bits: 64}, nil
	case string:
		return String(v), nil
	case []byte:
		// database/sql reuses scan buffers.
		return Bytes(append([]byte(nil), v...)), nil
	case time.Time:
		return Native{V: v}, nil
	case []any:
		seq := make(Seq, len(v))
		for i, e := range v {
			ev, err := FromDriver(e)
			if err != nil {
				return nil, fmt.Errorf("value: element %d: %w", i, err)
			}
			seq[i] = ev
		}
		return seq, nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b := NewMapBuilder(len(keys))
		for _, k := range keys {
			ev, err := FromDriver(v[k])
			if err != nil {
				return nil, fmt.Errorf("value: key %q: %w", k, err)
			}
			b.Set(k, ev)
		}
		return b.Map(), nil
	default:
		return nil, fmt.Errorf("value: unsupported driver value of type %T", v)
	}
}

// Row builds a Map from parallel column and value slices, as returned by
// a rows scan.
func Row(columns []string, values []any) (Map, error) {
	if len(columns) != len(values) {
		return Map{}, fmt.Errorf("value: %d columns but %d values", len(columns), len(values))
	}
	b := NewMapBuilder(len(columns))
	for i, c := range columns {
		v, err := FromDriver(values[i])
		if err != nil {
			return Map{}, fmt.Errorf("value: column %q: %w", c, err)
		}
		b.Set(c, v)
	}
	return b.Map(), nil
}
