package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
)

// MarshalJSON encodes v as JSON, keeping the insertion order of maps.
func MarshalJSON(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler.
func (m Map) MarshalJSON() ([]byte, error) { return MarshalJSON(m) }

// MarshalJSON implements json.Marshaler.
func (v Seq) MarshalJSON() ([]byte, error) { return MarshalJSON(v) }

func writeJSON(buf *bytes.Buffer, v Value) error {
	switch v := v.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(v)))
	case Int:
		buf.WriteString(strconv.FormatInt(v.V, 10))
	case Uint:
		buf.WriteString(strconv.FormatUint(v.V, 10))
	case Float:
		if math.IsNaN(v.V) || math.IsInf(v.V, 0) {
			return fmt.Errorf("value: unsupported float %v in JSON", v.V)
		}
		buf.WriteString(FormatFloat(v))
	case Seq:
		buf.WriteByte('[')
		for i, e := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Map:
		buf.WriteByte('{')
		for i, k := range v.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := writeJSON(buf, v.vals[i]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		// String, Bytes (base64) and Native go through encoding/json.
		b, err := json.Marshal(v.Interface())
		if err != nil {
			return fmt.Errorf("value: encoding %s: %w", v.Kind(), err)
		}
		buf.Write(b)
	}
	return nil
}

// ParseJSON decodes a JSON document into a Value. Object key order is kept
// and integral numbers decode as Int.
func ParseJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := parseJSON(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("value: trailing data after JSON value")
	}
	return v, nil
}

func parseJSON(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("value: parsing JSON: %w", err)
	}
	switch tok := tok.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(tok), nil
	case string:
		return String(tok), nil
	case json.Number:
		if i, err := tok.Int64(); err == nil {
			return Int64(i), nil
		}
		if u, err := strconv.ParseUint(tok.String(), 10, 64); err == nil {
			return Uint64(u), nil
		}
		f, err := tok.Float64()
		if err != nil {
			return nil, fmt.Errorf("value: parsing JSON number %q: %w", tok, err)
		}
		return Float64(f), nil
	case json.Delim:
		switch tok {
		case '[':
			seq := Seq{}
			for dec.More() {
				e, err := parseJSON(dec)
				if err != nil {
					return nil, err
				}
				seq = append(seq, e)
			}
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("value: parsing JSON: %w", err)
			}
			return seq, nil
		case '{':
			b := NewMapBuilder(0)
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, fmt.Errorf("value: parsing JSON: %w", err)
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("value: unexpected JSON object key %v", kt)
				}
				e, err := parseJSON(dec)
				if err != nil {
					return nil, err
				}
				b.Set(key, e)
			}
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("value: parsing JSON: %w", err)
			}
			return b.Map(), nil
		}
	}
	return nil, fmt.Errorf("value: unexpected JSON token %v", tok)
}
