package value

import (
	"bytes"
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// EncodeMsgpack encodes v in MessagePack form, keeping map order.
// It backs packed columns.
func EncodeMsgpack(v Value) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := encodeMsgpack(enc, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeMsgpack(enc *msgpack.Encoder, v Value) error {
	switch v := v.(type) {
	case nil, Null:
		return enc.EncodeNil()
	case Bool:
		return enc.EncodeBool(bool(v))
	case Int:
		return enc.EncodeInt(v.V)
	case Uint:
		return enc.EncodeUint(v.V)
	case Float:
		if v.Bits == 32 {
			return enc.EncodeFloat32(float32(v.V))
		}
		return enc.EncodeFloat64(v.V)
	case String:
		return enc.EncodeString(string(v))
	case Bytes:
		return enc.EncodeBytes(v)
	case Seq:
		if err := enc.EncodeArrayLen(len(v)); err != nil {
			return err
		}
		for _, e := range v {
			if err := encodeMsgpack(enc, e); err != nil {
				return err
			}
		}
		return nil
	case Map:
		if err := enc.EncodeMapLen(v.Len()); err != nil {
			return err
		}
		for i, k := range v.keys {
			if err := enc.EncodeString(k); err != nil {
				return err
			}
			if err := encodeMsgpack(enc, v.vals[i]); err != nil {
				return err
			}
		}
		return nil
	case Native:
		return enc.Encode(v.V)
	default:
		return fmt.Errorf("value: cannot encode %T as msgpack", v)
	}
}

// DecodeMsgpack decodes a MessagePack document into a Value.
func DecodeMsgpack(data []byte) (Value, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	v, err := decodeMsgpack(dec)
	if err != nil {
		return nil, fmt.Errorf("value: decoding msgpack: %w", err)
	}
	return v, nil
}

func decodeMsgpack(dec *msgpack.Decoder) (Value, error) {
	c, err := dec.PeekCode()
	if err != nil {
		return nil, err
	}
	switch {
	case c == msgpcode.Nil:
		return Null{}, dec.DecodeNil()
	case c == msgpcode.False || c == msgpcode.True:
		b, err := dec.DecodeBool()
		return Bool(b), err
	case msgpcode.IsFixedNum(c), c == msgpcode.Int8, c == msgpcode.Int16, c == msgpcode.Int32, c == msgpcode.Int64:
		i, err := dec.DecodeInt64()
		return Int64(i), err
	case c == msgpcode.Uint8, c == msgpcode.Uint16, c == msgpcode.Uint32, c == msgpcode.Uint64:
		u, err := dec.DecodeUint64()
		if err != nil {
			return nil, err
		}
		// Non-negative ints are written with unsigned codes.
		if u <= math.MaxInt64 {
			return Int64(int64(u)), nil
		}
		return Uint64(u), nil
	case c == msgpcode.Float:
		f, err := dec.DecodeFloat32()
		return Float{V: float64(f), Bits: 32}, err
	case c == msgpcode.Double:
		f, err := dec.DecodeFloat64()
		return Float64(f), err
	case msgpcode.IsString(c):
		s, err := dec.DecodeString()
		return String(s), err
	case msgpcode.IsBin(c):
		b, err := dec.DecodeBytes()
		return Bytes(b), err
	case msgpcode.IsFixedArray(c), c == msgpcode.Array16, c == msgpcode.Array32:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		seq := make(Seq, 0, max(n, 0))
		for range n {
			e, err := decodeMsgpack(dec)
			if err != nil {
				return nil, err
			}
			seq = append(seq, e)
		}
		return seq, nil
	case msgpcode.IsFixedMap(c), c == msgpcode.Map16, c == msgpcode.Map32:
		n, err := dec.DecodeMapLen()
		if err != nil {
			return nil, err
		}
		b := NewMapBuilder(max(n, 0))
		for range n {
			k, err := dec.DecodeString()
			if err != nil {
				return nil, err
			}
			e, err := decodeMsgpack(dec)
			if err != nil {
				return nil, err
			}
			b.Set(k, e)
		}
		return b.Map(), nil
	case msgpcode.IsExt(c):
		// Extensions such as timestamps stay native.
		x, err := dec.DecodeInterface()
		if err != nil {
			return nil, err
		}
		return Native{V: x}, nil
	default:
		return nil, fmt.Errorf("unexpected code %#x", c)
	}
}
