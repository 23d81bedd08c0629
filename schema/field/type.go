package field

import (
	"reflect"
	"time"

	"github.com/google/uuid"
)

// A Type represents the semantic type of a record field.
type Type uint8

// List of field types.
const (
	TypeInvalid Type = iota
	TypeBool
	TypeTime
	TypeUUID
	TypeKey
	TypeIntKey
	TypeBytes
	TypeString
	TypeSeq
	TypeMap
	TypeShape
	TypeOther
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt
	TypeInt64
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint
	TypeUint64
	TypeFloat32
	TypeFloat64
	endTypes
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeBool:    "bool",
	TypeTime:    "time.Time",
	TypeUUID:    "uuid.UUID",
	TypeKey:     "key",
	TypeIntKey:  "intkey",
	TypeBytes:   "[]byte",
	TypeString:  "string",
	TypeSeq:     "seq",
	TypeMap:     "map",
	TypeShape:   "shape",
	TypeOther:   "other",
	TypeInt:     "int",
	TypeInt8:    "int8",
	TypeInt16:   "int16",
	TypeInt32:   "int32",
	TypeInt64:   "int64",
	TypeUint:    "uint",
	TypeUint8:   "uint8",
	TypeUint16:  "uint16",
	TypeUint32:  "uint32",
	TypeUint64:  "uint64",
	TypeFloat32: "float32",
	TypeFloat64: "float64",
}

var constNames = [...]string{
	TypeBool:    "TypeBool",
	TypeTime:    "TypeTime",
	TypeUUID:    "TypeUUID",
	TypeKey:     "TypeKey",
	TypeIntKey:  "TypeIntKey",
	TypeBytes:   "TypeBytes",
	TypeString:  "TypeString",
	TypeSeq:     "TypeSeq",
	TypeMap:     "TypeMap",
	TypeShape:   "TypeShape",
	TypeOther:   "TypeOther",
	TypeInt:     "TypeInt",
	TypeInt8:    "TypeInt8",
	TypeInt16:   "TypeInt16",
	TypeInt32:   "TypeInt32",
	TypeInt64:   "TypeInt64",
	TypeUint:    "TypeUint",
	TypeUint8:   "TypeUint8",
	TypeUint16:  "TypeUint16",
	TypeUint32:  "TypeUint32",
	TypeUint64:  "TypeUint64",
	TypeFloat32: "TypeFloat32",
	TypeFloat64: "TypeFloat64",
}

// String returns the string representation of a type.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// Numeric reports if the given type is a numeric type.
func (t Type) Numeric() bool {
	return t >= TypeInt8 && t < endTypes
}

// Integer reports if the given type is a signed or unsigned integer.
func (t Type) Integer() bool {
	return t >= TypeInt8 && t <= TypeUint64
}

// Float reports if the given type is a floating point type.
func (t Type) Float() bool {
	return t == TypeFloat32 || t == TypeFloat64
}

// Valid reports if the given type if known type.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < endTypes
}

// ConstName returns the constant name of an info type.
// It's used by the code generator to emit type references.
func (t Type) ConstName() string {
	if !t.Valid() {
		return "TypeInvalid"
	}
	return constNames[t]
}

var (
	timeType  = reflect.TypeFor[time.Time]()
	uuidType  = reflect.TypeFor[uuid.UUID]()
	bytesType = reflect.TypeFor[[]byte]()
)

// Keyer is implemented by the reference key types of the schema package.
// KeyKind returns TypeKey or TypeIntKey.
type Keyer interface {
	KeyKind() Type
}

var keyerType = reflect.TypeFor[Keyer]()

// TypeOf returns the semantic type of a Go type. Pointer types report the
// type of their element; nullability is tracked separately.
func TypeOf(rt reflect.Type) Type {
	if rt == nil {
		return TypeInvalid
	}
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	switch {
	case rt == timeType:
		return TypeTime
	case rt == uuidType:
		return TypeUUID
	case rt == bytesType:
		return TypeBytes
	case rt.Implements(keyerType):
		return reflect.Zero(rt).Interface().(Keyer).KeyKind()
	}
	switch rt.Kind() {
	case reflect.Bool:
		return TypeBool
	case reflect.String:
		return TypeString
	case reflect.Int:
		return TypeInt
	case reflect.Int8:
		return TypeInt8
	case reflect.Int16:
		return TypeInt16
	case reflect.Int32:
		return TypeInt32
	case reflect.Int64:
		return TypeInt64
	case reflect.Uint:
		return TypeUint
	case reflect.Uint8:
		return TypeUint8
	case reflect.Uint16:
		return TypeUint16
	case reflect.Uint32:
		return TypeUint32
	case reflect.Uint64:
		return TypeUint64
	case reflect.Float32:
		return TypeFloat32
	case reflect.Float64:
		return TypeFloat64
	case reflect.Slice:
		if rt.Elem().Kind() == reflect.Uint8 {
			return TypeBytes
		}
		return TypeSeq
	case reflect.Array:
		return TypeSeq
	case reflect.Map:
		if isSet(rt) {
			return TypeSeq
		}
		return TypeMap
	case reflect.Struct:
		return TypeShape
	case reflect.Interface:
		return TypeOther
	default:
		return TypeInvalid
	}
}

// isSet reports whether a map type is used as a set.
func isSet(rt reflect.Type) bool {
	e := rt.Elem()
	return e.Kind() == reflect.Struct && e.NumField() == 0
}

// IsSet reports whether rt is a set-like map, map[T]struct{}.
func IsSet(rt reflect.Type) bool {
	return rt.Kind() == reflect.Map && isSet(rt)
}
