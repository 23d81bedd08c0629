package schema

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/syssam/minorm/schema/field"
)

// Key is a text reference key. Literals of it are quoted.
type Key string

// NewKey returns a new time-ordered text key.
func NewKey() Key {
	return Key(uuid.Must(uuid.NewV7()).String())
}

// KeyKind implements field.Keyer.
func (Key) KeyKind() field.Type { return field.TypeKey }

// String returns the key text.
func (k Key) String() string { return string(k) }

// IntKey is an integer reference key. Literals of it are rendered bare.
type IntKey int64

// KeyKind implements field.Keyer.
func (IntKey) KeyKind() field.Type { return field.TypeIntKey }

// String returns the decimal form of the key.
func (k IntKey) String() string { return strconv.FormatInt(int64(k), 10) }
