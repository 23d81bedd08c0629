package minorm

import (
	"errors"
	"fmt"
	"reflect"
)

// Standard sentinel errors for the error taxonomy.
var (
	// ErrCoercion is matched by every CoercionError regardless of kind.
	ErrCoercion = errors.New("minorm: coercion failed")

	// ErrExpression is matched by every ExpressionError.
	ErrExpression = errors.New("minorm: expression cannot be rendered")

	// ErrDuplicateKey is matched by DuplicateKeyError. Consumers branch on it
	// to implement upsert-by-catch-and-retry.
	ErrDuplicateKey = errors.New("minorm: duplicate key")
)

// CoercionKind classifies a CoercionError.
type CoercionKind uint8

// Coercion error kinds.
const (
	InvalidNumericLiteral CoercionKind = iota + 1
	NoConstructor
	ConstructionFailed
	NoDefault
	UnsupportedConversion
)

var coercionKindNames = [...]string{
	InvalidNumericLiteral: "invalid numeric literal",
	NoConstructor:         "no constructor",
	ConstructionFailed:    "construction failed",
	NoDefault:             "no default",
	UnsupportedConversion: "unsupported conversion",
}

// String returns the kind name.
func (k CoercionKind) String() string {
	if int(k) < len(coercionKindNames) && coercionKindNames[k] != "" {
		return coercionKindNames[k]
	}
	return fmt.Sprintf("CoercionKind(%d)", k)
}

// CoercionError is returned when a value cannot be reshaped into the
// requested target type, or when a target type has no default.
type CoercionError struct {
	Kind  CoercionKind
	Type  reflect.Type // target type, if known
	Path  string       // dotted field path inside the record, if any
	Value any          // offending source value, if any
	Err   error        // underlying cause
}

// Error returns the error string.
func (e *CoercionError) Error() string {
	msg := "minorm: " + e.Kind.String()
	if e.Type != nil {
		msg += " for " + e.Type.String()
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" at %q", e.Path)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value %v)", e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *CoercionError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches CoercionError.
// A *CoercionError target matches when its Kind is zero or equal.
func (e *CoercionError) Is(err error) bool {
	if err == ErrCoercion {
		return true
	}
	if t, ok := err.(*CoercionError); ok {
		return t.Kind == 0 || t.Kind == e.Kind
	}
	return false
}

// NewCoercionError returns a new CoercionError of the given kind.
func NewCoercionError(kind CoercionKind, typ reflect.Type, value any, err error) *CoercionError {
	return &CoercionError{Kind: kind, Type: typ, Value: value, Err: err}
}

// IsCoercion returns true if err is a CoercionError of the given kind.
// A zero kind matches any CoercionError.
func IsCoercion(err error, kind CoercionKind) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, &CoercionError{Kind: kind})
}

// ExpressionKind classifies an ExpressionError.
type ExpressionKind uint8

// Expression error kinds.
const (
	NotImplemented ExpressionKind = iota + 1
)

// ExpressionError is returned when an expression node cannot be rendered.
type ExpressionError struct {
	Kind ExpressionKind
	Node string
}

// Error returns the error string.
func (e *ExpressionError) Error() string {
	return fmt.Sprintf("minorm: rendering %s expression: not implemented", e.Node)
}

// Is reports whether the target error matches ExpressionError.
func (e *ExpressionError) Is(err error) bool {
	return err == ErrExpression
}

// NewNotImplementedError returns an ExpressionError for the given node name.
func NewNotImplementedError(node string) *ExpressionError {
	return &ExpressionError{Kind: NotImplemented, Node: node}
}

// IsExpressionError returns true if the error is an ExpressionError.
func IsExpressionError(err error) bool {
	if err == nil {
		return false
	}
	var e *ExpressionError
	return errors.As(err, &e)
}

// DuplicateKeyError wraps a backend-native uniqueness-constraint failure.
type DuplicateKeyError struct {
	Err error
}

// Error returns the error string.
func (e *DuplicateKeyError) Error() string {
	if e.Err == nil {
		return ErrDuplicateKey.Error()
	}
	return fmt.Sprintf("minorm: duplicate key: %v", e.Err)
}

// Unwrap returns the native error.
func (e *DuplicateKeyError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches DuplicateKeyError.
func (e *DuplicateKeyError) Is(err error) bool {
	return err == ErrDuplicateKey
}

// NewDuplicateKeyError returns a new DuplicateKeyError wrapping err.
func NewDuplicateKeyError(err error) *DuplicateKeyError {
	return &DuplicateKeyError{Err: err}
}

// IsDuplicateKey returns true if the error is a DuplicateKeyError.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	var e *DuplicateKeyError
	return errors.As(err, &e) || errors.Is(err, ErrDuplicateKey)
}
