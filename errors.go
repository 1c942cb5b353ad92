package rscache

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrUnsupportedFieldType = errors.New("unsupported field type")

	// ErrNotFound is what a DataMapper's GetItem should wrap when an id does
	// not resolve. Caches propagate it unchanged.
	ErrNotFound = errors.New("not found")

	ErrDuplicateLabel = errors.New("duplicate cache label")
)

// ArgumentError reports a missing required argument.
type ArgumentError struct {
	Op  string
	Arg string
}

func invalidArg(op, arg string) error {
	return &ArgumentError{Op: op, Arg: arg}
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s: missing %s", e.Op, ErrInvalidArgument.Error(), e.Arg)
}

func (e *ArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

// UnsupportedFieldTypeError is returned by a query that met a field value
// shape it cannot flatten. It is a programming error: extend the query.
type UnsupportedFieldTypeError struct {
	Field string
	Type  string
}

func UnsupportedFieldType(field string, value any) error {
	return &UnsupportedFieldTypeError{Field: field, Type: fmt.Sprintf("%T", value)}
}

func (e *UnsupportedFieldTypeError) Error() string {
	return fmt.Sprintf("field %q: %s %s", e.Field, ErrUnsupportedFieldType.Error(), e.Type)
}

func (e *UnsupportedFieldTypeError) Unwrap() error {
	return ErrUnsupportedFieldType
}

// IsNil reports whether v is nil, or an interface holding a nil pointer, map,
// slice, func or chan.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
