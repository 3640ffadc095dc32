package idf

import (
	"errors"
	"fmt"
)

// ErrDuplicateUnique is returned when a second object of a unique class is created.
var ErrDuplicateUnique = errors.New("idf: class allows a single object")

// UnknownClassError reports a class the dictionary does not declare.
type UnknownClassError struct {
	Class string
}

func (e *UnknownClassError) Error() string {
	return fmt.Sprintf("idf: unknown object class %q", e.Class)
}

// UnknownFieldError reports a field name the class does not declare.
type UnknownFieldError struct {
	Class string
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("idf: class %s has no field %q", e.Class, e.Field)
}

// FieldTypeError reports a value the declared field cannot hold.
type FieldTypeError struct {
	Class  string
	Field  string
	Value  string
	Reason string
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("idf: %s field %q value %q: %s", e.Class, e.Field, e.Value, e.Reason)
}
