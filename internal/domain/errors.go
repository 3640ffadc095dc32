package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRowShape matches every *RowShapeError.
	ErrRowShape = errors.New("row shape")
	// ErrParse matches every *ParseError.
	ErrParse = errors.New("parse")
)

// RowShapeError reports a row too short to address the columns it needs.
type RowShapeError struct {
	Position int
	Got      int
	Want     int
}

func (e *RowShapeError) Error() string {
	return fmt.Sprintf("row %d: has %d fields, expected at least %d", e.Position, e.Got, e.Want)
}

func (e *RowShapeError) Is(target error) bool { return target == ErrRowShape }

// ParseError reports a numeric column that could not be parsed.
type ParseError struct {
	Position int
	Field    string
	Value    string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d: parse %s %q: %v", e.Position, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }
