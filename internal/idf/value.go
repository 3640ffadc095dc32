package idf

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var errNotDecimal = errors.New("not a finite decimal number")

// Value is a single field value. Numbers keep their rendered text so a
// document serialises identically every time it is written.
type Value struct {
	text   string
	number bool
}

// Text returns a value carried verbatim.
func Text(s string) Value { return Value{text: s} }

// Number returns a numeric value rendered with the shortest representation
// that round-trips to f.
func Number(f float64) Value {
	return Value{text: strconv.FormatFloat(f, 'g', -1, 64), number: true}
}

// String returns the text written to the document.
func (v Value) String() string { return v.text }

// IsNumber reports whether v was built with Number.
func (v Value) IsNumber() bool { return v.number }

// IsEmpty reports whether v renders as a blank field.
func (v Value) IsEmpty() bool { return strings.TrimSpace(v.text) == "" }

// Float parses the value as a finite decimal number. Hexadecimal notation,
// NaN and infinities are rejected.
func (v Value) Float() (float64, error) {
	s := strings.TrimSpace(v.text)
	if isHex(s) {
		return 0, errNotDecimal
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotDecimal
	}
	return f, nil
}

func isHex(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// Field pairs a declared field name with its value.
type Field struct {
	Name  string
	Value Value
}
