// Package idd loads an EnergyPlus Input Data Dictionary (Energy+.idd).
//
// The dictionary declares every object class an IDF document may contain and,
// for each class, the ordered list of fields with their names and types. The
// loaded *Dictionary is an explicit handle: callers thread it into the IDF
// document constructor instead of relying on process-wide state.
//
// # IDD Conventions
//
// A class starts on a line holding its name followed by "," (or ";" when it
// has no fields). Fields are declared by codes such as "A1" (alpha) and "N3"
// (numeric), separated by "," and terminated by ";" on the last one. Metadata
// follows a backslash, e.g.
//
//	SolarCollectorPerformance:FlatPlate,
//	       \memo Thermal and optical performance parameters for a single flat plate
//	  A1 , \field Name
//	       \required-field
//	  N1 , \field Gross Area
//	       \units m2
//
// Lines starting with "!" are comments; the first one usually carries the
// dictionary version as "!IDD_Version 9.4.0".
package idd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the dictionary file name expected inside the IDD directory.
const FileName = "Energy+.idd"

// Kind distinguishes alpha fields from numeric fields.
type Kind int

const (
	Alpha Kind = iota
	Numeric
)

func (k Kind) String() string {
	if k == Numeric {
		return "numeric"
	}
	return "alpha"
}

// Field describes one declared field of a class.
type Field struct {
	Code     string // "A1", "N2", ...
	Name     string // value of \field
	Kind     Kind
	Default  string
	Required bool
	Type     string // value of \type (real, integer, choice, alpha, object-list, ...)
	Units    string
	Keys     []string

	Autosizable      bool
	Autocalculatable bool
}

// Class describes one object type.
type Class struct {
	Name           string
	Group          string
	Memo           string
	Unique         bool
	RequiredObject bool
	MinFields      int
	Fields         []Field

	byName map[string]int
}

// Field returns the declared field with the given name and its position.
// Names match exactly as written in the dictionary.
func (c *Class) Field(name string) (Field, int, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Field{}, -1, false
	}
	return c.Fields[i], i, true
}

// FieldNames returns the declared field names in order.
func (c *Class) FieldNames() []string {
	names := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		names[i] = f.Name
	}
	return names
}

// Dictionary is a loaded IDD.
type Dictionary struct {
	version string
	classes []*Class
	byName  map[string]*Class
}

// Version returns the "!IDD_Version" header value, or "" when absent.
func (d *Dictionary) Version() string { return d.version }

// Class looks up a class by name. Lookup ignores case so upper-cased names
// written by older tooling resolve to the declared class.
func (d *Dictionary) Class(name string) (*Class, bool) {
	c, ok := d.byName[strings.ToUpper(name)]
	return c, ok
}

// Len returns the number of declared classes.
func (d *Dictionary) Len() int { return len(d.classes) }

// InitError reports a dictionary that could not be loaded.
type InitError struct {
	Path string
	Err  error
}

func (e *InitError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("idd: init: %v", e.Err)
	}
	return fmt.Sprintf("idd: init %s: %v", e.Path, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// Load reads FileName from dir.
func Load(dir string) (*Dictionary, error) {
	path := filepath.Join(dir, FileName)
	f, err := os.Open(path)
	if err != nil {
		return nil, &InitError{Path: path, Err: err}
	}
	defer f.Close()

	dict, err := Parse(f)
	if err != nil {
		var ie *InitError
		if errors.As(err, &ie) {
			ie.Path = path
			return nil, ie
		}
		return nil, &InitError{Path: path, Err: err}
	}
	return dict, nil
}
