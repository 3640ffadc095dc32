// Package idf builds EnergyPlus input documents (IDF).
//
// A Document is an ordered list of objects whose classes and field names come
// from an explicit *idd.Dictionary. Fields are addressed by the exact names
// the dictionary declares; names or values the class cannot hold are rejected
// when they are set, not when the file is written.
package idf

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/solar-collector-etl/internal/idd"
)

// reserved characters terminate fields, objects, or start comments in IDF text.
const reserved = ",;!\r\n"

// Document is an in-memory IDF.
type Document struct {
	dict    *idd.Dictionary
	objects []*Object
}

// New creates an empty document bound to dict.
func New(dict *idd.Dictionary) *Document {
	return &Document{dict: dict}
}

// Dictionary returns the schema the document was created with.
func (d *Document) Dictionary() *idd.Dictionary { return d.dict }

// Len returns the number of objects.
func (d *Document) Len() int { return len(d.objects) }

// Objects returns the objects in insertion order.
func (d *Document) Objects() []*Object {
	out := make([]*Object, len(d.objects))
	copy(out, d.objects)
	return out
}

// ObjectsOf returns the objects of one class in insertion order.
func (d *Document) ObjectsOf(class string) []*Object {
	var out []*Object
	for _, o := range d.objects {
		if strings.EqualFold(o.class.Name, class) {
			out = append(out, o)
		}
	}
	return out
}

// NewObject appends a new object of the named class. Declared defaults are
// pre-filled.
func (d *Document) NewObject(class string) (*Object, error) {
	o, err := d.newObject(class)
	if err != nil {
		return nil, err
	}
	d.objects = append(d.objects, o)
	return o, nil
}

// AddObject builds an object of the named class from fields and appends it
// only when every field is accepted.
func (d *Document) AddObject(class string, fields []Field) (*Object, error) {
	o, err := d.newObject(class)
	if err != nil {
		return nil, err
	}
	if err := o.SetAll(fields); err != nil {
		return nil, err
	}
	d.objects = append(d.objects, o)
	return o, nil
}

func (d *Document) newObject(class string) (*Object, error) {
	c, ok := d.dict.Class(class)
	if !ok {
		return nil, &UnknownClassError{Class: class}
	}
	if c.Unique && len(d.ObjectsOf(c.Name)) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateUnique, c.Name)
	}

	o := &Object{class: c, values: make([]Value, len(c.Fields))}
	for i, f := range c.Fields {
		if f.Default != "" {
			o.values[i] = Text(f.Default)
		}
	}
	return o, nil
}

// Bytes renders the document.
func (d *Document) Bytes() []byte {
	var buf bytes.Buffer
	for _, o := range d.objects {
		o.write(&buf)
	}
	return buf.Bytes()
}

// Save writes the whole document to path, replacing any previous content.
func (d *Document) Save(path string) error {
	return os.WriteFile(path, d.Bytes(), 0o644)
}

// Object is one IDF object.
type Object struct {
	class  *idd.Class
	values []Value
}

// Class returns the declared class name.
func (o *Object) Class() string { return o.class.Name }

// Get returns the value of a declared field.
func (o *Object) Get(name string) (Value, bool) {
	_, i, ok := o.class.Field(name)
	if !ok {
		return Value{}, false
	}
	return o.values[i], true
}

// Values returns all field values in declaration order.
func (o *Object) Values() []Value {
	out := make([]Value, len(o.values))
	copy(out, o.values)
	return out
}

// Set assigns a field by its declared name.
func (o *Object) Set(name string, v Value) error {
	f, i, ok := o.class.Field(name)
	if !ok {
		return &UnknownFieldError{Class: o.class.Name, Field: name}
	}
	if err := o.check(f, v); err != nil {
		return err
	}
	o.values[i] = v
	return nil
}

// SetAll assigns fields in order and stops at the first rejected one.
func (o *Object) SetAll(fields []Field) error {
	for _, f := range fields {
		if err := o.Set(f.Name, f.Value); err != nil {
			return err
		}
	}
	return nil
}

func (o *Object) setAt(i int, v Value) error {
	if i >= len(o.class.Fields) {
		return fmt.Errorf("idf: class %s declares %d fields, got value %d", o.class.Name, len(o.class.Fields), i+1)
	}
	if err := o.check(o.class.Fields[i], v); err != nil {
		return err
	}
	o.values[i] = v
	return nil
}

func (o *Object) check(f idd.Field, v Value) error {
	s := v.String()
	if strings.ContainsAny(s, reserved) {
		return o.typeErr(f, s, "contains a reserved character")
	}
	if v.IsEmpty() {
		return nil
	}

	if f.Kind == idd.Numeric {
		if _, err := v.Float(); err == nil {
			return nil
		}
		word := strings.ToLower(strings.TrimSpace(s))
		if (f.Autosizable && word == "autosize") || (f.Autocalculatable && word == "autocalculate") {
			return nil
		}
		return o.typeErr(f, s, "not a number")
	}

	if f.Type == "choice" && len(f.Keys) > 0 {
		for _, k := range f.Keys {
			if strings.EqualFold(k, strings.TrimSpace(s)) {
				return nil
			}
		}
		return o.typeErr(f, s, "not one of "+strings.Join(f.Keys, ", "))
	}
	return nil
}

func (o *Object) typeErr(f idd.Field, value, reason string) error {
	return &FieldTypeError{Class: o.class.Name, Field: f.Name, Value: value, Reason: reason}
}
