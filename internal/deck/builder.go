// Package deck assembles the IDF deck of flat plate collector performance
// objects and persists it to a single target file.
package deck

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/solar-collector-etl/internal/domain"
	"github.com/couchcryptid/solar-collector-etl/internal/idd"
	"github.com/couchcryptid/solar-collector-etl/internal/idf"
)

// Object classes written by the builder.
const (
	VersionClass   = "Version"
	FlatPlateClass = "SolarCollectorPerformance:FlatPlate"
)

const versionField = "Version Identifier"

var (
	// ErrIO matches every *IOError.
	ErrIO = errors.New("deck io")
	// ErrVersionMarker is returned when the version object is missing,
	// repeated, or added after records.
	ErrVersionMarker = errors.New("deck: version marker must be added exactly once, before any record")
)

// IOError reports a failure to reset or write the target file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("deck: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }

// Builder owns the in-memory document and its target file.
type Builder struct {
	doc       *idf.Document
	path      string
	versioned bool
	records   int
}

// Open empties (or creates) the file at path and returns a builder whose
// document is bound to dict.
func Open(dict *idd.Dictionary, path string) (*Builder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	return &Builder{doc: idf.New(dict), path: path}, nil
}

// Path returns the target file.
func (b *Builder) Path() string { return b.path }

// Len returns the number of appended records, excluding the version marker.
func (b *Builder) Len() int { return b.records }

// Document exposes the in-memory document.
func (b *Builder) Document() *idf.Document { return b.doc }

// AddVersionMarker inserts the Version object. It must be the first object.
// When the dictionary declares no default identifier the major.minor part of
// its IDD_Version header is used.
func (b *Builder) AddVersionMarker() error {
	if b.versioned || b.doc.Len() > 0 {
		return ErrVersionMarker
	}

	var fields []idf.Field
	if c, ok := b.doc.Dictionary().Class(VersionClass); ok {
		if f, _, ok := c.Field(versionField); ok && f.Default == "" {
			v := majorMinor(b.doc.Dictionary().Version())
			if v == "" {
				return fmt.Errorf("add version marker: dictionary declares no version")
			}
			fields = append(fields, idf.Field{Name: versionField, Value: idf.Text(v)})
		}
	}

	if _, err := b.doc.AddObject(VersionClass, fields); err != nil {
		return fmt.Errorf("add version marker: %w", err)
	}
	b.versioned = true
	return nil
}

// Append adds one performance record as a new object of class. The object
// is only added when the class declares every field the record carries.
func (b *Builder) Append(rec domain.CollectorPerformance, class string) error {
	if !b.versioned {
		return ErrVersionMarker
	}
	if _, err := b.doc.AddObject(class, Fields(rec)); err != nil {
		return fmt.Errorf("append %q (catalog row %d): %w", rec.Name, rec.Position, err)
	}
	b.records++
	return nil
}

// Persist writes the whole document to the target file, replacing what the
// file held before.
func (b *Builder) Persist() error {
	if err := b.doc.Save(b.path); err != nil {
		return &IOError{Op: "persist", Path: b.path, Err: err}
	}
	return nil
}

// Fields maps a performance record onto the flat plate field names declared
// by the EnergyPlus dictionary.
func Fields(rec domain.CollectorPerformance) []idf.Field {
	return []idf.Field{
		{Name: "Name", Value: idf.Text(rec.Name)},
		{Name: "Gross Area", Value: idf.Text(rec.GrossArea)},
		{Name: "Test Fluid", Value: idf.Text(rec.TestFluid)},
		{Name: "Test Flow Rate", Value: idf.Number(rec.TestFlowRate)},
		{Name: "Test Correlation Type", Value: idf.Text(rec.TestCorrelationType)},
		{Name: "Coefficient 1 of Efficiency Equation", Value: idf.Text(rec.EfficiencyCoefficient1)},
		{Name: "Coefficient 2 of Efficiency Equation", Value: idf.Text(rec.EfficiencyCoefficient2)},
		{Name: "Coefficient 3 of Efficiency Equation", Value: idf.Number(rec.EfficiencyCoefficient3)},
		{Name: "Coefficient 2 of Incident Angle Modifier", Value: idf.Text(rec.IncidentAngleCoefficient2)},
		{Name: "Coefficient 3 of Incident Angle Modifier", Value: idf.Number(rec.IncidentAngleCoefficient3)},
	}
}

// majorMinor turns "9.4.0" into "9.4".
func majorMinor(v string) string {
	parts := strings.SplitN(strings.TrimSpace(v), ".", 3)
	if len(parts) < 2 {
		return strings.Join(parts, "")
	}
	return parts[0] + "." + parts[1]
}
