// Package catalog reads SRCC collector catalogs saved as CSV.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const bom = "\ufeff"

// Row is one record of the catalog file. A blank line is a row with no
// fields.
type Row struct {
	// Position is the 0-based index among the records of the file.
	Position int
	// Line is the 1-based line the record starts on.
	Line   int
	Fields []string
}

// Reader yields catalog rows in file order.
type Reader struct {
	csv    *csv.Reader
	lines  *lineCounter
	closer io.Closer
	next   int

	// line is the first physical line not yet returned as a row.
	line   int
	blanks int
	held   *Row
	heldTo int
	eof    bool
}

// Open opens the catalog at path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	r := NewReader(f)
	r.closer = f
	return r, nil
}

// NewReader reads a catalog from r. Rows may have differing widths, and stray
// quote characters inside unquoted fields are kept as data.
func NewReader(r io.Reader) *Reader {
	lc := &lineCounter{r: r}
	cr := csv.NewReader(lc)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return &Reader{csv: cr, lines: lc, line: 1}
}

// Next returns the next row, or io.EOF when the catalog is exhausted.
// encoding/csv skips empty lines; each one is returned here as an empty row
// so that positions count every line of the file.
func (r *Reader) Next() (Row, error) {
	for {
		if r.blanks > 0 {
			r.blanks--
			row := r.emit(r.line, []string{})
			r.line++
			return row, nil
		}
		if r.held != nil {
			row := r.emit(r.held.Line, r.held.Fields)
			r.line = r.heldTo + 1
			r.held = nil
			return row, nil
		}
		if r.eof {
			return Row{}, io.EOF
		}

		fields, err := r.csv.Read()
		if errors.Is(err, io.EOF) {
			r.eof = true
			r.blanks = max(r.lines.total()-r.line+1, 0)
			continue
		}
		if err != nil {
			return Row{}, fmt.Errorf("read catalog row %d: %w", r.next, err)
		}

		start, _ := r.csv.FieldPos(0)
		last := len(fields) - 1
		end, _ := r.csv.FieldPos(last)
		end += strings.Count(fields[last], "\n")

		r.held = &Row{Line: start, Fields: fields}
		r.heldTo = end
		r.blanks = max(start-r.line, 0)
	}
}

func (r *Reader) emit(line int, fields []string) Row {
	if r.next == 0 && len(fields) > 0 {
		fields[0] = strings.TrimPrefix(fields[0], bom)
	}
	row := Row{Position: r.next, Line: line, Fields: fields}
	r.next++
	return row
}

// Close releases the underlying file, if Open created it.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// ReadAll reads every row of the catalog at path.
func ReadAll(path string) ([]Row, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var rows []Row
	for {
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

// lineCounter counts the physical lines read through it. A final line
// without a terminating newline still counts.
type lineCounter struct {
	r       io.Reader
	lines   int
	partial bool
}

func (c *lineCounter) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	for _, b := range p[:n] {
		if b == '\n' {
			c.lines++
			c.partial = false
		} else {
			c.partial = true
		}
	}
	return n, err
}

func (c *lineCounter) total() int {
	if c.partial {
		return c.lines + 1
	}
	return c.lines
}
