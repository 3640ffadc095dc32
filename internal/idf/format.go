package idf

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// commentColumn is where the "!- field name" comment starts.
const commentColumn = 30

func (o *Object) write(buf *bytes.Buffer) {
	buf.WriteByte('\n')

	n := o.written()
	if n == 0 {
		buf.WriteString(o.class.Name)
		buf.WriteString(";\n")
		return
	}

	buf.WriteString(o.class.Name)
	buf.WriteString(",\n")
	for i := 0; i < n; i++ {
		sep := ","
		if i == n-1 {
			sep = ";"
		}
		line := "    " + strings.TrimSpace(o.values[i].String()) + sep
		buf.WriteString(line)
		if pad := commentColumn - len(line); pad > 0 {
			buf.WriteString(strings.Repeat(" ", pad))
		} else {
			buf.WriteByte(' ')
		}
		buf.WriteString("!- ")
		buf.WriteString(o.class.Fields[i].Name)
		buf.WriteByte('\n')
	}
}

// written is the number of fields to emit: trailing blanks are dropped, but
// never below the class minimum.
func (o *Object) written() int {
	n := len(o.values)
	for n > 0 && o.values[n-1].IsEmpty() {
		n--
	}
	if minimum := min(o.class.MinFields, len(o.values)); n < minimum {
		n = minimum
	}
	return n
}

// Parse reads IDF text into a document bound to the receiver's dictionary.
// Values are checked the same way Set checks them.
func (d *Document) Parse(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("idf: read: %w", err)
	}

	var body strings.Builder
	for _, line := range strings.Split(string(data), "\n") {
		if i := strings.IndexByte(line, '!'); i >= 0 {
			line = line[:i]
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}

	stmts := strings.Split(body.String(), ";")
	for i, stmt := range stmts {
		if strings.TrimSpace(stmt) == "" {
			if i < len(stmts)-1 {
				return fmt.Errorf("idf: empty object at statement %d", i+1)
			}
			continue
		}
		if i == len(stmts)-1 {
			return fmt.Errorf("idf: object %q is not terminated with ';'", firstToken(stmt))
		}

		parts := strings.Split(stmt, ",")
		o, err := d.NewObject(strings.TrimSpace(parts[0]))
		if err != nil {
			return err
		}
		for j, p := range parts[1:] {
			if err := o.setAt(j, Text(strings.TrimSpace(p))); err != nil {
				return err
			}
		}
	}
	return nil
}

func firstToken(stmt string) string {
	s := strings.TrimSpace(stmt)
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}
