package idd

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var fieldCodeRe = regexp.MustCompile(`^[AaNn][0-9]+$`)

// Parse reads a dictionary from r.
func Parse(r io.Reader) (*Dictionary, error) {
	p := &parser{
		dict:  &Dictionary{byName: make(map[string]*Class)},
		field: -1,
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if err := p.line(lineNo, sc.Text()); err != nil {
			return nil, &InitError{Err: err}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &InitError{Err: fmt.Errorf("read: %w", err)}
	}
	if err := p.finish(); err != nil {
		return nil, &InitError{Err: err}
	}
	return p.dict, nil
}

type parser struct {
	dict   *Dictionary
	group  string
	cur    *Class
	closed bool
	field  int // index of the last declared field in cur, -1 before the first
}

func (p *parser) line(lineNo int, text string) error {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "!") {
		if v, ok := strings.CutPrefix(raw, "!IDD_Version"); ok && p.dict.version == "" {
			p.dict.version = strings.TrimSpace(v)
		}
		return nil
	}

	body, directive := raw, ""
	if i := strings.IndexByte(raw, '\\'); i >= 0 {
		body, directive = raw[:i], raw[i+1:]
	}
	if i := strings.IndexByte(body, '!'); i >= 0 {
		body = body[:i]
	}

	if err := p.tokens(lineNo, body); err != nil {
		return err
	}
	if directive != "" {
		p.directive(directive)
	}
	return nil
}

func (p *parser) tokens(lineNo int, body string) error {
	start := 0
	for i := 0; i <= len(body); i++ {
		if i < len(body) && body[i] != ',' && body[i] != ';' {
			continue
		}
		tok := strings.TrimSpace(body[start:i])
		start = i + 1
		terminated := i < len(body) && body[i] == ';'

		if tok != "" {
			switch {
			case p.cur != nil && !p.closed && fieldCodeRe.MatchString(tok):
				p.addField(strings.ToUpper(tok))
			case p.cur == nil || p.closed:
				if err := p.startClass(tok); err != nil {
					return fmt.Errorf("line %d: %w", lineNo, err)
				}
			default:
				return fmt.Errorf("line %d: unexpected token %q in class %s", lineNo, tok, p.cur.Name)
			}
		}
		if terminated && p.cur != nil {
			p.closed = true
		}
	}
	return nil
}

func (p *parser) startClass(name string) error {
	p.finishClass()
	key := strings.ToUpper(name)
	if _, dup := p.dict.byName[key]; dup {
		return fmt.Errorf("duplicate class %q", name)
	}
	c := &Class{Name: name, Group: p.group}
	p.dict.classes = append(p.dict.classes, c)
	p.dict.byName[key] = c
	p.cur = c
	p.closed = false
	p.field = -1
	return nil
}

func (p *parser) addField(code string) {
	kind := Alpha
	if code[0] == 'N' {
		kind = Numeric
	}
	p.cur.Fields = append(p.cur.Fields, Field{Code: code, Kind: kind})
	p.field = len(p.cur.Fields) - 1
}

func (p *parser) directive(d string) {
	key, val := d, ""
	if i := strings.IndexAny(d, " \t"); i >= 0 {
		key, val = d[:i], strings.TrimSpace(d[i+1:])
	}
	key = strings.ToLower(key)

	if key == "group" {
		p.group = val
		return
	}
	if p.cur == nil {
		return
	}

	if p.field < 0 {
		switch key {
		case "memo":
			if p.cur.Memo != "" {
				p.cur.Memo += " "
			}
			p.cur.Memo += val
		case "unique-object":
			p.cur.Unique = true
		case "required-object":
			p.cur.RequiredObject = true
		case "min-fields":
			if n, err := strconv.Atoi(val); err == nil {
				p.cur.MinFields = n
			}
		}
		return
	}

	f := &p.cur.Fields[p.field]
	switch key {
	case "field":
		f.Name = val
	case "default":
		f.Default = val
	case "required-field":
		f.Required = true
	case "type":
		f.Type = strings.ToLower(val)
	case "units":
		f.Units = val
	case "key":
		f.Keys = append(f.Keys, val)
	case "autosizable":
		f.Autosizable = true
	case "autocalculatable":
		f.Autocalculatable = true
	}
}

// finishClass builds the field index of the current class.
func (p *parser) finishClass() {
	c := p.cur
	if c == nil {
		return
	}
	c.byName = make(map[string]int, len(c.Fields))
	for i := range c.Fields {
		if c.Fields[i].Name == "" {
			c.Fields[i].Name = c.Fields[i].Code
		}
		if _, dup := c.byName[c.Fields[i].Name]; !dup {
			c.byName[c.Fields[i].Name] = i
		}
	}
}

func (p *parser) finish() error {
	if p.cur != nil && !p.closed {
		return fmt.Errorf("class %s is not terminated with ';'", p.cur.Name)
	}
	p.finishClass()
	if len(p.dict.classes) == 0 {
		return fmt.Errorf("no classes declared")
	}
	return nil
}
