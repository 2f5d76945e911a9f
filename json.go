package textformat

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// JSONFormat renders sections as nested JSON objects and arrays. A wrapper
// root opens a bare object, array sections become named arrays and their
// elements anonymous objects. Option compact (c) keeps the fields of a
// section on one line. Optional fields are not displayed.
func JSONFormat() Format {
	return Format{Name: "json", New: newJSONEmitter}
}

const jsonIndent = "    "

type jsonEmitter struct {
	compact      bool
	itemSep      string
	itemStartEnd string
	scratch      []byte
}

func newJSONEmitter(o *Options) (Emitter, error) {
	compact, err := o.Bool(false, "compact", "c")
	if err != nil {
		return nil, err
	}
	e := &jsonEmitter{compact: compact, itemSep: ",\n", itemStartEnd: "\n"}
	if compact {
		e.itemSep, e.itemStartEnd = ", ", " "
	}
	return e, nil
}

func (e *jsonEmitter) indent(c *Context, n int) {
	if n > 0 {
		c.Out().WriteString(strings.Repeat(jsonIndent, n))
	}
}

func (e *jsonEmitter) quoted(c *Context, s string) {
	e.scratch = appendJSONString(e.scratch[:0], s)
	c.Out().Write(e.scratch)
}

func (e *jsonEmitter) SectionHeader(c *Context) {
	lvl, sec, parent := c.Level(), c.Section(), c.Parent()
	out := c.Out()
	if lvl > 0 && c.Items(lvl-1) > 0 {
		out.WriteString(",\n")
	}
	keyed := parent != nil && !parent.IsArray()
	switch {
	case lvl == 0 && sec.IsArray():
		out.WriteString("[\n")
	case sec.IsWrapper():
		e.indent(c, lvl)
		if keyed {
			e.quoted(c, sec.Name)
			out.WriteString(": ")
		}
		out.WriteString("{\n")
	case sec.IsArray():
		e.indent(c, lvl)
		e.quoted(c, sec.Name)
		out.WriteString(": [\n")
	case keyed:
		e.indent(c, lvl)
		e.quoted(c, sec.Name)
		out.WriteString(": {")
		out.WriteString(e.itemStartEnd)
	default:
		e.indent(c, lvl)
		out.WriteByte('{')
		out.WriteString(e.itemStartEnd)
	}
}

func (e *jsonEmitter) SectionFooter(c *Context) {
	lvl, sec := c.Level(), c.Section()
	out := c.Out()
	switch {
	case lvl == 0 && sec.IsArray():
		out.WriteString("\n]\n")
	case lvl == 0:
		out.WriteString("\n}\n")
	case sec.IsArray():
		out.WriteByte('\n')
		e.indent(c, lvl)
		out.WriteByte(']')
	case sec.IsWrapper():
		out.WriteByte('\n')
		e.indent(c, lvl)
		out.WriteByte('}')
	default:
		out.WriteString(e.itemStartEnd)
		if !e.compact {
			e.indent(c, lvl)
		}
		out.WriteByte('}')
	}
}

func (e *jsonEmitter) key(c *Context, key string) {
	lvl := c.Level()
	out := c.Out()
	if c.Items(lvl) > 0 {
		out.WriteString(e.itemSep)
	}
	if !e.compact {
		e.indent(c, lvl+1)
	}
	e.quoted(c, key)
	out.WriteString(": ")
}

func (e *jsonEmitter) Int(c *Context, key string, v int64) {
	e.key(c, key)
	e.scratch = strconv.AppendInt(e.scratch[:0], v, 10)
	c.Out().Write(e.scratch)
}

func (e *jsonEmitter) String(c *Context, key, v string) {
	e.key(c, key)
	e.quoted(c, v)
}

// appendJSONString appends s as a quoted JSON string. Bytes that are not
// valid UTF-8 are copied through unchanged; run values through the
// validator to keep the document well-formed.
func appendJSONString(dst []byte, s string) []byte {
	const hex = "0123456789abcdef"
	dst = append(dst, '"')
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b >= utf8.RuneSelf {
			dst = append(dst, b)
			continue
		}
		switch b {
		case '"', '\\':
			dst = append(dst, '\\', b)
		case '\b':
			dst = append(dst, '\\', 'b')
		case '\f':
			dst = append(dst, '\\', 'f')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		default:
			if b < 0x20 {
				dst = append(dst, '\\', 'u', '0', '0', hex[b>>4], hex[b&0xF])
			} else {
				dst = append(dst, b)
			}
		}
	}
	return append(dst, '"')
}
