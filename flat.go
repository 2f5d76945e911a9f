package textformat

import (
	"strconv"
)

// FlatFormat prints one shell-assignable line per field, keyed by the full
// section path:
//
//	Graphs.Graph.0.Filters.Filter.1.Name="scale"
//
// Elements of array sections are numbered. Options: sep_char (s) sets the
// path separator (default '.'), hierarchical (h) keeps the names of wrapper
// and array sections in the path (default on).
func FlatFormat() Format {
	return Format{Name: "flat", New: newFlatEmitter}
}

type flatEmitter struct {
	sep          byte
	hierarchical bool
	scratch      []byte
}

func newFlatEmitter(o *Options) (Emitter, error) {
	sep, err := o.Char('.', "sep_char", "s")
	if err != nil {
		return nil, err
	}
	h, err := o.Bool(true, "hierarchical", "h")
	if err != nil {
		return nil, err
	}
	return &flatEmitter{sep: sep, hierarchical: h}, nil
}

func (e *flatEmitter) SectionHeader(c *Context) {
	lvl, sec, parent := c.Level(), c.Section(), c.Parent()
	if parent == nil {
		return
	}
	p := c.Scratch(lvl)
	p.WriteString(c.Prefix(lvl - 1))
	if !e.hierarchical && sec.IsContainer() {
		return
	}
	p.WriteString(sec.Name)
	p.WriteByte(e.sep)
	if parent.IsArray() {
		p.WriteString(strconv.Itoa(c.Items(lvl - 1)))
		p.WriteByte(e.sep)
	}
}

func (e *flatEmitter) SectionFooter(*Context) {}

func (e *flatEmitter) Int(c *Context, key string, v int64) {
	out := c.Out()
	out.WriteString(c.Prefix(c.Level()))
	e.scratch = appendFlatKey(e.scratch[:0], key)
	e.scratch = append(e.scratch, '=')
	e.scratch = strconv.AppendInt(e.scratch, v, 10)
	e.scratch = append(e.scratch, '\n')
	out.Write(e.scratch)
}

func (e *flatEmitter) String(c *Context, key, v string) {
	out := c.Out()
	out.WriteString(c.Prefix(c.Level()))
	e.scratch = appendFlatKey(e.scratch[:0], key)
	e.scratch = append(e.scratch, '=', '"')
	e.scratch = appendFlatValue(e.scratch, v)
	e.scratch = append(e.scratch, '"', '\n')
	out.Write(e.scratch)
}

// appendFlatKey replaces every byte outside [0-9A-Za-z] with '_'.
func appendFlatKey(dst []byte, key string) []byte {
	for i := 0; i < len(key); i++ {
		b := key[i]
		switch {
		case b >= '0' && b <= '9', b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z':
			dst = append(dst, b)
		default:
			dst = append(dst, '_')
		}
	}
	return dst
}

// appendFlatValue escapes s for a double-quoted shell string.
func appendFlatValue(dst []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		switch b := s[i]; b {
		case '\n':
			dst = append(dst, `\n`...)
		case '\r':
			dst = append(dst, `\r`...)
		case '\\', '"', '`', '$':
			dst = append(dst, '\\', b)
		default:
			dst = append(dst, b)
		}
	}
	return dst
}
