package textformat

import (
	"strconv"
)

// INIFormat prints every plain section as an INI group named by its dotted
// path, array elements numbered:
//
//	[Graphs.Graph.0.Filters.Filter.1]
//	Name=scale
//
// The document starts with a comment naming the root section. Option
// hierarchical (h) keeps the names of wrapper and array sections in group
// names (default on).
func INIFormat() Format {
	return Format{Name: "ini", New: newINIEmitter}
}

type iniEmitter struct {
	hierarchical bool
	scratch      []byte
}

func newINIEmitter(o *Options) (Emitter, error) {
	h, err := o.Bool(true, "hierarchical", "h")
	if err != nil {
		return nil, err
	}
	return &iniEmitter{hierarchical: h}, nil
}

func (e *iniEmitter) SectionHeader(c *Context) {
	lvl, sec, parent := c.Level(), c.Section(), c.Parent()
	out := c.Out()
	if parent == nil {
		out.WriteString("# ")
		out.WriteString(sec.Name)
		out.WriteString("\n\n")
		return
	}
	if c.Items(lvl-1) > 0 {
		out.WriteByte('\n')
	}
	p := c.Scratch(lvl)
	p.WriteString(c.Prefix(lvl - 1))
	if e.hierarchical || !sec.IsContainer() {
		if p.Len() > 0 {
			p.WriteByte('.')
		}
		p.WriteString(sec.Name)
		if parent.IsArray() {
			p.WriteByte('.')
			p.WriteString(strconv.Itoa(c.Items(lvl - 1)))
		}
	}
	if !sec.IsContainer() {
		out.WriteByte('[')
		out.WriteString(p.String())
		out.WriteString("]\n")
	}
}

func (e *iniEmitter) SectionFooter(*Context) {}

func (e *iniEmitter) Int(c *Context, key string, v int64) {
	e.scratch = appendINIEscaped(e.scratch[:0], key)
	e.scratch = append(e.scratch, '=')
	e.scratch = strconv.AppendInt(e.scratch, v, 10)
	e.scratch = append(e.scratch, '\n')
	c.Out().Write(e.scratch)
}

func (e *iniEmitter) String(c *Context, key, v string) {
	e.scratch = appendINIEscaped(e.scratch[:0], key)
	e.scratch = append(e.scratch, '=')
	e.scratch = appendINIEscaped(e.scratch, v)
	e.scratch = append(e.scratch, '\n')
	c.Out().Write(e.scratch)
}

func appendINIEscaped(dst []byte, s string) []byte {
	const hex = "0123456789abcdef"
	for i := 0; i < len(s); i++ {
		switch b := s[i]; b {
		case '\b':
			dst = append(dst, `\b`...)
		case '\f':
			dst = append(dst, `\f`...)
		case '\n':
			dst = append(dst, `\n`...)
		case '\r':
			dst = append(dst, `\r`...)
		case '\t':
			dst = append(dst, `\t`...)
		case '\\', '#', '=', ';':
			dst = append(dst, '\\', b)
		default:
			if b < 0x20 {
				dst = append(dst, '\\', 'x', '0', '0', hex[b>>4], hex[b&0xF])
			} else {
				dst = append(dst, b)
			}
		}
	}
	return dst
}
