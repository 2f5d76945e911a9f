package textformat

import (
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultFormat renders INI-like blocks:
//
//	[FILTER]
//	Name=scale
//	HWDEVICECONTEXT:DeviceType=cuda
//	[/FILTER]
//
// Sections inside a section that is neither a wrapper nor an array get no
// tags; their keys carry the upper-cased section names as a prefix instead.
// Wrappers and arrays print no tags. Options: noprint_wrappers (nw) drops all
// tags, nokey (nk) prints values only. Optional fields are displayed.
func DefaultFormat() Format {
	return Format{Name: "default", Flags: DisplayOptionalFields, New: newDefaultEmitter}
}

type defaultEmitter struct {
	noprintWrappers bool
	nokey           bool
	nested          [MaxDepth]bool
	upper           cases.Caser
}

func newDefaultEmitter(o *Options) (Emitter, error) {
	nw, err := o.Bool(false, "noprint_wrappers", "nw")
	if err != nil {
		return nil, err
	}
	nk, err := o.Bool(false, "nokey", "nk")
	if err != nil {
		return nil, err
	}
	return &defaultEmitter{noprintWrappers: nw, nokey: nk, upper: cases.Upper(language.Und)}, nil
}

func (e *defaultEmitter) SectionHeader(c *Context) {
	lvl, sec, parent := c.Level(), c.Section(), c.Parent()
	e.nested[lvl] = parent != nil && !parent.IsContainer()
	if e.nested[lvl] {
		p := c.Scratch(lvl)
		p.WriteString(c.Prefix(lvl - 1))
		p.WriteString(e.upper.String(sec.Element()))
		p.WriteByte(':')
	}
	if e.noprintWrappers || e.nested[lvl] || sec.IsContainer() {
		return
	}
	out := c.Out()
	out.WriteByte('[')
	out.WriteString(e.upper.String(sec.Name))
	out.WriteString("]\n")
}

func (e *defaultEmitter) SectionFooter(c *Context) {
	sec := c.Section()
	if e.noprintWrappers || e.nested[c.Level()] || sec.IsContainer() {
		return
	}
	out := c.Out()
	out.WriteString("[/")
	out.WriteString(e.upper.String(sec.Name))
	out.WriteString("]\n")
}

func (e *defaultEmitter) key(c *Context, key string) {
	if e.nokey {
		return
	}
	out := c.Out()
	out.WriteString(c.Prefix(c.Level()))
	out.WriteString(key)
	out.WriteByte('=')
}

func (e *defaultEmitter) Int(c *Context, key string, v int64) {
	e.key(c, key)
	out := c.Out()
	out.WriteString(strconv.FormatInt(v, 10))
	out.WriteByte('\n')
}

func (e *defaultEmitter) String(c *Context, key, v string) {
	e.key(c, key)
	out := c.Out()
	out.WriteString(v)
	out.WriteByte('\n')
}
