package textformat

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// CompactFormat prints each plain section on one line:
//
//	Filter|Name=scale|Description=Scale the input video size.
//
// Sections nested under a plain section continue their parent's line with
// prefixed keys. An array inside a plain section ends that line; its
// elements print lines of their own. Options: item_sep (s) sets the separator character
// (default '|'), nokey (nk) prints values only, escape (e) picks the value
// escaping (none, c or csv; default c) and print_section (p) toggles the
// leading section name (default on).
func CompactFormat() Format {
	return Format{Name: "compact", New: compactOptions{sep: '|', escape: "c", printSection: true}.build}
}

// CSVFormat is the compact format with ',' separators, csv value quoting
// and no keys.
func CSVFormat() Format {
	return Format{Name: "csv", New: compactOptions{sep: ',', nokey: true, escape: "csv", printSection: true}.build}
}

type compactOptions struct {
	sep          byte
	nokey        bool
	escape       string
	printSection bool
}

func (d compactOptions) build(o *Options) (Emitter, error) {
	sep, err := o.Char(d.sep, "item_sep", "s")
	if err != nil {
		return nil, err
	}
	nokey, err := o.Bool(d.nokey, "nokey", "nk")
	if err != nil {
		return nil, err
	}
	printSection, err := o.Bool(d.printSection, "print_section", "p")
	if err != nil {
		return nil, err
	}
	e := &compactEmitter{sep: sep, nokey: nokey, printSection: printSection}
	switch mode := o.String(d.escape, "escape", "e"); mode {
	case "none":
		e.escape = func(dst []byte, s string, _ byte) []byte { return append(dst, s...) }
	case "c":
		e.escape = appendCEscaped
	case "csv":
		e.escape = appendCSVEscaped
	default:
		return nil, errors.Wrapf(ErrInvalidOption, "unknown escape mode %q", mode)
	}
	return e, nil
}

// compactLevel is the per-level line state.
type compactLevel struct {
	nested        bool
	terminateLine bool
	// items printed on the shared line by enclosing nested sections
	inherited int
}

type compactEmitter struct {
	sep          byte
	nokey        bool
	printSection bool
	escape       func(dst []byte, s string, sep byte) []byte
	levels       [MaxDepth]compactLevel
	scratch      []byte
}

func (e *compactEmitter) SectionHeader(c *Context) {
	lvl, sec, parent := c.Level(), c.Section(), c.Parent()
	st := &e.levels[lvl]
	*st = compactLevel{terminateLine: true}
	if !sec.IsArray() && parent != nil && !parent.IsContainer() {
		up := &e.levels[lvl-1]
		st.nested = true
		st.inherited = up.inherited + c.Items(lvl-1)
		p := c.Scratch(lvl)
		p.WriteString(c.Prefix(lvl - 1))
		p.WriteString(sec.Element())
		p.WriteByte(':')
		return
	}
	if sec.IsArray() && parent != nil && !parent.IsContainer() {
		e.endLine(c, lvl-1)
	}
	if e.printSection && !sec.IsContainer() {
		out := c.Out()
		out.WriteString(sec.Name)
		out.WriteByte(e.sep)
	}
}

// endLine terminates the line owned by level, or by the section level is
// nested in, so that array elements start lines of their own.
func (e *compactEmitter) endLine(c *Context, level int) {
	for level > 0 && e.levels[level].nested {
		level--
	}
	owner := &e.levels[level]
	if !owner.terminateLine {
		return
	}
	owner.terminateLine = false
	if e.printSection || c.Items(level) > 0 {
		c.Out().WriteByte('\n')
	}
}

func (e *compactEmitter) SectionFooter(c *Context) {
	st := &e.levels[c.Level()]
	if !st.nested && st.terminateLine && !c.Section().IsContainer() {
		c.Out().WriteByte('\n')
	}
}

func (e *compactEmitter) key(c *Context, key string) {
	lvl := c.Level()
	out := c.Out()
	if e.levels[lvl].inherited+c.Items(lvl) > 0 {
		out.WriteByte(e.sep)
	}
	if !e.nokey {
		out.WriteString(c.Prefix(lvl))
		out.WriteString(key)
		out.WriteByte('=')
	}
}

func (e *compactEmitter) Int(c *Context, key string, v int64) {
	e.key(c, key)
	c.Out().WriteString(strconv.FormatInt(v, 10))
}

func (e *compactEmitter) String(c *Context, key, v string) {
	e.key(c, key)
	e.scratch = e.escape(e.scratch[:0], v, e.sep)
	c.Out().Write(e.scratch)
}

func (e *compactEmitter) Snapshot(c *Context) any {
	return e.levels[c.Level()]
}

func (e *compactEmitter) Restore(c *Context, state any) {
	if st, ok := state.(compactLevel); ok {
		e.levels[c.Level()] = st
	}
}

// appendCEscaped escapes control characters, backslashes and the separator
// with C-style backslash sequences.
func appendCEscaped(dst []byte, s string, sep byte) []byte {
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
		case '\\':
			dst = append(dst, `\\`...)
		default:
			if b == sep {
				dst = append(dst, '\\')
			}
			dst = append(dst, b)
		}
	}
	return dst
}

// appendCSVEscaped quotes s when it holds the separator, a quote or a line
// break, doubling embedded quotes.
func appendCSVEscaped(dst []byte, s string, sep byte) []byte {
	if strings.IndexByte(s, sep) < 0 && !strings.ContainsAny(s, "\"\n\r") {
		return append(dst, s...)
	}
	dst = append(dst, '"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			dst = append(dst, '"')
		}
		dst = append(dst, s[i])
	}
	return append(dst, '"')
}
