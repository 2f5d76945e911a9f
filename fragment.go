package textformat

import (
	"iter"
	"slices"

	"github.com/cockroachdb/errors"
)

// FragmentSpec describes where a fragment will be spliced: the format it is
// rendered with and the path of sections from the root down to and
// including the fragment's own section. Index is the number of siblings that
// precede the fragment's section inside its parent, which formats that
// number array elements depend on.
type FragmentSpec struct {
	Format  Format
	Args    string
	Schema  *Schema
	Path    []SectionID
	Index   int
	Options []Option
}

// Fragment is the pre-rendered body of one section: everything between its
// header and its footer.
type Fragment struct {
	format   string
	args     string
	path     []SectionID
	index    int
	items    int
	state    any
	hasState bool
	data     []byte
}

// Bytes returns the rendered body.
func (f *Fragment) Bytes() []byte { return f.data }

// Len returns the size of the rendered body.
func (f *Fragment) Len() int { return len(f.data) }

// Render renders a fragment body in isolation. It replays the path headers
// into a private buffer so the emitter reaches the same state a single pass
// would, discards that preamble, and runs body inside the last path section.
// body must leave exactly the path sections open. Render is safe to call
// concurrently for different fragments.
func (s FragmentSpec) Render(body func(c *Context) error) (*Fragment, error) {
	if len(s.Path) == 0 {
		return nil, errors.Wrap(ErrFragmentMismatch, "empty section path")
	}
	buf := NewBuffer()
	c, err := Open(s.Format, s.Args, buf, s.Schema, s.Options...)
	if err != nil {
		_ = buf.Close()
		return nil, err
	}
	for i, id := range s.Path {
		if i == len(s.Path)-1 && c.level >= 0 {
			c.items[c.level] = s.Index
		}
		c.SectionHeader(id)
	}
	buf.Reset()
	if err := body(c); err != nil {
		c.closed = true
		_ = buf.Close()
		return nil, err
	}
	if c.level != len(s.Path)-1 {
		panic(errors.AssertionFailedf("fragment body left %d sections open, want %d", c.level+1, len(s.Path)))
	}
	f := &Fragment{
		format: s.Format.Name,
		args:   s.Args,
		path:   slices.Clone(s.Path),
		index:  s.Index,
		items:  c.items[c.level],
	}
	if r, ok := c.emitter.(Resumable); ok {
		f.state, f.hasState = r.Snapshot(c), true
	}
	c.closed = true
	_ = buf.Close()
	f.data = buf.Bytes()
	return f, nil
}

// Splice appends fragments at the current position. The context must be
// positioned in the fragments' parent section with the format and options
// they were rendered with; each fragment's section is reopened, its body
// copied verbatim, and the section closed again.
func (c *Context) Splice(frags ...*Fragment) error {
	for _, f := range frags {
		if err := c.splice(f); err != nil {
			return err
		}
	}
	return nil
}

// SpliceIter splices fragments as the iterator yields them.
func (c *Context) SpliceIter(seq iter.Seq[*Fragment]) error {
	var err error
	seq(func(f *Fragment) bool {
		err = c.splice(f)
		return err == nil
	})
	return err
}

// SpliceChan splices fragments received from ch until it is closed.
// It is a thin wrapper around [Context.SpliceIter].
func (c *Context) SpliceChan(ch <-chan *Fragment) error {
	return c.SpliceIter(chanToIter(ch))
}

func chanToIter[T any](ch <-chan T) iter.Seq[T] {
	return func(yield func(T) bool) {
		for item := range ch {
			if !yield(item) {
				return
			}
		}
	}
}

func (c *Context) splice(f *Fragment) error {
	c.mustBeOpen()
	if f.format != c.format.Name || f.args != c.args {
		return errors.Wrapf(ErrFragmentMismatch, "fragment rendered as %s=%s, context is %s=%s",
			f.format, f.args, c.format.Name, c.args)
	}
	parent := f.path[:len(f.path)-1]
	if c.level != len(parent)-1 {
		return errors.Wrapf(ErrFragmentMismatch, "fragment expects level %d, context is at %d", len(parent)-1, c.level)
	}
	for i, id := range parent {
		if c.sections[i].ID != id {
			return errors.Wrapf(ErrFragmentMismatch, "fragment expects section %d at level %d, context has %s",
				id, i, c.sections[i].Key())
		}
	}
	if c.level >= 0 && c.items[c.level] != f.index {
		return errors.Wrapf(ErrFragmentMismatch, "fragment rendered as item %d, context is at item %d",
			f.index, c.items[c.level])
	}
	c.SectionHeader(f.path[len(f.path)-1])
	if _, err := c.sink.Write(f.data); err != nil {
		return err
	}
	c.items[c.level] = f.items
	if f.hasState {
		if r, ok := c.emitter.(Resumable); ok {
			r.Restore(c, f.state)
		}
	}
	c.SectionFooter()
	return nil
}

// Assemble writes a complete document to sink: it opens the sections leading
// to the fragments' parent, splices frags in order, closes everything and
// the sink.
func Assemble(spec FragmentSpec, sink Sink, frags []*Fragment) error {
	c, err := Open(spec.Format, spec.Args, sink, spec.Schema, spec.Options...)
	if err != nil {
		return err
	}
	parent := spec.Path[:max(len(spec.Path)-1, 0)]
	for _, id := range parent {
		c.SectionHeader(id)
	}
	if err := c.Splice(frags...); err != nil {
		_ = c.Close()
		return err
	}
	for range parent {
		c.SectionFooter()
	}
	return c.Close()
}
