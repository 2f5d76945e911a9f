package textformat

import (
	"slices"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Sentinel errors for programmatic error handling.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrInvalidOption     = errors.New("invalid option")
	ErrInvalidEncoding   = errors.New("invalid encoding")
	ErrInvalidSchema     = errors.New("invalid schema")
	ErrFragmentMismatch  = errors.New("fragment mismatch")
)

// FormatFlags declare formatter capabilities.
type FormatFlags int

const (
	// DisplayOptionalFields makes the context print strings passed with
	// [PrintOptional].
	DisplayOptionalFields FormatFlags = 1 << iota
)

// Format describes an output encoding. It is immutable; New builds the
// per-session emitter from the parsed option list.
type Format struct {
	Name  string
	Flags FormatFlags
	New   func(opts *Options) (Emitter, error)
}

// String returns the format name.
func (f Format) String() string { return f.Name }

// Emitter renders section and field events for one session. The context
// updates levels and item counters around each call; emitters only write.
type Emitter interface {
	SectionHeader(c *Context)
	SectionFooter(c *Context)
	Int(c *Context, key string, v int64)
	String(c *Context, key, v string)
}

// --- Optional Interfaces ---

// Initializer is called once when a context is opened.
type Initializer interface {
	Init(c *Context) error
}

// Finisher is called once when a context is closed, before the sink is.
type Finisher interface {
	Finish(c *Context)
}

// Resumable emitters keep per-level state that a section body can change
// and its footer reads. Snapshot is taken at the end of a fragment body, with
// the fragment's section innermost, and restored by the assembling context
// after the bytes are copied.
type Resumable interface {
	Snapshot(c *Context) any
	Restore(c *Context, state any)
}

// --- Registry ---

// Registry holds the formats available for selection. It is read-only after
// construction and safe for concurrent use.
type Registry struct {
	formats []Format
}

// NewRegistry builds a registry. Names must be unique and non-empty.
func NewRegistry(formats ...Format) (*Registry, error) {
	r := &Registry{formats: make([]Format, 0, len(formats))}
	for _, f := range formats {
		if f.Name == "" || f.New == nil {
			return nil, errors.Wrapf(ErrUnsupportedFormat, "incomplete format %q", f.Name)
		}
		if _, ok := r.Lookup(f.Name); ok {
			return nil, errors.Wrapf(ErrUnsupportedFormat, "duplicate format %q", f.Name)
		}
		r.formats = append(r.formats, f)
	}
	return r, nil
}

// Builtin returns a new registry holding every format of this package.
func Builtin() *Registry {
	r, err := NewRegistry(DefaultFormat(), JSONFormat(), CompactFormat(), CSVFormat(), FlatFormat(), INIFormat())
	if err != nil {
		panic(errors.NewAssertionErrorWithWrappedErrf(err, "builtin formats"))
	}
	return r
}

// Lookup returns the format registered under name.
func (r *Registry) Lookup(name string) (Format, bool) {
	for _, f := range r.formats {
		if f.Name == name {
			return f, true
		}
	}
	return Format{}, false
}

// Names returns the registered format names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.formats))
	for i, f := range r.formats {
		out[i] = f.Name
	}
	return out
}

// Select parses a "name[=args]" selection string and returns the format with
// its option string.
func (r *Registry) Select(selection string) (Format, string, error) {
	name, args := ParseSelection(selection)
	if name == "" {
		return Format{}, "", errors.Wrap(ErrUnsupportedFormat, "no format name")
	}
	f, ok := r.Lookup(name)
	if !ok {
		return Format{}, "", errors.Wrapf(ErrUnsupportedFormat, "%q", name)
	}
	return f, args, nil
}

// ParseSelection splits "name=args" at the first '='.
func ParseSelection(s string) (name, args string) {
	name, args, _ = strings.Cut(s, "=")
	return name, args
}

// --- Options ---

// Options is a parsed "key=value:key=value" option list. Consumers read the
// keys they understand; keys nobody read are reported by Unused.
type Options struct {
	keys   []string
	values map[string]string
	used   map[string]bool
}

// ParseOptions parses a colon-separated list of key=value pairs. A key given
// without a value is treated as "1".
func ParseOptions(s string) (*Options, error) {
	o := &Options{values: map[string]string{}, used: map[string]bool{}}
	if s == "" {
		return o, nil
	}
	for _, pair := range strings.Split(s, ":") {
		k, v, ok := strings.Cut(pair, "=")
		if k == "" {
			return nil, errors.Wrapf(ErrInvalidOption, "malformed option %q in %q", pair, s)
		}
		if !ok {
			v = "1"
		}
		if _, dup := o.values[k]; !dup {
			o.keys = append(o.keys, k)
		}
		o.values[k] = v
	}
	return o, nil
}

func (o *Options) lookup(names []string) (string, string, bool) {
	found := false
	var key, val string
	for _, n := range names {
		if v, ok := o.values[n]; ok {
			o.used[n] = true
			if !found {
				key, val, found = n, v, true
			}
		}
	}
	return key, val, found
}

// String returns the value of the first of names that is set, or def.
func (o *Options) String(def string, names ...string) string {
	if _, v, ok := o.lookup(names); ok {
		return v
	}
	return def
}

// Bool returns the boolean value of the first of names that is set, or def.
func (o *Options) Bool(def bool, names ...string) (bool, error) {
	k, v, ok := o.lookup(names)
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.Wrapf(ErrInvalidOption, "%s=%q is not a boolean", k, v)
	}
	return b, nil
}

// Char returns the single-byte value of the first of names that is set, or
// def.
func (o *Options) Char(def byte, names ...string) (byte, error) {
	k, v, ok := o.lookup(names)
	if !ok {
		return def, nil
	}
	if len(v) != 1 {
		return 0, errors.Wrapf(ErrInvalidOption, "%s=%q must be a single character", k, v)
	}
	return v[0], nil
}

// Unused returns the keys that no consumer read, in the order given.
func (o *Options) Unused() []string {
	var out []string
	for _, k := range o.keys {
		if !o.used[k] {
			out = append(out, k)
		}
	}
	return out
}

func (o *Options) checkUsed() error {
	if unused := o.Unused(); len(unused) > 0 {
		slices.Sort(unused)
		return errors.Wrapf(ErrInvalidOption, "unknown option(s) %s", strings.Join(unused, ", "))
	}
	return nil
}
