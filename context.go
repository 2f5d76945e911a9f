package textformat

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// PrintFlags modify how [Context.String] treats a value.
type PrintFlags int

const (
	// PrintOptional marks a field that is only printed by formats declaring
	// DisplayOptionalFields.
	PrintOptional PrintFlags = 1 << iota
	// PrintValidate runs the key and value through the string validator.
	PrintValidate
)

// NoTimestamp marks an unset timestamp for [Context.Timestamp].
const NoTimestamp = math.MinInt64

// Rational is a fraction printed as "num<sep>den".
type Rational struct {
	Num, Den int
}

// Option configures a [Context].
type Option func(*config)

type config struct {
	logger    *zap.Logger
	maxDepth  int
	validator *Validator
}

// WithLogger sets the logger used for validation diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxDepth lowers the nesting limit below [MaxDepth].
func WithMaxDepth(n int) Option {
	return func(c *config) { c.maxDepth = n }
}

// WithValidator overrides the validator configured by the option string.
func WithValidator(v Validator) Option {
	return func(c *config) { c.validator = &v }
}

// Context drives one print operation: it tracks the open sections and
// dispatches events to the format's emitter, which renders into the sink.
// A Context must not be used from more than one goroutine.
type Context struct {
	format    Format
	args      string
	emitter   Emitter
	schema    *Schema
	sink      Sink
	logger    *zap.Logger
	validator Validator
	maxDepth  int

	level    int
	sections []*Section
	items    []int
	prefixes []strings.Builder
	closed   bool
}

// Open starts a print operation with format f configured by args, a
// "key=value:key=value" list. Besides the format's own options, args accepts
// string_validation (sv) and string_validation_replacement (svr). The context
// owns sink from here on and closes it in [Context.Close].
func Open(f Format, args string, sink Sink, schema *Schema, opts ...Option) (*Context, error) {
	if sink == nil || schema == nil || f.New == nil {
		return nil, errors.Wrap(ErrInvalidOption, "format, sink and schema are required")
	}
	cfg := config{logger: zap.NewNop(), maxDepth: MaxDepth}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxDepth < 1 || cfg.maxDepth > MaxDepth {
		return nil, errors.Wrapf(ErrInvalidOption, "depth limit %d outside [1, %d]", cfg.maxDepth, MaxDepth)
	}
	o, err := ParseOptions(args)
	if err != nil {
		return nil, err
	}
	policy, err := ParseValidationPolicy(o.String(ValidationReplace.String(), "string_validation", "sv"))
	if err != nil {
		return nil, err
	}
	v := Validator{
		Policy:      policy,
		Replacement: o.String(DefaultReplacement, "string_validation_replacement", "svr"),
	}
	if cfg.validator != nil {
		v = *cfg.validator
	}
	if err := v.Check(); err != nil {
		return nil, errors.Mark(err, ErrInvalidOption)
	}
	em, err := f.New(o)
	if err != nil {
		return nil, errors.Wrapf(err, "format %s", f.Name)
	}
	if err := o.checkUsed(); err != nil {
		return nil, errors.Wrapf(err, "format %s", f.Name)
	}
	c := &Context{
		format:    f,
		args:      args,
		emitter:   em,
		schema:    schema,
		sink:      sink,
		logger:    cfg.logger.With(zap.String("format", f.Name)),
		validator: v,
		maxDepth:  cfg.maxDepth,
		level:     -1,
		sections:  make([]*Section, cfg.maxDepth),
		items:     make([]int, cfg.maxDepth),
		prefixes:  make([]strings.Builder, cfg.maxDepth),
	}
	if init, ok := em.(Initializer); ok {
		if err := init.Init(c); err != nil {
			return nil, errors.Wrapf(err, "format %s", f.Name)
		}
	}
	return c, nil
}

// Open looks up the format named by a "name[=args]" selection and opens a
// context with it.
func (r *Registry) Open(selection string, sink Sink, schema *Schema, opts ...Option) (*Context, error) {
	f, args, err := r.Select(selection)
	if err != nil {
		return nil, err
	}
	return Open(f, args, sink, schema, opts...)
}

// --- Emitter accessors ---

// Format returns the format the context renders.
func (c *Context) Format() Format { return c.format }

// Schema returns the section schema.
func (c *Context) Schema() *Schema { return c.schema }

// Out returns the sink emitters write to.
func (c *Context) Out() Sink { return c.sink }

// Level returns the current nesting level; -1 before the first header.
func (c *Context) Level() int { return c.level }

// Section returns the innermost open section, or nil.
func (c *Context) Section() *Section {
	if c.level < 0 {
		return nil
	}
	return c.sections[c.level]
}

// Parent returns the section enclosing the innermost open one, or nil.
func (c *Context) Parent() *Section {
	if c.level < 1 {
		return nil
	}
	return c.sections[c.level-1]
}

// Items returns how many fields and closed subsections level has printed.
func (c *Context) Items(level int) int { return c.items[level] }

// Prefix returns the key prefix an emitter stored for level.
func (c *Context) Prefix(level int) string {
	if level < 0 {
		return ""
	}
	return c.prefixes[level].String()
}

// Scratch returns the prefix buffer of level. It is emptied whenever a
// section opens at that level.
func (c *Context) Scratch(level int) *strings.Builder { return &c.prefixes[level] }

// --- Driving API ---

func (c *Context) mustBeOpen() {
	if c.closed {
		panic(errors.AssertionFailedf("use of closed format context"))
	}
}

func (c *Context) mustBeInSection() {
	c.mustBeOpen()
	if c.level < 0 {
		panic(errors.AssertionFailedf("field printed outside of any section"))
	}
}

// SectionHeader opens section id inside the current one. The first header
// may name any section; later ones must be declared children of the
// enclosing section. Exceeding the depth limit or breaking the schema
// panics.
func (c *Context) SectionHeader(id SectionID) {
	c.mustBeOpen()
	sec, ok := c.schema.Lookup(id)
	if !ok {
		panic(errors.AssertionFailedf("unknown section id %d", id))
	}
	if c.level+1 >= c.maxDepth {
		panic(errors.AssertionFailedf("section %s exceeds depth limit %d", sec.Key(), c.maxDepth))
	}
	if c.level >= 0 && !c.schema.HasChild(c.sections[c.level].ID, id) {
		panic(errors.AssertionFailedf("section %s is not a child of %s", sec.Key(), c.sections[c.level].Key()))
	}
	c.level++
	c.items[c.level] = 0
	c.sections[c.level] = sec
	c.prefixes[c.level].Reset()
	c.emitter.SectionHeader(c)
}

// SectionFooter closes the innermost open section.
func (c *Context) SectionFooter() {
	c.mustBeOpen()
	if c.level < 0 {
		panic(errors.AssertionFailedf("section footer without header"))
	}
	if c.level > 0 {
		c.items[c.level-1]++
	}
	c.emitter.SectionFooter(c)
	c.sections[c.level] = nil
	c.level--
}

// Int prints an integer field.
func (c *Context) Int(key string, v int64) {
	c.mustBeInSection()
	if !c.schema.ShowsEntry(c.Section().ID, key) {
		return
	}
	c.emitter.Int(c, key, v)
	c.items[c.level]++
}

// String prints a string field. With PrintValidate the key and value pass
// through the validator first; a validation failure is returned and nothing
// is printed.
func (c *Context) String(key, v string, flags PrintFlags) error {
	c.mustBeInSection()
	sec := c.Section()
	if flags&PrintOptional != 0 && c.format.Flags&DisplayOptionalFields == 0 {
		return nil
	}
	if !c.schema.ShowsEntry(sec.ID, key) {
		return nil
	}
	if flags&PrintValidate != 0 {
		k, err := c.validate(key)
		if err == nil {
			v, err = c.validate(v)
		}
		if err != nil {
			c.logger.Error("invalid key=value string combination",
				zap.String("section", sec.Key()), zap.String("key", key), zap.String("value", v), zap.Error(err))
			return errors.Wrapf(err, "section %s key %q", sec.Key(), key)
		}
		key = k
	}
	c.emitter.String(c, key, v)
	c.items[c.level]++
	return nil
}

func (c *Context) validate(s string) (string, error) {
	out, n, err := c.validator.Validate(s)
	if err != nil {
		return "", err
	}
	if n > 0 {
		switch c.validator.Policy {
		case ValidationReplace:
			c.logger.Warn("invalid UTF-8 sequences replaced",
				zap.Int("count", n), zap.String("string", s), zap.String("replacement", c.validator.replacement()))
		default:
			c.logger.Debug("invalid UTF-8 sequences dropped", zap.Int("count", n), zap.String("string", s))
		}
	}
	return out, nil
}

// Rational prints q as "num<sep>den", e.g. "16:9" or "1/25".
func (c *Context) Rational(key string, q Rational, sep byte) {
	v := strconv.Itoa(q.Num) + string(sep) + strconv.Itoa(q.Den)
	c.unchecked(key, v, 0)
}

// unchecked prints a string field the context built itself. Without
// PrintValidate, String has no error to return.
func (c *Context) unchecked(key, v string, flags PrintFlags) {
	_ = c.String(key, v, flags&^PrintValidate)
}

// Printf prints a string field built from a format string.
func (c *Context) Printf(key, format string, args ...any) {
	c.unchecked(key, fmt.Sprintf(format, args...), 0)
}

// Timestamp prints ts as an integer. An unset timestamp, or a zero duration,
// prints the optional value "N/A".
func (c *Context) Timestamp(key string, ts int64, isDuration bool) {
	if (!isDuration && ts == NoTimestamp) || (isDuration && ts == 0) {
		c.unchecked(key, "N/A", PrintOptional)
		return
	}
	c.Int(key, ts)
}

// Close finishes the emitter and closes the sink, returning any sink error.
// Closing twice is a no-op.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	if c.level >= 0 {
		c.logger.Debug("format context closed with open sections", zap.Int("level", c.level))
	}
	if fin, ok := c.emitter.(Finisher); ok {
		fin.Finish(c)
	}
	c.closed = true
	return c.sink.Close()
}

// GUID is a Windows-style globally unique identifier.
type GUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// String formats g in registry form, e.g.
// {6b29fc40-ca47-1067-b31d-00dd010662da}.
func (g GUID) String() string {
	d := g.Data4
	return fmt.Sprintf("{%08x-%04x-%04x-%02x%02x-%02x%02x%02x%02x%02x%02x}",
		g.Data1, g.Data2, g.Data3, d[0], d[1], d[2], d[3], d[4], d[5], d[6], d[7])
}

// GUID prints g in registry form.
func (c *Context) GUID(key string, g GUID) {
	c.unchecked(key, g.String(), 0)
}
