package graph

import (
	"github.com/bjaus/textformat"
)

// describer walks the data model and keeps printing after a field fails
// validation. Each section reports at most one failure, as an Error section
// printed before the section opens a child or closes: its recorded Failure
// when it has one, otherwise the first string that failed validation.
type describer struct {
	c        *textformat.Context
	pending  error
	fatal    error
	reported []bool
}

func (d *describer) open(id textformat.SectionID) {
	d.flush()
	d.c.SectionHeader(id)
	lvl := d.c.Level()
	for len(d.reported) <= lvl {
		d.reported = append(d.reported, false)
	}
	d.reported[lvl] = false
}

func (d *describer) close() {
	d.flush()
	d.c.SectionFooter()
}

// flush prints the pending failure if the current section can hold it and
// has not reported one yet.
func (d *describer) flush() {
	sec := d.c.Section()
	if d.pending == nil || sec == nil || !d.c.Schema().HasChild(sec.ID, SectionError) {
		return
	}
	err := d.pending
	d.pending = nil
	if lvl := d.c.Level(); lvl < len(d.reported) {
		if d.reported[lvl] {
			return
		}
		d.reported[lvl] = true
	}
	if werr := d.c.WriteError(err); werr != nil && d.fatal == nil {
		d.fatal = werr
	}
}

func (d *describer) keep(err error) {
	if err != nil && d.pending == nil {
		d.pending = err
	}
}

func (d *describer) str(key, v string) {
	d.keep(d.c.String(key, v, textformat.PrintValidate))
}

// opt prints v, or an optional "N/A" when it is empty.
func (d *describer) opt(key, v string) {
	if v == "" {
		d.keep(d.c.String(key, "N/A", textformat.PrintOptional))
		return
	}
	d.str(key, v)
}

func (d *describer) int(key string, v int) { d.c.Int(key, int64(v)) }

// failure takes the place of a validation error still waiting in the
// current section.
func (d *describer) failure(f *Failure) {
	if f != nil {
		d.pending = failureError{f}
	}
}

type failureError struct{ f *Failure }

func (e failureError) Error() string { return e.f.Message }
func (e failureError) Code() int     { return e.f.Code }

func (d *describer) result() error {
	d.flush()
	if d.fatal != nil {
		return d.fatal
	}
	return d.pending
}

// Describe prints the body of graph g. The context must have the graph's
// section open; Describe leaves it open. Invalid strings and recorded
// failures are printed as Error sections, so the returned error is only set
// when an error report could not be printed itself.
func Describe(c *textformat.Context, g *Graph) error {
	d := &describer{c: c}
	d.graph(g)
	return d.result()
}

func (d *describer) graph(g *Graph) {
	d.int("GraphIndex", g.Index)
	d.str("Description", g.Description)
	d.failure(g.Failure)

	d.open(SectionInputs)
	for i := range g.Inputs {
		d.input(&g.Inputs[i])
	}
	d.close()

	d.open(SectionOutputs)
	for i := range g.Outputs {
		d.output(&g.Outputs[i])
	}
	d.close()

	d.open(SectionFilters)
	for i := range g.Filters {
		d.filter(&g.Filters[i])
	}
	d.close()
}

func (d *describer) pad(p *Pad) {
	if p == nil {
		return
	}
	d.str("Name2", p.Name)
	d.str("Name3", p.Filter)
	d.opt("Description", p.Description)
}

func (d *describer) mediaType(m MediaType) {
	d.str("MediaType", m.String())
	d.int("MediaTypeId", m.ID())
}

func (d *describer) input(in *Input) {
	d.open(SectionInput)
	d.str("Name1", in.Name)
	d.pad(in.Pad)
	d.mediaType(in.Stream.MediaType)
	switch s := in.Stream; {
	case s.MediaType.visual():
		d.pixelFormat(s.Format)
		d.int("Width", s.Width)
		d.int("Height", s.Height)
		d.c.Rational("SAR", s.SAR, ':')
	case s.MediaType == MediaAudio:
		d.str("ChannelString", s.ChannelLayout)
		d.int("SampleRate", s.SampleRate)
	}
	switch {
	case in.HwFrames != nil:
		d.hwFrames(in.HwFrames)
	case in.HwDevice != nil:
		d.hwDevice(in.HwDevice)
	}
	d.close()
}

func (d *describer) output(out *Output) {
	d.open(SectionOutput)
	d.str("Name1", out.Name)
	d.pad(out.Pad)
	d.mediaType(out.Stream.MediaType)
	switch s := out.Stream; {
	case s.MediaType.visual():
		d.pixelFormat(s.Format)
		d.int("Width", s.Width)
		d.int("Height", s.Height)
	case s.MediaType == MediaAudio:
		d.str("ChannelString", s.ChannelLayout)
		d.int("SampleRate", s.SampleRate)
	}
	if out.HwDevice != nil {
		d.hwDevice(out.HwDevice)
	}
	d.close()
}

func (d *describer) pixelFormat(f string) {
	if f == "" {
		f = "?"
	}
	d.str("Format", f)
}

func (d *describer) filter(f *Filter) {
	d.open(SectionFilter)
	d.str("Name", f.Name)
	if f.Type != "" {
		d.str("Name2", f.Type)
		d.opt("Description", f.Description)
	}
	d.failure(f.Failure)
	if f.HwDevice != nil {
		d.hwDevice(f.HwDevice)
	}

	d.open(SectionInputs)
	for i := range f.Inputs {
		l := &f.Inputs[i]
		d.open(SectionInput)
		d.str("SourceName", l.Source)
		d.str("SourcePadName", l.SourcePad)
		d.str("DestPadName", l.DestPad)
		d.link(l)
		d.close()
	}
	d.close()

	d.open(SectionOutputs)
	for i := range f.Outputs {
		l := &f.Outputs[i]
		d.open(SectionOutput)
		d.str("DestName", l.Dest)
		d.str("DestPadName", l.DestPad)
		d.str("SourceName", l.Source)
		d.link(l)
		d.close()
	}
	d.close()

	d.close()
}

func (d *describer) link(l *Link) {
	switch s := l.Stream; s.MediaType {
	case MediaVideo:
		d.pixelFormat(s.Format)
		d.int("Width", s.Width)
		d.int("Height", s.Height)
		d.c.Rational("SAR", s.SAR, ':')
		d.c.Rational("TimeBase", s.TimeBase, '/')
	case MediaAudio:
		d.str("ChannelString", s.ChannelLayout)
		d.int("Channels", s.Channels)
		d.int("SampleRate", s.SampleRate)
	}
	if l.HwFrames != nil {
		d.hwFrames(l.HwFrames)
	}
}

func (d *describer) hwDevice(h *HwDeviceContext) {
	d.open(SectionHwDeviceContext)
	d.int("HasHwDeviceContext", 1)
	d.str("DeviceType", h.DeviceType)
	d.close()
}

func (d *describer) hwFrames(h *HwFramesContext) {
	d.open(SectionHwFramesContext)
	d.int("HasHwFramesContext", 1)
	if h.HwPixelFormat != "" {
		d.str("HwPixelFormat", h.HwPixelFormat)
		d.opt("HwPixelFormatAlias", h.HwPixelFormatAlias)
	}
	if h.SwPixelFormat != "" {
		d.str("SwPixelFormat", h.SwPixelFormat)
		d.opt("SwPixelFormatAlias", h.SwPixelFormatAlias)
	}
	d.int("Width", h.Width)
	d.int("Height", h.Height)
	d.hwDevice(&h.Device)
	d.close()
}

func (d *describer) program(p *ProgramVersion) {
	d.open(SectionProgramVersion)
	d.str("Version", p.Version)
	d.opt("Copyright", p.Copyright)
	d.opt("Compiler", p.Compiler)
	d.opt("Configuration", p.Configuration)
	d.close()
}

func (d *describer) logs(entries []LogEntry) {
	d.open(SectionLogs)
	for _, e := range entries {
		d.open(SectionLogEntry)
		ts := e.Time
		if ts == 0 {
			ts = textformat.NoTimestamp
		}
		d.c.Timestamp("Time", ts, false)
		d.str("Level", e.Level)
		d.opt("Category", e.Category)
		d.str("Message", e.Message)
		d.close()
	}
	d.close()
}
