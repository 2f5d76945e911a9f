package graph

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bjaus/textformat"
)

// Printer renders graph descriptions. Each graph is rendered into a fragment
// on its own goroutine, and the fragments are assembled into the sink by the
// calling goroutine.
type Printer struct {
	format  textformat.Format
	args    string
	schema  *textformat.Schema
	workers int
	logger  *zap.Logger
	opts    []textformat.Option
}

// PrinterOption configures a [Printer].
type PrinterOption func(*Printer)

// WithWorkers limits how many graphs are rendered at once. Zero or less
// means no limit.
func WithWorkers(n int) PrinterOption {
	return func(p *Printer) { p.workers = n }
}

// WithLogger sets the logger for the printer and its format contexts.
func WithLogger(l *zap.Logger) PrinterOption {
	return func(p *Printer) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithContextOptions passes options to every format context.
func WithContextOptions(opts ...textformat.Option) PrinterOption {
	return func(p *Printer) { p.opts = append(p.opts, opts...) }
}

// NewPrinter selects a format from reg with a "name[=args]" selection. The
// format and its options are checked once up front, so configuration errors
// surface before anything is rendered.
func NewPrinter(reg *textformat.Registry, selection string, schema *textformat.Schema, opts ...PrinterOption) (*Printer, error) {
	f, args, err := reg.Select(selection)
	if err != nil {
		return nil, err
	}
	p := &Printer{format: f, args: args, schema: schema, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	p.opts = append(p.opts, textformat.WithLogger(p.logger))
	probe := textformat.NewBuffer()
	c, err := textformat.Open(f, args, probe, schema, p.opts...)
	if err != nil {
		_ = probe.Close()
		return nil, err
	}
	_ = c.Close()
	return p, nil
}

// Format returns the selected format.
func (p *Printer) Format() textformat.Format { return p.format }

func (p *Printer) graphSpec(index int) textformat.FragmentSpec {
	return textformat.FragmentSpec{
		Format:  p.format,
		Args:    p.args,
		Schema:  p.schema,
		Path:    GraphPath,
		Index:   index,
		Options: p.opts,
	}
}

// RenderGraph renders one graph as the index-th element of the graph list.
func (p *Printer) RenderGraph(index int, g *Graph) (*textformat.Fragment, error) {
	return p.graphSpec(index).Render(func(c *textformat.Context) error {
		return Describe(c, g)
	})
}

// Print renders doc into sink and closes it. Graphs are rendered
// concurrently; ctx cancels graphs that have not started yet.
func (p *Printer) Print(ctx context.Context, doc *Document, sink textformat.Sink) error {
	frags := make([]*textformat.Fragment, len(doc.Graphs))
	g, ctx := errgroup.WithContext(ctx)
	if p.workers > 0 {
		g.SetLimit(p.workers)
	}
	for i := range doc.Graphs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := p.RenderGraph(i, &doc.Graphs[i])
			if err != nil {
				return errors.Wrapf(err, "graph %d", doc.Graphs[i].Index)
			}
			p.logger.Debug("rendered graph", zap.Int("graph", doc.Graphs[i].Index), zap.Int("bytes", f.Len()))
			frags[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		_ = sink.Close()
		return err
	}
	return p.assemble(doc, sink, func(c *textformat.Context) error {
		return c.Splice(frags...)
	})
}

// PrintSequential renders doc into sink in a single pass on the calling
// goroutine.
func (p *Printer) PrintSequential(doc *Document, sink textformat.Sink) error {
	return p.assemble(doc, sink, func(c *textformat.Context) error {
		for i := range doc.Graphs {
			c.SectionHeader(SectionGraph)
			if err := Describe(c, &doc.Graphs[i]); err != nil {
				return errors.Wrapf(err, "graph %d", doc.Graphs[i].Index)
			}
			c.SectionFooter()
		}
		return nil
	})
}

func (p *Printer) assemble(doc *Document, sink textformat.Sink, graphs func(c *textformat.Context) error) error {
	c, err := textformat.Open(p.format, p.args, sink, p.schema, p.opts...)
	if err != nil {
		_ = sink.Close()
		return err
	}
	d := &describer{c: c}
	d.open(SectionRoot)
	if doc.Program != nil {
		d.program(doc.Program)
	}
	d.open(SectionGraphs)
	if err := graphs(c); err != nil {
		_ = c.Close()
		return err
	}
	d.close()
	if len(doc.Logs) > 0 {
		d.logs(doc.Logs)
	}
	d.close()
	if err := d.result(); err != nil {
		_ = c.Close()
		return err
	}
	return c.Close()
}
