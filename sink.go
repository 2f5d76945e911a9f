package textformat

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"go.uber.org/zap"
)

// Sink is the destination a formatter renders into. Write errors are sticky:
// once a write fails, later writes are dropped and the first error is
// reported by Err and Close.
type Sink interface {
	io.Writer
	io.ByteWriter
	io.StringWriter
	// Printf writes formatted text.
	Printf(format string, args ...any)
	// Err returns the first write error, if any.
	Err() error
	// Close flushes the sink and releases its resources. Closing twice is a
	// no-op.
	Close() error
}

// SinkKind selects a sink implementation for [OpenSink].
type SinkKind int

const (
	// SinkBuffer accumulates output in memory.
	SinkBuffer SinkKind = iota
	// SinkFile streams output to a file path, or standard output for "-".
	SinkFile
	// SinkLog writes the finished document to a logger, one entry per line.
	SinkLog
)

// OpenSink opens a sink of the given kind. target is the path for SinkFile
// and ignored otherwise; logger is used by SinkLog.
func OpenSink(kind SinkKind, target string, logger *zap.Logger) (Sink, error) {
	switch kind {
	case SinkBuffer:
		return NewBuffer(), nil
	case SinkFile:
		return OpenFile(target)
	case SinkLog:
		return NewLogSink(logger), nil
	default:
		return nil, errors.Wrapf(ErrInvalidOption, "sink kind %d", kind)
	}
}

// --- Memory buffer ---

// Buffer is an unbounded in-memory sink backed by a pooled byte buffer.
// Close finalizes the contents into an owned string and returns the pooled
// buffer.
type Buffer struct {
	buf    *bytebufferpool.ByteBuffer
	final  string
	closed bool
}

// NewBuffer returns an empty buffer sink.
func NewBuffer() *Buffer {
	return &Buffer{buf: bytebufferpool.Get()}
}

func (b *Buffer) open() *bytebufferpool.ByteBuffer {
	if b.closed {
		panic(errors.AssertionFailedf("write to closed buffer"))
	}
	return b.buf
}

func (b *Buffer) Write(p []byte) (int, error) { return b.open().Write(p) }

func (b *Buffer) WriteByte(c byte) error { return b.open().WriteByte(c) }

func (b *Buffer) WriteString(s string) (int, error) { return b.open().WriteString(s) }

// Printf writes formatted text.
func (b *Buffer) Printf(format string, args ...any) { fmt.Fprintf(b.open(), format, args...) }

// Err always returns nil; memory writes cannot fail.
func (b *Buffer) Err() error { return nil }

// Len returns the number of bytes written.
func (b *Buffer) Len() int {
	if b.closed {
		return len(b.final)
	}
	return b.buf.Len()
}

// Reset discards the contents of an open buffer.
func (b *Buffer) Reset() { b.open().Reset() }

// String returns the contents.
func (b *Buffer) String() string {
	if b.closed {
		return b.final
	}
	return b.buf.String()
}

// Bytes returns a copy of the contents.
func (b *Buffer) Bytes() []byte {
	if b.closed {
		return []byte(b.final)
	}
	return append([]byte(nil), b.buf.B...)
}

// Close finalizes the buffer.
func (b *Buffer) Close() error {
	if b.closed {
		return nil
	}
	b.final = b.buf.String()
	bytebufferpool.Put(b.buf)
	b.buf = nil
	b.closed = true
	return nil
}

// --- Streams and files ---

// Stream is a buffered sink over an io.Writer.
type Stream struct {
	name   string
	w      *bufio.Writer
	c      io.Closer
	err    error
	closed bool
}

// NewStream returns a sink writing to w. The stream never closes w.
func NewStream(w io.Writer) *Stream {
	return &Stream{name: fmt.Sprintf("%T", w), w: bufio.NewWriter(w)}
}

// OpenFile creates or truncates the file at path and returns a sink writing
// to it. The path "-" selects standard output, which is flushed but not
// closed.
func OpenFile(path string) (*Stream, error) {
	if path == "-" {
		return &Stream{name: "stdout", w: bufio.NewWriter(os.Stdout)}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return &Stream{name: path, w: bufio.NewWriter(f), c: f}, nil
}

func (s *Stream) record(err error) {
	if err != nil && s.err == nil {
		s.err = errors.Wrapf(err, "write %s", s.name)
	}
}

func (s *Stream) Write(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	n, err := s.w.Write(p)
	s.record(err)
	return n, s.err
}

func (s *Stream) WriteByte(c byte) error {
	if s.err != nil {
		return s.err
	}
	s.record(s.w.WriteByte(c))
	return s.err
}

func (s *Stream) WriteString(str string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	n, err := s.w.WriteString(str)
	s.record(err)
	return n, s.err
}

// Printf writes formatted text.
func (s *Stream) Printf(format string, args ...any) {
	if s.err != nil {
		return
	}
	_, err := fmt.Fprintf(s.w, format, args...)
	s.record(err)
}

// Err returns the first write error.
func (s *Stream) Err() error { return s.err }

// Close flushes buffered output and closes the underlying file, if owned.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.err
	if err == nil {
		if ferr := s.w.Flush(); ferr != nil {
			err = errors.Wrapf(ferr, "flush %s", s.name)
		}
	}
	if s.c != nil {
		if cerr := s.c.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %s", s.name)
		}
	}
	return err
}

// --- Logging ---

// LogSink collects the document in memory and, on Close, writes it to a
// logger at info level, one entry per line.
type LogSink struct {
	*Buffer
	logger *zap.Logger
}

// NewLogSink returns a sink logging to logger. A nil logger discards output.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{Buffer: NewBuffer(), logger: logger}
}

// Close logs the collected document.
func (l *LogSink) Close() error {
	if l.closed {
		return nil
	}
	if err := l.Buffer.Close(); err != nil {
		return err
	}
	doc := strings.TrimRight(l.String(), "\n")
	if doc == "" {
		return nil
	}
	for _, line := range strings.Split(doc, "\n") {
		l.logger.Info(line)
	}
	return nil
}
