// Package textformat renders a tree of sections and key-value fields in
// several structured text formats.
//
// A [Schema] declares the section tree: every section's name, whether it is
// a wrapper or an array, and which sections may open inside it. A producer
// drives a [Context] with matched [Context.SectionHeader] and
// [Context.SectionFooter] calls and prints fields in between; the context
// hands each event to the selected format's [Emitter], which renders into a
// [Sink].
//
//	c, err := textformat.Builtin().Open("json=compact=1", textformat.NewBuffer(), schema)
//	c.SectionHeader(root)
//	c.Int("Width", 1920)
//	c.SectionFooter()
//	err = c.Close()
//
// # Formats
//
// [Builtin] registers:
//
//   - default: [SECTION] blocks with key=value lines
//   - json: nested objects and arrays, compact=1 for one-line objects
//   - compact, csv: one line per section
//   - flat: path.to.key="value" lines
//   - ini: [path.to.section] groups
//
// A format is selected with a "name[=key=value:key=value]" string; see
// [Registry.Select] and [ParseOptions]. Custom formats implement [Emitter]
// and may add [Initializer], [Finisher] or [Resumable].
//
// # Strings
//
// Fields printed with [PrintValidate] pass through a [Validator] first. The
// policy is chosen with string_validation (sv) as fail, replace or ignore;
// string_validation_replacement (svr) sets the replacement for invalid UTF-8
// sequences. Fields printed with [PrintOptional] appear only in formats
// declaring [DisplayOptionalFields].
//
// # Sinks
//
// [Buffer] accumulates in memory, [Stream] writes to a file or any
// io.Writer, and [LogSink] hands the finished document to a zap logger.
//
// # Fragments
//
// Large documents can be rendered in parallel. A [FragmentSpec] renders one
// section body into a [Fragment] on its own goroutine; a single context then
// splices the fragments back in order with [Context.Splice] or [Assemble].
// The result is identical to a single sequential pass.
//
// # Errors
//
// Configuration problems are returned as errors marked with
// [ErrUnsupportedFormat] or [ErrInvalidOption]; rejected strings with
// [ErrInvalidEncoding]. Misuse of the section API, such as an unbalanced
// footer or exceeding [MaxDepth], panics with an assertion failure.
// [Context.WriteError] prints an error as an inline Error section so a
// document stays well-formed after a partial failure.
package textformat
