package textformat

import (
	"fmt"
	"syscall"

	"github.com/cockroachdb/errors"
)

// ErrorSectionName is the schema section that error reports are printed in.
// It carries the fields Number and Message.
const ErrorSectionName = "Error"

// Coder is implemented by errors that carry a numeric code.
type Coder interface {
	Code() int
}

// ErrorCode returns the numeric code of err: the code of the first [Coder] in
// its chain, the negated errno for system errors, or -1.
func ErrorCode(err error) int {
	var c Coder
	if errors.As(err, &c) {
		return c.Code()
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return -int(errno)
	}
	return -1
}

// WriteError prints err as an Error section inside the current section so a
// failure met half way through a dump still yields a well-formed document.
func (c *Context) WriteError(err error) error {
	return c.WriteErrorMsg(ErrorCode(err), err.Error())
}

// WriteErrorf prints an Error section with a formatted message.
func (c *Context) WriteErrorf(code int, format string, args ...any) error {
	return c.WriteErrorMsg(code, fmt.Sprintf(format, args...))
}

// WriteErrorMsg prints an Error section with the given code and message.
// The section is always closed; the returned error reports a message the
// validator rejected.
func (c *Context) WriteErrorMsg(code int, msg string) error {
	id, ok := c.schema.ByName(ErrorSectionName)
	if !ok {
		panic(errors.AssertionFailedf("schema has no %s section", ErrorSectionName))
	}
	c.SectionHeader(id)
	c.Int("Number", int64(code))
	err := c.String("Message", msg, PrintValidate)
	c.SectionFooter()
	return err
}
