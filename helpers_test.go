package textformat_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bjaus/textformat"
)

// --- Test schema ---

const (
	secRoot textformat.SectionID = iota
	secVersion
	secFilters
	secFilter
	secDevice
	secError
	secLinks
	secLink
)

func testTable() []textformat.Section {
	return []textformat.Section{
		{ID: secRoot, Name: "Root", Flags: textformat.SectionWrapper,
			Children: []textformat.SectionID{secVersion, secFilters, secError}},
		{ID: secVersion, Name: "Version"},
		{ID: secFilters, Name: "Filters", Flags: textformat.SectionArray, ElementName: "Filter",
			Children: []textformat.SectionID{secFilter, secError}},
		{ID: secFilter, Name: "Filter",
			Children: []textformat.SectionID{secDevice, secLinks, secError}},
		{ID: secDevice, Name: "Device", Children: []textformat.SectionID{secError}},
		{ID: secError, Name: textformat.ErrorSectionName},
		{ID: secLinks, Name: "Links", Flags: textformat.SectionArray,
			Children: []textformat.SectionID{secLink}},
		{ID: secLink, Name: "Link"},
	}
}

func testSchema(t *testing.T) *textformat.Schema {
	t.Helper()
	s, err := textformat.NewSchema(testTable())
	require.NoError(t, err)
	return s
}

// openBuffer opens a context on a fresh memory buffer.
func openBuffer(t *testing.T, selection string, opts ...textformat.Option) (*textformat.Context, *textformat.Buffer) {
	t.Helper()
	buf := textformat.NewBuffer()
	c, err := textformat.Builtin().Open(selection, buf, testSchema(t), opts...)
	require.NoError(t, err)
	return c, buf
}

// render runs fn against a fresh context and returns the closed document.
func render(t *testing.T, selection string, fn func(c *textformat.Context)) string {
	t.Helper()
	c, buf := openBuffer(t, selection)
	fn(c)
	require.NoError(t, c.Close())
	return buf.String()
}

// writeFilter prints the body of the first sample filter.
func writeFilter(c *textformat.Context, name string, links ...string) {
	_ = c.String("Name", name, 0)
	if len(links) == 0 {
		return
	}
	c.Int("Width", 1920)
	c.SectionHeader(secDevice)
	_ = c.String("Type", "cuda", 0)
	c.SectionFooter()
	c.SectionHeader(secLinks)
	for _, l := range links {
		c.SectionHeader(secLink)
		_ = c.String("Dest", l, 0)
		c.SectionFooter()
	}
	c.SectionFooter()
}

// writeSample prints a small document exercising wrappers, arrays, nested
// sections and sibling separators.
func writeSample(c *textformat.Context) {
	c.SectionHeader(secRoot)
	c.SectionHeader(secVersion)
	c.Int("Major", 7)
	_ = c.String("Tag", "n7", 0)
	c.SectionFooter()
	c.SectionHeader(secFilters)
	c.SectionHeader(secFilter)
	writeFilter(c, "scale", "out", "null")
	c.SectionFooter()
	c.SectionHeader(secFilter)
	writeFilter(c, "null")
	c.SectionFooter()
	c.SectionFooter()
	c.SectionFooter()
}

// --- Sink fakes ---

type errWriter struct{}

func (e *errWriter) Write([]byte) (int, error) {
	return 0, errWriteFailed
}

// failAfterN fails on the (n+1)th call to Write.
type failAfterN struct {
	n     int
	calls int
}

func (f *failAfterN) Write(p []byte) (int, error) {
	if f.calls >= f.n {
		return 0, errWriteFailed
	}
	f.calls++
	return len(p), nil
}
