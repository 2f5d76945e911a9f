package textformat_test

import (
	"io/fs"
	"syscall"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bjaus/textformat"
)

func TestOpenErrors(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		selection string
		sentinel  error
	}{
		"unknown format":      {selection: "xml", sentinel: textformat.ErrUnsupportedFormat},
		"empty name":          {selection: "=compact=1", sentinel: textformat.ErrUnsupportedFormat},
		"unknown option":      {selection: "json=pretty=1", sentinel: textformat.ErrInvalidOption},
		"bad boolean":         {selection: "json=compact=maybe", sentinel: textformat.ErrInvalidOption},
		"malformed list":      {selection: "default=:nk=1", sentinel: textformat.ErrInvalidOption},
		"bad policy":          {selection: "default=sv=strict", sentinel: textformat.ErrInvalidOption},
		"bad replacement":     {selection: "default=svr=\xFF", sentinel: textformat.ErrInvalidOption},
		"long separator":      {selection: "compact=s=||", sentinel: textformat.ErrInvalidOption},
		"unknown escape mode": {selection: "compact=e=shell", sentinel: textformat.ErrInvalidOption},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			c, err := textformat.Builtin().Open(tt.selection, textformat.NewBuffer(), testSchema(t))
			require.Error(t, err)
			assert.Nil(t, c)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)
		})
	}
}

func TestOpenRequiresSinkAndSchema(t *testing.T) {
	t.Parallel()
	_, err := textformat.Open(textformat.JSONFormat(), "", nil, testSchema(t))
	assert.True(t, errors.Is(err, textformat.ErrInvalidOption))
	_, err = textformat.Open(textformat.JSONFormat(), "", textformat.NewBuffer(), nil)
	assert.True(t, errors.Is(err, textformat.ErrInvalidOption))
}

func TestOpenMaxDepthRange(t *testing.T) {
	t.Parallel()
	for _, n := range []int{0, textformat.MaxDepth + 1} {
		_, err := textformat.Open(textformat.DefaultFormat(), "", textformat.NewBuffer(), testSchema(t),
			textformat.WithMaxDepth(n))
		assert.True(t, errors.Is(err, textformat.ErrInvalidOption), "depth %d", n)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()
	c, buf := openBuffer(t, "json")
	c.SectionHeader(secRoot)
	c.Int("Width", 1920)
	c.SectionFooter()
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, "{\n    \"Width\": 1920\n}\n", buf.String())
}

func TestClosedContextPanics(t *testing.T) {
	t.Parallel()
	c, _ := openBuffer(t, "default")
	require.NoError(t, c.Close())
	assert.Panics(t, func() { c.SectionHeader(secRoot) })
}

func TestStructuralMisusePanics(t *testing.T) {
	t.Parallel()
	tests := map[string]func(c *textformat.Context){
		"footer without header": func(c *textformat.Context) { c.SectionFooter() },
		"field outside section": func(c *textformat.Context) { c.Int("x", 1) },
		"unknown section":       func(c *textformat.Context) { c.SectionHeader(99) },
		"undeclared child": func(c *textformat.Context) {
			c.SectionHeader(secRoot)
			c.SectionHeader(secLink)
		},
		"error section not a child": func(c *textformat.Context) {
			c.SectionHeader(secLinks)
			c.SectionHeader(secLink)
			_ = c.WriteErrorMsg(1, "boom")
		},
	}
	for name, fn := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			c, _ := openBuffer(t, "default")
			assert.Panics(t, func() { fn(c) })
		})
	}
}

func TestDepthLimitPanics(t *testing.T) {
	t.Parallel()
	c, _ := openBuffer(t, "default", textformat.WithMaxDepth(3))
	c.SectionHeader(secRoot)
	c.SectionHeader(secFilters)
	c.SectionHeader(secFilter)
	assert.Panics(t, func() { c.SectionHeader(secDevice) })
}

func TestContextState(t *testing.T) {
	t.Parallel()
	c, _ := openBuffer(t, "default")
	assert.Equal(t, -1, c.Level())
	assert.Nil(t, c.Section())
	assert.Nil(t, c.Parent())

	c.SectionHeader(secRoot)
	c.SectionHeader(secFilters)
	c.SectionHeader(secFilter)
	assert.Equal(t, 2, c.Level())
	assert.Equal(t, "Filter", c.Section().Name)
	assert.Equal(t, "Filters", c.Parent().Name)
	_ = c.String("Name", "scale", 0)
	c.Int("Width", 1)
	assert.Equal(t, 2, c.Items(2))
	assert.Equal(t, 0, c.Items(1))

	c.SectionFooter()
	assert.Equal(t, 1, c.Items(1))
	assert.Equal(t, 1, c.Level())
	c.SectionFooter()
	c.SectionFooter()
	assert.Equal(t, -1, c.Level())
	require.NoError(t, c.Close())
}

func TestFieldHelpers(t *testing.T) {
	t.Parallel()
	got := render(t, "default", func(c *textformat.Context) {
		c.SectionHeader(secLink)
		c.Rational("SAR", textformat.Rational{Num: 16, Den: 9}, ':')
		c.Rational("TimeBase", textformat.Rational{Num: 1, Den: 25}, '/')
		c.Printf("Size", "%dx%d", 1920, 1080)
		c.Timestamp("Pts", 3600, false)
		c.Timestamp("Unset", textformat.NoTimestamp, false)
		c.Timestamp("Duration", 0, true)
		c.Int("Negative", -42)
		c.GUID("Adapter", textformat.GUID{
			Data1: 0x6b29fc40, Data2: 0xca47, Data3: 0x1067,
			Data4: [8]byte{0xb3, 0x1d, 0x00, 0xdd, 0x01, 0x06, 0x62, 0xda},
		})
		c.SectionFooter()
	})
	assert.Equal(t, `[LINK]
SAR=16:9
TimeBase=1/25
Size=1920x1080
Pts=3600
Unset=N/A
Duration=N/A
Negative=-42
Adapter={6b29fc40-ca47-1067-b31d-00dd010662da}
[/LINK]
`, got)
}

func TestFieldHelpersSkipValidation(t *testing.T) {
	t.Parallel()
	got := render(t, "default=sv=fail", func(c *textformat.Context) {
		c.SectionHeader(secLink)
		c.Printf("Dest", "%s", "a\xFFb")
		c.Timestamp("Pts", textformat.NoTimestamp, false)
		c.SectionFooter()
	})
	assert.Equal(t, "[LINK]\nDest=a\xFFb\nPts=N/A\n[/LINK]\n", got)
}

func TestTimestampUnsetHiddenInJSON(t *testing.T) {
	t.Parallel()
	got := render(t, "json", func(c *textformat.Context) {
		c.SectionHeader(secRoot)
		c.Timestamp("Unset", textformat.NoTimestamp, false)
		c.Timestamp("Pts", 10, false)
		c.SectionFooter()
	})
	assert.Equal(t, "{\n    \"Pts\": 10\n}\n", got)
}

func TestEntryFiltering(t *testing.T) {
	t.Parallel()
	table := testTable()
	table[secLink].Entries = []string{"Dest"}
	schema, err := textformat.NewSchema(table)
	require.NoError(t, err)

	emit := func() string {
		buf := textformat.NewBuffer()
		c, err := textformat.Open(textformat.DefaultFormat(), "", buf, schema)
		require.NoError(t, err)
		c.SectionHeader(secLink)
		_ = c.String("Dest", "out", 0)
		_ = c.String("Hidden", "x", 0)
		c.Int("HiddenInt", 1)
		c.SectionFooter()
		require.NoError(t, c.Close())
		return buf.String()
	}
	assert.Equal(t, "[LINK]\nDest=out\n[/LINK]\n", emit())
	schema.ShowAllEntries()
	assert.Equal(t, "[LINK]\nDest=out\nHidden=x\nHiddenInt=1\n[/LINK]\n", emit())
}

func TestStringValidationPolicies(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		selection string
		want      string
		wantErr   bool
	}{
		"replace default":     {selection: "default", want: "[LINK]\nDest=a�b\n[/LINK]\n"},
		"replace custom":      {selection: "default=svr=?", want: "[LINK]\nDest=a?b\n[/LINK]\n"},
		"ignore":              {selection: "default=sv=ignore", want: "[LINK]\nDest=ab\n[/LINK]\n"},
		"fail prints nothing": {selection: "default=string_validation=fail", want: "[LINK]\n[/LINK]\n", wantErr: true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			c, buf := openBuffer(t, tt.selection)
			c.SectionHeader(secLink)
			err := c.String("Dest", "a\xC0\x80b", textformat.PrintValidate)
			if tt.wantErr {
				assert.Zero(t, c.Items(0))
			}
			c.SectionFooter()
			require.NoError(t, c.Close())
			assert.Equal(t, tt.want, buf.String())
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, textformat.ErrInvalidEncoding))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestUnvalidatedStringsPassThrough(t *testing.T) {
	t.Parallel()
	got := render(t, "default", func(c *textformat.Context) {
		c.SectionHeader(secLink)
		_ = c.String("Dest", "a\xFFb", 0)
		c.SectionFooter()
	})
	assert.Equal(t, "[LINK]\nDest=a\xFFb\n[/LINK]\n", got)
}

func TestValidationLogging(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	c, _ := openBuffer(t, "json", textformat.WithLogger(logger))
	c.SectionHeader(secRoot)
	require.NoError(t, c.String("Dest", "a\x80b\x80", textformat.PrintValidate))
	c.SectionFooter()
	require.NoError(t, c.Close())

	warns := logs.FilterMessage("invalid UTF-8 sequences replaced").All()
	require.Len(t, warns, 1)
	assert.Equal(t, zapcore.WarnLevel, warns[0].Level)
	assert.Equal(t, int64(2), warns[0].ContextMap()["count"])
	assert.Equal(t, "json", warns[0].ContextMap()["format"])

	core, logs = observer.New(zapcore.DebugLevel)
	c, _ = openBuffer(t, "json=sv=fail", textformat.WithLogger(zap.New(core)))
	c.SectionHeader(secRoot)
	require.Error(t, c.String("Dest", "\xC0\x80", textformat.PrintValidate))
	c.SectionFooter()
	require.NoError(t, c.Close())
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestWithValidatorOverridesOptions(t *testing.T) {
	t.Parallel()
	c, buf := openBuffer(t, "default=sv=fail",
		textformat.WithValidator(textformat.Validator{Policy: textformat.ValidationReplace, Replacement: "#"}))
	c.SectionHeader(secLink)
	require.NoError(t, c.String("Dest", "\xFF", textformat.PrintValidate))
	c.SectionFooter()
	require.NoError(t, c.Close())
	assert.Equal(t, "[LINK]\nDest=#\n[/LINK]\n", buf.String())
}

type codedError struct{ code int }

func (e codedError) Error() string { return "coded failure" }
func (e codedError) Code() int     { return e.code }

func TestErrorCode(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 42, textformat.ErrorCode(errors.Wrap(codedError{code: 42}, "ctx")))
	assert.Equal(t, -int(syscall.ENOENT), textformat.ErrorCode(&fs.PathError{Op: "open", Path: "x", Err: syscall.ENOENT}))
	assert.Equal(t, -1, textformat.ErrorCode(errors.New("plain")))
}

func TestWriteError(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		selection string
		want      string
	}{
		"default": {
			selection: "default",
			want: `[FILTER]
Name=scale
ERROR:Number=-22
ERROR:Message=invalid argument
[/FILTER]
`,
		},
		"json": {
			selection: "json",
			want: `{
    "Name": "scale",
    "Error": {
        "Number": -22,
        "Message": "invalid argument"
    }
}
`,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := render(t, tt.selection, func(c *textformat.Context) {
				c.SectionHeader(secFilter)
				_ = c.String("Name", "scale", 0)
				require.NoError(t, c.WriteError(syscall.EINVAL))
				c.SectionFooter()
			})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteErrorfAtRoot(t *testing.T) {
	t.Parallel()
	got := render(t, "flat", func(c *textformat.Context) {
		c.SectionHeader(secRoot)
		require.NoError(t, c.WriteErrorf(-5, "graph %d failed: %s", 2, "I/O"))
		c.SectionFooter()
	})
	assert.Equal(t, "Error.Number=-5\nError.Message=\"graph 2 failed: I/O\"\n", got)
}

func TestWriteErrorInvalidMessage(t *testing.T) {
	t.Parallel()
	c, buf := openBuffer(t, "default=sv=fail")
	c.SectionHeader(secFilter)
	err := c.WriteErrorMsg(-1, "bad \xFF message")
	require.Error(t, err)
	assert.True(t, errors.Is(err, textformat.ErrInvalidEncoding))
	assert.Equal(t, 0, c.Level())
	c.SectionFooter()
	require.NoError(t, c.Close())
	assert.Equal(t, "[FILTER]\nERROR:Number=-1\n[/FILTER]\n", buf.String())
}

func TestCloseReportsSinkError(t *testing.T) {
	t.Parallel()
	c, err := textformat.Open(textformat.DefaultFormat(), "", textformat.NewStream(&errWriter{}), testSchema(t))
	require.NoError(t, err)
	c.SectionHeader(secFilter)
	_ = c.String("Name", "scale", 0)
	c.SectionFooter()
	err = c.Close()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errWriteFailed))
}
