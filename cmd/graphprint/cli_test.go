package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/textformat"
)

const sampleGraphs = `
graphs:
  - index: 0
    description: "null"
    filters:
      - name: "Parsed_null_0"
        type: "null"
`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFormatsCommand(t *testing.T) {
	t.Parallel()
	out, err := execute(t, "", "formats")
	require.NoError(t, err)
	for _, name := range textformat.Builtin().Names() {
		assert.Contains(t, out, name)
		assert.Contains(t, out, formatOptions[name])
	}
	assert.Contains(t, out, "string_validation|sv")
}

func TestPrintCommand(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		args []string
		want string
	}{
		"default": {
			args: []string{"print"},
			want: `[GRAPH]
GraphIndex=0
Description=null
[FILTER]
Name=Parsed_null_0
Name2=null
Description=N/A
[/FILTER]
[/GRAPH]
`,
		},
		"compact": {
			args: []string{"print", "-", "--format", "compact=nk=1"},
			want: "Graph|0|null\nFilter|Parsed_null_0|null\n",
		},
		"flat with options": {
			args: []string{"print", "-f", "flat=s=_:h=0"},
			want: `Graph_0_GraphIndex=0
Graph_0_Description="null"
Graph_0_Filter_0_Name="Parsed_null_0"
Graph_0_Filter_0_Name2="null"
`,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			out, err := execute(t, sampleGraphs, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestPrintJSONFromFiles(t *testing.T) {
	t.Parallel()
	a := writeFile(t, "a.yaml", sampleGraphs)
	b := writeFile(t, "b.yaml", `
program_version:
  version: "7.1"
graphs:
  - index: 1
    description: "anull"
`)
	out, err := execute(t, "", "print", a, b, "--format", "json", "-j", "2")
	require.NoError(t, err)

	var doc struct {
		ProgramVersion map[string]string
		Graphs         []struct {
			GraphIndex  int
			Description string
		}
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc), out)
	assert.Equal(t, "7.1", doc.ProgramVersion["Version"])
	require.Len(t, doc.Graphs, 2)
	assert.Equal(t, "anull", doc.Graphs[1].Description)
}

func TestPrintToFile(t *testing.T) {
	t.Parallel()
	in := writeFile(t, "graphs.yaml", sampleGraphs)
	path := filepath.Join(t.TempDir(), "graphs.ini")
	out, err := execute(t, "", "print", in, "--format", "ini", "--output", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(got), "# GraphDescription\n\n[Graphs.Graph.0]\n"), string(got))
}

func TestPrintConfigFile(t *testing.T) {
	t.Parallel()
	cfg := writeFile(t, "graphprint.yaml", "format: csv\nshow_all_entries: true\n")
	out, err := execute(t, sampleGraphs, "print", "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "Graph,0,null\nFilter,Parsed_null_0,null\n", out)

	out, err = execute(t, sampleGraphs, "print", "--config", cfg, "--format", "compact=p=0")
	require.NoError(t, err)
	assert.Equal(t, "GraphIndex=0|Description=null\nName=Parsed_null_0|Name2=null\n", out)
}

func TestPrintStringValidation(t *testing.T) {
	t.Parallel()
	// U+FFFF is a noncharacter: YAML accepts the escape, the validator does not.
	const graphs = `
graphs:
  - index: 0
    description: "\uFFFF"
`
	tests := map[string]struct {
		args []string
		want string
	}{
		"format replacement": {
			args: []string{"print", "--format", "default=svr=?"},
			want: "Description=?\n",
		},
		"format policy": {
			args: []string{"print", "--format", "default=sv=fail"},
			want: "ERROR:Number=-1\n",
		},
		"flag overrides format policy": {
			args: []string{"print", "--format", "default=sv=fail", "--sv", "replace"},
			want: "Description=\uFFFD\n",
		},
		"flag keeps format replacement": {
			args: []string{"print", "--format", "default=sv=fail:svr=?", "--sv", "replace"},
			want: "Description=?\n",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			out, err := execute(t, graphs, tt.args...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestPrintErrors(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		stdin string
		args  []string
		is    error
		msg   string
	}{
		"unknown format": {
			args: []string{"print", "--format", "xml"},
			is:   textformat.ErrUnsupportedFormat,
		},
		"bad format option": {
			args: []string{"print", "--format", "json=indent=2"},
			is:   textformat.ErrInvalidOption,
		},
		"bad validation mode": {
			args: []string{"print", "--sv", "strict"},
			is:   textformat.ErrInvalidOption,
		},
		"missing file": {
			args: []string{"print", filepath.Join(os.TempDir(), "no-such-graphprint-input.yaml")},
			is:   os.ErrNotExist,
		},
		"bad document": {
			stdin: "graphs: {",
			args:  []string{"print"},
			msg:   "standard input",
		},
		"bad config": {
			args: []string{"print", "--config", "/nonexistent/graphprint.yaml"},
			msg:  "read config",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := execute(t, tt.stdin, tt.args...)
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
