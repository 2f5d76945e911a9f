package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bjaus/textformat"
)

var formatOptions = map[string]string{
	"default": "noprint_wrappers|nw, nokey|nk",
	"json":    "compact|c",
	"compact": "item_sep|s, nokey|nk, escape|e, print_section|p",
	"csv":     "item_sep|s, nokey|nk, escape|e, print_section|p",
	"flat":    "sep_char|s, hierarchical|h",
	"ini":     "hierarchical|h",
}

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the available output formats and their options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name := color.New(color.FgCyan, color.Bold)
			dim := color.New(color.Faint)
			out := cmd.OutOrStdout()
			for _, f := range textformat.Builtin().Names() {
				name.Fprintf(out, "%-8s", f)
				dim.Fprintln(out, " "+formatOptions[f])
			}
			dim.Fprintln(out, "all formats: string_validation|sv, string_validation_replacement|svr")
			return nil
		},
	}
}
