package main

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/bjaus/textformat"
	"github.com/bjaus/textformat/graph"
)

func newPrintCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "print [file...]",
		Short: "Print graph descriptions",
		Long: `Print reads one or more YAML graph descriptions, standard input when none
is given or for "-", and prints their graphs as one document.`,
		Example: `  graphprint print graphs.yaml --format json=compact=1
  graphprint print a.yaml b.yaml --format flat=sep_char=_ --output graphs.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return errors.Wrap(err, "build logger")
			}
			defer func() { _ = logger.Sync() }()
			return runPrint(cmd, cfg, logger, args)
		},
	}
	f := cmd.Flags()
	f.StringP("format", "f", "default", `output format as name[=key=value:...], e.g. "json=compact=1"`)
	f.StringP("output", "o", "-", `output file, "-" for standard output`)
	f.Bool("log", false, "write the document to the log instead of the output")
	f.Bool("show-all-entries", false, "print every field regardless of section entry lists")
	f.IntP("workers", "j", 0, "graphs rendered at once, 0 for no limit")
	f.String("sv", "", "invalid UTF-8 handling: fail, replace or ignore; overrides sv in --format")
	for key, flag := range map[string]string{
		"format":            "format",
		"output":            "output",
		"log":               "log",
		"show_all_entries":  "show-all-entries",
		"workers":           "workers",
		"string_validation": "sv",
	} {
		_ = v.BindPFlag(key, f.Lookup(flag))
	}
	return cmd
}

func runPrint(cmd *cobra.Command, cfg *config, logger *zap.Logger, files []string) error {
	opts := []graph.PrinterOption{graph.WithWorkers(cfg.Workers), graph.WithLogger(logger)}
	if cfg.StringValidation != "" {
		v, err := validator(cfg)
		if err != nil {
			return err
		}
		opts = append(opts, graph.WithContextOptions(textformat.WithValidator(v)))
	}
	doc, err := loadDocuments(cmd, files)
	if err != nil {
		return err
	}

	schema := graph.NewSchema()
	if cfg.ShowAllEntries {
		schema.ShowAllEntries()
	}
	p, err := graph.NewPrinter(textformat.Builtin(), cfg.Format, schema, opts...)
	if err != nil {
		return err
	}

	var sink textformat.Sink
	if cfg.Log {
		sink = textformat.NewLogSink(logger.Named("graphs"))
	} else if cfg.Output == "-" {
		sink = textformat.NewStream(cmd.OutOrStdout())
	} else if sink, err = textformat.OpenSink(textformat.SinkFile, cfg.Output, logger); err != nil {
		return err
	}
	logger.Debug("printing graphs", zap.String("format", p.Format().Name),
		zap.Int("graphs", len(doc.Graphs)), zap.String("output", cfg.Output))
	return p.Print(cmd.Context(), doc, sink)
}

// validator builds the --sv policy. The replacement still comes from the
// format arguments.
func validator(cfg *config) (textformat.Validator, error) {
	policy, err := textformat.ParseValidationPolicy(cfg.StringValidation)
	if err != nil {
		return textformat.Validator{}, err
	}
	v := textformat.Validator{Policy: policy}
	_, args := textformat.ParseSelection(cfg.Format)
	if o, err := textformat.ParseOptions(args); err == nil {
		v.Replacement = o.String("", "string_validation_replacement", "svr")
	}
	return v, nil
}

// loadDocuments reads every file and merges them: graphs and logs are
// concatenated, the first program version wins.
func loadDocuments(cmd *cobra.Command, files []string) (*graph.Document, error) {
	if len(files) == 0 {
		files = []string{"-"}
	}
	merged := &graph.Document{}
	for _, name := range files {
		doc, err := loadDocument(cmd, name)
		if err != nil {
			return nil, err
		}
		if merged.Program == nil {
			merged.Program = doc.Program
		}
		merged.Graphs = append(merged.Graphs, doc.Graphs...)
		merged.Logs = append(merged.Logs, doc.Logs...)
	}
	return merged, nil
}

func loadDocument(cmd *cobra.Command, name string) (*graph.Document, error) {
	if name == "-" {
		doc, err := graph.Load(cmd.InOrStdin())
		return doc, errors.Wrap(err, "standard input")
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "open graph description")
	}
	defer f.Close()
	doc, err := graph.Load(f)
	return doc, errors.Wrapf(err, "%s", name)
}
