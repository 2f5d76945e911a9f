package main

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// config is the resolved configuration of one invocation. Values come from
// flags, GRAPHPRINT_* environment variables and an optional graphprint.yaml,
// in that order of precedence.
type config struct {
	Format           string `mapstructure:"format"`
	Output           string `mapstructure:"output"`
	Log              bool   `mapstructure:"log"`
	ShowAllEntries   bool   `mapstructure:"show_all_entries"`
	Workers          int    `mapstructure:"workers"`
	StringValidation string `mapstructure:"string_validation"`
	Verbose          bool   `mapstructure:"verbose"`
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	root := &cobra.Command{
		Use:   "graphprint",
		Short: "Print filter graph descriptions as structured text",
		Long: `graphprint reads filter graph descriptions in YAML and prints them in one
of several structured text formats: default, json, compact, csv, flat or ini.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "config file (default ./graphprint.yaml)")
	root.PersistentFlags().BoolP("verbose", "v", false, "log diagnostics to stderr")
	_ = v.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))

	root.AddCommand(newPrintCmd(v), newFormatsCmd())
	return root
}

func loadConfig(cmd *cobra.Command, v *viper.Viper) (*config, error) {
	v.SetEnvPrefix("GRAPHPRINT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault("format", "default")
	v.SetDefault("output", "-")

	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("graphprint")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	return &cfg, nil
}

// newLogger logs warnings to stderr, info as well when the document itself
// goes to the log, and everything in verbose mode.
func newLogger(cfg *config) (*zap.Logger, error) {
	if cfg.Verbose {
		return zap.NewDevelopment()
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if cfg.Log {
		zc.Level.SetLevel(zap.InfoLevel)
	}
	zc.Encoding = "console"
	zc.DisableStacktrace = true
	return zc.Build()
}
