// Package cmd is the CLI surface: flag parsing and validation, the
// optional config file, and translation into pipeline options.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/genuss/jl/internal/model"
	"github.com/genuss/jl/internal/parser"
	"github.com/genuss/jl/internal/pipeline"
	"github.com/genuss/jl/internal/render"
	"github.com/genuss/jl/internal/timestamp"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "jl [files...]",
	Short: "jl — JSON log pretty-printer",
	Long: `jl reads JSON log lines from stdin or files and renders them as
human-readable, colorized terminal output. It auto-detects Logstash,
Logrus and Bunyan schemas and falls back to common field name guessing.

Examples:
  kubectl logs my-pod | jl
  jl --min-level warn app.log
  jl --follow /var/log/app/current.log
  jl "/var/log/app/**/*.log" --non-json skip`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

// Execute runs the root command, printing one diagnostic line and
// exiting non-zero on fatal errors.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "jl:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.Flags()
	flags.StringP("format", "f", "{timestamp} {level} [{logger}] {message}",
		"output template; {field} placeholders, {{ and }} for literal braces")
	flags.String("add-fields", "", "comma-separated extra fields to append")
	flags.String("omit-fields", "", "comma-separated extra fields to suppress")
	flags.String("color", "auto", "colorize output: auto, always, never")
	flags.String("non-json", "passthrough", "non-JSON line handling: passthrough, skip, fail")
	flags.String("schema", "auto", "log schema: auto, logstash, logrus, bunyan, generic")
	flags.String("logger-format", "short-dots", "logger display: short-dots, as-is")
	flags.Int("logger-length", 30, "max logger display length, 0 for unlimited")
	flags.String("ts-format", "time", "timestamp display: time, full")
	flags.String("min-level", "", "hide records below this level")
	flags.Bool("raw-json", false, "emit the original JSON instead of formatted text")
	flags.Bool("expanded", false, "print extra fields one per line")
	flags.String("key-color", "magenta", "color for extra field keys")
	flags.String("value-color", "cyan", "color for extra field values")
	flags.String("tz", "local", "timezone for timestamps: local, utc, or an IANA name")
	flags.Bool("follow", false, "keep reading the last file as it grows, like tail -f")
	flags.StringP("output", "o", "", "write output to a file instead of stdout")
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.jl.yaml)")

	rootCmd.MarkFlagsMutuallyExclusive("add-fields", "omit-fields")

	_ = viper.BindPFlags(flags)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return
		}
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".jl")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("JL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

func run(cmd *cobra.Command, args []string) error {
	opts, err := buildOptions(args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	return pipeline.Run(ctx, opts)
}

// signalContext derives a context cancelled by SIGINT/SIGTERM. It also
// ignores SIGPIPE: without that the runtime kills the process on an
// EPIPE write to stdout, and a closed downstream consumer must instead
// surface as a write error that ends the run cleanly.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	signal.Ignore(syscall.SIGPIPE)

	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

// buildOptions translates flag/config values into pipeline options,
// with validation for every enum-valued setting. Values come through
// viper so the config file can supply defaults while explicit flags win.
func buildOptions(args []string) (pipeline.Options, error) {
	var opts pipeline.Options
	var err error

	opts.Format = viper.GetString("format")
	opts.AddFields = viper.GetString("add-fields")
	opts.OmitFields = viper.GetString("omit-fields")
	opts.LoggerLength = viper.GetInt("logger-length")
	opts.RawJSON = viper.GetBool("raw-json")
	opts.Expanded = viper.GetBool("expanded")
	opts.Timezone = viper.GetString("tz")
	opts.Follow = viper.GetBool("follow")
	opts.OutputPath = viper.GetString("output")

	if opts.AddFields != "" && opts.OmitFields != "" {
		return opts, fmt.Errorf("--add-fields and --omit-fields are mutually exclusive")
	}

	if opts.Color, err = parseColorMode(viper.GetString("color")); err != nil {
		return opts, err
	}
	if opts.NonJSON, err = parseNonJSONMode(viper.GetString("non-json")); err != nil {
		return opts, err
	}
	if opts.Schema, err = parseSchemaChoice(viper.GetString("schema")); err != nil {
		return opts, err
	}
	if opts.LoggerFormat, err = parseLoggerFormat(viper.GetString("logger-format")); err != nil {
		return opts, err
	}
	if opts.TsStyle, err = parseTsStyle(viper.GetString("ts-format")); err != nil {
		return opts, err
	}

	if s := viper.GetString("min-level"); s != "" {
		level, ok := model.ParseLevel(s)
		if !ok {
			return opts, fmt.Errorf("unknown log level: %s", s)
		}
		opts.MinLevel = &level
	}

	for _, name := range []string{"key-color", "value-color"} {
		if v := viper.GetString(name); v != "" {
			if _, ok := render.LookupColor(v); !ok {
				return opts, fmt.Errorf("unknown color for --%s: %s", name, v)
			}
		}
	}
	opts.KeyColor = viper.GetString("key-color")
	opts.ValueColor = viper.GetString("value-color")

	if opts.Files, err = expandFileArgs(args); err != nil {
		return opts, err
	}
	return opts, nil
}

// expandFileArgs resolves glob patterns in file arguments. Plain paths
// pass through untouched so a missing file still reports a useful error.
func expandFileArgs(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			files = append(files, arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad glob pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files matched pattern %q", arg)
		}
		files = append(files, matches...)
	}
	return files, nil
}

func parseColorMode(s string) (pipeline.ColorMode, error) {
	switch strings.ToLower(s) {
	case "auto":
		return pipeline.ColorAuto, nil
	case "always":
		return pipeline.ColorAlways, nil
	case "never":
		return pipeline.ColorNever, nil
	default:
		return 0, fmt.Errorf("invalid --color value: %s (want auto, always or never)", s)
	}
}

func parseNonJSONMode(s string) (parser.NonJSONMode, error) {
	switch strings.ToLower(s) {
	case "passthrough", "print-as-is":
		return parser.NonJSONPassthrough, nil
	case "skip":
		return parser.NonJSONSkip, nil
	case "fail":
		return parser.NonJSONFail, nil
	default:
		return 0, fmt.Errorf("invalid --non-json value: %s (want passthrough, skip or fail)", s)
	}
}

func parseSchemaChoice(s string) (pipeline.SchemaChoice, error) {
	switch strings.ToLower(s) {
	case "auto":
		return pipeline.SchemaAuto, nil
	case "logstash":
		return pipeline.SchemaLogstash, nil
	case "logrus":
		return pipeline.SchemaLogrus, nil
	case "bunyan":
		return pipeline.SchemaBunyan, nil
	case "generic":
		return pipeline.SchemaGeneric, nil
	default:
		return 0, fmt.Errorf("invalid --schema value: %s", s)
	}
}

func parseLoggerFormat(s string) (render.LoggerFormat, error) {
	switch strings.ToLower(s) {
	case "short-dots":
		return render.LoggerShortDots, nil
	case "as-is":
		return render.LoggerAsIs, nil
	default:
		return 0, fmt.Errorf("invalid --logger-format value: %s (want short-dots or as-is)", s)
	}
}

func parseTsStyle(s string) (timestamp.Style, error) {
	switch strings.ToLower(s) {
	case "time":
		return timestamp.StyleTime, nil
	case "full":
		return timestamp.StyleFull, nil
	default:
		return 0, fmt.Errorf("invalid --ts-format value: %s (want time or full)", s)
	}
}
