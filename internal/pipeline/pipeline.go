// Package pipeline wires a line source through parse, schema detection,
// extraction, level filtering, rendering and writing. Processing is
// single-threaded and synchronous: each line finishes before the next is
// requested, so input order is output order.
package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/genuss/jl/internal/input"
	"github.com/genuss/jl/internal/model"
	"github.com/genuss/jl/internal/output"
	"github.com/genuss/jl/internal/parser"
	"github.com/genuss/jl/internal/render"
	"github.com/genuss/jl/internal/schema"
	"github.com/genuss/jl/internal/timestamp"
)

// ColorMode controls when ANSI codes are emitted.
type ColorMode int

const (
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// SchemaChoice is either auto-detection or a forced schema.
type SchemaChoice int

const (
	SchemaAuto SchemaChoice = iota
	SchemaLogstash
	SchemaLogrus
	SchemaBunyan
	SchemaGeneric
)

func (c SchemaChoice) forced() (schema.Schema, bool) {
	switch c {
	case SchemaLogstash:
		return schema.Logstash, true
	case SchemaLogrus:
		return schema.Logrus, true
	case SchemaBunyan:
		return schema.Bunyan, true
	case SchemaGeneric:
		return schema.Generic, true
	default:
		return 0, false
	}
}

// Options is the full run configuration, assembled by the CLI layer.
type Options struct {
	Format       string
	AddFields    string
	OmitFields   string
	Color        ColorMode
	NonJSON      parser.NonJSONMode
	Schema       SchemaChoice
	LoggerFormat render.LoggerFormat
	LoggerLength int
	TsStyle      timestamp.Style
	MinLevel     *model.Level
	RawJSON      bool
	Expanded     bool
	KeyColor     string
	ValueColor   string
	Timezone     string
	Follow       bool
	OutputPath   string // empty means stdout
	Files        []string
}

// run-wide immutable state shared by every source.
type runState struct {
	opts   Options
	tokens []render.Token
	color  *render.ColorConfig
	rctx   *render.Context
	ropts  render.Options
}

// Run executes the pipeline over every configured source, in argument
// order. A trailing followed file never terminates on its own; the
// context cancels it. Broken-pipe on output and context cancellation
// are clean stops, not errors.
func Run(ctx context.Context, opts Options) error {
	if err := timestamp.ValidateZone(opts.Timezone); err != nil {
		return err
	}

	tokens := render.ParseTemplate(opts.Format)
	state := &runState{
		opts:   opts,
		tokens: tokens,
		color:  render.NewColorConfig(colorEnabled(opts), opts.KeyColor, opts.ValueColor),
		rctx:   render.NewContext(opts.AddFields, opts.OmitFields, tokens),
		ropts: render.Options{
			RawJSON:      opts.RawJSON,
			Expanded:     opts.Expanded,
			LoggerFormat: opts.LoggerFormat,
			LoggerLength: opts.LoggerLength,
		},
	}

	var sink output.Sink
	if opts.OutputPath != "" {
		fileSink, err := output.NewFileSink(opts.OutputPath)
		if err != nil {
			return err
		}
		sink = fileSink
	} else {
		sink = output.NewStdoutSink()
	}

	err := runSources(ctx, state, sink)
	if cerr := sink.Close(); err == nil {
		err = cerr
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		return nil
	case isBrokenPipe(err):
		return nil
	default:
		return err
	}
}

func runSources(ctx context.Context, state *runState, sink output.Sink) error {
	if len(state.opts.Files) == 0 {
		return processSource(input.NewStdinSource(), sink, state)
	}

	files := state.opts.Files
	tail := ""
	if state.opts.Follow {
		tail = files[len(files)-1]
		files = files[:len(files)-1]
	}

	for _, path := range files {
		src, err := input.NewFileSource(path)
		if err != nil {
			return err
		}
		err = processSource(src, sink, state)
		src.Close()
		if err != nil {
			return err
		}
	}

	if tail != "" {
		src, err := input.NewFollowSource(ctx, tail)
		if err != nil {
			return err
		}
		defer src.Close()
		return processSource(src, sink, state)
	}
	return nil
}

// processSource drains one source through the pipeline. The detected
// schema is cached per source: the first JSON line decides, every
// following line reuses it.
func processSource(src input.Source, sink output.Sink, state *runState) error {
	var cached *schema.Schema

	for {
		line, err := src.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		result, err := parser.ParseLine(line, state.opts.NonJSON)
		if err != nil {
			return err
		}

		switch result.Kind {
		case parser.ResultSkip:
			continue
		case parser.ResultNonJSON:
			if err := sink.WriteLine(render.Sanitize(result.Text)); err != nil {
				return err
			}
		case parser.ResultJSON:
			if cached == nil {
				s, forced := state.opts.Schema.forced()
				if !forced {
					s = schema.Detect(result.Value)
				}
				cached = &s
			}

			record, err := parser.Extract(result.Value, cached.Mapping(), state.opts.Timezone, state.opts.TsStyle)
			if err != nil {
				return err
			}

			// Records without a detected level bypass the filter.
			if state.opts.MinLevel != nil && record.Level != nil && *record.Level < *state.opts.MinLevel {
				continue
			}

			rendered := render.Render(record, state.tokens, state.color, state.ropts, state.rctx)
			if err := sink.WriteLine(rendered); err != nil {
				return err
			}
		}
	}
}

func colorEnabled(opts Options) bool {
	switch opts.Color {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		if opts.OutputPath != "" {
			return false
		}
		return isatty.IsTerminal(os.Stdout.Fd())
	}
}

// isBrokenPipe reports whether the downstream consumer went away, which
// ends the run cleanly rather than as an error.
func isBrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe)
}
