// Package render turns canonical log records into display lines: a
// template of tokens parsed once per run, color styling, extras policy,
// stack trace formatting, and control-character sanitization of every
// user-controlled string.
package render

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/genuss/jl/internal/model"
)

// LoggerFormat selects how logger names are displayed.
type LoggerFormat int

const (
	// LoggerShortDots abbreviates dot segments: com.example.App -> c.e.App.
	LoggerShortDots LoggerFormat = iota
	// LoggerAsIs displays the name unchanged.
	LoggerAsIs
)

// Options are the per-run rendering switches.
type Options struct {
	RawJSON      bool
	Expanded     bool
	LoggerFormat LoggerFormat
	LoggerLength int // 0 means unlimited
}

// Render produces the output line for a record. It is a pure function of
// its inputs and performs no I/O. The result may contain embedded
// newlines for expanded extras and stack traces.
func Render(record *model.LogRecord, tokens []Token, color *ColorConfig, opts Options, ctx *Context) string {
	if opts.RawJSON {
		if b, err := json.Marshal(record.Raw); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", record.Raw)
	}

	var line strings.Builder
	for _, token := range tokens {
		switch token.Kind {
		case TokenLiteral:
			line.WriteString(token.Text)
		case TokenField:
			line.WriteString(renderField(record, token.Field, color, opts))
		case TokenCustomField:
			if v, ok := record.Extras[token.Text]; ok {
				line.WriteString(Sanitize(extraValueString(v)))
			}
		}
	}

	extras := collectExtras(record, ctx)
	if len(extras) > 0 {
		if opts.Expanded {
			for _, kv := range extras {
				line.WriteString("\n  ")
				line.WriteString(color.StyleExtraKey(Sanitize(kv.key)))
				line.WriteString(": ")
				line.WriteString(color.StyleExtraValue(Sanitize(extraValueString(kv.value))))
			}
		} else {
			line.WriteByte(' ')
			for i, kv := range extras {
				if i > 0 {
					line.WriteByte(' ')
				}
				line.WriteString(color.StyleExtraKey(Sanitize(kv.key)))
				line.WriteByte('=')
				line.WriteString(color.StyleExtraValue(Sanitize(extraValueString(kv.value))))
			}
		}
	}

	if record.StackTrace != nil {
		if _, omitted := ctx.OmitFields["stack_trace"]; !omitted {
			appendStackTrace(&line, *record.StackTrace, color)
		}
	}

	return line.String()
}

func renderField(record *model.LogRecord, field Field, color *ColorConfig, opts Options) string {
	switch field {
	case FieldLevel:
		if record.Level == nil {
			return ""
		}
		return color.StyleLevel(*record.Level)
	case FieldTimestamp:
		if record.Timestamp == nil {
			return ""
		}
		return Sanitize(*record.Timestamp)
	case FieldLogger:
		if record.Logger == nil {
			return ""
		}
		name := *record.Logger
		if opts.LoggerFormat == LoggerShortDots {
			name = ShortenLoggerDots(name)
		}
		return Sanitize(TruncateLoggerLeft(name, opts.LoggerLength))
	default:
		if record.Message == nil {
			return ""
		}
		return Sanitize(*record.Message)
	}
}

type extraKV struct {
	key   string
	value any
}

// collectExtras picks which extras to append, in lexicographic key order:
// fields already rendered through a template custom field are excluded,
// then the add-fields allowlist or omit-fields denylist applies. With
// neither set, nothing is appended.
func collectExtras(record *model.LogRecord, ctx *Context) []extraKV {
	var out []extraKV
	for _, k := range record.ExtraKeys() {
		if _, inTemplate := ctx.TemplateFields[k]; inTemplate {
			continue
		}
		if len(ctx.AddFields) > 0 {
			if _, ok := ctx.AddFields[k]; !ok {
				continue
			}
		} else if len(ctx.OmitFields) > 0 {
			if _, ok := ctx.OmitFields[k]; ok {
				continue
			}
		} else {
			continue
		}
		out = append(out, extraKV{key: k, value: record.Extras[k]})
	}
	return out
}

// appendStackTrace writes the stack trace after the main line, each line
// indented four spaces and individually dimmed when color is on.
func appendStackTrace(line *strings.Builder, stackTrace string, color *ColorConfig) {
	sanitized := Sanitize(stackTrace)
	if sanitized == "" {
		return
	}
	for _, traceLine := range strings.Split(strings.TrimSuffix(sanitized, "\n"), "\n") {
		line.WriteByte('\n')
		line.WriteString(color.StyleDim("    " + traceLine))
	}
}

// extraValueString renders an extra value: strings verbatim, everything
// else as compact JSON.
func extraValueString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// ShortenLoggerDots abbreviates every dot-separated segment but the last
// to its first character: com.example.service.MyHandler -> c.e.s.MyHandler.
// Empty and single-segment names are returned unchanged.
func ShortenLoggerDots(name string) string {
	if name == "" {
		return ""
	}
	segments := strings.Split(name, ".")
	if len(segments) <= 1 {
		return name
	}
	parts := make([]string, 0, len(segments))
	for _, s := range segments[:len(segments)-1] {
		if s == "" {
			parts = append(parts, "")
			continue
		}
		parts = append(parts, string([]rune(s)[0]))
	}
	parts = append(parts, segments[len(segments)-1])
	return strings.Join(parts, ".")
}

// TruncateLoggerLeft shortens a logger name that exceeds maxLen
// characters. It strips leftmost dot segments while the name is still
// too long and a dot remains, then hard-truncates to the rightmost
// maxLen characters if needed. maxLen 0 means unlimited.
func TruncateLoggerLeft(name string, maxLen int) string {
	if maxLen == 0 {
		return name
	}
	remaining := name
	for len([]rune(remaining)) > maxLen {
		dot := strings.IndexByte(remaining, '.')
		if dot < 0 {
			break
		}
		afterDot := remaining[dot+1:]
		if afterDot == "" {
			break
		}
		remaining = afterDot
	}
	runes := []rune(remaining)
	if len(runes) > maxLen {
		return string(runes[len(runes)-maxLen:])
	}
	return remaining
}

// Sanitize strips Unicode control characters, except TAB and LF, from
// untrusted text before it reaches the terminal. This blocks escape
// sequence injection (CSI/OSC/DCS) from hostile log content.
func Sanitize(s string) string {
	if !strings.ContainsFunc(s, isBannedControl) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !isBannedControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isBannedControl(r rune) bool {
	if r == '\t' || r == '\n' {
		return false
	}
	return unicode.IsControl(r)
}
