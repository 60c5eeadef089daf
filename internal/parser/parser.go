// Package parser turns raw input lines into canonical log records.
// Decoding and extraction are separate steps: a line is first decoded as
// JSON (with a policy for lines that are not), then projected through a
// schema field mapping into a model.LogRecord.
package parser

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/genuss/jl/internal/model"
	"github.com/genuss/jl/internal/render"
	"github.com/genuss/jl/internal/schema"
	"github.com/genuss/jl/internal/timestamp"
)

// NonJSONMode controls what happens to lines that fail JSON decoding.
type NonJSONMode int

const (
	// NonJSONPassthrough prints the line as-is (sanitized by the caller).
	NonJSONPassthrough NonJSONMode = iota
	// NonJSONSkip silently drops the line.
	NonJSONSkip
	// NonJSONFail aborts the run on the first such line.
	NonJSONFail
)

// ResultKind tags the outcome of ParseLine.
type ResultKind int

const (
	ResultJSON ResultKind = iota
	ResultNonJSON
	ResultSkip
)

// Result is the outcome of decoding one line.
type Result struct {
	Kind  ResultKind
	Value any    // decoded JSON value when Kind == ResultJSON
	Text  string // original text when Kind == ResultNonJSON
}

// ParseLine decodes a single input line as JSON. Numbers are decoded as
// json.Number so raw values round-trip without float mangling.
func ParseLine(line string, mode NonJSONMode) (Result, error) {
	dec := json.NewDecoder(strings.NewReader(line))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err == nil && !dec.More() {
		return Result{Kind: ResultJSON, Value: value}, nil
	}
	switch mode {
	case NonJSONSkip:
		return Result{Kind: ResultSkip}, nil
	case NonJSONFail:
		return Result{}, fmt.Errorf("not valid JSON: %s", render.Sanitize(line))
	default:
		return Result{Kind: ResultNonJSON, Text: line}, nil
	}
}

// Extract projects a decoded JSON value into a LogRecord using the given
// field mapping. Missing fields stay nil; an unrecognized level or an
// unparseable timestamp is data, not an error. The only error is a
// timezone that cannot be resolved, which is a configuration problem and
// fatal to the run.
func Extract(value any, mapping schema.FieldMapping, tz string, style timestamp.Style) (*model.LogRecord, error) {
	obj, ok := value.(map[string]any)
	if !ok {
		msg := valueToString(value)
		return &model.LogRecord{
			Message: &msg,
			Extras:  map[string]any{},
			Raw:     value,
		}, nil
	}

	record := &model.LogRecord{
		Extras: make(map[string]any),
		Raw:    value,
	}
	consumed := make(map[string]bool, 5)

	if key, ok := schema.FindKey(mapping.Level, obj); ok {
		consumed[key] = true
		if lv, ok := parseLevel(obj[key]); ok {
			record.Level = &lv
		}
	}
	if key, ok := schema.FindKey(mapping.Timestamp, obj); ok {
		consumed[key] = true
		if ts, ok := timestamp.Parse(obj[key]); ok {
			formatted, err := timestamp.Format(ts, tz, style)
			if err != nil {
				return nil, err
			}
			record.Timestamp = &formatted
		} else {
			// Never drop data: keep the original form verbatim.
			raw := valueToString(obj[key])
			record.Timestamp = &raw
		}
	}
	if key, ok := schema.FindKey(mapping.Logger, obj); ok {
		consumed[key] = true
		s := valueToString(obj[key])
		record.Logger = &s
	}
	if key, ok := schema.FindKey(mapping.Message, obj); ok {
		consumed[key] = true
		s := valueToString(obj[key])
		record.Message = &s
	}
	if key, ok := schema.FindKey(mapping.StackTrace, obj); ok {
		consumed[key] = true
		s := valueToString(obj[key])
		record.StackTrace = &s
	}

	for k, v := range obj {
		if !consumed[k] {
			record.Extras[k] = v
		}
	}
	return record, nil
}

// parseLevel accepts a level as a case-insensitive string or a Bunyan
// numeric value. Anything else leaves the level unset.
func parseLevel(v any) (model.Level, bool) {
	switch val := v.(type) {
	case string:
		return model.ParseLevel(val)
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return 0, false
		}
		return model.LevelFromBunyanInt(n)
	case float64:
		if val != math.Trunc(val) {
			return 0, false
		}
		return model.LevelFromBunyanInt(int64(val))
	default:
		return 0, false
	}
}

// valueToString renders a JSON value for display: strings verbatim,
// everything else as compact JSON.
func valueToString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
