package model

import "sort"

// LogRecord is the canonical projection of one parsed log line.
// Canonical fields that were absent from the input stay nil.
type LogRecord struct {
	Level      *Level
	Timestamp  *string // already formatted for display
	Logger     *string
	Message    *string
	StackTrace *string
	Extras     map[string]any // every key not consumed by a canonical role
	Raw        any            // the decoded JSON value, for raw passthrough
}

// ExtraKeys returns the extras keys in lexicographic order so output is
// deterministic regardless of map iteration order.
func (r *LogRecord) ExtraKeys() []string {
	keys := make([]string, 0, len(r.Extras))
	for k := range r.Extras {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
