// Package timestamp normalizes the many timestamp shapes found in JSON
// logs (RFC 3339 strings, ISO-ish strings without an offset, epoch seconds
// or milliseconds) into a single instant, and formats instants for display
// in a requested timezone.
package timestamp

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Style selects the display format.
type Style int

const (
	// StyleTime renders HH:MM:SS.mmm only.
	StyleTime Style = iota
	// StyleFull renders YYYY-MM-DDTHH:MM:SS.mmm plus Z or a numeric offset.
	StyleFull
)

// Epoch values at or above this magnitude are interpreted as milliseconds.
const millisThreshold = 1e12

// layouts tried for strings that carry no offset; these are interpreted
// as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Parse attempts to interpret a decoded JSON value as a timestamp.
// The second return value reports success; on failure the caller keeps
// the raw form.
func Parse(value any) (time.Time, bool) {
	switch v := value.(type) {
	case string:
		return parseString(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return parseEpoch(f)
	case float64:
		return parseEpoch(v)
	default:
		return time.Time{}, false
	}
}

func parseString(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseEpoch converts an epoch number to an instant. Division floors so
// the sub-second remainder stays non-negative even for negative epochs.
func parseEpoch(v float64) (time.Time, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return time.Time{}, false
	}
	var secs, nanos int64
	if math.Abs(v) >= millisThreshold {
		millis := int64(v)
		secs = floorDiv(millis, 1000)
		nanos = (millis - secs*1000) * int64(time.Millisecond)
	} else {
		f := math.Floor(v)
		secs = int64(f)
		nanos = int64((v - f) * 1e9)
	}
	return time.Unix(secs, nanos).UTC(), true
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// ValidateZone checks a timezone spec up front so a bad configuration
// fails once, before any input is read.
func ValidateZone(tz string) error {
	switch strings.ToLower(tz) {
	case "local", "utc":
		return nil
	default:
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("unknown timezone: %s", tz)
		}
		return nil
	}
}

// Format renders an instant in the given timezone and style.
//
// tz is "local" for the host offset, "utc" for UTC with a Z suffix, or an
// IANA name. An unknown IANA name is the only error.
func Format(t time.Time, tz string, style Style) (string, error) {
	var converted time.Time
	utc := false
	switch strings.ToLower(tz) {
	case "local":
		converted = t.Local()
	case "utc":
		converted = t.UTC()
		utc = true
	default:
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return "", fmt.Errorf("unknown timezone: %s", tz)
		}
		converted = t.In(loc)
	}

	switch style {
	case StyleTime:
		return converted.Format("15:04:05.000"), nil
	default:
		if utc {
			return converted.Format("2006-01-02T15:04:05.000") + "Z", nil
		}
		return converted.Format("2006-01-02T15:04:05.000-07:00"), nil
	}
}
