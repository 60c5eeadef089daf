package model

import (
	"fmt"
	"strings"
)

// Level is a log severity. Values are ordered from least to most severe.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// ParseLevel normalizes a level name, case-insensitively.
// WARNING maps to WARN; CRITICAL and PANIC map to FATAL.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToUpper(s) {
	case "TRACE":
		return LevelTrace, true
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL", "CRITICAL", "PANIC":
		return LevelFatal, true
	default:
		return 0, false
	}
}

// LevelFromBunyanInt maps Bunyan's numeric scale (10..60 in steps of 10)
// onto Level. Any other number is unrecognized.
func LevelFromBunyanInt(n int64) (Level, bool) {
	switch n {
	case 10:
		return LevelTrace, true
	case 20:
		return LevelDebug, true
	case 30:
		return LevelInfo, true
	case 40:
		return LevelWarn, true
	case 50:
		return LevelError, true
	case 60:
		return LevelFatal, true
	default:
		return 0, false
	}
}
