package schema

import "encoding/json"

// Schema names a fixed field-mapping strategy for a known log library.
type Schema int

const (
	Logstash Schema = iota
	Logrus
	Bunyan
	Generic
)

func (s Schema) String() string {
	switch s {
	case Logstash:
		return "logstash"
	case Logrus:
		return "logrus"
	case Bunyan:
		return "bunyan"
	default:
		return "generic"
	}
}

// FieldMapping lists, per canonical role, the JSON keys to try in order.
// The first key present in the object wins.
type FieldMapping struct {
	Level      []string
	Timestamp  []string
	Logger     []string
	Message    []string
	StackTrace []string
}

// FindKey returns the first candidate key present in obj.
func FindKey(candidates []string, obj map[string]any) (string, bool) {
	for _, key := range candidates {
		if _, ok := obj[key]; ok {
			return key, true
		}
	}
	return "", false
}

// Mapping returns the field mapping for the schema.
func (s Schema) Mapping() FieldMapping {
	switch s {
	case Logstash:
		return FieldMapping{
			Level:      []string{"level"},
			Timestamp:  []string{"@timestamp"},
			Logger:     []string{"logger_name"},
			Message:    []string{"message"},
			StackTrace: []string{"stack_trace"},
		}
	case Logrus:
		return FieldMapping{
			Level:      []string{"level"},
			Timestamp:  []string{"time"},
			Logger:     []string{"component"},
			Message:    []string{"msg"},
			StackTrace: []string{"stack_trace", "stacktrace"},
		}
	case Bunyan:
		return FieldMapping{
			Level:      []string{"level"},
			Timestamp:  []string{"time"},
			Logger:     []string{"name"},
			Message:    []string{"msg"},
			StackTrace: []string{"stack"},
		}
	default:
		return FieldMapping{
			Level:     []string{"level", "severity", "loglevel", "log_level", "lvl"},
			Timestamp: []string{"timestamp", "@timestamp", "time", "ts", "datetime", "date"},
			Logger:    []string{"logger", "logger_name", "name", "component", "source", "caller"},
			Message:   []string{"message", "msg", "text", "body", "log"},
			StackTrace: []string{
				"stack_trace", "stacktrace", "stack", "exception", "traceback",
			},
		}
	}
}

// rule scores one candidate schema: a point per signature field present,
// plus an optional bonus predicate. Rules are listed in tie-break
// precedence order, so detection stays a data table rather than a branch
// ladder and the tie policy is testable on its own.
type rule struct {
	schema Schema
	fields []string
	bonus  func(obj map[string]any) int
}

var rules = []rule{
	{
		schema: Logstash,
		fields: []string{"@timestamp", "level", "logger_name", "message", "stack_trace", "thread_name", "@version"},
		bonus: func(obj map[string]any) int {
			// @timestamp is a strong Logstash indicator.
			if _, ok := obj["@timestamp"]; ok {
				return 2
			}
			return 0
		},
	},
	{
		schema: Bunyan,
		fields: []string{"v", "level", "name", "hostname", "pid", "time", "msg"},
		bonus: func(obj map[string]any) int {
			// "v" together with a numeric level is a strong Bunyan indicator.
			if _, ok := obj["v"]; !ok {
				return 0
			}
			if _, ok := obj["level"].(json.Number); ok {
				return 3
			}
			if _, ok := obj["level"].(float64); ok {
				return 3
			}
			return 0
		},
	},
	{
		schema: Logrus,
		fields: []string{"level", "msg", "time", "component"},
	},
}

// Detect scores each known schema against the object's field names and
// returns the best match, or Generic when nothing scores. Ties resolve by
// the rule order above: Logstash beats Bunyan beats Logrus. That ordering
// is a fixed policy, not a claim of correctness.
func Detect(value any) Schema {
	obj, ok := value.(map[string]any)
	if !ok {
		return Generic
	}

	scores := make([]int, len(rules))
	best := 0
	for i, r := range rules {
		for _, field := range r.fields {
			if _, ok := obj[field]; ok {
				scores[i]++
			}
		}
		if r.bonus != nil {
			scores[i] += r.bonus(obj)
		}
		if scores[i] > best {
			best = scores[i]
		}
	}

	if best == 0 {
		return Generic
	}
	for i, r := range rules {
		if scores[i] == best {
			return r.schema
		}
	}
	return Generic
}
