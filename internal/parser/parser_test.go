package parser

import (
	"strings"
	"testing"

	"github.com/genuss/jl/internal/model"
	"github.com/genuss/jl/internal/schema"
	"github.com/genuss/jl/internal/timestamp"
)

func parseJSON(t *testing.T, line string) any {
	t.Helper()
	result, err := ParseLine(line, NonJSONFail)
	if err != nil {
		t.Fatalf("ParseLine(%q): %v", line, err)
	}
	if result.Kind != ResultJSON {
		t.Fatalf("ParseLine(%q): kind = %v, want JSON", line, result.Kind)
	}
	return result.Value
}

func extract(t *testing.T, line string, s schema.Schema) *model.LogRecord {
	t.Helper()
	record, err := Extract(parseJSON(t, line), s.Mapping(), "utc", timestamp.StyleFull)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	return record
}

func TestParseLineModes(t *testing.T) {
	result, err := ParseLine("plain text", NonJSONPassthrough)
	if err != nil || result.Kind != ResultNonJSON || result.Text != "plain text" {
		t.Errorf("passthrough: kind=%v text=%q err=%v", result.Kind, result.Text, err)
	}

	result, err = ParseLine("plain text", NonJSONSkip)
	if err != nil || result.Kind != ResultSkip {
		t.Errorf("skip: kind=%v err=%v", result.Kind, err)
	}

	if _, err = ParseLine("plain text", NonJSONFail); err == nil {
		t.Error("fail mode: want error for non-JSON line")
	}
}

func TestParseLineTrailingGarbage(t *testing.T) {
	// Valid JSON followed by junk is not a JSON line.
	result, err := ParseLine(`{"a":1} trailing`, NonJSONPassthrough)
	if err != nil || result.Kind != ResultNonJSON {
		t.Errorf("kind = %v, want NonJSON", result.Kind)
	}
}

func TestParseLineFailSanitizesMessage(t *testing.T) {
	_, err := ParseLine("bad\x1b[31mline", NonJSONFail)
	if err == nil {
		t.Fatal("want error")
	}
	if strings.ContainsRune(err.Error(), 0x1b) {
		t.Errorf("error message leaks control characters: %q", err.Error())
	}
}

func TestExtractLogstash(t *testing.T) {
	record := extract(t,
		`{"@timestamp":"2024-01-15T10:30:00.000Z","level":"WARN","logger_name":"c.e.App","message":"disk low","stack_trace":"at Foo\n\tat Bar","thread_name":"main"}`,
		schema.Logstash)

	if record.Level == nil || *record.Level != model.LevelWarn {
		t.Errorf("level = %v, want WARN", record.Level)
	}
	if record.Timestamp == nil || *record.Timestamp != "2024-01-15T10:30:00.000Z" {
		t.Errorf("timestamp = %v", record.Timestamp)
	}
	if record.Logger == nil || *record.Logger != "c.e.App" {
		t.Errorf("logger = %v", record.Logger)
	}
	if record.Message == nil || *record.Message != "disk low" {
		t.Errorf("message = %v", record.Message)
	}
	if record.StackTrace == nil || !strings.HasPrefix(*record.StackTrace, "at Foo") {
		t.Errorf("stack trace = %v", record.StackTrace)
	}
	// Consumed keys never reappear as extras.
	for _, k := range []string{"@timestamp", "level", "logger_name", "message", "stack_trace"} {
		if _, ok := record.Extras[k]; ok {
			t.Errorf("%q leaked into extras", k)
		}
	}
	if _, ok := record.Extras["thread_name"]; !ok {
		t.Error("thread_name missing from extras")
	}
}

func TestExtractBunyanNumericLevel(t *testing.T) {
	record := extract(t,
		`{"v":0,"level":50,"name":"app","time":"2024-01-15T10:30:00.000Z","msg":"boom","pid":1,"hostname":"h"}`,
		schema.Bunyan)
	if record.Level == nil || *record.Level != model.LevelError {
		t.Errorf("level = %v, want ERROR", record.Level)
	}
	if record.Logger == nil || *record.Logger != "app" {
		t.Errorf("logger = %v", record.Logger)
	}
}

func TestExtractGenericFallback(t *testing.T) {
	record := extract(t,
		`{"severity":"error","ts":1705314600,"source":"worker","text":"failed"}`,
		schema.Generic)
	if record.Level == nil || *record.Level != model.LevelError {
		t.Errorf("level = %v, want ERROR", record.Level)
	}
	if record.Timestamp == nil || *record.Timestamp != "2024-01-15T10:30:00.000Z" {
		t.Errorf("timestamp = %v", record.Timestamp)
	}
	if record.Logger == nil || *record.Logger != "worker" {
		t.Errorf("logger = %v", record.Logger)
	}
	if record.Message == nil || *record.Message != "failed" {
		t.Errorf("message = %v", record.Message)
	}
}

func TestExtractUnknownLevelStaysUnset(t *testing.T) {
	record := extract(t, `{"level":"verbose","msg":"hi"}`, schema.Logrus)
	if record.Level != nil {
		t.Errorf("level = %v, want nil", *record.Level)
	}
	// The key was still consumed by the level role.
	if _, ok := record.Extras["level"]; ok {
		t.Error("level leaked into extras")
	}
}

func TestExtractUnparseableTimestampKeptVerbatim(t *testing.T) {
	record := extract(t, `{"time":"five minutes ago","msg":"hi"}`, schema.Logrus)
	if record.Timestamp == nil || *record.Timestamp != "five minutes ago" {
		t.Errorf("timestamp = %v, want verbatim original", record.Timestamp)
	}
}

func TestExtractNonStringValues(t *testing.T) {
	record := extract(t, `{"msg":42,"component":{"a":1}}`, schema.Logrus)
	if record.Message == nil || *record.Message != "42" {
		t.Errorf("message = %v, want \"42\"", record.Message)
	}
	if record.Logger == nil || *record.Logger != `{"a":1}` {
		t.Errorf("logger = %v", record.Logger)
	}
}

func TestExtractNonObject(t *testing.T) {
	record := extract(t, `"just a string"`, schema.Generic)
	if record.Message == nil || *record.Message != "just a string" {
		t.Errorf("message = %v", record.Message)
	}
	if record.Level != nil || record.Timestamp != nil || record.Logger != nil {
		t.Error("non-object record should only carry a message")
	}

	record = extract(t, `[1,2,3]`, schema.Generic)
	if record.Message == nil || *record.Message != "[1,2,3]" {
		t.Errorf("message = %v", record.Message)
	}
}

func TestExtractBadTimezone(t *testing.T) {
	_, err := Extract(parseJSON(t, `{"time":"2024-01-15T10:30:00Z","msg":"hi"}`),
		schema.Logrus.Mapping(), "Not/AZone", timestamp.StyleFull)
	if err == nil {
		t.Error("want error for unresolvable timezone")
	}
}

func TestExtractFirstCandidateWins(t *testing.T) {
	record := extract(t, `{"message":"canonical","msg":"fallback"}`, schema.Generic)
	if record.Message == nil || *record.Message != "canonical" {
		t.Errorf("message = %v, want \"canonical\"", record.Message)
	}
	if _, ok := record.Extras["msg"]; !ok {
		t.Error("unconsumed msg should stay in extras")
	}
}
