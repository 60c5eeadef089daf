package model

import "testing"

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"trace", LevelTrace, true},
		{"DEBUG", LevelDebug, true},
		{"Info", LevelInfo, true},
		{"warn", LevelWarn, true},
		{"warning", LevelWarn, true},
		{"WARNING", LevelWarn, true},
		{"error", LevelError, true},
		{"fatal", LevelFatal, true},
		{"critical", LevelFatal, true},
		{"panic", LevelFatal, true},
		{"notice", 0, false},
		{"", 0, false},
		{"inf", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseLevel(c.in)
		if ok != c.ok {
			t.Errorf("ParseLevel(%q) ok = %v, want %v", c.in, ok, c.ok)
			continue
		}
		if ok && got != c.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestLevelOrdering(t *testing.T) {
	order := []Level{LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal}
	for i := 1; i < len(order); i++ {
		if order[i-1] >= order[i] {
			t.Errorf("%v should sort below %v", order[i-1], order[i])
		}
	}
}

func TestLevelString(t *testing.T) {
	cases := map[Level]string{
		LevelTrace: "TRACE",
		LevelDebug: "DEBUG",
		LevelInfo:  "INFO",
		LevelWarn:  "WARN",
		LevelError: "ERROR",
		LevelFatal: "FATAL",
	}
	for level, want := range cases {
		if got := level.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(level), got, want)
		}
	}
}

func TestLevelFromBunyanInt(t *testing.T) {
	cases := []struct {
		in   int64
		want Level
		ok   bool
	}{
		{10, LevelTrace, true},
		{20, LevelDebug, true},
		{30, LevelInfo, true},
		{40, LevelWarn, true},
		{50, LevelError, true},
		{60, LevelFatal, true},
		{0, 0, false},
		{35, 0, false},
		{70, 0, false},
		{-10, 0, false},
	}
	for _, c := range cases {
		got, ok := LevelFromBunyanInt(c.in)
		if ok != c.ok {
			t.Errorf("LevelFromBunyanInt(%d) ok = %v, want %v", c.in, ok, c.ok)
			continue
		}
		if ok && got != c.want {
			t.Errorf("LevelFromBunyanInt(%d) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestExtraKeysSorted(t *testing.T) {
	r := &LogRecord{Extras: map[string]any{"zebra": 1, "apple": 2, "mango": 3}}
	got := r.ExtraKeys()
	want := []string{"apple", "mango", "zebra"}
	if len(got) != len(want) {
		t.Fatalf("ExtraKeys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ExtraKeys()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
