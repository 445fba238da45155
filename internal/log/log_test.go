package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"chatty":  LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q): expected %s, got %s", in, want, got)
		}
	}
}

func TestLevelFilteringAndFormat(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelWarn)
	defer func() {
		SetLevel(LevelInfo)
	}()

	Info("hidden", "k", 1)
	Warn("task end before start", "task", "t1", "title", "team sync")
	Error("fetch failed", errors.New("boom"), "id", "work")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered at WARN: %q", out)
	}
	if !strings.Contains(out, `[WARN] task end before start task=t1 title="team sync"`) {
		t.Fatalf("unexpected warn line: %q", out)
	}
	if !strings.Contains(out, "[ERROR] fetch failed err=boom id=work") {
		t.Fatalf("unexpected error line: %q", out)
	}
}
