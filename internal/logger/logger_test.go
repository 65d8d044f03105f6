package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"
)

func reset() {
	SetVerbose(false)
	SetTimestamps(false)
	SetOutput(os.Stderr)
	now = time.Now
}

func TestSetVerbose(t *testing.T) {
	defer reset()

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false")
	}

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose to be true after SetVerbose(true)")
	}
}

func TestDebug_OnlyWhenVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)

	Debug("hidden %d", 1)
	Info("hidden too")
	Section("Hidden")
	if buf.Len() != 0 {
		t.Errorf("expected no output when not verbose, got %q", buf.String())
	}

	SetVerbose(true)
	Debug("test message %s", "arg")
	if got := buf.String(); got != "[DEBUG] test message arg\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestWarnAndError_AlwaysWritten(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)

	Warn("index at %s is stale", "/tmp/x")
	Error("boom")

	out := buf.String()
	if !strings.Contains(out, "[WARN] index at /tmp/x is stale\n") {
		t.Errorf("missing warning in %q", out)
	}
	if !strings.Contains(out, "[ERROR] boom\n") {
		t.Errorf("missing error in %q", out)
	}
}

func TestSection(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Section("Answer")
	if got := buf.String(); got != "\n=== Answer ===\n" {
		t.Errorf("unexpected section output %q", got)
	}
}

func TestTimestamps(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetTimestamps(true)
	now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	Warn("x")
	if got := buf.String(); got != "2026-01-02T03:04:05.000Z [WARN] x\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestTimed(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	ticks := []time.Time{
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 1, 0, 0, 1, 500_000_000, time.UTC),
	}
	now = func() time.Time {
		t := ticks[0]
		ticks = ticks[1:]
		return t
	}

	Timed("embed query")()
	if got := buf.String(); got != "[DEBUG] embed query took 1.5s\n" {
		t.Errorf("unexpected output %q", got)
	}
}
