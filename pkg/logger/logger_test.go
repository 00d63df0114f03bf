package logger

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func capture(t *testing.T, lvl slog.Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: lvl}))
	t.Cleanup(func() {
		SetOutput(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	})
	return &buf
}

func TestInfoCFWritesComponentAndSortedFields(t *testing.T) {
	buf := capture(t, slog.LevelDebug)

	InfoCF("botapi", "Call succeeded", map[string]interface{}{
		"method": "getMe",
		"bytes":  2,
	})

	line := buf.String()
	if !strings.Contains(line, "component=botapi") || !strings.Contains(line, `msg="Call succeeded"`) {
		t.Errorf("line = %q", line)
	}
	if strings.Index(line, "bytes=2") > strings.Index(line, "method=getMe") {
		t.Errorf("fields are not sorted: %q", line)
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t, slog.LevelWarn)

	DebugC("x", "hidden")
	Info("hidden too")
	Warn("shown")
	if got := buf.String(); strings.Contains(got, "hidden") || !strings.Contains(got, "shown") {
		t.Errorf("output = %q", got)
	}
	if Enabled(slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
}

func TestSetLevel(t *testing.T) {
	defer SetLevel("info")

	SetLevel("DEBUG")
	if level.Level() != slog.LevelDebug {
		t.Errorf("level = %v, want debug", level.Level())
	}
	SetLevel("nonsense")
	if level.Level() != slog.LevelInfo {
		t.Errorf("level = %v, want info", level.Level())
	}
}
