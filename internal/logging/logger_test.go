package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, b []byte) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(b)), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("bad record %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLogHandlerAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewLogHandler(&buf, Options{App: "einstein", Run: "r1"}, slog.LevelDebug))

	logger.Info("hello", "class", "ns::A")
	logger.With("file", "a.cpp").Debug("with file")

	records := decodeLines(t, buf.Bytes())
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	for _, r := range records {
		if r["app"] != "einstein" || r["run"] != "r1" {
			t.Errorf("missing fixed attrs: %v", r)
		}
		if src, _ := r[slog.SourceKey].(string); !strings.Contains(src, "logger_test.go:") {
			t.Errorf("source = %q", src)
		}
	}
	if records[0]["class"] != "ns::A" {
		t.Errorf("record attrs lost: %v", records[0])
	}
	if records[1]["file"] != "a.cpp" {
		t.Errorf("WithAttrs lost: %v", records[1])
	}
}

func TestLogHandlerRepeatedCalls(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewLogHandler(&buf, Options{App: "einstein"}, slog.LevelInfo))
	for i := 0; i < 3; i++ {
		logger.Info("again")
	}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if n := strings.Count(line, `"source"`); n != 1 {
			t.Fatalf("record carries %d source attrs: %s", n, line)
		}
	}
}

func TestLogHandlerGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewLogHandler(&buf, Options{App: "einstein", Run: "r1"}, slog.LevelInfo))
	logger.With("file", "a.cpp").WithGroup("class").Info("queued", "name", "ns::A")

	records := decodeLines(t, buf.Bytes())
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	r := records[0]
	if r["app"] != "einstein" || r["run"] != "r1" || r["file"] != "a.cpp" {
		t.Errorf("top-level attrs lost: %v", r)
	}
	if _, ok := r[slog.SourceKey].(string); !ok {
		t.Errorf("source should stay at the top level: %v", r)
	}
	group, ok := r["class"].(map[string]any)
	if !ok || group["name"] != "ns::A" {
		t.Fatalf("group not applied: %v", r)
	}
}

func TestNewLevels(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "einstein", false).Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be hidden without verbose: %s", buf.String())
	}
	New(&buf, "einstein", true).Debug("shown")
	records := decodeLines(t, buf.Bytes())
	if len(records) != 1 {
		t.Fatalf("got %d records", len(records))
	}
	if run, _ := records[0]["run"].(string); len(run) != 8 {
		t.Errorf("generated run id %q should have 8 characters", run)
	}
}
