package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"info", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"ERROR", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tc := range cases {
		got, err := ParseLevel(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseLevel(%q): expected error", tc.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLevel(%q): %v", tc.input, err)
		}
		if got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestJSONFormatIncludesComponent(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: LevelInfo})
	l := &Logger{
		Logger: slog.New(handler.WithAttrs([]slog.Attr{slog.String("component", "tracker")})),
		config: DefaultConfig(),
	}

	l.Info("sample accepted", "x", 10.0, "y", 20.0)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["component"] != "tracker" {
		t.Errorf("component = %v, want tracker", entry["component"])
	}
	if entry["msg"] != "sample accepted" {
		t.Errorf("msg = %v", entry["msg"])
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	base, err := New(&Config{Level: LevelInfo, Format: FormatJSON, Output: "stderr"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// Swap in a buffer-backed handler so output is capturable.
	base.Logger = slog.New(slog.NewJSONHandler(&buf, nil))

	child := base.WithComponent("detector")
	child.Info("activated")

	if !strings.Contains(buf.String(), `"component":"detector"`) {
		t.Errorf("child logger missing component attr: %s", buf.String())
	}
}

func TestFileOutputAndRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dragwatchd.log")

	cfg := &Config{
		Level:      LevelDebug,
		Format:     FormatText,
		Output:     "file",
		FilePath:   path,
		MaxSize:    1, // 1 MB
		MaxBackups: 2,
	}

	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	l.Info("hello")
	if err := l.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("log file missing entry: %s", data)
	}
}

func TestRotatorRotatesBySize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "r.log")

	cfg := &Config{FilePath: path, MaxSize: 0, MaxBackups: 5}
	r, err := NewFileRotator(cfg)
	if err != nil {
		t.Fatalf("NewFileRotator: %v", err)
	}
	defer r.Close()

	// MaxSize 0 forces rotation on every write.
	if _, err := r.Write([]byte("first\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := r.Write([]byte("second\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "r-*.log"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) == 0 {
		t.Error("expected at least one rotated file")
	}
}
