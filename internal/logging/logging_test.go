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
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v; want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewWritesBoth(t *testing.T) {
	var file, console bytes.Buffer
	logger := slog.New(New(&file, &console, slog.LevelInfo))

	logger.With("component", "runner").Info("run finished", "passed", 3)
	logger.Debug("hidden")

	var rec map[string]any
	if err := json.Unmarshal(file.Bytes(), &rec); err != nil {
		t.Fatalf("file output is not one JSON record: %v\n%s", err, file.String())
	}
	if rec["msg"] != "run finished" || rec["component"] != "runner" || rec["passed"] != float64(3) {
		t.Errorf("JSON record = %v", rec)
	}

	if !strings.Contains(console.String(), "msg=\"run finished\"") || !strings.Contains(console.String(), "component=runner") {
		t.Errorf("console output = %q", console.String())
	}
	if strings.Contains(console.String(), "hidden") {
		t.Error("debug record written at info level")
	}
}

func TestMultiHandlerLevels(t *testing.T) {
	var debug, errs bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&errs, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	logger := slog.New(h.WithGroup("piston"))

	logger.Debug("retrying")
	logger.Error("circuit open")

	if !strings.Contains(debug.String(), "retrying") || !strings.Contains(debug.String(), "circuit open") {
		t.Errorf("debug handler output = %q", debug.String())
	}
	if strings.Contains(errs.String(), "retrying") || !strings.Contains(errs.String(), "circuit open") {
		t.Errorf("error handler output = %q", errs.String())
	}
}

func TestSetup(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "logs"), 0755); err != nil {
		t.Fatal(err)
	}

	prev := slog.Default()
	defer slog.SetDefault(prev)

	f, err := Setup(dir, "codecraftd", slog.LevelInfo)
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	slog.Info("daemon started")
	f.Close()

	data, err := os.ReadFile(filepath.Join(dir, "logs", "codecraftd.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "daemon started") {
		t.Errorf("log file = %q", data)
	}

	if _, err := Setup(filepath.Join(dir, "missing"), "x", slog.LevelInfo); err == nil {
		t.Error("expected error for missing logs dir")
	}
}
