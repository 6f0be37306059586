package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{" Warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format  string
		want    string
		wantErr bool
	}{
		{format: "", want: "sweep started"},
		{format: "pretty", want: "sweep started"},
		{format: "json", want: `"msg":"sweep started","candidates":12`},
		{format: "TEXT", want: `msg="sweep started" candidates=12`},
		{format: "xml", wantErr: true},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		log, err := Setup(&buf, tt.format, "info")
		if tt.wantErr {
			if err == nil {
				t.Errorf("Setup(%q): expected error", tt.format)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Setup(%q): %v", tt.format, err)
		}
		log.Info("sweep started", "candidates", 12)
		log.Debug("candidate measured")
		if !strings.Contains(buf.String(), tt.want) {
			t.Errorf("Setup(%q) output %q missing %q", tt.format, buf.String(), tt.want)
		}
		if strings.Contains(buf.String(), "candidate measured") {
			t.Errorf("Setup(%q) emitted debug at info level", tt.format)
		}
	}
}

func TestSetupDebugLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, err := Setup(&buf, "json", "debug")
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	log.Debug("candidate measured", "tm", 64, "tn", 32)
	if !strings.Contains(buf.String(), `"level":"DEBUG"`) || !strings.Contains(buf.String(), `"tm":64`) {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext without a logger returned nil")
	}

	var buf bytes.Buffer
	ctx := WithContext(context.Background(), Text(&buf, slog.LevelInfo).With("run", "r1"))
	FromContext(ctx).Warn("grid is empty")
	if out := buf.String(); !strings.Contains(out, `msg="grid is empty" run=r1`) {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestPrettyColorsStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status string
		color  string
	}{
		{"OK", colorGreen},
		{"TIMEOUT", colorRed},
		{"WAIT_FAIL", colorRed},
		{"COMPILE_FAIL", colorYellow},
		{"SKIP_SMEM_BUDGET", colorYellow},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		Pretty(&buf, slog.LevelInfo).Info("candidate", "status", tt.status)
		if !strings.Contains(buf.String(), "status="+tt.color+tt.status) {
			t.Errorf("status %s not colored: %q", tt.status, buf.String())
		}
	}
}

func TestPrettyFormatsSweepAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := Pretty(&buf, slog.LevelInfo).With("run", "r1").WithGroup("cand")
	log.Info("candidate", "gflops", 4294.967296, "elapsed", 1500*time.Millisecond, "err", "needs 40960B > budget 32768B")

	out := buf.String()
	for _, want := range []string{
		"run=r1",
		"cand.gflops=4294.967",
		"cand.elapsed=1.5s",
		`cand.err="needs 40960B > budget 32768B"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got: %s", want, out)
		}
	}
}

func TestPrettyLevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := Pretty(&buf, slog.LevelWarn)
	log.Info("candidate measured")
	log.Warn("submission release failed")
	out := buf.String()
	if strings.Contains(out, "candidate measured") || !strings.Contains(out, "submission release failed") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestNeedsQuoting(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"OK":                 false,
		"tm=64":              false,
		"fence not signaled": true,
		"tab\there":          true,
		`say "hi"`:           true,
	}
	for in, want := range tests {
		if got := needsQuoting(in); got != want {
			t.Errorf("needsQuoting(%q) = %v, want %v", in, got, want)
		}
	}
}
