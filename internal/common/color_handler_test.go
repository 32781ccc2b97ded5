package common

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestColorHandler_Enabled(t *testing.T) {
	var buf bytes.Buffer
	h := NewColorHandler(&buf, nil)
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("debug should be disabled by default")
	}
	if !h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info should be enabled by default")
	}
	h = NewColorHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError})
	if h.Enabled(context.Background(), slog.LevelWarn) {
		t.Fatalf("warn should be disabled at error level")
	}
}

func TestColorHandler_HandlePlain(t *testing.T) {
	var buf bytes.Buffer
	h := NewColorHandler(&buf, nil)
	if h.useColor {
		t.Fatalf("bytes.Buffer must not be treated as a terminal")
	}

	logger := slog.New(h).WithGroup("proxy").With("run_id", "r1")
	logger.Info("command completed", "exit_code", 7, "elapsed", 1500*time.Millisecond, "success", false)

	out := buf.String()
	for _, want := range []string{"[INFO ]", "[proxy]", "command completed", "run_id=\"r1\"", "exit_code=7", "elapsed=1.5s", "success=false"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Fatalf("unexpected ANSI codes: %q", out)
	}
}

func TestColorHandler_Colorized(t *testing.T) {
	var buf bytes.Buffer
	h := NewColorHandler(&buf, nil)
	h.SetColorEnabled(true)
	slog.New(h).Error("boom", "outcome", "timeout")
	out := buf.String()
	if !strings.Contains(out, Red+"[ERROR]"+Reset) {
		t.Fatalf("expected red level: %q", out)
	}
}

func TestColorHandler_Masks(t *testing.T) {
	var buf bytes.Buffer
	h := NewColorHandler(&buf, nil)
	logger := slog.New(h)
	logger.Warn("rejected parameter", "token", "abc", "command", "curl -H 'CSRF: s3cr3t' https://x", "error", errors.New("password=p4ss"))
	out := buf.String()
	for _, leaked := range []string{"abc", "s3cr3t", "p4ss"} {
		if strings.Contains(out, leaked) {
			t.Fatalf("%q leaked in %q", leaked, out)
		}
	}

	buf.Reset()
	h.SetMasker(nil)
	logger.Info("unmasked", "token", "abc")
	if !strings.Contains(buf.String(), "abc") {
		t.Fatalf("expected raw value without masker: %q", buf.String())
	}
}

func TestColorHandler_WithGroupEmpty(t *testing.T) {
	h := NewColorHandler(&bytes.Buffer{}, nil)
	if h.WithGroup("") != slog.Handler(h) {
		t.Fatalf("empty group should return the same handler")
	}
}
