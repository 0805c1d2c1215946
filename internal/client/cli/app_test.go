package cli

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/dmitrijs2005/otpvault/internal/logging"
)

func TestSetMode_ChangesAndLogsOnce(t *testing.T) {
	var buf bytes.Buffer
	app := &App{log: logging.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))}

	app.setMode(ModeOnline)
	if app.Mode != ModeOnline {
		t.Fatalf("expected mode to be %q, got %q", ModeOnline, app.Mode)
	}
	if got := buf.String(); got == "" {
		t.Fatalf("expected log output on mode change, got empty")
	}

	buf.Reset()

	app.setMode(ModeOnline)
	if app.Mode != ModeOnline {
		t.Fatalf("expected mode to remain %q, got %q", ModeOnline, app.Mode)
	}
	if got := buf.String(); got != "" {
		t.Fatalf("expected no log output when mode doesn't change, got: %q", got)
	}

	app.setMode(ModeOffline)
	if app.Mode != ModeOffline {
		t.Fatalf("expected mode to be %q, got %q", ModeOffline, app.Mode)
	}
	if got := buf.String(); got == "" {
		t.Fatalf("expected log output on mode change to offline, got empty")
	}
}

func TestGetStatus(t *testing.T) {
	app := &App{}
	if got := app.getStatus(); got != "" {
		t.Fatalf("expected empty status, got %q", got)
	}

	app.Mode = ModeOffline
	if got := app.getStatus(); got != "(offline) " {
		t.Fatalf("unexpected status %q", got)
	}
}
