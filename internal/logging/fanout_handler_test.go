package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestTeeHandlerRespectsPerSinkLevels(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	infoLevel := new(slog.LevelVar)
	debugLevel := new(slog.LevelVar)
	debugLevel.Set(slog.LevelDebug)

	logger := slog.New(newTeeHandler(
		newJSONHandler(&infoBuf, infoLevel, false),
		newJSONHandler(&debugBuf, debugLevel, false),
	))
	logger.Debug("tick", "t", 12.5)
	logger.Info("prompt shown")

	if strings.Contains(infoBuf.String(), "tick") {
		t.Fatalf("info handler should drop debug records: %s", infoBuf.String())
	}
	if !strings.Contains(debugBuf.String(), "tick") || !strings.Contains(debugBuf.String(), "prompt shown") {
		t.Fatalf("debug handler should receive both records: %s", debugBuf.String())
	}
	if !strings.Contains(infoBuf.String(), "prompt shown") {
		t.Fatalf("info handler should receive info record: %s", infoBuf.String())
	}
}

func TestTeeHandlerSingleSinkUnwrapped(t *testing.T) {
	var buf bytes.Buffer
	h := newJSONHandler(&buf, new(slog.LevelVar), false)
	if got := newTeeHandler(nil, h); got != h {
		t.Fatalf("expected single handler to be returned as-is, got %T", got)
	}
	if _, ok := newTeeHandler().(NoopHandler); !ok {
		t.Fatal("expected NoopHandler for empty tee")
	}
}
