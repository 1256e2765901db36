package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func decodeRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode record %q: %v", buf.String(), err)
	}
	return record
}

func TestRunHandlerStampsSessionID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newRunHandler(slog.NewJSONHandler(&buf, nil), "run-42")).With("component", "watcher")
	logger.Info("watcher started")

	record := decodeRecord(t, &buf)
	if record[FieldSessionID] != "run-42" {
		t.Fatalf("expected session id, got %v", record[FieldSessionID])
	}
	if record["component"] != "watcher" {
		t.Fatalf("expected With attrs kept, got %v", record["component"])
	}
}

func TestRunHandlerAddsPlaybackFieldsFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newRunHandler(slog.NewJSONHandler(&buf, nil), ""))
	ctx := WithEpisodeLabel(WithPlaybackID(context.Background(), "pb-1"), "S01E02")
	logger.InfoContext(ctx, "chapters loaded")

	record := decodeRecord(t, &buf)
	if record[FieldPlaybackID] != "pb-1" || record[FieldEpisodeLabel] != "S01E02" {
		t.Fatalf("expected playback fields, got %v", record)
	}
	if _, ok := record[FieldSessionID]; ok {
		t.Fatalf("empty session id should be omitted, got %v", record[FieldSessionID])
	}
}

func TestRunHandlerNilNext(t *testing.T) {
	if _, ok := newRunHandler(nil, "run").(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when next is nil")
	}
}
