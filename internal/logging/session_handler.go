package logging

import (
	"context"
	"log/slog"
)

// FieldSessionID identifies one watcher or CLI run across all of its records.
const FieldSessionID = "session_id"

// runHandler stamps every record with the run's session id and with any
// playback fields attached to the record's context via WithPlaybackID or
// WithEpisodeLabel.
type runHandler struct {
	next      slog.Handler
	sessionID string
}

func newRunHandler(next slog.Handler, sessionID string) slog.Handler {
	if next == nil {
		return NoopHandler{}
	}
	return &runHandler{next: next, sessionID: sessionID}
}

func (h *runHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *runHandler) Handle(ctx context.Context, record slog.Record) error {
	if h.sessionID != "" {
		record.AddAttrs(slog.String(FieldSessionID, h.sessionID))
	}
	if fields := ContextFields(ctx); len(fields) > 0 {
		record.AddAttrs(fields...)
	}
	return h.next.Handle(ctx, record)
}

func (h *runHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &runHandler{next: h.next.WithAttrs(attrs), sessionID: h.sessionID}
}

func (h *runHandler) WithGroup(name string) slog.Handler {
	return &runHandler{next: h.next.WithGroup(name), sessionID: h.sessionID}
}
