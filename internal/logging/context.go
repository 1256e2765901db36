package logging

import (
	"context"
	"log/slog"
)

type contextKey int

const (
	playbackIDKey contextKey = iota
	episodeLabelKey
)

// WithPlaybackID annotates ctx with the identifier of the current playback.
func WithPlaybackID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, playbackIDKey, id)
}

// WithEpisodeLabel annotates ctx with the episode label (e.g. S01E02).
func WithEpisodeLabel(ctx context.Context, label string) context.Context {
	return context.WithValue(ctx, episodeLabelKey, label)
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := ctx.Value(playbackIDKey).(string); ok && id != "" {
		fields = append(fields, slog.String(FieldPlaybackID, id))
	}
	if label, ok := ctx.Value(episodeLabelKey).(string); ok && label != "" {
		fields = append(fields, slog.String(FieldEpisodeLabel, label))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
