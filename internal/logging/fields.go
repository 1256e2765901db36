package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a log line for filtering (e.g. skip_prompted).
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldDecisionType names the decision being logged (e.g. skip_window).
	FieldDecisionType = "decision_type"
	// FieldShow is the canonical show title of the playing episode.
	FieldShow = "show"
	// FieldEpisodeLabel is the user-friendly episode label (e.g. S01E02).
	FieldEpisodeLabel = "episode_label"
	// FieldFile is the path of the playing file.
	FieldFile = "file"
	// FieldPlaybackID identifies one playback within a watcher run.
	FieldPlaybackID = "playback_id"
)
