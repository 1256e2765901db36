// Package logging assembles structured slog loggers and formatting helpers used
// across skipintro.
//
// It owns the console and JSON handlers, tees console output to a JSON log
// file, stamps every record of a watcher run with a session_id, and exposes
// context helpers so playback code can tag lines with the playback id and
// episode label. The package also provides a no-op logger for tests and wiring
// code that cannot fail.
package logging
