// Package logs reads the watcher's per-run JSON log files for `skipintro logs`.
//
// It locates the newest run log, returns the last N lines with bounded
// memory, follows the file as the watcher appends to it, and filters lines by
// the structured fields the watcher writes (component, playback id, episode
// label, level, decision type).
package logs
