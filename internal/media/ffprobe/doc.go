// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing chapters and format metadata
//   - Chapter: a chapter marker with start time and title tag
//   - Format: container-level metadata (duration, tags)
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
package ffprobe
