// Package chapters reads chapter markers for the playing file.
//
// A Source consults an ordered list of Backends (the player first, then
// ffprobe) one chapter at a time. The first backend is retried with
// exponential backoff because players often publish chapter data a moment
// after playback starts; later backends are consulted once. Chapters no
// backend can time are dropped. The last non-empty result is cached per file.
//
// The package also holds the naming heuristics used to spot an intro chapter.
package chapters
