// Package episodes persists shows, per-show skip configuration, and
// per-episode skip overrides in SQLite.
//
// Open evolves whatever schema it finds into the current one: missing tables
// are created, missing columns are added, and tables that still carry the
// retired intro_end_chapter or intro_end_time columns are rebuilt in place
// without losing rows. The evolution is idempotent and runs on every Open.
//
// Lookups return (nil, nil) when a row is absent. I/O failures wrap
// ErrStoreUnavailable so callers can keep playing without persistence.
package episodes
