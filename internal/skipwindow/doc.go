// Package skipwindow decides where an episode's intro starts and ends.
//
// Resolve applies the static rules in precedence order and stops at the
// first complete, valid window:
//
//  1. the show's chapter configuration
//  2. the episode's saved chapter numbers
//  3. the episode's saved start time and duration
//  4. the show's default start time and duration, when the show applies
//     its defaults to every episode
//  5. chapter naming heuristics
//
// Default produces the fallback window from live playback time and is
// evaluated by the session on every tick, never by Resolve.
//
// The package is pure: no I/O, no clocks, no logging.
package skipwindow
