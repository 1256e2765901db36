// Package preflight provides readiness checks for the paths, programs and
// player socket skipintro depends on.
//
// The "skipintro doctor" command runs RunAll and CheckSystemDeps and prints
// one line per check. The watcher itself does not gate on these checks; it
// waits for the player instead.
package preflight
