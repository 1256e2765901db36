// Package main hosts the skipintro CLI entrypoint and command graph.
//
// The Cobra command tree covers the long-running player watcher, offline
// inspection of media files (chapters, identification, window resolution),
// manual editing of saved show and episode skip data, configuration
// scaffolding, and environment diagnostics. Configuration is resolved once
// per invocation; the episode store is opened lazily by commands that need it.
package main
