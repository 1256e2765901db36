package main

import (
	"log/slog"

	"skipintro/internal/config"
	"skipintro/internal/episodes"
	"skipintro/internal/logging"
	"skipintro/internal/watcher"
)

// buildWatcher opens the episode store and wires the watcher. The daemon has
// no terminal, so prompts rely on the player OSD. A store that fails to open
// is logged and the watcher runs without saved times.
func buildWatcher(cfg *config.Config, logger *slog.Logger, logPath string) (*watcher.Watcher, func()) {
	cleanup := func() {}
	store, err := episodes.Open(cfg)
	if err != nil {
		logging.WarnWithContext(logger, "episode store unavailable; running without saved times", "store_open",
			logging.String(logging.FieldImpact, "windows are neither loaded nor saved"),
			logging.String(logging.FieldErrorHint, "check paths.database_path"),
			logging.Error(err),
		)
	} else {
		cleanup = func() { _ = store.Close() }
	}
	return watcher.New(cfg, store, logger, watcher.WithRunLog(logPath)), cleanup
}
