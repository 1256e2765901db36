package preflight

import (
	"context"

	"skipintro/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Advisory failures describe conditions the watcher recovers from.
	Advisory bool
}

// RunAll executes the filesystem, database and player checks for cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDatabase(ctx, cfg.Paths.DatabasePath),
		CheckPlayerSocket(ctx, cfg.Player.SocketPath, cfg.CommandTimeout()),
	}
}
