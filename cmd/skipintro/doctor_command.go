package main

import (
	"fmt"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"skipintro/internal/config"
	"skipintro/internal/preflight"
	"skipintro/internal/watcher"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, database, player socket and external programs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			failures := 0

			fmt.Fprintln(out, renderSectionHeader("Environment", colorize))
			for _, r := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusOK
				if !r.Passed {
					kind = statusError
					if r.Advisory {
						kind = statusWarn
					} else {
						failures++
					}
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			fmt.Fprintln(out, renderStatusLine("Watcher", statusOK, watcherState(cfg), colorize))

			fmt.Fprintln(out, renderSectionHeader("Programs", colorize))
			for _, s := range preflight.CheckSystemDeps(cfg) {
				kind := statusOK
				switch {
				case s.Available:
				case s.Optional:
					kind = statusWarn
				default:
					kind = statusError
					failures++
				}
				fmt.Fprintln(out, renderStatusLine(s.Name, kind, s.Detail, colorize))
			}

			if failures > 0 {
				return fmt.Errorf("%d check(s) failed", failures)
			}
			return nil
		},
	}
}

// watcherState probes the watcher lock without holding it.
func watcherState(cfg *config.Config) string {
	path := watcher.LockPath(cfg)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Sprintf("unknown (%v)", err)
	}
	if !ok {
		return "running (" + path + ")"
	}
	_ = lock.Unlock()
	return "not running"
}
