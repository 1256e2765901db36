package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"skipintro/internal/logging"
	"skipintro/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var filters logs.Filters

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the latest watcher run log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := logs.Latest(cfg.Paths.LogDir, logging.RunLogPattern)
			if err != nil {
				return err
			}
			tail, offset, err := logs.Last(path, lines, filters.Match)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				if len(tail) == 0 {
					fmt.Fprintln(out, "No log entries available")
				}
				return nil
			}

			followCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return logs.Follow(followCtx, path, offset, 250*time.Millisecond, func(line string) {
				if filters.Match(line) {
					fmt.Fprintln(out, line)
				}
			})
		},
	}

	fl := cmd.Flags()
	fl.IntVarP(&lines, "lines", "n", 20, "Number of trailing lines to print")
	fl.BoolVarP(&follow, "follow", "f", false, "Keep printing lines as they are written")
	fl.StringVar(&filters.Component, "component", "", "Only lines from this component (watcher, session, prompt, ...)")
	fl.StringVar(&filters.PlaybackID, "playback", "", "Only lines for this playback id")
	fl.StringVar(&filters.Episode, "episode", "", "Only lines whose episode label contains this text")
	fl.StringVar(&filters.Level, "level", "", "Only lines at this level")
	fl.StringVar(&filters.Decision, "decision", "", "Only decision lines of this type (skip_window, skip_prompt, ...)")
	fl.StringVar(&filters.Search, "search", "", "Only lines containing this text")
	return cmd
}
