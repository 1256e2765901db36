package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"skipintro/internal/config"
	"skipintro/internal/episodes"
	"skipintro/internal/logging"
	"skipintro/internal/prompt"
	"skipintro/internal/watcher"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Attach to mpv and offer to skip intros until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, logPath, err := logging.NewFromConfig(cfg, uuid.NewString())
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := episodes.Open(cfg)
			if err != nil {
				logging.WarnWithContext(logger, "episode store unavailable; running without saved times", "store_open",
					logging.String(logging.FieldImpact, "windows are neither loaded nor saved"),
					logging.String(logging.FieldErrorHint, "run `skipintro doctor`"),
					logging.Error(err),
				)
			} else {
				defer store.Close()
			}

			opts := []watcher.Option{watcher.WithRunLog(logPath)}
			if term, err := prompt.NewTerminal(); err == nil {
				opts = append(opts, watcher.WithFallbackConfirmer(term))
			} else if cfg.Skip.Prompt == config.PromptTerminal {
				logging.WarnWithContext(logger, "skip.prompt is terminal but stdin is not a terminal", "prompt_unavailable",
					logging.String(logging.FieldImpact, "the question is shown in mpv instead"),
					logging.String(logging.FieldErrorHint, "run `skipintro watch` from an interactive terminal"),
				)
			}
			return watcher.New(cfg, store, logger, opts...).Run(runCtx)
		},
	}
}
