package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"skipintro/internal/config"
	"skipintro/internal/episodes"
)

type episodeRef struct {
	title   string
	season  int
	episode int
}

func parseEpisodeArgs(args []string) (episodeRef, error) {
	ref := episodeRef{title: args[0]}
	season, err := strconv.Atoi(args[1])
	if err != nil || season < 0 {
		return ref, fmt.Errorf("invalid season %q", args[1])
	}
	episode, err := strconv.Atoi(args[2])
	if err != nil || episode < 1 {
		return ref, fmt.Errorf("invalid episode %q", args[2])
	}
	ref.season, ref.episode = season, episode
	return ref, nil
}

func (r episodeRef) label(title string) string {
	return fmt.Sprintf("%s S%02dE%02d", title, r.season, r.episode)
}

func newEpisodeCommand(ctx *commandContext) *cobra.Command {
	episodeCmd := &cobra.Command{
		Use:   "episode",
		Short: "View or edit one episode's saved skip times",
	}
	episodeCmd.AddCommand(newEpisodeGetCommand(ctx))
	episodeCmd.AddCommand(newEpisodeSetCommand(ctx))
	episodeCmd.AddCommand(newEpisodeDeleteCommand(ctx))
	return episodeCmd
}

func newEpisodeGetCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "get <title> <season> <episode>",
		Short: "Print an episode's saved times",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseEpisodeArgs(args)
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *episodes.Store) error {
				show, err := findShow(cmd.Context(), cfg, store, ref.title)
				if err != nil {
					return err
				}
				o, err := store.GetEpisodeOverride(cmd.Context(), show.ID, ref.season, ref.episode)
				if err != nil {
					return err
				}
				if o == nil {
					return fmt.Errorf("no saved times for %s", ref.label(show.Title))
				}
				view := newEpisodeView(*o)
				if asJSON {
					return writeJSON(cmd, view)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Episode:  %s\n", ref.label(show.Title))
				fmt.Fprintf(out, "Intro:    %s\n", describeIntro(o.Times))
				fmt.Fprintf(out, "Outro:    %s\n", describeOutro(o.Times))
				fmt.Fprintf(out, "Source:   %s\n", o.Source)
				if view.UpdatedAt != "" {
					fmt.Fprintf(out, "Updated:  %s\n", view.UpdatedAt)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newEpisodeSetCommand(ctx *commandContext) *cobra.Command {
	var flags timesFlags
	cmd := &cobra.Command{
		Use:   "set <title> <season> <episode>",
		Short: "Save an episode's intro times manually",
		Long: "Save exact intro times (--intro-start, --intro-duration) or chapter numbers for one episode. " +
			"An intro duration of 0 means the episode is never skipped. Without flags on a terminal, the values are asked for.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseEpisodeArgs(args)
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *episodes.Store) error {
				c := cmd.Context()
				title, err := matchShowTitle(c, cfg, store, ref.title)
				if err != nil {
					return err
				}
				showID, err := store.GetOrCreateShow(c, title)
				if err != nil {
					return err
				}
				current, err := store.GetEpisodeOverride(c, showID, ref.season, ref.episode)
				if err != nil {
					return err
				}
				var times episodes.Times
				if current != nil {
					times = current.Times
				}

				switch {
				case flags.changed(cmd):
					times, err = flags.apply(cmd, times)
				case stdinIsTerminal():
					times, _, err = newTimesPrompter().prompt(times)
				default:
					return fmt.Errorf("no times given; pass --intro-start and --intro-duration or --intro-chapter")
				}
				if err != nil {
					return err
				}
				if times.IsZero() {
					return fmt.Errorf("nothing to save for %s; use `skipintro episode delete` to remove saved times", ref.label(title))
				}

				if err := store.SaveEpisodeTimes(c, showID, ref.season, ref.episode, times, episodes.SourceManual); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s: intro %s, outro %s\n",
					ref.label(title), describeIntro(times), describeOutro(times))
				return nil
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func newEpisodeDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <title> <season> <episode>",
		Short: "Forget an episode's saved times",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseEpisodeArgs(args)
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *episodes.Store) error {
				show, err := findShow(cmd.Context(), cfg, store, ref.title)
				if err != nil {
					return err
				}
				removed, err := store.DeleteEpisodeOverride(cmd.Context(), show.ID, ref.season, ref.episode)
				if err != nil {
					return err
				}
				if !removed {
					fmt.Fprintf(cmd.OutOrStdout(), "No saved times for %s\n", ref.label(show.Title))
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed saved times for %s\n", ref.label(show.Title))
				return nil
			})
		},
	}
}
