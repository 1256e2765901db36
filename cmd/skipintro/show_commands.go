package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"skipintro/internal/config"
	"skipintro/internal/episodes"
	"skipintro/internal/identify"
)

type timesView struct {
	IntroStartChapter *int     `json:"intro_start_chapter,omitempty"`
	OutroStartChapter *int     `json:"outro_start_chapter,omitempty"`
	IntroStartTime    *float64 `json:"intro_start_time,omitempty"`
	IntroDuration     *float64 `json:"intro_duration,omitempty"`
	OutroStartTime    *float64 `json:"outro_start_time,omitempty"`
}

type episodeView struct {
	Season  int    `json:"season"`
	Episode int    `json:"episode"`
	Source  string `json:"source"`
	timesView
	UpdatedAt string `json:"updated_at,omitempty"`
}

type showView struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	UseChapters bool          `json:"use_chapters"`
	UseDefaults bool          `json:"use_defaults"`
	Defaults    timesView     `json:"defaults"`
	Episodes    []episodeView `json:"episodes"`
}

func newTimesView(t episodes.Times) timesView {
	return timesView(t)
}

func newEpisodeView(o episodes.EpisodeOverride) episodeView {
	v := episodeView{
		Season:    o.Season,
		Episode:   o.Episode,
		Source:    string(o.Source),
		timesView: newTimesView(o.Times),
	}
	if !o.UpdatedAt.IsZero() {
		v.UpdatedAt = o.UpdatedAt.Format("2006-01-02 15:04")
	}
	return v
}

// describeIntro summarizes how the intro is located.
func describeIntro(t episodes.Times) string {
	var parts []string
	if t.IntroStartChapter != nil {
		parts = append(parts, "chapter "+strconv.Itoa(*t.IntroStartChapter))
	}
	if t.IntroStartTime != nil {
		switch {
		case t.IntroDuration == nil:
			parts = append(parts, formatClock(*t.IntroStartTime)+" (no duration)")
		case *t.IntroDuration == 0:
			parts = append(parts, "never skip")
		default:
			parts = append(parts, formatClock(*t.IntroStartTime)+" +"+formatClock(*t.IntroDuration))
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " / ")
}

func describeOutro(t episodes.Times) string {
	switch {
	case t.OutroStartChapter != nil && t.OutroStartTime != nil:
		return fmt.Sprintf("chapter %d / %s", *t.OutroStartChapter, formatClock(*t.OutroStartTime))
	case t.OutroStartChapter != nil:
		return "chapter " + strconv.Itoa(*t.OutroStartChapter)
	default:
		return clockOrDash(t.OutroStartTime)
	}
}

// matchShowTitle reuses a stored title close enough to title.
func matchShowTitle(ctx context.Context, cfg *config.Config, store *episodes.Store, title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", episodes.ErrInvalidTitle
	}
	known, err := store.Titles(ctx)
	if err != nil {
		return "", err
	}
	if match, _, ok := identify.Canonicalize(title, known, cfg.Identify.FuzzyThreshold); ok {
		return match, nil
	}
	return title, nil
}

// findShow resolves title against the store and fails when it is unknown.
func findShow(ctx context.Context, cfg *config.Config, store *episodes.Store, title string) (*episodes.Show, error) {
	title, err := matchShowTitle(ctx, cfg, store, title)
	if err != nil {
		return nil, err
	}
	show, err := store.FindShow(ctx, title)
	if err != nil {
		return nil, err
	}
	if show == nil {
		return nil, fmt.Errorf("show %q not found (see `skipintro shows list`)", title)
	}
	return show, nil
}

func loadShowView(ctx context.Context, store *episodes.Store, show episodes.Show) (showView, error) {
	view := showView{ID: show.ID, Title: show.Title, Episodes: []episodeView{}}
	cfg, err := store.GetShowConfig(ctx, show.ID)
	if err != nil {
		return view, err
	}
	if cfg != nil {
		view.UseChapters = cfg.UseChapters
		view.UseDefaults = cfg.UseDefaults
		view.Defaults = newTimesView(cfg.Times)
	}
	overrides, err := store.ListEpisodeOverrides(ctx, show.ID)
	if err != nil {
		return view, err
	}
	for _, o := range overrides {
		view.Episodes = append(view.Episodes, newEpisodeView(o))
	}
	return view, nil
}

func newShowsCommand(ctx *commandContext) *cobra.Command {
	showsCmd := &cobra.Command{
		Use:   "shows",
		Short: "Inspect known shows",
	}
	showsCmd.AddCommand(newShowsListCommand(ctx))
	return showsCmd
}

func newShowsListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List shows with saved skip settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *episodes.Store) error {
				shows, err := store.ListShows(cmd.Context())
				if err != nil {
					return err
				}
				views := make([]showView, 0, len(shows))
				for _, show := range shows {
					view, err := loadShowView(cmd.Context(), store, show)
					if err != nil {
						return err
					}
					views = append(views, view)
				}
				if asJSON {
					return writeJSON(cmd, views)
				}
				return printShowList(cmd.OutOrStdout(), views)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func printShowList(out io.Writer, views []showView) error {
	if len(views) == 0 {
		_, err := fmt.Fprintln(out, "No shows yet")
		return err
	}
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		defaults := episodes.Times(v.Defaults)
		rows = append(rows, []string{
			strconv.FormatInt(v.ID, 10),
			v.Title,
			yesNo(v.UseChapters),
			yesNo(v.UseDefaults),
			describeIntro(defaults),
			describeOutro(defaults),
			strconv.Itoa(len(v.Episodes)),
		})
	}
	_, err := fmt.Fprintln(out, renderTable([]column{
		{header: "ID", align: alignRight},
		{header: "Title"},
		{header: "Chapters"},
		{header: "Defaults"},
		{header: "Intro"},
		{header: "Outro"},
		{header: "Episodes", align: alignRight},
	}, rows))
	return err
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "View or edit one show's skip settings",
	}
	showCmd.AddCommand(newShowGetCommand(ctx))
	showCmd.AddCommand(newShowSetCommand(ctx))
	return showCmd
}

func newShowGetCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "get <title>",
		Short: "Print a show's settings and saved episodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *episodes.Store) error {
				show, err := findShow(cmd.Context(), cfg, store, args[0])
				if err != nil {
					return err
				}
				view, err := loadShowView(cmd.Context(), store, *show)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, view)
				}
				return printShow(cmd.OutOrStdout(), view)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func printShow(out io.Writer, v showView) error {
	defaults := episodes.Times(v.Defaults)
	fmt.Fprintf(out, "Show:          %s (id %d)\n", v.Title, v.ID)
	fmt.Fprintf(out, "Use chapters:  %s\n", yesNo(v.UseChapters))
	fmt.Fprintf(out, "Use defaults:  %s\n", yesNo(v.UseDefaults))
	fmt.Fprintf(out, "Intro:         %s\n", describeIntro(defaults))
	fmt.Fprintf(out, "Outro:         %s\n", describeOutro(defaults))
	if len(v.Episodes) == 0 {
		_, err := fmt.Fprintln(out, "No saved episodes")
		return err
	}
	_, err := fmt.Fprintln(out, renderEpisodes(v.Episodes))
	return err
}

func renderEpisodes(eps []episodeView) string {
	rows := make([][]string, 0, len(eps))
	for _, e := range eps {
		t := episodes.Times(e.timesView)
		rows = append(rows, []string{
			fmt.Sprintf("S%02dE%02d", e.Season, e.Episode),
			describeIntro(t),
			describeOutro(t),
			e.Source,
			e.UpdatedAt,
		})
	}
	return renderTable([]column{
		{header: "Episode"},
		{header: "Intro"},
		{header: "Outro"},
		{header: "Source"},
		{header: "Updated"},
	}, rows)
}

func newShowSetCommand(ctx *commandContext) *cobra.Command {
	var flags timesFlags
	var useChapters, useDefaults bool

	cmd := &cobra.Command{
		Use:   "set <title>",
		Short: "Set a show's chapter or default-time configuration",
		Long: "Set how a show's intro is found. Chapter mode (--intro-chapter) applies to every episode " +
			"with chapters; time mode (--intro-start, --intro-duration) applies to episodes without their " +
			"own saved times when --use-defaults is on. Without flags on a terminal, the values are asked for.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *episodes.Store) error {
				c := cmd.Context()
				title, err := matchShowTitle(c, cfg, store, args[0])
				if err != nil {
					return err
				}
				showID, err := store.GetOrCreateShow(c, title)
				if err != nil {
					return err
				}
				current, err := store.GetShowConfig(c, showID)
				if err != nil {
					return err
				}
				next := episodes.ShowConfig{ShowID: showID}
				if current != nil {
					next = *current
				}

				fl := cmd.Flags()
				switch {
				case flags.changed(cmd):
					if next.Times, err = flags.apply(cmd, next.Times); err != nil {
						return err
					}
					if !fl.Changed("use-chapters") {
						next.UseChapters = next.IntroStartChapter != nil
					}
				case !fl.Changed("use-chapters") && !fl.Changed("use-defaults") && stdinIsTerminal():
					if next, err = promptShowConfig(newTimesPrompter(), next); err != nil {
						return err
					}
				}
				if fl.Changed("use-chapters") {
					next.UseChapters = useChapters
				}
				if fl.Changed("use-defaults") {
					next.UseDefaults = useDefaults
				}
				if next.UseChapters && next.IntroStartChapter == nil {
					return fmt.Errorf("chapter mode needs --intro-chapter")
				}

				if err := store.SaveShowConfig(c, showID, next); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s: intro %s, outro %s, chapters %s, defaults %s\n",
					title, describeIntro(next.Times), describeOutro(next.Times), yesNo(next.UseChapters), yesNo(next.UseDefaults))
				return nil
			})
		},
	}
	flags.bind(cmd)
	cmd.Flags().BoolVar(&useChapters, "use-chapters", false, "Locate the intro by chapter number")
	cmd.Flags().BoolVar(&useDefaults, "use-defaults", false, "Apply the show's times to episodes without their own")
	return cmd
}

func promptShowConfig(p timesPrompter, current episodes.ShowConfig) (episodes.ShowConfig, error) {
	times, mode, err := p.prompt(current.Times)
	if err != nil {
		return current, err
	}
	next := current
	next.Times = times
	next.UseChapters = mode == modeChapters
	if mode == modeTime {
		if next.UseDefaults, err = p.confirm("Use these times for every episode without its own?", current.UseDefaults); err != nil {
			return current, err
		}
	}
	return next, nil
}
