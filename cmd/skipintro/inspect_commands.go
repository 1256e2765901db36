package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"skipintro/internal/chapters"
	"skipintro/internal/config"
	"skipintro/internal/episodes"
	"skipintro/internal/identify"
	"skipintro/internal/media/ffprobe"
	"skipintro/internal/session"
	"skipintro/internal/skipwindow"
)

// fileInspection is what ffprobe reveals about a media file.
type fileInspection struct {
	File     string
	Duration float64
	Tags     map[string]string
	Chapters []chapters.Chapter
}

func inspectFile(ctx context.Context, cfg *config.Config, logger *slog.Logger, file string) (fileInspection, error) {
	path, err := config.ExpandPath(file)
	if err != nil {
		return fileInspection{}, err
	}
	if _, err := os.Stat(path); err != nil {
		return fileInspection{}, fmt.Errorf("inspect %q: %w", path, err)
	}
	probe, err := ffprobe.Inspect(ctx, cfg.FFprobeBinary(), path)
	if err != nil {
		return fileInspection{}, err
	}
	src := chapters.NewSource(
		[]chapters.Backend{chapters.NewFFprobeBackend(cfg.FFprobeBinary())},
		chapters.Options{Retries: 1},
		logger,
	)
	chs, err := src.Get(ctx, path)
	if err != nil {
		return fileInspection{}, err
	}
	return fileInspection{
		File:     path,
		Duration: probe.DurationSeconds(),
		Tags:     probe.Format.Tags,
		Chapters: chs,
	}, nil
}

type chapterView struct {
	Number int     `json:"number"`
	Name   string  `json:"name"`
	Start  float64 `json:"start"`
}

func newChaptersCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "chapters <file>",
		Short: "List a file's chapters as skipintro sees them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.inspectSetup()
			if err != nil {
				return err
			}
			info, err := inspectFile(cmd.Context(), cfg, logger, args[0])
			if err != nil {
				return err
			}
			views := make([]chapterView, 0, len(info.Chapters))
			for _, c := range info.Chapters {
				views = append(views, chapterView{Number: c.Index, Name: c.Name, Start: c.Start})
			}
			if asJSON {
				return writeJSON(cmd, views)
			}
			return printChapters(cmd.OutOrStdout(), info.Chapters)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func printChapters(out io.Writer, chs []chapters.Chapter) error {
	if len(chs) == 0 {
		_, err := fmt.Fprintln(out, "No chapters")
		return err
	}
	intro, found := chapters.FindIntro(chs)
	rows := make([][]string, 0, len(chs))
	for i, c := range chs {
		mark := ""
		if found && i == intro {
			mark = "intro"
		}
		rows = append(rows, []string{strconv.Itoa(c.Index), formatClock(c.Start), c.Name, mark})
	}
	_, err := fmt.Fprintln(out, renderTable([]column{
		{header: "#", align: alignRight},
		{header: "Start", align: alignRight},
		{header: "Name"},
		{header: ""},
	}, rows))
	return err
}

type identifyView struct {
	File    string            `json:"file"`
	Title   string            `json:"title"`
	Season  int               `json:"season"`
	Episode int               `json:"episode"`
	Label   string            `json:"label"`
	Known   bool              `json:"known_show"`
	ShowID  int64             `json:"show_id,omitempty"`
	Tags    map[string]string `json:"tags,omitempty"`
}

func newIdentifyCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "identify <file>",
		Short: "Show which episode a file is recognized as",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.inspectSetup()
			if err != nil {
				return err
			}
			info, err := inspectFile(cmd.Context(), cfg, logger, args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *episodes.Store) error {
				ident := identify.New(store, cfg.Identify.FuzzyThreshold, logger)
				ep, err := ident.Identify(cmd.Context(), info.File, info.Tags)
				if err != nil {
					return err
				}
				view := identifyView{
					File:    info.File,
					Title:   ep.Title,
					Season:  ep.Season,
					Episode: ep.Episode,
					Label:   ep.Label(),
					Tags:    info.Tags,
				}
				show, err := store.FindShow(cmd.Context(), ep.Title)
				if err != nil {
					return err
				}
				if show != nil {
					view.Known, view.ShowID = true, show.ID
				}
				if asJSON {
					return writeJSON(cmd, view)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Episode:  %s\n", view.Label)
				fmt.Fprintf(out, "Show:     %s\n", view.Title)
				fmt.Fprintf(out, "Season:   %d\n", view.Season)
				fmt.Fprintf(out, "Number:   %d\n", view.Episode)
				fmt.Fprintf(out, "Known:    %s\n", yesNo(view.Known))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

type windowView struct {
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	OutroStart *float64 `json:"outro_start,omitempty"`
	Source     string   `json:"source"`
}

type resolveView struct {
	File         string      `json:"file"`
	Episode      string      `json:"episode,omitempty"`
	ShowID       int64       `json:"show_id,omitempty"`
	Chapters     int         `json:"chapters"`
	Rule         string      `json:"rule,omitempty"`
	Window       *windowView `json:"window,omitempty"`
	IntroChapter int         `json:"intro_chapter,omitempty"`
	OutroChapter int         `json:"outro_chapter,omitempty"`
	Rejected     []string    `json:"rejected,omitempty"`
	// DefaultAfter is when the default window would be offered if no
	// other rule applies.
	DefaultAfter    float64 `json:"default_after,omitempty"`
	DefaultDuration float64 `json:"default_duration,omitempty"`
	IdentifyError   string  `json:"identify_error,omitempty"`
}

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "resolve <file>",
		Short: "Explain which skip window playing a file would offer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.inspectSetup()
			if err != nil {
				return err
			}
			info, err := inspectFile(cmd.Context(), cfg, logger, args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *episodes.Store) error {
				view, err := resolveFile(cmd.Context(), cfg, store, logger, info)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, view)
				}
				return printResolution(cmd.OutOrStdout(), view)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

// resolveFile runs the same rules as a live playback, without creating shows.
func resolveFile(ctx context.Context, cfg *config.Config, store *episodes.Store, logger *slog.Logger, info fileInspection) (resolveView, error) {
	settings := session.MachineFromConfig(cfg).Settings
	view := resolveView{File: info.File, Chapters: len(info.Chapters)}
	in := skipwindow.Input{Chapters: info.Chapters, Settings: settings}

	ep, err := identify.New(store, cfg.Identify.FuzzyThreshold, logger).Identify(ctx, info.File, info.Tags)
	switch {
	case errors.Is(err, identify.ErrNoMetadata):
		view.IdentifyError = err.Error()
	case err != nil:
		return view, err
	default:
		view.Episode = ep.Label()
		show, err := store.FindShow(ctx, ep.Title)
		if err != nil {
			return view, err
		}
		if show != nil {
			view.ShowID = show.ID
			if in.Show, err = store.GetShowConfig(ctx, show.ID); err != nil {
				return view, err
			}
			if in.Episode, err = store.GetEpisodeOverride(ctx, show.ID, ep.Season, ep.Episode); err != nil {
				return view, err
			}
		}
	}

	res, ok := skipwindow.Resolve(in)
	for _, rejected := range res.Rejected {
		view.Rejected = append(view.Rejected, rejected.Error())
	}
	if !ok {
		view.Rule = string(skipwindow.RuleDefaultDelay)
		view.DefaultAfter = settings.DefaultDelay
		view.DefaultDuration = settings.SkipDuration
		return view, nil
	}
	view.Rule = string(res.Rule)
	view.IntroChapter = res.IntroChapter
	view.OutroChapter = res.OutroChapter
	view.Window = &windowView{
		Start:      res.Window.Start,
		End:        res.Window.End,
		OutroStart: res.Window.OutroStart,
		Source:     string(res.Window.Source),
	}
	return view, nil
}

func printResolution(out io.Writer, v resolveView) error {
	fmt.Fprintf(out, "File:      %s\n", v.File)
	if v.Episode != "" {
		fmt.Fprintf(out, "Episode:   %s\n", v.Episode)
	} else {
		fmt.Fprintf(out, "Episode:   not identified (%s)\n", v.IdentifyError)
	}
	if v.ShowID == 0 {
		fmt.Fprintln(out, "Saved:     none")
	} else {
		fmt.Fprintf(out, "Saved:     show id %d\n", v.ShowID)
	}
	fmt.Fprintf(out, "Chapters:  %d\n", v.Chapters)
	fmt.Fprintf(out, "Rule:      %s\n", v.Rule)
	switch {
	case v.Window == nil:
		fmt.Fprintf(out, "Window:    %s from %s into playback\n", formatClock(v.DefaultDuration), formatClock(v.DefaultAfter))
	case v.Window.Source == string(skipwindow.SourceNone):
		fmt.Fprintln(out, "Window:    never skip (saved)")
	default:
		fmt.Fprintf(out, "Window:    %s - %s (%s)\n", formatClock(v.Window.Start), formatClock(v.Window.End), v.Window.Source)
		if v.Window.OutroStart != nil {
			fmt.Fprintf(out, "Outro:     %s\n", formatClock(*v.Window.OutroStart))
		}
	}
	sort.Strings(v.Rejected)
	for _, r := range v.Rejected {
		fmt.Fprintf(out, "Ignored:   %s\n", r)
	}
	return nil
}
