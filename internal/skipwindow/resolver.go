package skipwindow

import (
	"fmt"

	"skipintro/internal/chapters"
	"skipintro/internal/episodes"
)

// Rule identifies which rule produced a window.
type Rule string

const (
	RuleShowChapters    Rule = "show_chapters"
	RuleEpisodeChapters Rule = "episode_chapters"
	RuleEpisodeTime     Rule = "episode_time"
	RuleShowDefaultTime Rule = "show_default_time"
	RuleHeuristic       Rule = "chapter_heuristic"
	RuleDefaultDelay    Rule = "default_delay"
)

// Settings are the user preferences the rules depend on. Times are seconds.
type Settings struct {
	DefaultDelay float64
	SkipDuration float64
	UseChapters  bool
}

// Input is everything the static rules look at. Show and Episode are nil
// when nothing is stored.
type Input struct {
	Chapters []chapters.Chapter
	Show     *episodes.ShowConfig
	Episode  *episodes.EpisodeOverride
	Settings Settings
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	Window Window
	Rule   Rule
	// IntroChapter and OutroChapter are the 1-based chapter numbers used,
	// when the window came from chapters.
	IntroChapter int
	OutroChapter int
	// Rejected lists saved data that was skipped because it was invalid;
	// each entry wraps ErrInvalidStoredWindow.
	Rejected []error
}

// Resolve applies the static rules in order and returns the first valid
// window. ok is false when no rule applies; the caller then falls back to
// Default as playback progresses.
func Resolve(in Input) (res Resolution, ok bool) {
	skip := in.Settings.SkipDuration
	chs := in.Chapters

	accept := func(r Resolution, err error) bool {
		if err != nil {
			res.Rejected = append(res.Rejected, err)
			return false
		}
		r.Rejected = res.Rejected
		res = r
		return true
	}

	if show := in.Show; show != nil && show.UseChapters && show.IntroStartChapter != nil && len(chs) > 0 {
		if accept(fromChapterNumbers(chs, *show.IntroStartChapter, show.OutroStartChapter, skip, RuleShowChapters)) {
			return res, true
		}
	}
	if ep := in.Episode; ep != nil && ep.IntroStartChapter != nil && len(chs) > 0 {
		if accept(fromChapterNumbers(chs, *ep.IntroStartChapter, ep.OutroStartChapter, skip, RuleEpisodeChapters)) {
			return res, true
		}
	}
	if ep := in.Episode; ep != nil && ep.IntroStartTime != nil {
		if accept(fromSavedTime(ep.Times, RuleEpisodeTime)) {
			return res, true
		}
	}
	if show := in.Show; show != nil && show.UseDefaults && show.IntroStartTime != nil && !hasOwnTimes(in.Episode) {
		if accept(fromSavedTime(show.Times, RuleShowDefaultTime)) {
			return res, true
		}
	}

	if in.Settings.UseChapters && len(chs) > 0 {
		if pos, found := chapters.FindIntro(chs); found {
			w := Window{Start: chs[pos].Start, Source: SourceChapters}
			if pos+1 < len(chs) {
				w.End = chs[pos+1].Start
			} else {
				w.End = w.Start + skip
			}
			if w.Validate() == nil {
				res.Window = w
				res.Rule = RuleHeuristic
				res.IntroChapter = pos + 1
				return res, true
			}
		}
	}

	return res, false
}

// Default returns the fallback window once playback reaches DefaultDelay.
func Default(now float64, s Settings) (Window, bool) {
	if now < 0 || now < s.DefaultDelay {
		return Window{}, false
	}
	return Window{Start: now, End: now + s.SkipDuration, Source: SourceDefault}, true
}

func hasOwnTimes(ep *episodes.EpisodeOverride) bool {
	return ep != nil && (ep.IntroStartTime != nil || ep.IntroStartChapter != nil)
}

func fromChapterNumbers(chs []chapters.Chapter, intro int, outro *int, skip float64, rule Rule) (Resolution, error) {
	start, ok := chapters.ByNumber(chs, intro)
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %s intro chapter %d of %d", ErrInvalidStoredWindow, rule, intro, len(chs))
	}
	w := Window{Start: start.Start, Source: SourceChapters}
	if next, ok := chapters.ByNumber(chs, intro+1); ok {
		w.End = next.Start
	} else {
		w.End = w.Start + skip
	}
	res := Resolution{Window: w, Rule: rule, IntroChapter: intro}
	if outro != nil {
		if c, ok := chapters.ByNumber(chs, *outro); ok {
			t := c.Start
			res.Window.OutroStart = &t
			res.OutroChapter = *outro
		}
	}
	if err := res.Window.Validate(); err != nil {
		return Resolution{}, fmt.Errorf("%s: %w", rule, err)
	}
	return res, nil
}

// fromSavedTime builds a window from a start time and duration. A zero
// duration is an explicit request for no skip.
func fromSavedTime(t episodes.Times, rule Rule) (Resolution, error) {
	if t.IntroDuration == nil {
		return Resolution{}, fmt.Errorf("%w: %s has a start time but no duration", ErrInvalidStoredWindow, rule)
	}
	if *t.IntroDuration == 0 {
		return Resolution{Window: Window{Start: *t.IntroStartTime, End: *t.IntroStartTime, Source: SourceNone}, Rule: rule}, nil
	}
	w := Window{
		Start:      *t.IntroStartTime,
		End:        *t.IntroStartTime + *t.IntroDuration,
		OutroStart: copyFloat(t.OutroStartTime),
		Source:     SourceSavedTime,
	}
	if err := w.Validate(); err != nil {
		return Resolution{}, fmt.Errorf("%s: %w", rule, err)
	}
	return Resolution{Window: w, Rule: rule}, nil
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}
