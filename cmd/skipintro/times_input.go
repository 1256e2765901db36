package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"skipintro/internal/episodes"
)

const clearValue = "-"

var timeFlagNames = []string{"intro-chapter", "outro-chapter", "intro-start", "intro-duration", "outro-start", "clear"}

// timesFlags binds the flags shared by `show set` and `episode set`.
type timesFlags struct {
	introChapter  int
	outroChapter  int
	introStart    string
	introDuration string
	outroStart    string
	clear         bool
}

func (f *timesFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.IntVar(&f.introChapter, "intro-chapter", 0, "1-based chapter where the intro starts (0 clears)")
	fl.IntVar(&f.outroChapter, "outro-chapter", 0, "1-based chapter where the outro starts (0 clears)")
	fl.StringVar(&f.introStart, "intro-start", "", "Intro start as MM:SS (\"-\" clears)")
	fl.StringVar(&f.introDuration, "intro-duration", "", "Intro length as MM:SS or seconds, 0 means never skip (\"-\" clears)")
	fl.StringVar(&f.outroStart, "outro-start", "", "Outro start as MM:SS (\"-\" clears)")
	fl.BoolVar(&f.clear, "clear", false, "Clear saved times before applying the other flags")
}

func (f *timesFlags) changed(cmd *cobra.Command) bool {
	return lo.SomeBy(timeFlagNames, func(name string) bool {
		return cmd.Flags().Changed(name)
	})
}

// apply layers the changed flags over base.
func (f *timesFlags) apply(cmd *cobra.Command, base episodes.Times) (episodes.Times, error) {
	t := base
	if f.clear {
		t = episodes.Times{}
	}
	fl := cmd.Flags()
	var err error
	if fl.Changed("intro-chapter") {
		if t.IntroStartChapter, err = chapterValue("intro-chapter", f.introChapter); err != nil {
			return t, err
		}
	}
	if fl.Changed("outro-chapter") {
		if t.OutroStartChapter, err = chapterValue("outro-chapter", f.outroChapter); err != nil {
			return t, err
		}
	}
	if fl.Changed("intro-start") {
		if t.IntroStartTime, err = clockValue("intro-start", f.introStart); err != nil {
			return t, err
		}
	}
	if fl.Changed("intro-duration") {
		if t.IntroDuration, err = clockValue("intro-duration", f.introDuration); err != nil {
			return t, err
		}
	}
	if fl.Changed("outro-start") {
		if t.OutroStartTime, err = clockValue("outro-start", f.outroStart); err != nil {
			return t, err
		}
	}
	return t, checkTimes(t)
}

func chapterValue(flag string, n int) (*int, error) {
	switch {
	case n < 0:
		return nil, fmt.Errorf("--%s: chapter numbers start at 1", flag)
	case n == 0:
		return nil, nil
	default:
		return episodes.IntPtr(n), nil
	}
}

func clockValue(flag, value string) (*float64, error) {
	if strings.TrimSpace(value) == clearValue {
		return nil, nil
	}
	v, err := parseClock(value)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", flag, err)
	}
	return &v, nil
}

// checkTimes rejects combinations that can never produce a window.
func checkTimes(t episodes.Times) error {
	if (t.IntroStartTime == nil) != (t.IntroDuration == nil) {
		return errors.New("intro start and intro duration must be set together")
	}
	if t.OutroStartChapter != nil && t.IntroStartChapter == nil {
		return errors.New("an outro chapter needs an intro chapter")
	}
	return nil
}

// timesPrompter asks for skip times on the terminal, re-prompting until
// each answer parses.
type timesPrompter struct {
	ask func(p survey.Prompt, response any, opts ...survey.AskOpt) error
}

func newTimesPrompter() timesPrompter {
	return timesPrompter{ask: survey.AskOne}
}

const (
	modeChapters = "chapters"
	modeTime     = "time"
)

// prompt asks how the intro is located and for the matching fields. The
// returned mode is modeChapters or modeTime.
func (p timesPrompter) prompt(current episodes.Times) (episodes.Times, string, error) {
	mode := modeTime
	if current.IntroStartChapter != nil {
		mode = modeChapters
	}
	err := p.ask(&survey.Select{
		Message: "Locate the intro by",
		Options: []string{modeChapters, modeTime},
		Default: mode,
	}, &mode)
	if err != nil {
		return episodes.Times{}, "", promptError(err)
	}

	var t episodes.Times
	if mode == modeChapters {
		if t.IntroStartChapter, err = p.chapter("Intro start chapter", current.IntroStartChapter, true); err != nil {
			return t, mode, err
		}
		if t.OutroStartChapter, err = p.chapter("Outro start chapter (blank for none)", current.OutroStartChapter, false); err != nil {
			return t, mode, err
		}
		return t, mode, nil
	}
	if t.IntroStartTime, err = p.clock("Intro start (MM:SS)", current.IntroStartTime, true); err != nil {
		return t, mode, err
	}
	if t.IntroDuration, err = p.clock("Intro duration (MM:SS or seconds, 0 to never skip)", current.IntroDuration, true); err != nil {
		return t, mode, err
	}
	if t.OutroStartTime, err = p.clock("Outro start (MM:SS, blank for none)", current.OutroStartTime, false); err != nil {
		return t, mode, err
	}
	return t, mode, nil
}

func (p timesPrompter) confirm(message string, current bool) (bool, error) {
	answer := current
	if err := p.ask(&survey.Confirm{Message: message, Default: current}, &answer); err != nil {
		return false, promptError(err)
	}
	return answer, nil
}

func (p timesPrompter) clock(message string, current *float64, required bool) (*float64, error) {
	q := &survey.Input{Message: message}
	if current != nil {
		q.Default = formatClock(*current)
	}
	var answer string
	if err := p.ask(q, &answer, survey.WithValidator(clockValidator(required))); err != nil {
		return nil, promptError(err)
	}
	if strings.TrimSpace(answer) == "" {
		return nil, nil
	}
	v, err := parseClock(answer)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (p timesPrompter) chapter(message string, current *int, required bool) (*int, error) {
	q := &survey.Input{Message: message}
	if current != nil {
		q.Default = strconv.Itoa(*current)
	}
	var answer string
	if err := p.ask(q, &answer, survey.WithValidator(chapterValidator(required))); err != nil {
		return nil, promptError(err)
	}
	if strings.TrimSpace(answer) == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func clockValidator(required bool) survey.Validator {
	return func(ans any) error {
		s, _ := ans.(string)
		if strings.TrimSpace(s) == "" {
			if required {
				return errors.New("a value is required")
			}
			return nil
		}
		_, err := parseClock(s)
		return err
	}
}

func chapterValidator(required bool) survey.Validator {
	return func(ans any) error {
		s, _ := ans.(string)
		s = strings.TrimSpace(s)
		if s == "" {
			if required {
				return errors.New("a chapter number is required")
			}
			return nil
		}
		if n, err := strconv.Atoi(s); err != nil || n < 1 {
			return errors.New("enter a chapter number starting at 1")
		}
		return nil
	}
}

// promptError turns Ctrl-C into a cancellation so main exits quietly.
func promptError(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return context.Canceled
	}
	return err
}
