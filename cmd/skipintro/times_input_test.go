package main

import (
	"context"
	"errors"
	"testing"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/cobra"

	"skipintro/internal/episodes"
)

// scriptedAsk answers survey prompts from a fixed list, in order.
type scriptedAsk struct {
	answers []any
	err     error
}

func (s *scriptedAsk) ask(_ survey.Prompt, response any, _ ...survey.AskOpt) error {
	if s.err != nil {
		return s.err
	}
	if len(s.answers) == 0 {
		return errors.New("unexpected prompt")
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	switch r := response.(type) {
	case *string:
		*r = answer.(string)
	case *bool:
		*r = answer.(bool)
	default:
		return errors.New("unsupported response type")
	}
	return nil
}

func (s *scriptedAsk) remaining() int { return len(s.answers) }

func testShowConfig() episodes.ShowConfig {
	return episodes.ShowConfig{
		ShowID: 1,
		Times: episodes.Times{
			IntroStartTime: episodes.FloatPtr(10),
			IntroDuration:  episodes.FloatPtr(20),
		},
	}
}

func newFlagCommand(t *testing.T, args ...string) (*cobra.Command, *timesFlags) {
	t.Helper()
	var flags timesFlags
	cmd := &cobra.Command{Use: "test"}
	flags.bind(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd, &flags
}

func TestTimesFlagsApply(t *testing.T) {
	base := episodes.Times{
		IntroStartChapter: episodes.IntPtr(2),
		IntroStartTime:    episodes.FloatPtr(30),
		IntroDuration:     episodes.FloatPtr(60),
		OutroStartTime:    episodes.FloatPtr(1200),
	}

	cmd, flags := newFlagCommand(t, "--intro-duration", "1:30", "--intro-chapter", "0")
	if !flags.changed(cmd) {
		t.Fatal("expected flags to be reported as changed")
	}
	got, err := flags.apply(cmd, base)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got.IntroStartChapter != nil {
		t.Fatalf("intro chapter 0 should clear, got %v", *got.IntroStartChapter)
	}
	if *got.IntroDuration != 90 || *got.IntroStartTime != 30 || *got.OutroStartTime != 1200 {
		t.Fatalf("unexpected times %+v", got)
	}

	cmd, flags = newFlagCommand(t, "--clear", "--intro-chapter", "3")
	got, err = flags.apply(cmd, base)
	if err != nil {
		t.Fatalf("apply --clear: %v", err)
	}
	if got.IntroStartTime != nil || got.OutroStartTime != nil || *got.IntroStartChapter != 3 {
		t.Fatalf("--clear should drop other fields, got %+v", got)
	}

	cmd, flags = newFlagCommand(t)
	if flags.changed(cmd) {
		t.Fatal("no flags given")
	}
}

func TestClockValidator(t *testing.T) {
	required := clockValidator(true)
	optional := clockValidator(false)

	if err := required(""); err == nil {
		t.Fatal("required validator accepted blank")
	}
	if err := optional(" "); err != nil {
		t.Fatalf("optional validator rejected blank: %v", err)
	}
	if err := required("1:xx"); err == nil {
		t.Fatal("validator accepted garbage")
	}
	if err := required("01:05"); err != nil {
		t.Fatalf("validator rejected 01:05: %v", err)
	}
}

func TestChapterValidator(t *testing.T) {
	v := chapterValidator(true)
	for _, bad := range []string{"", "0", "-2", "two"} {
		if err := v(bad); err == nil {
			t.Fatalf("accepted %q", bad)
		}
	}
	if err := v("3"); err != nil {
		t.Fatalf("rejected 3: %v", err)
	}
	if err := chapterValidator(false)(""); err != nil {
		t.Fatalf("optional rejected blank: %v", err)
	}
}

func TestPromptInterruptIsCancellation(t *testing.T) {
	ask := &scriptedAsk{err: terminal.InterruptErr}
	_, _, err := timesPrompter{ask: ask.ask}.prompt(episodes.Times{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
