package session

import (
	"reflect"
	"testing"

	"skipintro/internal/chapters"
	"skipintro/internal/episodes"
	"skipintro/internal/identify"
	"skipintro/internal/skipwindow"
)

func testMachine() Machine {
	return Machine{
		Settings:     skipwindow.Settings{DefaultDelay: 30, SkipDuration: 60, UseChapters: true},
		SaveTimes:    true,
		NewSessionID: func() string { return "sess-1" },
	}
}

func detecting(t *testing.T, m Machine) State {
	t.Helper()
	s, _ := m.Step(State{}, PlaybackStarted{File: "/tv/Show.S01E02.mkv"})
	s, actions := m.Step(s, AVStarted{})
	if s.Phase != PhaseDetecting {
		t.Fatalf("phase = %s, want detecting", s.Phase)
	}
	want := []Action{StartDetection{SessionID: "sess-1", File: "/tv/Show.S01E02.mkv"}}
	if !reflect.DeepEqual(actions, want) {
		t.Fatalf("actions = %#v", actions)
	}
	return s
}

func resolved(res skipwindow.Resolution) *skipwindow.Resolution { return &res }

var episode = &identify.Episode{Title: "Show", Season: 1, Episode: 2}

func TestChapterWindowPromptsAndSeeks(t *testing.T) {
	m := testMachine()
	s := detecting(t, m)

	chs := []chapters.Chapter{
		{Index: 1, Name: "Chapter 1", Start: 0},
		{Index: 2, Name: "Chapter 2", Start: 90},
		{Index: 3, Name: "Chapter 3", Start: 1300},
	}
	res, ok := skipwindow.Resolve(skipwindow.Input{Chapters: chs, Settings: m.Settings})
	if !ok {
		t.Fatal("expected heuristic window")
	}
	s, actions := m.Step(s, Detected{SessionID: "sess-1", Episode: episode, ShowID: 7, Resolution: &res})
	if s.Phase != PhaseResolved || s.Window == nil || *s.Window != res.Window {
		t.Fatalf("unexpected state %+v", s)
	}
	if len(actions) != 1 {
		t.Fatalf("expected save action, got %#v", actions)
	}
	save := actions[0].(SaveTimes)
	if save.ShowID != 7 || save.Source != episodes.SourceChapters || *save.Times.IntroStartChapter != 2 {
		t.Fatalf("unexpected save %+v", save)
	}

	if s, actions = m.Step(s, Tick{Time: 45}); len(actions) != 0 || s.PromptShown {
		t.Fatal("no prompt before the window")
	}
	s, actions = m.Step(s, Tick{Time: 90})
	if s.Phase != PhasePrompting || !s.PromptShown {
		t.Fatalf("expected prompting, got %s", s.Phase)
	}
	if !reflect.DeepEqual(actions, []Action{ShowPrompt{SessionID: "sess-1", Window: res.Window}}) {
		t.Fatalf("actions = %#v", actions)
	}

	s, actions = m.Step(s, PromptAnswered{SessionID: "sess-1", Accepted: true})
	if s.Phase != PhaseConsumed {
		t.Fatalf("phase = %s", s.Phase)
	}
	if !reflect.DeepEqual(actions, []Action{Seek{To: 1300}}) {
		t.Fatalf("actions = %#v", actions)
	}
	if _, actions = m.Step(s, Tick{Time: 95}); len(actions) != 0 {
		t.Fatal("consumed session must not prompt again")
	}
}

func TestDefaultDelayFiresOnFirstTickPastDelay(t *testing.T) {
	m := testMachine()
	s := detecting(t, m)
	s, actions := m.Step(s, Detected{SessionID: "sess-1", Episode: episode, ShowID: 7})
	if s.Phase != PhaseDetecting || !s.BookmarksChecked || len(actions) != 0 {
		t.Fatalf("unexpected state %+v actions %#v", s, actions)
	}

	s, actions = m.Step(s, Tick{Time: 29})
	if s.Window != nil || len(actions) != 0 {
		t.Fatal("default must wait for the delay")
	}
	s, actions = m.Step(s, Tick{Time: 31})
	want := skipwindow.Window{Start: 31, End: 91, Source: skipwindow.SourceDefault}
	if s.Window == nil || *s.Window != want || !s.DefaultSkipChecked {
		t.Fatalf("window = %+v", s.Window)
	}
	if !reflect.DeepEqual(actions, []Action{ShowPrompt{SessionID: "sess-1", Window: want}}) {
		t.Fatalf("actions = %#v", actions)
	}

	s, actions = m.Step(s, PromptAnswered{SessionID: "sess-1", Accepted: true})
	if len(actions) != 2 {
		t.Fatalf("expected seek and save, got %#v", actions)
	}
	if actions[0] != (Seek{To: 91}) {
		t.Fatalf("seek = %#v", actions[0])
	}
	save := actions[1].(SaveTimes)
	if save.Source != episodes.SourceDefault || *save.Times.IntroStartTime != 31 || *save.Times.IntroDuration != 60 {
		t.Fatalf("unexpected save %+v", save)
	}
}

func TestDefaultDelayWaitsForDetection(t *testing.T) {
	m := testMachine()
	s := detecting(t, m)
	s, actions := m.Step(s, Tick{Time: 120})
	if s.Window != nil || len(actions) != 0 {
		t.Fatal("default must not fire before saved data was checked")
	}
}

func TestDeclineReturnsToResolvedWithoutReprompt(t *testing.T) {
	m := testMachine()
	s := detecting(t, m)
	s, _ = m.Step(s, Detected{SessionID: "sess-1"})
	s, _ = m.Step(s, Tick{Time: 40})
	s, actions := m.Step(s, PromptAnswered{SessionID: "sess-1", Accepted: false})
	if s.Phase != PhaseResolved || len(actions) != 0 {
		t.Fatalf("phase = %s actions %#v", s.Phase, actions)
	}
	if _, actions = m.Step(s, Tick{Time: 45}); len(actions) != 0 {
		t.Fatal("declined window must not prompt again")
	}
}

func TestNoneWindowSuppressesEverything(t *testing.T) {
	m := testMachine()
	s := detecting(t, m)
	none := resolved(skipwindow.Resolution{Window: skipwindow.Window{Source: skipwindow.SourceNone}, Rule: skipwindow.RuleEpisodeTime})
	s, actions := m.Step(s, Detected{SessionID: "sess-1", Episode: episode, ShowID: 7, Resolution: none})
	if s.Phase != PhaseResolved || len(actions) != 0 {
		t.Fatalf("unexpected %+v %#v", s, actions)
	}
	for _, now := range []float64{0, 31, 200} {
		if s, actions = m.Step(s, Tick{Time: now}); len(actions) != 0 || s.DefaultSkipChecked {
			t.Fatalf("tick %v produced %#v", now, actions)
		}
	}
}

func TestStaleDetectionIgnored(t *testing.T) {
	m := testMachine()
	s := detecting(t, m)
	res := resolved(skipwindow.Resolution{Window: skipwindow.Window{Start: 10, End: 20, Source: skipwindow.SourceSavedTime}, Rule: skipwindow.RuleEpisodeTime})

	next, actions := m.Step(s, Detected{SessionID: "old", Resolution: res})
	if !reflect.DeepEqual(next, s) || len(actions) != 0 {
		t.Fatal("detection for another session must be ignored")
	}

	stopped, actions := m.Step(s, PlaybackStopped{})
	if stopped != (State{}) {
		t.Fatalf("stop must reset state, got %+v", stopped)
	}
	wantTeardown := []Action{CancelDetection{SessionID: "sess-1"}, ClosePrompt{SessionID: "sess-1"}}
	if !reflect.DeepEqual(actions, wantTeardown) {
		t.Fatalf("actions = %#v", actions)
	}
	if after, actions := m.Step(stopped, Detected{SessionID: "sess-1", Resolution: res}); after.Window != nil || len(actions) != 0 {
		t.Fatal("detection after stop must not install a window")
	}
}

func TestEndedMidPromptTearsDown(t *testing.T) {
	m := testMachine()
	s := detecting(t, m)
	s, _ = m.Step(s, Detected{SessionID: "sess-1"})
	s, _ = m.Step(s, Tick{Time: 30})
	if s.Phase != PhasePrompting {
		t.Fatalf("phase = %s", s.Phase)
	}
	s, actions := m.Step(s, PlaybackEnded{})
	if s.Phase != PhaseIdle || len(actions) != 2 {
		t.Fatalf("unexpected %+v %#v", s, actions)
	}
	if _, actions = m.Step(s, PromptAnswered{SessionID: "sess-1", Accepted: true}); len(actions) != 0 {
		t.Fatal("late answer must not seek")
	}
}

func TestNewFileReplacesSession(t *testing.T) {
	ids := []string{"a", "b"}
	m := testMachine()
	m.NewSessionID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	s, _ := m.Step(State{}, PlaybackStarted{File: "one.mkv"})
	s, _ = m.Step(s, AVStarted{})
	s, actions := m.Step(s, PlaybackStarted{File: "two.mkv"})
	if s.SessionID != "b" || s.File != "two.mkv" || s.Phase != PhaseIdle {
		t.Fatalf("unexpected state %+v", s)
	}
	if !reflect.DeepEqual(actions, []Action{CancelDetection{SessionID: "a"}, ClosePrompt{SessionID: "a"}}) {
		t.Fatalf("actions = %#v", actions)
	}
}

func TestAVStartedOnlyOnce(t *testing.T) {
	m := testMachine()
	s := detecting(t, m)
	if _, actions := m.Step(s, AVStarted{}); len(actions) != 0 {
		t.Fatal("second AVStarted must not restart detection")
	}
	if _, actions := m.Step(State{}, AVStarted{}); len(actions) != 0 {
		t.Fatal("AVStarted without a file must be ignored")
	}
}

func TestSaveTimesDisabled(t *testing.T) {
	m := testMachine()
	m.SaveTimes = false
	s := detecting(t, m)
	res := resolved(skipwindow.Resolution{Window: skipwindow.Window{Start: 90, End: 150, Source: skipwindow.SourceChapters}, Rule: skipwindow.RuleHeuristic, IntroChapter: 2})
	if _, actions := m.Step(s, Detected{SessionID: "sess-1", Episode: episode, ShowID: 7, Resolution: res}); len(actions) != 0 {
		t.Fatalf("save disabled but got %#v", actions)
	}
}

func TestPromptShownAtMostOncePerSession(t *testing.T) {
	m := testMachine()
	s := detecting(t, m)
	res := resolved(skipwindow.Resolution{Window: skipwindow.Window{Start: 10, End: 20, Source: skipwindow.SourceSavedTime}, Rule: skipwindow.RuleEpisodeTime})
	s, _ = m.Step(s, Detected{SessionID: "sess-1", Resolution: res})
	prompts := 0
	for now := 0.0; now < 30; now++ {
		var actions []Action
		s, actions = m.Step(s, Tick{Time: now})
		prompts += len(actions)
	}
	if prompts != 1 {
		t.Fatalf("prompts = %d", prompts)
	}
}
