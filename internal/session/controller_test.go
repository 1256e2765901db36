package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"skipintro/internal/chapters"
	"skipintro/internal/episodes"
	"skipintro/internal/identify"
	"skipintro/internal/skipwindow"
	"skipintro/internal/testsupport"
)

type fakeHost struct {
	mu      sync.Mutex
	playing bool
	seeks   []float64
	seekErr error
}

func (h *fakeHost) IsPlaying(context.Context) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.playing, nil
}

func (h *fakeHost) PlayingFile(context.Context) (string, error) { return "", nil }

func (h *fakeHost) Time(context.Context) (float64, error) { return 0, nil }

func (h *fakeHost) Seek(_ context.Context, to float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seeks = append(h.seeks, to)
	return h.seekErr
}

func (h *fakeHost) Metadata(context.Context) (map[string]string, error) { return nil, nil }

func (h *fakeHost) Seeks() []float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]float64(nil), h.seeks...)
}

type staticChapters []chapters.Chapter

func (s staticChapters) Get(context.Context, string) ([]chapters.Chapter, error) { return s, nil }

type answerPrompter struct {
	accept bool
	offers chan skipwindow.Window
}

func (p *answerPrompter) Offer(_ context.Context, w skipwindow.Window, onAccept func()) (bool, error) {
	if p.offers != nil {
		p.offers <- w
	}
	if p.accept && onAccept != nil {
		onAccept()
	}
	return p.accept, nil
}

type blockingPrompter struct{ opened chan struct{} }

func (p *blockingPrompter) Offer(ctx context.Context, _ skipwindow.Window, _ func()) (bool, error) {
	close(p.opened)
	<-ctx.Done()
	return false, ctx.Err()
}

type failingStore struct{}

var errDown = errors.New("disk gone")

func (failingStore) GetOrCreateShow(context.Context, string) (int64, error) {
	return 0, errDown
}

func (failingStore) GetShowConfig(context.Context, int64) (*episodes.ShowConfig, error) {
	return nil, errDown
}

func (failingStore) GetEpisodeOverride(context.Context, int64, int, int) (*episodes.EpisodeOverride, error) {
	return nil, errDown
}

func (failingStore) SaveEpisodeTimes(context.Context, int64, int, int, episodes.Times, episodes.TimeSource) error {
	return errDown
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

const file = "/tv/Show.Name.S01E02.mkv"

func TestControllerChapterFlowSavesAndSeeks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	host := &fakeHost{playing: true}
	prompter := &answerPrompter{accept: true}

	c := NewController(MachineFromConfig(cfg), Dependencies{
		Host:       host,
		Store:      store,
		Chapters:   staticChapters{{Index: 1, Name: "Chapter 1", Start: 0}, {Index: 2, Name: "Chapter 2", Start: 90}, {Index: 3, Name: "Chapter 3", Start: 1300}},
		Identifier: identify.New(store, cfg.Identify.FuzzyThreshold, nil),
		Prompter:   prompter,
	}, TimingFromConfig(cfg), nil)
	t.Cleanup(c.Close)

	c.Handle(PlaybackStarted{File: file})
	c.Handle(AVStarted{})
	waitFor(t, "detection", func() bool { return c.State().Phase == PhaseResolved })

	state := c.State()
	if state.Episode == nil || state.Episode.Title != "Show Name" || state.Rule != skipwindow.RuleHeuristic {
		t.Fatalf("unexpected state %+v", state)
	}
	ctx := context.Background()
	override, err := store.GetEpisodeOverride(ctx, state.ShowID, 1, 2)
	if err != nil || override == nil {
		t.Fatalf("expected saved override, got %v %v", override, err)
	}
	if override.Source != episodes.SourceChapters || *override.IntroStartTime != 90 || *override.IntroDuration != 1210 {
		t.Fatalf("unexpected override %+v", override)
	}

	c.Handle(Tick{Time: 95})
	waitFor(t, "seek", func() bool { return len(host.Seeks()) == 1 })
	if got := host.Seeks()[0]; got != 1300 {
		t.Fatalf("seek target = %v", got)
	}
	waitFor(t, "consumed", func() bool { return c.State().Phase == PhaseConsumed })
}

func TestControllerUsesSavedEpisodeTimes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	showID := testsupport.MustCreateShow(t, store, "Show Name")
	if err := store.SaveEpisodeTimes(ctx, showID, 1, 2, episodes.Times{
		IntroStartTime: episodes.FloatPtr(65),
		IntroDuration:  episodes.FloatPtr(20),
	}, episodes.SourceManual); err != nil {
		t.Fatalf("SaveEpisodeTimes: %v", err)
	}

	c := NewController(MachineFromConfig(cfg), Dependencies{
		Host:       &fakeHost{playing: true},
		Store:      store,
		Chapters:   staticChapters{{Index: 1, Name: "Chapter 1", Start: 0}, {Index: 2, Name: "Chapter 2", Start: 90}},
		Identifier: identify.New(store, cfg.Identify.FuzzyThreshold, nil),
	}, TimingFromConfig(cfg), nil)
	t.Cleanup(c.Close)

	c.Handle(PlaybackStarted{File: file})
	c.Handle(AVStarted{})
	waitFor(t, "detection", func() bool { return c.State().Phase == PhaseResolved })

	want := skipwindow.Window{Start: 65, End: 85, Source: skipwindow.SourceSavedTime}
	if w := c.State().Window; w == nil || *w != want {
		t.Fatalf("window = %+v", w)
	}
	override, err := store.GetEpisodeOverride(ctx, showID, 1, 2)
	if err != nil || override.Source != episodes.SourceManual {
		t.Fatalf("manual override must be left alone: %+v %v", override, err)
	}
}

func TestControllerDegradesWhenStoreFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	host := &fakeHost{playing: true}
	offers := make(chan skipwindow.Window, 1)

	c := NewController(MachineFromConfig(cfg), Dependencies{
		Host:       host,
		Store:      failingStore{},
		Identifier: identify.New(nil, 0, nil),
		Prompter:   &answerPrompter{accept: true, offers: offers},
	}, TimingFromConfig(cfg), nil)
	t.Cleanup(c.Close)

	c.Handle(PlaybackStarted{File: file})
	c.Handle(AVStarted{})
	waitFor(t, "bookmarks checked", func() bool { return c.State().BookmarksChecked })
	if s := c.State(); s.Phase != PhaseDetecting || s.ShowID != 0 {
		t.Fatalf("unexpected state %+v", s)
	}

	c.Handle(Tick{Time: 31})
	select {
	case w := <-offers:
		if w.Start != 31 || w.End != 91 || w.Source != skipwindow.SourceDefault {
			t.Fatalf("offered %+v", w)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("default window never offered")
	}
	waitFor(t, "seek", func() bool { return len(host.Seeks()) == 1 })
}

func TestControllerIdentificationFailureFallsBackToDefault(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSkip(10, 20))
	c := NewController(MachineFromConfig(cfg), Dependencies{
		Host:       &fakeHost{playing: true},
		Identifier: identify.New(nil, 0, nil),
	}, TimingFromConfig(cfg), nil)
	t.Cleanup(c.Close)

	c.Handle(PlaybackStarted{File: "/movies/Heat.1995.mkv"})
	c.Handle(AVStarted{})
	waitFor(t, "bookmarks checked", func() bool { return c.State().BookmarksChecked })
	c.Handle(Tick{Time: 9})
	if s := c.State(); s.Window != nil {
		t.Fatalf("default window before the delay: %+v", s.Window)
	}
	c.Handle(Tick{Time: 12})
	want := skipwindow.Window{Start: 12, End: 32, Source: skipwindow.SourceDefault}
	if s := c.State(); s.Window == nil || *s.Window != want {
		t.Fatalf("expected %+v, got %+v", want, s.Window)
	}
}

func TestControllerWithoutSaveTimesLeavesStoreUntouched(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutSaveTimes())
	store := testsupport.MustOpenStore(t, cfg)

	c := NewController(MachineFromConfig(cfg), Dependencies{
		Host:       &fakeHost{playing: true},
		Store:      store,
		Chapters:   staticChapters{{Index: 1, Name: "Intro", Start: 30}, {Index: 2, Name: "Part A", Start: 100}},
		Identifier: identify.New(store, cfg.Identify.FuzzyThreshold, nil),
	}, TimingFromConfig(cfg), nil)
	t.Cleanup(c.Close)

	c.Handle(PlaybackStarted{File: file})
	c.Handle(AVStarted{})
	waitFor(t, "detection", func() bool { return c.State().Phase == PhaseResolved })

	state := c.State()
	if state.Rule != skipwindow.RuleHeuristic || state.Window.Start != 30 || state.Window.End != 100 {
		t.Fatalf("unexpected state %+v", state)
	}
	override, err := store.GetEpisodeOverride(context.Background(), state.ShowID, 1, 2)
	if err != nil || override != nil {
		t.Fatalf("nothing should be saved, got %+v %v", override, err)
	}
}

func TestControllerNotPlayingTimesOut(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	c := NewController(MachineFromConfig(cfg), Dependencies{
		Host:       &fakeHost{playing: false},
		Identifier: identify.New(nil, 0, nil),
	}, TimingFromConfig(cfg), nil)
	t.Cleanup(c.Close)

	c.Handle(PlaybackStarted{File: file})
	c.Handle(AVStarted{})
	waitFor(t, "detection timeout", func() bool { return c.State().BookmarksChecked })
	if c.State().Episode != nil {
		t.Fatal("episode must not be identified when playback never started")
	}
}

func TestControllerStopClosesPrompt(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	prompter := &blockingPrompter{opened: make(chan struct{})}
	host := &fakeHost{playing: true}
	c := NewController(MachineFromConfig(cfg), Dependencies{
		Host:       host,
		Identifier: identify.New(nil, 0, nil),
		Prompter:   prompter,
	}, TimingFromConfig(cfg), nil)
	t.Cleanup(c.Close)

	c.Handle(PlaybackStarted{File: file})
	c.Handle(AVStarted{})
	waitFor(t, "bookmarks checked", func() bool { return c.State().BookmarksChecked })
	c.Handle(Tick{Time: 30})
	<-prompter.opened

	c.Handle(PlaybackStopped{})
	c.Close()
	if s := c.State(); s.Phase != PhaseIdle {
		t.Fatalf("phase = %s", s.Phase)
	}
	if len(host.Seeks()) != 0 {
		t.Fatal("closed prompt must not seek")
	}
}

func TestControllerStopAbortsDetectionWait(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	timing := TimingFromConfig(cfg)
	timing.MetadataDelay = time.Hour
	c := NewController(MachineFromConfig(cfg), Dependencies{
		Host:       &fakeHost{playing: true},
		Identifier: identify.New(nil, 0, nil),
	}, timing, nil)
	t.Cleanup(c.Close)

	c.Handle(PlaybackStarted{File: file})
	c.Handle(AVStarted{})
	c.Handle(PlaybackStopped{})

	exited := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(exited)
	}()
	select {
	case <-exited:
	case <-time.After(2 * time.Second):
		t.Fatal("detection kept waiting after playback stopped")
	}
	if s := c.State(); s.Phase != PhaseIdle || s.BookmarksChecked || s.Episode != nil {
		t.Fatalf("stopped session changed after detection exit: %+v", s)
	}
}
