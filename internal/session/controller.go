package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"skipintro/internal/chapters"
	"skipintro/internal/config"
	"skipintro/internal/episodes"
	"skipintro/internal/identify"
	"skipintro/internal/logging"
	"skipintro/internal/player"
	"skipintro/internal/skipwindow"
)

// Store is the subset of the episode store the controller uses.
type Store interface {
	GetOrCreateShow(ctx context.Context, title string) (int64, error)
	GetShowConfig(ctx context.Context, showID int64) (*episodes.ShowConfig, error)
	GetEpisodeOverride(ctx context.Context, showID int64, season, episode int) (*episodes.EpisodeOverride, error)
	SaveEpisodeTimes(ctx context.Context, showID int64, season, episode int, times episodes.Times, source episodes.TimeSource) error
}

// ChapterSource returns the chapters of the playing file.
type ChapterSource interface {
	Get(ctx context.Context, file string) ([]chapters.Chapter, error)
}

// Identifier names the playing episode.
type Identifier interface {
	Identify(ctx context.Context, file string, tags map[string]string) (identify.Episode, error)
}

// Prompter offers a skip and blocks until it is answered.
type Prompter interface {
	Offer(ctx context.Context, window skipwindow.Window, onAccept func()) (bool, error)
}

// Dependencies are the collaborators a Controller drives. Store may be nil,
// in which case nothing is read or saved.
type Dependencies struct {
	Host       player.Host
	Store      Store
	Chapters   ChapterSource
	Identifier Identifier
	Prompter   Prompter
}

// Timing bounds the waits performed during detection.
type Timing struct {
	MetadataDelay   time.Duration
	ChapterDelay    time.Duration
	MetadataTimeout time.Duration
	PollInterval    time.Duration
}

// TimingFromConfig reads detection timing from cfg.
func TimingFromConfig(cfg *config.Config) Timing {
	return Timing{
		MetadataDelay:   cfg.MetadataDelay(),
		ChapterDelay:    cfg.ChapterDelay(),
		MetadataTimeout: cfg.MetadataTimeout(),
		PollInterval:    cfg.PollInterval(),
	}
}

// MachineFromConfig builds the transition rules from cfg.
func MachineFromConfig(cfg *config.Config) Machine {
	return Machine{
		Settings: skipwindow.Settings{
			DefaultDelay: float64(cfg.Skip.DefaultDelay),
			SkipDuration: float64(cfg.Skip.SkipDuration),
			UseChapters:  cfg.Skip.UseChapters,
		},
		SaveTimes: cfg.Skip.SaveTimes,
	}
}

// Controller serializes host events through a Machine and performs the
// resulting actions.
type Controller struct {
	machine Machine
	deps    Dependencies
	timing  Timing
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex
	state        State
	detectCancel context.CancelFunc
	promptCancel context.CancelFunc
}

// NewController returns a Controller. Close releases its background work.
func NewController(machine Machine, deps Dependencies, timing Timing, logger *slog.Logger) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		machine: machine,
		deps:    deps,
		timing:  timing,
		logger:  logging.NewComponentLogger(logger, "session"),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Handle applies ev and runs the resulting actions. Calls are serialized.
func (c *Controller) Handle(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.state
	next, actions := c.machine.Step(prev, ev)
	c.state = next
	if prev.Phase != next.Phase || prev.SessionID != next.SessionID {
		c.logger.Debug("session transition",
			logging.String("event", ev.eventName()),
			logging.String("from", prev.Phase.String()),
			logging.String("to", next.Phase.String()),
			logging.String(logging.FieldPlaybackID, next.SessionID),
		)
	}
	for _, action := range actions {
		c.perform(next, action)
	}
}

// State returns a snapshot of the current session.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close cancels background work and waits for it to finish.
func (c *Controller) Close() {
	c.cancel()
	c.wg.Wait()
}

func (c *Controller) perform(s State, action Action) {
	switch a := action.(type) {
	case StartDetection:
		c.stopDetection()
		ctx, cancel := context.WithCancel(c.ctx)
		c.detectCancel = cancel
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			defer cancel()
			c.detect(ctx, a.SessionID, a.File)
		}()

	case CancelDetection:
		c.stopDetection()

	case ShowPrompt:
		c.openPrompt(a)

	case ClosePrompt:
		if c.promptCancel != nil {
			c.promptCancel()
			c.promptCancel = nil
		}

	case Seek:
		c.seek(s, a.To)

	case SaveTimes:
		c.save(s, a)
	}
}

func (c *Controller) stopDetection() {
	if c.detectCancel != nil {
		c.detectCancel()
		c.detectCancel = nil
	}
}

func (c *Controller) openPrompt(a ShowPrompt) {
	if c.deps.Prompter == nil {
		return
	}
	if c.promptCancel != nil {
		c.promptCancel()
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.promptCancel = cancel
	logger := c.logger.With(logging.String(logging.FieldPlaybackID, a.SessionID))
	logger.Info("offering intro skip", logging.String("window", a.Window.String()))
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		accepted, err := c.deps.Prompter.Offer(ctx, a.Window, nil)
		if err != nil && ctx.Err() == nil {
			logging.WarnWithContext(logger, "skip prompt failed; treating as declined", "prompt_failed",
				logging.String(logging.FieldImpact, "intro will play"),
				logging.Error(err),
			)
		}
		if ctx.Err() != nil {
			return
		}
		c.Handle(PromptAnswered{SessionID: a.SessionID, Accepted: accepted})
	}()
}

func (c *Controller) seek(s State, to float64) {
	if c.deps.Host == nil {
		return
	}
	logger := c.sessionLogger(s)
	if err := c.deps.Host.Seek(c.ctx, to); err != nil {
		logging.WarnWithContext(logger, "seek past intro failed", "seek_failed",
			logging.Seconds("target", to),
			logging.String(logging.FieldImpact, "intro keeps playing"),
			logging.Error(err),
		)
		return
	}
	logger.Info("skipped intro", logging.Seconds("target", to), logging.String("rule", string(s.Rule)))
}

func (c *Controller) save(s State, a SaveTimes) {
	if c.deps.Store == nil {
		return
	}
	logger := c.sessionLogger(s)
	err := c.deps.Store.SaveEpisodeTimes(c.ctx, a.ShowID, a.Episode.Season, a.Episode.Episode, a.Times, a.Source)
	if err != nil {
		logging.WarnWithContext(logger, "saving episode times failed", "store_write",
			logging.String(logging.FieldImpact, "times will be detected again next time"),
			logging.String(logging.FieldErrorHint, "check the database path and permissions"),
			logging.Error(err),
		)
		return
	}
	logger.Debug("episode times saved",
		logging.String("source", string(a.Source)),
		logging.String("rule", string(a.Rule)),
	)
}

func (c *Controller) sessionLogger(s State) *slog.Logger {
	logger := c.logger.With(logging.String(logging.FieldPlaybackID, s.SessionID))
	if s.Episode != nil {
		logger = logger.With(
			logging.String(logging.FieldShow, s.Episode.Title),
			logging.String(logging.FieldEpisodeLabel, s.Episode.Label()),
		)
	}
	return logger
}

// detect runs identification and the static rules. Its outcome is handed
// back through Handle unless ctx was cancelled first.
func (c *Controller) detect(ctx context.Context, sessionID, file string) {
	ctx = logging.WithPlaybackID(ctx, sessionID)
	logger := logging.WithContext(ctx, c.logger).With(logging.String(logging.FieldFile, file))
	ev := c.runDetection(ctx, logger, file)
	if ctx.Err() != nil {
		logger.Debug("detection abandoned")
		return
	}
	ev.SessionID = sessionID
	c.Handle(ev)
}

func (c *Controller) runDetection(ctx context.Context, logger *slog.Logger, file string) Detected {
	if err := sleep(ctx, c.timing.MetadataDelay); err != nil {
		return Detected{Err: err}
	}
	if err := c.waitForPlayback(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			logging.WarnWithContext(logger, "playback not active; skipping detection", "detection_skipped",
				logging.String(logging.FieldImpact, "only the default delay applies"),
				logging.Error(err),
			)
		}
		return Detected{Err: err}
	}

	var tags map[string]string
	if c.deps.Host != nil {
		var err error
		if tags, err = c.deps.Host.Metadata(ctx); err != nil {
			logger.Debug("player metadata unavailable", logging.Error(err))
		}
	}
	if c.deps.Identifier == nil {
		return Detected{Err: ErrNoMetadata}
	}
	ep, err := c.deps.Identifier.Identify(ctx, file, tags)
	if err != nil {
		logging.WarnWithContext(logger, "episode not identified", "identify_failed",
			logging.String(logging.FieldImpact, "only the default delay applies"),
			logging.String(logging.FieldErrorHint, "name files like Show.Name.S01E02.mkv or tag them"),
			logging.Error(err),
		)
		return Detected{Err: err}
	}
	ctx = logging.WithEpisodeLabel(ctx, ep.Label())
	logger = logging.WithContext(ctx, c.logger).With(logging.String(logging.FieldFile, file))

	if err := sleep(ctx, c.timing.ChapterDelay); err != nil {
		return Detected{Err: err}
	}
	var chs []chapters.Chapter
	if c.deps.Chapters != nil {
		if chs, err = c.deps.Chapters.Get(ctx, file); err != nil {
			return Detected{Err: err}
		}
	}

	in := skipwindow.Input{Chapters: chs, Settings: c.machine.Settings}
	showID := c.loadStored(ctx, logger, ep, &in)
	ev := Detected{Episode: &ep, ShowID: showID}

	res, ok := skipwindow.Resolve(in)
	for _, rejected := range res.Rejected {
		logging.WarnWithContext(logger, "ignoring invalid saved skip data", "invalid_stored_window",
			logging.String(logging.FieldImpact, "next rule used"),
			logging.String(logging.FieldErrorHint, "fix it with skipintro show set or episode set"),
			logging.Error(rejected),
		)
	}
	if !ok {
		logging.Decision(logger, "no intro window from saved data or chapters", "skip_window", "deferred", "default delay applies",
			logging.Int("chapters", len(chs)),
		)
		return ev
	}
	attrs := []logging.Attr{
		logging.String("rule", string(res.Rule)),
		logging.String("window", res.Window.String()),
		logging.Int("chapters", len(chs)),
	}
	if res.Window.OutroStart != nil {
		attrs = append(attrs, logging.Seconds("outro_start", *res.Window.OutroStart))
	}
	logging.Decision(logger, "intro window resolved", "skip_window", string(res.Window.Source), string(res.Rule), attrs...)
	ev.Resolution = &res
	return ev
}

// loadStored fills in saved show and episode data. Store failures are
// logged and treated as no saved data.
func (c *Controller) loadStored(ctx context.Context, logger *slog.Logger, ep identify.Episode, in *skipwindow.Input) int64 {
	if c.deps.Store == nil {
		return 0
	}
	degrade := func(msg string, err error) {
		logging.WarnWithContext(logger, msg, "store_read",
			logging.String(logging.FieldImpact, "saved times ignored for this playback"),
			logging.String(logging.FieldErrorHint, "check the database path and permissions"),
			logging.Error(err),
		)
	}
	showID, err := c.deps.Store.GetOrCreateShow(ctx, ep.Title)
	if err != nil {
		degrade("show lookup failed", err)
		return 0
	}
	if in.Show, err = c.deps.Store.GetShowConfig(ctx, showID); err != nil {
		degrade("show config lookup failed", err)
		in.Show = nil
	}
	if in.Episode, err = c.deps.Store.GetEpisodeOverride(ctx, showID, ep.Season, ep.Episode); err != nil {
		degrade("episode lookup failed", err)
		in.Episode = nil
	}
	return showID
}

func (c *Controller) waitForPlayback(ctx context.Context) error {
	if c.deps.Host == nil {
		return nil
	}
	deadline := time.Now().Add(c.timing.MetadataTimeout)
	for {
		playing, err := c.deps.Host.IsPlaying(ctx)
		if err == nil && playing {
			return nil
		}
		if time.Now().After(deadline) {
			if err != nil {
				return err
			}
			return ErrNotPlaying
		}
		if err := sleep(ctx, c.timing.PollInterval); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
