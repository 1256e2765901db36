// Package watcher follows a media player and runs a playback session for
// each file it plays.
package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"skipintro/internal/chapters"
	"skipintro/internal/config"
	"skipintro/internal/episodes"
	"skipintro/internal/identify"
	"skipintro/internal/logging"
	"skipintro/internal/player"
	"skipintro/internal/player/mpv"
	"skipintro/internal/prompt"
	"skipintro/internal/session"
)

// ErrAlreadyRunning is returned when another watcher holds the lock for the
// same player socket.
var ErrAlreadyRunning = errors.New("another skipintro watcher is already attached to this player")

const (
	minReconnect = 500 * time.Millisecond
	maxReconnect = 30 * time.Second
)

// Player is a connected media player.
type Player interface {
	player.Host
	Events() <-chan player.Event
	Close() error
}

// Connection is one live player link plus the player-side helpers.
// Chapters and Confirmer may be nil.
type Connection struct {
	Player    Player
	Chapters  chapters.Backend
	Confirmer prompt.Confirmer
}

// ConnectFunc opens a Connection.
type ConnectFunc func(ctx context.Context) (Connection, error)

// Watcher attaches to the configured player and keeps reconnecting until
// its context is cancelled.
type Watcher struct {
	cfg      *config.Config
	store    *episodes.Store
	logger   *slog.Logger
	connect  ConnectFunc
	lockPath string
	lock     *flock.Flock
	// terminal is used when the player offers no confirmer.
	terminal prompt.Confirmer
	runLog   string
}

// Option customizes a Watcher.
type Option func(*Watcher)

// WithConnect replaces the mpv connector.
func WithConnect(fn ConnectFunc) Option {
	return func(w *Watcher) { w.connect = fn }
}

// WithFallbackConfirmer sets the terminal confirmer, used when skip.prompt
// is "terminal" or the player has none.
func WithFallbackConfirmer(c prompt.Confirmer) Option {
	return func(w *Watcher) { w.terminal = c }
}

// WithRunLog names the log file of this run so retention never prunes it.
func WithRunLog(path string) Option {
	return func(w *Watcher) { w.runLog = path }
}

// New builds a Watcher. store may be nil to run without persistence.
func New(cfg *config.Config, store *episodes.Store, logger *slog.Logger, opts ...Option) *Watcher {
	lockPath := LockPath(cfg)
	w := &Watcher{
		cfg:      cfg,
		store:    store,
		logger:   logging.NewComponentLogger(logger, "watcher"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	w.connect = w.dialMPV
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// LockPath returns the lock file guarding the configured player socket.
func LockPath(cfg *config.Config) string {
	sum := sha256.Sum256([]byte(cfg.Player.SocketPath))
	return filepath.Join(cfg.Paths.DataDir, "skipintro-"+hex.EncodeToString(sum[:4])+".lock")
}

// Run holds the instance lock and serves player connections until ctx is
// cancelled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.cfg.EnsureDirectories(); err != nil {
		return err
	}
	ok, err := w.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, w.lockPath)
	}
	defer func() {
		if err := w.lock.Unlock(); err != nil {
			w.logger.Warn("failed to release watcher lock", logging.Error(err))
		}
	}()

	logging.PruneRunLogs(w.logger, w.cfg.Paths.LogDir, w.cfg.Logging.RetentionDays, w.runLog)

	w.logger.Info("watcher started",
		logging.String("socket", w.cfg.Player.SocketPath),
		logging.String("lock", w.lockPath),
	)

	delay := minReconnect
	waiting := false
	for {
		conn, err := w.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if !waiting {
				w.logger.Info("waiting for player", logging.String("socket", w.cfg.Player.SocketPath), logging.Error(err))
				waiting = true
			}
			select {
			case <-ctx.Done():
			case <-time.After(delay):
			}
			delay = min(delay*2, maxReconnect)
			continue
		}
		waiting = false
		delay = minReconnect
		w.logger.Info("player connected")
		w.serve(ctx, conn)
		_ = conn.Player.Close()
		if ctx.Err() != nil {
			break
		}
		w.logger.Info("player disconnected")
	}
	w.logger.Info("watcher stopped")
	return nil
}

func (w *Watcher) dialMPV(ctx context.Context) (Connection, error) {
	client, err := mpv.Dial(ctx, w.cfg.Player.SocketPath, mpv.Options{
		CommandTimeout: w.cfg.CommandTimeout(),
		Logger:         w.logger,
	})
	if err != nil {
		return Connection{}, err
	}
	return Connection{
		Player:    client,
		Chapters:  mpv.NewChapterBackend(client),
		Confirmer: mpv.NewOSD(client),
	}, nil
}

// serve runs one session controller for the lifetime of conn.
func (w *Watcher) serve(ctx context.Context, conn Connection) {
	controller := session.NewController(
		session.MachineFromConfig(w.cfg),
		w.dependencies(conn),
		session.TimingFromConfig(w.cfg),
		w.logger,
	)
	defer controller.Close()

	if playing, err := conn.Player.IsPlaying(ctx); err == nil && playing {
		w.started(ctx, conn.Player, controller)
		controller.Handle(session.AVStarted{})
	}

	events := conn.Player.Events()
	for {
		select {
		case <-ctx.Done():
			controller.Handle(session.PlaybackStopped{})
			return
		case ev, ok := <-events:
			if !ok {
				controller.Handle(session.PlaybackStopped{})
				return
			}
			w.dispatch(ctx, conn.Player, controller, ev)
		}
	}
}

func (w *Watcher) dispatch(ctx context.Context, p Player, controller *session.Controller, ev player.Event) {
	switch ev.Kind {
	case player.EventStarted:
		w.started(ctx, p, controller)
	case player.EventAVStarted:
		controller.Handle(session.AVStarted{})
	case player.EventTime:
		controller.Handle(session.Tick{Time: ev.Time})
	case player.EventStopped:
		controller.Handle(session.PlaybackStopped{})
	case player.EventEnded:
		controller.Handle(session.PlaybackEnded{})
	default:
		w.logger.Debug("player event ignored", logging.String("kind", ev.Kind.String()))
	}
}

func (w *Watcher) started(ctx context.Context, p Player, controller *session.Controller) {
	file, err := p.PlayingFile(ctx)
	if err != nil {
		logging.WarnWithContext(w.logger, "playing file unknown", "player_query",
			logging.String(logging.FieldImpact, "file name cannot be used to identify the episode"),
			logging.Error(err),
		)
	}
	controller.Handle(session.PlaybackStarted{File: file})
}

func (w *Watcher) dependencies(conn Connection) session.Dependencies {
	deps := session.Dependencies{
		Host:     conn.Player,
		Chapters: chapters.NewSource(w.backends(conn), chapters.Options{Retries: w.cfg.Chapters.Retries, Backoff: w.cfg.RetryBackoff()}, w.logger),
	}
	if confirmer := w.confirmer(conn); confirmer != nil {
		deps.Prompter = prompt.NewCoordinator(confirmer, w.cfg.PromptTimeout(), w.logger)
	} else {
		w.logger.Warn("no way to ask about skips; intros will play",
			logging.String(logging.FieldEventType, "prompt_unavailable"),
			logging.String(logging.FieldErrorHint, "enable skip.auto_skip or run watch from a terminal"),
		)
	}
	if w.store != nil {
		deps.Store = w.store
		deps.Identifier = identify.New(w.store, w.cfg.Identify.FuzzyThreshold, w.logger)
	} else {
		deps.Identifier = identify.New(nil, 0, w.logger)
	}
	return deps
}

func (w *Watcher) backends(conn Connection) []chapters.Backend {
	var out []chapters.Backend
	for _, name := range w.cfg.Chapters.Backends {
		switch name {
		case config.BackendPlayer:
			if conn.Chapters != nil {
				out = append(out, conn.Chapters)
			}
		case config.BackendFFprobe:
			out = append(out, chapters.NewFFprobeBackend(w.cfg.FFprobeBinary()))
		}
	}
	return out
}

func (w *Watcher) confirmer(conn Connection) prompt.Confirmer {
	switch {
	case w.cfg.Skip.AutoSkip:
		return prompt.AutoAccept{}
	case w.cfg.Skip.Prompt == config.PromptTerminal && w.terminal != nil:
		return w.terminal
	case conn.Confirmer != nil:
		return conn.Confirmer
	default:
		return w.terminal
	}
}
