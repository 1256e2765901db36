// Package prompt offers a skip to the viewer and reports the answer.
package prompt

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"skipintro/internal/logging"
	"skipintro/internal/skipwindow"
)

const (
	DefaultHeading  = "Skip Intro"
	DefaultMessage  = "Skip intro sequence?"
	DefaultYesLabel = "Skip"
	DefaultNoLabel  = "No"
	DefaultTimeout  = 10 * time.Second
)

// ErrPromptActive is returned when an offer is made while another one is
// still waiting for an answer.
var ErrPromptActive = errors.New("a skip prompt is already open")

// Request is what a Confirmer shows.
type Request struct {
	Heading  string
	Message  string
	YesLabel string
	NoLabel  string
	// Timeout is zero when the confirmer should wait for an explicit answer.
	Timeout time.Duration
	Window  skipwindow.Window
}

// Confirmer asks the viewer a yes/no question. Confirm must release any UI
// it created before returning, including when ctx is cancelled.
type Confirmer interface {
	Confirm(ctx context.Context, req Request) (bool, error)
}

// TimeoutAware is implemented by confirmers whose UI can be dismissed when
// the prompt times out.
type TimeoutAware interface {
	SupportsTimeout() bool
}

// Coordinator keeps at most one prompt open.
type Coordinator struct {
	confirmer Confirmer
	timeout   time.Duration
	logger    *slog.Logger

	mu     sync.Mutex
	active bool
}

// NewCoordinator wraps confirmer. A non-positive timeout uses DefaultTimeout.
func NewCoordinator(confirmer Confirmer, timeout time.Duration, logger *slog.Logger) *Coordinator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Coordinator{
		confirmer: confirmer,
		timeout:   timeout,
		logger:    logging.NewComponentLogger(logger, "prompt"),
	}
}

// Offer shows the skip prompt for window and blocks until it is answered,
// times out, or ctx is cancelled. onAccept, when non-nil, runs at most once
// and only for an accepted prompt. A timeout counts as a decline.
func (c *Coordinator) Offer(ctx context.Context, window skipwindow.Window, onAccept func()) (bool, error) {
	if !window.Skippable() {
		return false, nil
	}
	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return false, ErrPromptActive
	}
	c.active = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.active = false
		c.mu.Unlock()
	}()

	req := Request{
		Heading:  DefaultHeading,
		Message:  DefaultMessage,
		YesLabel: DefaultYesLabel,
		NoLabel:  DefaultNoLabel,
		Window:   window,
	}
	if t, ok := c.confirmer.(TimeoutAware); ok && t.SupportsTimeout() {
		req.Timeout = c.timeout
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	accepted, err := c.confirmer.Confirm(ctx, req)
	switch {
	case errors.Is(err, context.DeadlineExceeded) || (err == nil && !accepted && errors.Is(ctx.Err(), context.DeadlineExceeded)):
		c.logger.Debug("skip prompt timed out", logging.String("window", window.String()))
		return false, nil
	case err != nil:
		return false, err
	}

	if accepted && onAccept != nil {
		onAccept()
	}
	logging.Decision(c.logger, "skip prompt answered", "skip_prompt", answer(accepted), "viewer response",
		logging.String("window", window.String()),
	)
	return accepted, nil
}

func answer(accepted bool) string {
	if accepted {
		return "accepted"
	}
	return "declined"
}

// AutoAccept accepts every prompt without showing anything.
type AutoAccept struct{}

func (AutoAccept) Confirm(context.Context, Request) (bool, error) { return true, nil }
