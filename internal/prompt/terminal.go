package prompt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/mattn/go-isatty"
)

// ErrNotTerminal is returned by NewTerminal when stdin is not a TTY.
var ErrNotTerminal = errors.New("stdin is not a terminal")

// Terminal asks on the controlling terminal. It cannot be dismissed by a
// timeout, so offers wait for an explicit answer.
//
// At most one read of stdin is in flight. A read left behind by a cancelled
// Confirm is handed to the next Confirm, and an answer that arrives while no
// Confirm is waiting is dropped.
type Terminal struct {
	ask func(prompt survey.Prompt, response any) error

	mu      sync.Mutex
	reading bool
	waiter  chan termAnswer
}

type termAnswer struct {
	ok  bool
	err error
}

// NewTerminal returns a terminal confirmer, or ErrNotTerminal.
func NewTerminal() (*Terminal, error) {
	fd := os.Stdin.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return nil, ErrNotTerminal
	}
	return &Terminal{ask: func(p survey.Prompt, response any) error {
		return survey.AskOne(p, response)
	}}, nil
}

func (t *Terminal) SupportsTimeout() bool { return false }

// Confirm asks the question and waits for the answer or for ctx.
func (t *Terminal) Confirm(ctx context.Context, req Request) (bool, error) {
	answers := make(chan termAnswer, 1)

	t.mu.Lock()
	t.waiter = answers
	if !t.reading {
		t.reading = true
		go t.read(&survey.Confirm{
			Message: fmt.Sprintf("%s: %s [%s] (%s / %s)", req.Heading, req.Message, req.Window, req.YesLabel, req.NoLabel),
			Default: false,
		})
	}
	t.mu.Unlock()

	select {
	case <-ctx.Done():
		t.mu.Lock()
		if t.waiter == answers {
			t.waiter = nil
		}
		t.mu.Unlock()
		return false, ctx.Err()
	case r := <-answers:
		if errors.Is(r.err, terminal.InterruptErr) {
			return false, nil
		}
		return r.ok, r.err
	}
}

func (t *Terminal) read(q survey.Prompt) {
	var ok bool
	err := t.ask(q, &ok)

	t.mu.Lock()
	waiter := t.waiter
	t.waiter = nil
	t.reading = false
	t.mu.Unlock()

	if waiter != nil {
		waiter <- termAnswer{ok: ok, err: err}
	}
}
