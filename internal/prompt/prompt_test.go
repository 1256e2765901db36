package prompt

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"skipintro/internal/skipwindow"
)

var window = skipwindow.Window{Start: 90, End: 1300, Source: skipwindow.SourceChapters}

type fakeConfirmer struct {
	answer  bool
	timed   bool
	block   bool
	calls   atomic.Int32
	request Request
	started chan struct{}
	closed  atomic.Bool
}

func (f *fakeConfirmer) SupportsTimeout() bool { return f.timed }

func (f *fakeConfirmer) Confirm(ctx context.Context, req Request) (bool, error) {
	f.calls.Add(1)
	f.request = req
	defer f.closed.Store(true)
	if f.started != nil {
		close(f.started)
	}
	if f.block {
		<-ctx.Done()
		return false, ctx.Err()
	}
	return f.answer, nil
}

func TestOfferAcceptedRunsCallbackOnce(t *testing.T) {
	fc := &fakeConfirmer{answer: true}
	c := NewCoordinator(fc, 0, nil)
	var runs int
	ok, err := c.Offer(context.Background(), window, func() { runs++ })
	if err != nil || !ok {
		t.Fatalf("Offer = %v, %v", ok, err)
	}
	if runs != 1 {
		t.Fatalf("onAccept ran %d times", runs)
	}
	if fc.request.Heading != DefaultHeading || fc.request.YesLabel != "Skip" || fc.request.NoLabel != "No" {
		t.Fatalf("unexpected request %+v", fc.request)
	}
	if fc.request.Timeout != 0 {
		t.Fatalf("confirmer without timeout support got timeout %v", fc.request.Timeout)
	}
}

func TestOfferDeclinedSkipsCallback(t *testing.T) {
	c := NewCoordinator(&fakeConfirmer{}, 0, nil)
	ok, err := c.Offer(context.Background(), window, func() { t.Fatal("onAccept must not run") })
	if err != nil || ok {
		t.Fatalf("Offer = %v, %v", ok, err)
	}
}

func TestOfferTimesOutAsDecline(t *testing.T) {
	fc := &fakeConfirmer{timed: true, block: true}
	c := NewCoordinator(fc, 20*time.Millisecond, nil)
	start := time.Now()
	ok, err := c.Offer(context.Background(), window, func() { t.Fatal("onAccept must not run") })
	if err != nil || ok {
		t.Fatalf("Offer = %v, %v", ok, err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("timeout not applied")
	}
	if !fc.closed.Load() {
		t.Fatal("confirmer UI was not released")
	}
	if fc.request.Timeout != 20*time.Millisecond {
		t.Fatalf("request timeout = %v", fc.request.Timeout)
	}
}

func TestOfferCancelled(t *testing.T) {
	fc := &fakeConfirmer{block: true}
	c := NewCoordinator(fc, time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok, err := c.Offer(ctx, window, nil)
	if ok || !errors.Is(err, context.Canceled) {
		t.Fatalf("Offer = %v, %v", ok, err)
	}
	if _, err := c.Offer(ctx, window, nil); errors.Is(err, ErrPromptActive) {
		t.Fatal("cancelled offer left the coordinator busy")
	}
}

func TestOfferSingleOutstanding(t *testing.T) {
	fc := &fakeConfirmer{block: true, started: make(chan struct{})}
	c := NewCoordinator(fc, 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Offer(ctx, window, nil)
	}()
	<-fc.started
	if _, err := c.Offer(context.Background(), window, nil); !errors.Is(err, ErrPromptActive) {
		t.Fatalf("expected ErrPromptActive, got %v", err)
	}
	cancel()
	<-done
	if fc.calls.Load() != 1 {
		t.Fatalf("confirmer called %d times", fc.calls.Load())
	}
}

func TestOfferIgnoresNoneWindow(t *testing.T) {
	fc := &fakeConfirmer{answer: true}
	c := NewCoordinator(fc, 0, nil)
	ok, err := c.Offer(context.Background(), skipwindow.Window{Source: skipwindow.SourceNone}, nil)
	if ok || err != nil || fc.calls.Load() != 0 {
		t.Fatalf("none window must not prompt: %v %v calls=%d", ok, err, fc.calls.Load())
	}
}

func TestAutoAccept(t *testing.T) {
	c := NewCoordinator(AutoAccept{}, 0, nil)
	ok, err := c.Offer(context.Background(), window, nil)
	if err != nil || !ok {
		t.Fatalf("Offer = %v, %v", ok, err)
	}
}

func TestTerminalConfirm(t *testing.T) {
	term := &Terminal{ask: func(p survey.Prompt, response any) error {
		*(response.(*bool)) = true
		return nil
	}}
	ok, err := term.Confirm(context.Background(), Request{Heading: "Skip Intro", Window: window})
	if err != nil || !ok {
		t.Fatalf("Confirm = %v, %v", ok, err)
	}

	term.ask = func(survey.Prompt, any) error { return terminal.InterruptErr }
	ok, err = term.Confirm(context.Background(), Request{Window: window})
	if err != nil || ok {
		t.Fatalf("interrupt should decline, got %v, %v", ok, err)
	}
}

// lineReader stands in for stdin: each ask blocks until a line is sent.
type lineReader struct {
	lines   chan string
	started chan struct{}
	active  atomic.Int32
	peak    atomic.Int32
}

func newLineReader() *lineReader {
	return &lineReader{lines: make(chan string), started: make(chan struct{}, 4)}
}

func (r *lineReader) ask(_ survey.Prompt, response any) error {
	n := r.active.Add(1)
	defer r.active.Add(-1)
	for {
		p := r.peak.Load()
		if n <= p || r.peak.CompareAndSwap(p, n) {
			break
		}
	}
	r.started <- struct{}{}
	*(response.(*bool)) = <-r.lines == "yes"
	return nil
}

func waitTerminal(t *testing.T, term *Terminal, what string, cond func(*Terminal) bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		term.mu.Lock()
		ok := cond(term)
		term.mu.Unlock()
		if ok {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestTerminalCancelledPromptHandsReadToNextPrompt(t *testing.T) {
	stdin := newLineReader()
	term := &Terminal{ask: stdin.ask}

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := term.Confirm(ctx, Request{Window: window})
		first <- err
	}()
	<-stdin.started
	cancel()
	if err := <-first; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled Confirm = %v", err)
	}

	type result struct {
		ok  bool
		err error
	}
	second := make(chan result, 1)
	go func() {
		ok, err := term.Confirm(context.Background(), Request{Window: window})
		second <- result{ok, err}
	}()
	waitTerminal(t, term, "second prompt", func(tm *Terminal) bool { return tm.waiter != nil })
	stdin.lines <- "yes"

	select {
	case r := <-second:
		if r.err != nil || !r.ok {
			t.Fatalf("second Confirm = %v, %v", r.ok, r.err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("answer never reached the waiting prompt")
	}
	if peak := stdin.peak.Load(); peak != 1 {
		t.Fatalf("stdin had %d concurrent readers", peak)
	}
	select {
	case <-stdin.started:
		t.Fatal("second prompt started its own read")
	default:
	}
}

func TestTerminalDropsAnswerForCancelledPrompt(t *testing.T) {
	stdin := newLineReader()
	term := &Terminal{ask: stdin.ask}

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _, _ = term.Confirm(ctx, Request{Window: window}) }()
	<-stdin.started
	cancel()
	waitTerminal(t, term, "cancelled prompt", func(tm *Terminal) bool { return tm.waiter == nil })
	stdin.lines <- "yes"
	waitTerminal(t, term, "stale read", func(tm *Terminal) bool { return !tm.reading })

	done := make(chan bool, 1)
	go func() {
		ok, _ := term.Confirm(context.Background(), Request{Window: window})
		done <- ok
	}()
	<-stdin.started
	stdin.lines <- "no"
	if ok := <-done; ok {
		t.Fatal("stale yes leaked into the next prompt")
	}
}
