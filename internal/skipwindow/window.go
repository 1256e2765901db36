package skipwindow

import (
	"errors"
	"fmt"
)

// Source tells where a window came from.
type Source string

const (
	SourceChapters  Source = "chapters"
	SourceSavedTime Source = "saved_time"
	SourceDefault   Source = "default"
	// SourceNone marks saved data that explicitly asks for no skip. It stops
	// rule evaluation, including the default fallback.
	SourceNone Source = "none"
)

// ErrInvalidStoredWindow reports saved data that cannot form a window.
var ErrInvalidStoredWindow = errors.New("invalid stored skip window")

// Window is a skippable range in seconds. End is the seek target.
type Window struct {
	Start      float64
	End        float64
	OutroStart *float64
	Source     Source
}

// Skippable reports whether the window should drive a prompt.
func (w Window) Skippable() bool {
	return w.Source != SourceNone
}

// Contains reports whether t falls inside [Start, End).
func (w Window) Contains(t float64) bool {
	return w.Skippable() && w.Start <= t && t < w.End
}

// Duration returns End - Start.
func (w Window) Duration() float64 {
	return w.End - w.Start
}

// Validate enforces End > Start >= 0 and a non-negative outro.
func (w Window) Validate() error {
	if w.Source == SourceNone {
		return nil
	}
	if w.Start < 0 {
		return fmt.Errorf("%w: start %v is negative", ErrInvalidStoredWindow, w.Start)
	}
	if w.End <= w.Start {
		return fmt.Errorf("%w: end %v not after start %v", ErrInvalidStoredWindow, w.End, w.Start)
	}
	if w.OutroStart != nil && *w.OutroStart < 0 {
		return fmt.Errorf("%w: outro %v is negative", ErrInvalidStoredWindow, *w.OutroStart)
	}
	return nil
}

func (w Window) String() string {
	if w.Source == SourceNone {
		return "none"
	}
	s := fmt.Sprintf("%.3f-%.3f (%s)", w.Start, w.End, w.Source)
	if w.OutroStart != nil {
		s += fmt.Sprintf(" outro=%.3f", *w.OutroStart)
	}
	return s
}
