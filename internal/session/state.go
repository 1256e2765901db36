package session

import (
	"fmt"

	"skipintro/internal/identify"
	"skipintro/internal/skipwindow"
)

// Phase is where a session is in its lifecycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDetecting
	PhaseResolved
	PhasePrompting
	PhaseConsumed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDetecting:
		return "detecting"
	case PhaseResolved:
		return "resolved"
	case PhasePrompting:
		return "prompting"
	case PhaseConsumed:
		return "consumed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is the snapshot of the current playback session. The zero value is
// an idle player with nothing loaded.
type State struct {
	Phase     Phase
	SessionID string
	File      string
	Episode   *identify.Episode
	// ShowID is zero when the store could not be reached.
	ShowID int64
	Window *skipwindow.Window
	Rule   skipwindow.Rule

	BookmarksChecked   bool
	DefaultSkipChecked bool
	PromptShown        bool
}

// Active reports whether a file is loaded.
func (s State) Active() bool {
	return s.SessionID != ""
}
