package session

import (
	"skipintro/internal/episodes"
	"skipintro/internal/identify"
	"skipintro/internal/skipwindow"
)

// Action is a side effect requested by Machine.Step.
type Action interface {
	actionName() string
}

// StartDetection starts identification and the static rules for File.
type StartDetection struct {
	SessionID string
	File      string
}

// CancelDetection abandons detection for a session.
type CancelDetection struct {
	SessionID string
}

// ShowPrompt offers the viewer a skip of Window.
type ShowPrompt struct {
	SessionID string
	Window    skipwindow.Window
}

// ClosePrompt dismisses any open prompt of a session.
type ClosePrompt struct {
	SessionID string
}

// Seek jumps playback to To seconds.
type Seek struct {
	To float64
}

// SaveTimes persists resolved times for an episode.
type SaveTimes struct {
	ShowID  int64
	Episode identify.Episode
	Times   episodes.Times
	Source  episodes.TimeSource
	Rule    skipwindow.Rule
}

func (StartDetection) actionName() string  { return "start_detection" }
func (CancelDetection) actionName() string { return "cancel_detection" }
func (ShowPrompt) actionName() string      { return "show_prompt" }
func (ClosePrompt) actionName() string     { return "close_prompt" }
func (Seek) actionName() string            { return "seek" }
func (SaveTimes) actionName() string       { return "save_times" }
