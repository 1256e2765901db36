package session

import (
	"skipintro/internal/identify"
	"skipintro/internal/skipwindow"
)

// Event is an input to Machine.Step.
type Event interface {
	eventName() string
}

// PlaybackStarted is sent when the player opens a new file.
type PlaybackStarted struct {
	File string
}

// AVStarted is sent once audio and video are flowing for the file.
type AVStarted struct{}

// Detected carries the outcome of background detection. Resolution is nil
// when no static rule produced a window. Err is set when identification
// failed.
type Detected struct {
	SessionID  string
	Episode    *identify.Episode
	ShowID     int64
	Resolution *skipwindow.Resolution
	Err        error
}

// Tick reports the playback position in seconds.
type Tick struct {
	Time float64
}

// PromptAnswered carries the viewer's answer to a skip prompt.
type PromptAnswered struct {
	SessionID string
	Accepted  bool
}

// PlaybackStopped is sent when the viewer stops playback.
type PlaybackStopped struct{}

// PlaybackEnded is sent when the file plays to the end.
type PlaybackEnded struct{}

func (PlaybackStarted) eventName() string { return "playback_started" }
func (AVStarted) eventName() string       { return "av_started" }
func (Detected) eventName() string        { return "detected" }
func (Tick) eventName() string            { return "tick" }
func (PromptAnswered) eventName() string  { return "prompt_answered" }
func (PlaybackStopped) eventName() string { return "playback_stopped" }
func (PlaybackEnded) eventName() string   { return "playback_ended" }
