// Package player describes the media player the watcher drives.
package player

import (
	"context"
	"fmt"
)

// Host is the playing media player.
type Host interface {
	IsPlaying(ctx context.Context) (bool, error)
	PlayingFile(ctx context.Context) (string, error)
	// Time returns the playback position in seconds.
	Time(ctx context.Context) (float64, error)
	// Seek jumps to an absolute position in seconds.
	Seek(ctx context.Context, seconds float64) error
	// Metadata returns the container tags of the playing file.
	Metadata(ctx context.Context) (map[string]string, error)
}

// EventKind classifies player notifications.
type EventKind int

const (
	EventStarted EventKind = iota + 1
	EventAVStarted
	EventTime
	EventStopped
	EventEnded
	EventClientMessage
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventAVStarted:
		return "av_started"
	case EventTime:
		return "time"
	case EventStopped:
		return "stopped"
	case EventEnded:
		return "ended"
	case EventClientMessage:
		return "client_message"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is one notification from the player. Time is set for EventTime and
// Args for EventClientMessage.
type Event struct {
	Kind EventKind
	Time float64
	Args []string
}
