package session

import (
	"errors"

	"skipintro/internal/identify"
)

var (
	// ErrNoMetadata reports that the episode could not be identified. Only the
	// default-delay window applies in that case.
	ErrNoMetadata = identify.ErrNoMetadata
	// ErrNotPlaying reports that playback never became active while detection
	// waited for it.
	ErrNotPlaying = errors.New("player is not playing")
)
