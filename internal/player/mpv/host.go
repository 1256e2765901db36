package mpv

import (
	"context"
	"fmt"
	"strconv"

	"skipintro/internal/player"
)

var _ player.Host = (*Client)(nil)

// IsPlaying reports whether a file is loaded. A paused file counts as
// playing.
func (c *Client) IsPlaying(ctx context.Context) (bool, error) {
	var idle bool
	if err := c.GetProperty(ctx, "idle-active", &idle); err != nil {
		return false, err
	}
	return !idle, nil
}

// PlayingFile returns the path mpv was given for the current file.
func (c *Client) PlayingFile(ctx context.Context) (string, error) {
	var path string
	if err := c.GetProperty(ctx, "path", &path); err != nil {
		return "", err
	}
	return path, nil
}

// Time returns the playback position in seconds.
func (c *Client) Time(ctx context.Context) (float64, error) {
	var pos float64
	if err := c.GetProperty(ctx, "time-pos", &pos); err != nil {
		return 0, err
	}
	return pos, nil
}

// Seek jumps to an absolute position.
func (c *Client) Seek(ctx context.Context, seconds float64) error {
	if _, err := c.Command(ctx, "seek", seconds, "absolute"); err != nil {
		return fmt.Errorf("seek to %.3f: %w", seconds, err)
	}
	return nil
}

// Metadata returns the file's tags with values rendered as strings.
func (c *Client) Metadata(ctx context.Context) (map[string]string, error) {
	var raw map[string]any
	if err := c.GetProperty(ctx, "metadata", &raw); err != nil {
		return nil, err
	}
	tags := make(map[string]string, len(raw))
	for k, v := range raw {
		switch value := v.(type) {
		case string:
			tags[k] = value
		case float64:
			tags[k] = strconv.FormatFloat(value, 'f', -1, 64)
		case bool:
			tags[k] = strconv.FormatBool(value)
		}
	}
	return tags, nil
}

// ShowText displays text on the OSD for d milliseconds.
func (c *Client) ShowText(ctx context.Context, text string, durationMS int) error {
	_, err := c.Command(ctx, "show-text", text, durationMS)
	return err
}
